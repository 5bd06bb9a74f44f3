// Package node implements the host of an oracle.
//
// The oracle protocol never blocks and never schedules itself: it advances one
// step each time its host calls Step. Node is that host. A ControlTimer ticks
// at a fixed interval, and every tick steps the oracle once. Steps and reads of
// the oracle's state are serialized by the node, so the service can report
// stats while the protocol runs.
//
// An error returned by Step is unrecoverable; the most common one is a failure
// to reach a majority on the agreed value of a node, which means the oracle
// network is compromised or too small. The node then stops in the Failed state
// and Run returns the error to the caller, which decides what to do.
package node
