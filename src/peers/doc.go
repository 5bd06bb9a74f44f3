// Package peers defines the designated oracles of the network.
//
// An oracle is identified by its public key, in the same uppercase 0X-prefixed
// hexadecimal form that oracles derive from their private key and sign with,
// and optionally a moniker which is a non-unique user-friendly name. The
// network address is informative; oracles reach each other through the
// broadcast transport, not point to point.
//
// Upon starting up, an oracle expects to find a peers.json file in its data
// directory. It lists every designated oracle, including the local one. Only
// messages signed by the oracles of that list are accepted, and only an oracle
// of that list is eligible to take part in consensus.
package peers
