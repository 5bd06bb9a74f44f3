// Package net implements the transports oracles broadcast their messages
// through.
//
// Oracle messages are never addressed to a single peer: every message is
// published to all the other oracles, and each oracle pulls the messages it
// received in batch, once per step. Both transports buffer incoming messages
// in an inbox until they are pulled.
//
// - Inmem: in-memory transport used for testing and simulations. Transports are
// connected to one another explicitly.
//
// - WAMP: publishes messages to a topic of a WAMP router and subscribes to that
// same topic. The router can be run by any oracle with the router command, or
// embedded (see the wamp subpackage). WAMP routers do not deliver a
// publication back to its publisher.
package net
