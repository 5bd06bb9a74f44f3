// Package wamp runs a WAMP router that relays the publications of oracles.
//
// Oracles connect to the router with a websocket and publish their messages to
// a topic of a realm; the router forwards every publication to the other
// subscribers of the topic. If a certificate and a key are provided, the
// router listens with TLS (wss://), otherwise with plain websockets (ws://).
package wamp
