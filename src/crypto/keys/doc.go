// Package keys implements the public key cryptography used by oracles.
//
// Every oracle owns a cryptographic key-pair that it uses to sign the tables it
// broadcasts. The public key, in its uncompressed hexadecimal form, doubles as
// the oracle's address: other oracles use it to verify the signatures attached
// to LocalTables, MedianEntries and whole message envelopes.
//
// Keys use elliptic curve cryptography (ECDSA) with the secp256k1 curve.
package keys
