// Package signer implements the Signature Gateway used by oracles.
//
// Any value that implements Payload can be signed and verified. The bytes that
// are signed are produced by the payload itself (usually a canonical encoding
// that excludes the signature), hashed with SHA256, and signed with the
// oracle's secp256k1 key. The signature records the signer's address, which is
// the hexadecimal form of its public key, so that any receiver can verify a
// payload without a key directory.
package signer
