package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/crypto"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/crypto/keys"
)

// ErrUnsigned is returned by Verify when a payload carries no signature.
var ErrUnsigned = errors.New("payload is not signed")

// Signature is attached to every signed payload.
type Signature struct {
	Signer string
	Value  string
}

// IsZero reports whether the signature is absent.
func (s Signature) IsZero() bool {
	return s.Signer == "" && s.Value == ""
}

// Payload is anything that can be signed in place.
type Payload interface {
	// SigningBytes returns the bytes covered by the signature. They must not
	// depend on the signature itself.
	SigningBytes() ([]byte, error)
	GetSignature() Signature
	SetSignature(Signature)
}

// ECDSASigner signs payloads with a private key and verifies payloads signed
// by anyone.
type ECDSASigner struct {
	key     *ecdsa.PrivateKey
	address string
}

// NewECDSASigner ...
func NewECDSASigner(key *ecdsa.PrivateKey) *ECDSASigner {
	return &ECDSASigner{
		key:     key,
		address: keys.PublicKeyHex(&key.PublicKey),
	}
}

// Address returns the hex public key of the signer.
func (s *ECDSASigner) Address() string {
	return s.address
}

// Sign augments the payload with a signature.
func (s *ECDSASigner) Sign(p Payload) error {
	data, err := p.SigningBytes()
	if err != nil {
		return err
	}

	r, ss, err := keys.Sign(s.key, crypto.SHA256(data))
	if err != nil {
		return err
	}

	p.SetSignature(Signature{
		Signer: s.address,
		Value:  keys.EncodeSignature(r, ss),
	})

	return nil
}

// Verify checks the payload's signature against the public key of the signer
// it names. A nil error means the signature is valid.
func (s *ECDSASigner) Verify(p Payload) error {
	return Verify(p)
}

// Verify checks a payload's signature without a signer instance.
func Verify(p Payload) error {
	sig := p.GetSignature()
	if sig.IsZero() {
		return ErrUnsigned
	}

	pub, err := keys.PublicKeyFromHex(sig.Signer)
	if err != nil {
		return fmt.Errorf("bad signer address: %v", err)
	}

	r, ss, err := keys.DecodeSignature(sig.Value)
	if err != nil {
		return err
	}

	data, err := p.SigningBytes()
	if err != nil {
		return err
	}

	if !keys.Verify(pub, crypto.SHA256(data), r, ss) {
		return fmt.Errorf("invalid signature from %s", sig.Signer)
	}

	return nil
}
