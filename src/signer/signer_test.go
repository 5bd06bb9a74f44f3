package signer

import (
	"testing"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/crypto/keys"
)

type note struct {
	Text string
	sig  Signature
}

func (n *note) SigningBytes() ([]byte, error) { return []byte(n.Text), nil }
func (n *note) GetSignature() Signature       { return n.sig }
func (n *note) SetSignature(s Signature)      { n.sig = s }

func newSigner(t *testing.T) *ECDSASigner {
	key, err := keys.GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}
	return NewECDSASigner(key)
}

func TestSignVerify(t *testing.T) {
	s := newSigner(t)

	n := &note{Text: "epoch 12"}
	if err := s.Sign(n); err != nil {
		t.Fatal(err)
	}
	if n.sig.Signer != s.Address() {
		t.Fatalf("signer should be %s, got %s", s.Address(), n.sig.Signer)
	}
	if err := s.Verify(n); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	// any other signer can verify too
	if err := newSigner(t).Verify(n); err != nil {
		t.Fatalf("valid signature rejected by other oracle: %v", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	s := newSigner(t)

	n := &note{Text: "value 255"}
	s.Sign(n)
	n.Text = "value 0"

	if err := Verify(n); err == nil {
		t.Fatalf("tampered payload should not verify")
	}
}

func TestVerifyImpersonation(t *testing.T) {
	s := newSigner(t)
	other := newSigner(t)

	n := &note{Text: "value 255"}
	s.Sign(n)
	sig := n.sig
	sig.Signer = other.Address()
	n.SetSignature(sig)

	if err := Verify(n); err == nil {
		t.Fatalf("signature claimed by another oracle should not verify")
	}
}

func TestVerifyUnsigned(t *testing.T) {
	if err := Verify(&note{Text: "x"}); err != ErrUnsigned {
		t.Fatalf("expected ErrUnsigned, got %v", err)
	}
}
