package common

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// EncodeCanonical returns the canonical JSON encoding of v. Map keys are
// sorted, so two oracles encoding equal values produce identical bytes, which
// is what signatures are computed over.
func EncodeCanonical(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// DecodeCanonical decodes data produced by EncodeCanonical into v.
func DecodeCanonical(data []byte, v interface{}) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(v)
}
