package peers

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/crypto/keys"
)

// Peer is a designated oracle.
type Peer struct {
	NetAddr   string
	PubKeyHex string
	Moniker   string
}

// NewPeer ...
func NewPeer(pubKeyHex, netAddr, moniker string) *Peer {
	return &Peer{
		PubKeyHex: pubKeyHex,
		NetAddr:   netAddr,
		Moniker:   moniker,
	}
}

// PubKeyString returns the upper-case version of PubKeyHex. It is used for
// indexing in maps with string keys.
func (p *Peer) PubKeyString() string {
	return normalize(p.PubKeyHex)
}

// PubKeyBytes ...
func (p *Peer) PubKeyBytes() ([]byte, error) {
	return common.DecodeFromString(p.PubKeyHex)
}

// PublicKey parses the peer's key.
func (p *Peer) PublicKey() (*ecdsa.PublicKey, error) {
	b, err := p.PubKeyBytes()
	if err != nil {
		return nil, err
	}
	pub := keys.ToPublicKey(b)
	if pub == nil {
		return nil, fmt.Errorf("invalid public key %s", p.PubKeyHex)
	}
	return pub, nil
}

// ExcludePeer is used to exclude a single peer from a list of peers.
func ExcludePeer(peers []*Peer, pubKey string) (int, []*Peer) {
	index := -1
	otherPeers := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if p.PubKeyString() != normalize(pubKey) {
			otherPeers = append(otherPeers, p)
		} else {
			index = i
		}
	}
	return index, otherPeers
}
