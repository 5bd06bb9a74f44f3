package peers

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/crypto"
)

//PeerSet is the set of designated oracles
type PeerSet struct {
	Peers    []*Peer          `json:"peers"`
	ByPubKey map[string]*Peer `json:"-"`

	//cached values
	hex string
}

/* Constructors */

//NewPeerSet creates a new PeerSet from a list of Peers. Duplicate keys are
//kept once.
func NewPeerSet(peers []*Peer) *PeerSet {
	peerSet := &PeerSet{
		ByPubKey: make(map[string]*Peer),
	}

	for _, peer := range peers {
		if _, ok := peerSet.ByPubKey[peer.PubKeyString()]; ok {
			continue
		}
		peerSet.ByPubKey[peer.PubKeyString()] = peer
		peerSet.Peers = append(peerSet.Peers, peer)
	}

	return peerSet
}

//NewPeerSetFromPeerSliceBytes creates a new PeerSet from a peerSlice in Bytes format
func NewPeerSetFromPeerSliceBytes(peerSliceBytes []byte) (*PeerSet, error) {
	peers := []*Peer{}

	dec := json.NewDecoder(bytes.NewBuffer(peerSliceBytes))
	if err := dec.Decode(&peers); err != nil {
		return nil, err
	}

	return NewPeerSet(peers), nil
}

//WithNewPeer returns a new PeerSet with a list of peers including the new one.
func (peerSet *PeerSet) WithNewPeer(peer *Peer) *PeerSet {
	peers := append([]*Peer(nil), peerSet.Peers...)
	return NewPeerSet(append(peers, peer))
}

//WithRemovedPeer returns a new PeerSet with a list of peers excluding the
//provided one
func (peerSet *PeerSet) WithRemovedPeer(peer *Peer) *PeerSet {
	_, peers := ExcludePeer(peerSet.Peers, peer.PubKeyHex)
	return NewPeerSet(peers)
}

/* ToSlice Methods */

//PubKeys returns the PeerSet's slice of public keys
func (peerSet *PeerSet) PubKeys() []string {
	res := []string{}

	for _, peer := range peerSet.Peers {
		res = append(res, peer.PubKeyString())
	}

	return res
}

/* Utilities */

//Len returns the number of Peers in the PeerSet
func (peerSet *PeerSet) Len() int {
	return len(peerSet.ByPubKey)
}

// Contains reports whether the public key belongs to a designated oracle.
func (peerSet *PeerSet) Contains(pubKeyHex string) bool {
	_, ok := peerSet.ByPubKey[normalize(pubKeyHex)]
	return ok
}

// Moniker returns the moniker of an oracle, or an empty string.
func (peerSet *PeerSet) Moniker(pubKeyHex string) string {
	if p, ok := peerSet.ByPubKey[normalize(pubKeyHex)]; ok {
		return p.Moniker
	}
	return ""
}

// Hex identifies the PeerSet. It is the SHA256 of the public keys in order.
// Oracles log it at startup so that operators can check they share the same
// peers file.
func (peerSet *PeerSet) Hex() string {
	if len(peerSet.hex) == 0 {
		peerSet.hex = common.EncodeToString(crypto.SHA256([]byte(strings.Join(peerSet.PubKeys(), ","))))
	}
	return peerSet.hex
}

//Marshal marshals the peerset
func (peerSet *PeerSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(peerSet.Peers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// normalize standardises a public key string to match the format oracles
// derive from a private key.
func normalize(pubKeyHex string) string {
	return "0X" + strings.TrimPrefix(strings.ToUpper(pubKeyHex), "0X")
}
