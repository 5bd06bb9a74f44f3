package consensus

import (
	"sort"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/signer"
)

// Score is the availability of a node over one epoch.
type Score uint8

const (
	// NeverSeen means the node was not seen at all during the epoch.
	NeverSeen Score = 0
	// PotentiallyFullyOnline tolerates a blind spot of up to two minutes on
	// either side of the epoch.
	PotentiallyFullyOnline Score = 254
	// FullyOnline means the node was seen for the whole epoch.
	FullyOnline Score = 255
)

// LocalTable is one oracle's view of the availability of every node.
type LocalTable map[string]Score

// MedianEntry is the signed median of the values an oracle received for one
// node.
type MedianEntry struct {
	Node      string
	Epoch     uint64
	Value     Score
	Signature signer.Signature
}

type medianEntryBody struct {
	Node  string
	Epoch uint64
	Value Score
}

// SigningBytes implements signer.Payload.
func (e *MedianEntry) SigningBytes() ([]byte, error) {
	return common.EncodeCanonical(medianEntryBody{
		Node:  e.Node,
		Epoch: e.Epoch,
		Value: e.Value,
	})
}

// GetSignature implements signer.Payload.
func (e *MedianEntry) GetSignature() signer.Signature {
	return e.Signature
}

// SetSignature implements signer.Payload.
func (e *MedianEntry) SetSignature(s signer.Signature) {
	e.Signature = s
}

// MedianTable maps node addresses to signed medians.
type MedianTable map[string]*MedianEntry

// AgreedEntry is the consensus value for one node along with the signed
// medians, from distinct oracles, that carry that same value.
type AgreedEntry struct {
	Value      Score
	Signatures []*MedianEntry
}

// AgreedTable is the canonical per-epoch output.
type AgreedTable map[string]*AgreedEntry

// Values strips the proofs.
func (t AgreedTable) Values() map[string]Score {
	res := make(map[string]Score, len(t))
	for node, entry := range t {
		if entry != nil {
			res[node] = entry.Value
		}
	}
	return res
}

// Nodes returns the sorted node addresses of the table.
func (t AgreedTable) Nodes() []string {
	return sortedKeys(t)
}

// SameValues reports whether two tables agree on every node's value.
func SameValues(a, b AgreedTable) bool {
	va, vb := a.Values(), b.Values()
	if len(va) != len(vb) {
		return false
	}
	for node, v := range va {
		if w, ok := vb[node]; !ok || w != v {
			return false
		}
	}
	return true
}

// Marshal ...
func (t AgreedTable) Marshal() ([]byte, error) {
	return common.EncodeCanonical(t)
}

// Unmarshal ...
func (t *AgreedTable) Unmarshal(data []byte) error {
	return common.DecodeCanonical(data, t)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
