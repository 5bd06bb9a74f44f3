package oracle

import (
	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/signer"
)

// EpochSource numbers epochs, scores nodes and stores the agreed tables. It is
// implemented by epoch.Manager.
type EpochSource interface {
	CurrentEpoch() uint64
	LastSyncedEpoch() uint64
	PreviousEpochScore(node string) consensus.Score
	Nodes() []string
	CommitEpoch(epoch uint64, table consensus.AgreedTable) error
	EpochTable(epoch uint64) (consensus.AgreedTable, error)
}

// Signer signs payloads in place and verifies payloads signed by any oracle.
// It is implemented by signer.ECDSASigner.
type Signer interface {
	Address() string
	Sign(p signer.Payload) error
	Verify(p signer.Payload) error
}

// Transport broadcasts to every other oracle. Received returns the messages
// delivered since the previous call; an oracle never receives its own
// broadcasts.
type Transport interface {
	Broadcast(data []byte) error
	Received() [][]byte
}

// OracleSet is the set of designated oracles. It is implemented by
// peers.PeerSet.
type OracleSet interface {
	Contains(address string) bool
	Len() int
}
