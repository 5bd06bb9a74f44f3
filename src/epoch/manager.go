package epoch

import (
	"sort"
	"sync"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/sirupsen/logrus"
)

// Manager is the Epoch Source of an oracle. The host records scores as epochs
// end; the oracle reads them back to build its LocalTable and commits agreed
// tables through it.
type Manager struct {
	sync.RWMutex

	clock Clock
	store Store

	// nodes lists every node ever scored, in registration order.
	nodes []string
	known map[string]struct{}

	// scores[epoch][node]
	scores map[uint64]map[string]consensus.Score

	// keep bounds the number of epochs of scores held in memory.
	keep int

	logger *logrus.Entry
}

// NewManager ...
func NewManager(clock Clock, store Store, logger *logrus.Entry) *Manager {
	return &Manager{
		clock:  clock,
		store:  store,
		known:  make(map[string]struct{}),
		scores: make(map[uint64]map[string]consensus.Score),
		keep:   16,
		logger: logger,
	}
}

// CurrentEpoch ...
func (m *Manager) CurrentEpoch() uint64 {
	return m.clock.Epoch()
}

// LastSyncedEpoch ...
func (m *Manager) LastSyncedEpoch() uint64 {
	return m.store.LastSyncedEpoch()
}

// AddNode registers a node without scoring it.
func (m *Manager) AddNode(node string) {
	m.Lock()
	defer m.Unlock()
	m.addNode(node)
}

func (m *Manager) addNode(node string) {
	if _, ok := m.known[node]; ok {
		return
	}
	m.known[node] = struct{}{}
	m.nodes = append(m.nodes, node)
}

// Nodes returns every known node.
func (m *Manager) Nodes() []string {
	m.RLock()
	defer m.RUnlock()
	return append([]string(nil), m.nodes...)
}

// RecordScores stores the availability of nodes over an epoch. Scores of
// nodes already recorded for that epoch are overwritten. New nodes are
// registered in sorted order within one call.
func (m *Manager) RecordScores(epoch uint64, scores map[string]consensus.Score) {
	m.Lock()
	defer m.Unlock()

	table, ok := m.scores[epoch]
	if !ok {
		table = make(map[string]consensus.Score)
		m.scores[epoch] = table
	}

	// nodes first seen together are registered in address order
	nodes := make([]string, 0, len(scores))
	for node := range scores {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	for _, node := range nodes {
		m.addNode(node)
		table[node] = scores[node]
	}

	m.prune()

	m.logger.WithFields(logrus.Fields{
		"epoch": epoch,
		"nodes": len(scores),
	}).Debug("Recorded scores")
}

// prune drops the oldest epochs beyond keep.
func (m *Manager) prune() {
	if len(m.scores) <= m.keep {
		return
	}
	epochs := make([]uint64, 0, len(m.scores))
	for e := range m.scores {
		epochs = append(epochs, e)
	}
	sort.Slice(epochs, func(i, j int) bool { return epochs[i] < epochs[j] })
	for _, e := range epochs[:len(epochs)-m.keep] {
		delete(m.scores, e)
	}
}

// PreviousEpochScore returns the score of a node for the epoch before the
// current one. Unscored nodes were never seen.
func (m *Manager) PreviousEpochScore(node string) consensus.Score {
	current := m.CurrentEpoch()
	if current == 0 {
		return consensus.NeverSeen
	}

	m.RLock()
	defer m.RUnlock()

	return m.scores[current-1][node]
}

// CommitEpoch ...
func (m *Manager) CommitEpoch(epoch uint64, table consensus.AgreedTable) error {
	if err := m.store.CommitEpoch(epoch, table); err != nil {
		return err
	}

	m.logger.WithFields(logrus.Fields{
		"epoch": epoch,
		"nodes": len(table),
	}).Info("Committed agreed table")

	return nil
}

// EpochTable ...
func (m *Manager) EpochTable(epoch uint64) (consensus.AgreedTable, error) {
	return m.store.EpochTable(epoch)
}

// Close ...
func (m *Manager) Close() error {
	return m.store.Close()
}
