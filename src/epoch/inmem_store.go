package epoch

import (
	"strconv"
	"sync"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
)

// InmemStore keeps agreed tables in memory.
type InmemStore struct {
	sync.RWMutex
	cursor uint64
	tables map[uint64]consensus.AgreedTable
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		tables: make(map[uint64]consensus.AgreedTable),
	}
}

// LastSyncedEpoch implements Store.
func (s *InmemStore) LastSyncedEpoch() uint64 {
	s.RLock()
	defer s.RUnlock()
	return s.cursor
}

// CommitEpoch implements Store.
func (s *InmemStore) CommitEpoch(epoch uint64, table consensus.AgreedTable) error {
	s.Lock()
	defer s.Unlock()

	if err := checkNext(s.cursor, epoch); err != nil {
		return err
	}

	s.tables[epoch] = table
	s.cursor = epoch

	return nil
}

// EpochTable implements Store.
func (s *InmemStore) EpochTable(epoch uint64) (consensus.AgreedTable, error) {
	s.RLock()
	defer s.RUnlock()

	table, ok := s.tables[epoch]
	if !ok {
		return nil, common.NewStoreErr("AgreedTable", common.KeyNotFound, strconv.FormatUint(epoch, 10))
	}
	return table, nil
}

// Close implements Store.
func (s *InmemStore) Close() error {
	return nil
}
