package epoch

import (
	"strconv"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
)

// Store persists agreed tables and the sync cursor.
type Store interface {
	LastSyncedEpoch() uint64
	CommitEpoch(epoch uint64, table consensus.AgreedTable) error
	EpochTable(epoch uint64) (consensus.AgreedTable, error)
	Close() error
}

// checkNext enforces that epoch directly follows the cursor.
func checkNext(cursor, epoch uint64) error {
	key := strconv.FormatUint(epoch, 10)
	switch {
	case epoch <= cursor:
		return common.NewStoreErr("AgreedTable", common.TooLate, key)
	case epoch > cursor+1:
		return common.NewStoreErr("AgreedTable", common.SkippedIndex, key)
	}
	return nil
}
