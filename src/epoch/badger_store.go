package epoch

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"
)

const (
	epochPrefix = "epoch"
	cursorKey   = "sync_cursor"
)

// BadgerStore persists agreed tables in a Badger database. The sync cursor is
// written in the same transaction as the table it points to, and cached in
// memory.
type BadgerStore struct {
	sync.Mutex
	db     *badger.DB
	path   string
	cursor uint64
}

// NewBadgerStore opens an existing database or creates a new one if nothing is
// found in path.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithTruncate(true)

	if logger != nil {
		opts = opts.WithLogger(logger.WithField("ns", "badger"))
	} else {
		opts = opts.WithLogger(nil)
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		db:   handle,
		path: path,
	}

	cursor, err := store.dbGetCursor()
	if err != nil {
		handle.Close()
		return nil, err
	}
	store.cursor = cursor

	return store, nil
}

/*******************************************************************************
Keys
*******************************************************************************/

func epochKey(epoch uint64) []byte {
	return []byte(fmt.Sprintf("%s_%020d", epochPrefix, epoch))
}

/*******************************************************************************
Implement the Store interface
*******************************************************************************/

// LastSyncedEpoch implements Store.
func (s *BadgerStore) LastSyncedEpoch() uint64 {
	s.Lock()
	defer s.Unlock()
	return s.cursor
}

// CommitEpoch implements Store.
func (s *BadgerStore) CommitEpoch(epoch uint64, table consensus.AgreedTable) error {
	s.Lock()
	defer s.Unlock()

	if err := checkNext(s.cursor, epoch); err != nil {
		return err
	}

	if err := s.dbCommit(epoch, table); err != nil {
		return err
	}

	s.cursor = epoch

	return nil
}

// EpochTable implements Store.
func (s *BadgerStore) EpochTable(epoch uint64) (consensus.AgreedTable, error) {
	table, err := s.dbGetTable(epoch)
	return table, mapError(err, "AgreedTable", strconv.FormatUint(epoch, 10))
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StorePath returns the full path of the underlying Badger database directory.
func (s *BadgerStore) StorePath() string {
	return s.path
}

/*******************************************************************************
DB Methods
*******************************************************************************/

func (s *BadgerStore) dbGetCursor() (uint64, error) {
	var cursor uint64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cursorKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			cursor, err = strconv.ParseUint(string(val), 10, 64)
			return err
		})
	})

	if err != nil && isDBKeyNotFound(err) {
		return 0, nil
	}

	return cursor, err
}

func (s *BadgerStore) dbCommit(epoch uint64, table consensus.AgreedTable) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	val, err := table.Marshal()
	if err != nil {
		return err
	}

	//insert [epoch] => [agreed table bytes]
	if err := tx.Set(epochKey(epoch), val); err != nil {
		return err
	}

	if err := tx.Set([]byte(cursorKey), []byte(strconv.FormatUint(epoch, 10))); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *BadgerStore) dbGetTable(epoch uint64) (consensus.AgreedTable, error) {
	var tableBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(epochKey(epoch))
		if err != nil {
			return err
		}
		tableBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, err
	}

	var table consensus.AgreedTable
	if err := table.Unmarshal(tableBytes); err != nil {
		return nil, err
	}

	return table, nil
}

func isDBKeyNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}

func mapError(err error, name, key string) error {
	if err != nil {
		if isDBKeyNotFound(err) {
			return common.NewStoreErr(name, common.KeyNotFound, key)
		}
	}
	return err
}
