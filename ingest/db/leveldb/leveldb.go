package ingestleveldb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	core "github.com/chainindex/indexer-infrastructure/ingest"
)

type LevelDBDatabase struct {
	db *leveldb.DB
}

var (
	acceptedPointKey     = []byte("P1_accepted")
	irreversiblePointKey = []byte("P2_irreversible")
)

var _ core.Database = (*LevelDBDatabase)(nil)

func (lvldb *LevelDBDatabase) Init(filePath string) error {
	db, err := leveldb.OpenFile(filePath, nil)
	if err != nil {
		return fmt.Errorf("could not open db: %w", err)
	}

	lvldb.db = db

	return nil
}

func (lvldb *LevelDBDatabase) Close() error {
	return lvldb.db.Close()
}

func (lvldb *LevelDBDatabase) GetAcceptedPoint() (*core.ProgressPoint, error) {
	return lvldb.getPoint(acceptedPointKey)
}

func (lvldb *LevelDBDatabase) GetIrreversiblePoint() (*core.ProgressPoint, error) {
	return lvldb.getPoint(irreversiblePointKey)
}

func (lvldb *LevelDBDatabase) OpenTx() core.DBTransactionWriter {
	return NewLevelDBTransactionWriter(lvldb.db)
}

func (lvldb *LevelDBDatabase) getPoint(key []byte) (*core.ProgressPoint, error) {
	bytes, err := lvldb.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	var result *core.ProgressPoint

	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}

	return result, nil
}
