package ingestleveldb

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	core "github.com/chainindex/indexer-infrastructure/ingest"
)

type txOperation func(*leveldb.DB, *leveldb.Batch) error

type LevelDBTransactionWriter struct {
	db         *leveldb.DB
	operations []txOperation
}

var _ core.DBTransactionWriter = (*LevelDBTransactionWriter)(nil)

func NewLevelDBTransactionWriter(db *leveldb.DB) *LevelDBTransactionWriter {
	return &LevelDBTransactionWriter{
		db: db,
	}
}

func (tw *LevelDBTransactionWriter) SetAcceptedPoint(point *core.ProgressPoint) core.DBTransactionWriter {
	return tw.setPoint(acceptedPointKey, point)
}

func (tw *LevelDBTransactionWriter) SetIrreversiblePoint(point *core.ProgressPoint) core.DBTransactionWriter {
	return tw.setPoint(irreversiblePointKey, point)
}

func (tw *LevelDBTransactionWriter) setPoint(key []byte, point *core.ProgressPoint) core.DBTransactionWriter {
	tw.operations = append(tw.operations, func(db *leveldb.DB, batch *leveldb.Batch) error {
		bytes, err := json.Marshal(point)
		if err != nil {
			return fmt.Errorf("could not marshal progress point: %w", err)
		}

		batch.Put(key, bytes)

		return nil
	})

	return tw
}

func (tw *LevelDBTransactionWriter) Execute() error {
	defer func() {
		tw.operations = nil
	}()

	batch := new(leveldb.Batch)

	for _, op := range tw.operations {
		if err := op(tw.db, batch); err != nil {
			return err
		}
	}

	return tw.db.Write(batch, &opt.WriteOptions{
		NoWriteMerge: false,
		Sync:         true,
	})
}
