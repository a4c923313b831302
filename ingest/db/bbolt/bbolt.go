package ingestbbolt

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	core "github.com/chainindex/indexer-infrastructure/ingest"
)

type BBoltDatabase struct {
	db *bbolt.DB
}

var (
	acceptedPointBucket     = []byte("AcceptedPoint")
	irreversiblePointBucket = []byte("IrreversiblePoint")

	defaultKey = []byte("default")
)

var _ core.Database = (*BBoltDatabase)(nil)

func (bd *BBoltDatabase) Init(filePath string) error {
	db, err := bbolt.Open(filePath, 0600, nil)
	if err != nil {
		return fmt.Errorf("could not open db: %w", err)
	}

	bd.db = db

	return db.Update(func(tx *bbolt.Tx) error {
		for _, bn := range [][]byte{acceptedPointBucket, irreversiblePointBucket} {
			_, err := tx.CreateBucketIfNotExists(bn)
			if err != nil {
				return fmt.Errorf("could not create bucket: %s, err: %w", string(bn), err)
			}
		}

		return nil
	})
}

func (bd *BBoltDatabase) Close() error {
	return bd.db.Close()
}

func (bd *BBoltDatabase) GetAcceptedPoint() (*core.ProgressPoint, error) {
	return bd.getPoint(acceptedPointBucket)
}

func (bd *BBoltDatabase) GetIrreversiblePoint() (*core.ProgressPoint, error) {
	return bd.getPoint(irreversiblePointBucket)
}

func (bd *BBoltDatabase) OpenTx() core.DBTransactionWriter {
	return &BBoltTransactionWriter{
		db: bd.db,
	}
}

func (bd *BBoltDatabase) getPoint(bucket []byte) (*core.ProgressPoint, error) {
	var result *core.ProgressPoint

	if err := bd.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucket).Get(defaultKey); len(data) > 0 {
			return json.Unmarshal(data, &result)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}
