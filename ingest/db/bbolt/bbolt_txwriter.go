package ingestbbolt

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	core "github.com/chainindex/indexer-infrastructure/ingest"
)

type txOperation func(tx *bbolt.Tx) error

type BBoltTransactionWriter struct {
	db         *bbolt.DB
	operations []txOperation
}

var _ core.DBTransactionWriter = (*BBoltTransactionWriter)(nil)

func (tw *BBoltTransactionWriter) SetAcceptedPoint(point *core.ProgressPoint) core.DBTransactionWriter {
	return tw.setPoint(acceptedPointBucket, point)
}

func (tw *BBoltTransactionWriter) SetIrreversiblePoint(point *core.ProgressPoint) core.DBTransactionWriter {
	return tw.setPoint(irreversiblePointBucket, point)
}

func (tw *BBoltTransactionWriter) setPoint(bucket []byte, point *core.ProgressPoint) core.DBTransactionWriter {
	tw.operations = append(tw.operations, func(tx *bbolt.Tx) error {
		bytes, err := json.Marshal(point)
		if err != nil {
			return fmt.Errorf("could not marshal progress point: %w", err)
		}

		if err = tx.Bucket(bucket).Put(defaultKey, bytes); err != nil {
			return fmt.Errorf("progress point write error: %w", err)
		}

		return nil
	})

	return tw
}

func (tw *BBoltTransactionWriter) Execute() error {
	defer func() {
		tw.operations = nil
	}()

	return tw.db.Update(func(tx *bbolt.Tx) error {
		for _, op := range tw.operations {
			if err := op(tx); err != nil {
				return err
			}
		}

		return nil
	})
}
