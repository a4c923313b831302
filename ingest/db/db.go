package db

import (
	"fmt"

	"github.com/chainindex/indexer-infrastructure/ingest"
	ingestbbolt "github.com/chainindex/indexer-infrastructure/ingest/db/bbolt"
	ingestleveldb "github.com/chainindex/indexer-infrastructure/ingest/db/leveldb"
)

func NewDatabaseInit(name string, filePath string) (ingest.Database, error) {
	var db ingest.Database

	switch name {
	case "leveldb":
		db = &ingestleveldb.LevelDBDatabase{}
	case "bbolt", "":
		db = &ingestbbolt.BBoltDatabase{}
	default:
		return nil, fmt.Errorf("unknown database name: %s", name)
	}

	if err := db.Init(filePath); err != nil {
		return nil, err
	}

	return db, nil
}
