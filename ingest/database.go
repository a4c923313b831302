package ingest

type DBTransactionWriter interface {
	SetAcceptedPoint(point *ProgressPoint) DBTransactionWriter
	SetIrreversiblePoint(point *ProgressPoint) DBTransactionWriter
	Execute() error
}

// Database persists ingestion progress locally so a restart can resume the
// start-block gate without re-wiping the index
type Database interface {
	Init(filePath string) error
	Close() error

	GetAcceptedPoint() (*ProgressPoint, error)
	GetIrreversiblePoint() (*ProgressPoint, error)
	OpenTx() DBTransactionWriter
}
