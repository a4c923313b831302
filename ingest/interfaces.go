package ingest

import (
	"context"
	"encoding/json"

	"github.com/chainindex/indexer-infrastructure/ingest/abi"
)

type Closable interface {
	Close() error
}

type Service interface {
	Closable
	Start()
}

// SearchResult is the backend-agnostic shape of a search response
type SearchResult struct {
	Total int64
	Hits  []json.RawMessage
}

// IndexClient is the minimal document-indexing surface the pipeline needs
// from the search backend. Query strings are the backend's native query
// clause json. Non-2xx responses surface as *BackendError.
type IndexClient interface {
	Index(ctx context.Context, collection, id string, body interface{}) error
	Update(ctx context.Context, collection, id string, body interface{}) error
	Search(ctx context.Context, collection, query string) (*SearchResult, error)
	Count(ctx context.Context, collection, query string) (int64, error)
	DeleteByQuery(ctx context.Context, collection, query string) error
	DeleteIndex(ctx context.Context) error
	InitIndex(ctx context.Context, mappings map[string]string) error
	BulkIndex(ctx context.Context, docs []Document) error
}

// SchemaStore resolves an account to its payload decoder. A nil decoder
// means "no schema available" and the raw payload should be indexed as-is.
type SchemaStore interface {
	Get(ctx context.Context, account string) *abi.Decoder
	Invalidate(account string)
}

// EventProcessor consumes drained events, one call per event. Errors are
// logged by the drain loop and never stop it.
type EventProcessor interface {
	ProcessAppliedTransaction(trace *TransactionTrace) error
	ProcessAcceptedTransaction(meta *TransactionMetadata) error
	ProcessAcceptedBlock(state *BlockState) error
	ProcessIrreversibleBlock(state *BlockState) error
}

// EventSource is the node's signal interface: four subscription points,
// each returning an unsubscribe function. Callbacks are invoked
// synchronously from the node's event dispatch.
type EventSource interface {
	SubscribeAcceptedBlock(fn func(*BlockState)) func()
	SubscribeIrreversibleBlock(fn func(*BlockState)) func()
	SubscribeAcceptedTransaction(fn func(*TransactionMetadata)) func()
	SubscribeAppliedTransaction(fn func(*TransactionTrace)) func()
}
