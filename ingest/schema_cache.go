package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chainindex/indexer-infrastructure/ingest/abi"
)

const defaultCacheCapacity = 2048

// CachedSchemaStore maps an account to its payload decoder. Entries are
// rebuilt on miss from the account document stored in the search backend and
// evicted least-recently-used once the configured capacity is reached
// (eviction happens on insert, the cache never exceeds capacity at rest).
type CachedSchemaStore struct {
	client        IndexClient
	systemAccount string
	cache         *lru.Cache[string, *abi.Decoder]
	logger        hclog.Logger
}

var _ SchemaStore = (*CachedSchemaStore)(nil)

func NewCachedSchemaStore(
	client IndexClient, capacity int, systemAccount string, logger hclog.Logger,
) (*CachedSchemaStore, error) {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}

	cache, err := lru.New[string, *abi.Decoder](capacity)
	if err != nil {
		return nil, err
	}

	return &CachedSchemaStore{
		client:        client,
		systemAccount: systemAccount,
		cache:         cache,
		logger:        logger,
	}, nil
}

// Get returns the account's decoder, refreshing its recency, or nil when no
// schema is available. Lookup misses hit the backend; negative results are
// not cached, a later schema upload must be picked up.
func (s *CachedSchemaStore) Get(ctx context.Context, account string) *abi.Decoder {
	if account == "" {
		return nil
	}

	if decoder, exists := s.cache.Get(account); exists {
		return decoder
	}

	def := s.fetchDef(ctx, account)
	if def == nil {
		return nil
	}

	// schema-update actions against the system contract carry a schema of
	// their own; surface it structured instead of as a byte blob
	redefined := account == s.systemAccount && abi.RedefineSetABI(def)

	decoder := abi.NewDecoder(def)
	if redefined {
		decoder.SpecializeABIDef()
	}

	s.cache.Add(account, decoder)

	return decoder
}

// Invalidate drops the cached decoder so the next lookup refetches it.
// Called when a schema-update action for the account is observed.
func (s *CachedSchemaStore) Invalidate(account string) {
	s.cache.Remove(account)
}

// Len returns the number of live cache entries
func (s *CachedSchemaStore) Len() int {
	return s.cache.Len()
}

// Contains reports entry liveness without refreshing recency
func (s *CachedSchemaStore) Contains(account string) bool {
	return s.cache.Contains(account)
}

func (s *CachedSchemaStore) fetchDef(ctx context.Context, account string) *abi.Def {
	query := fmt.Sprintf(`{"term":{"name":"%s"}}`, account)

	result, err := s.client.Search(ctx, CollectionAccounts, query)
	if err != nil {
		s.logger.Warn("Schema lookup failed", "account", account, "err", err)

		return nil
	}

	if result.Total != 1 || len(result.Hits) == 0 {
		return nil
	}

	var doc struct {
		Name string          `json:"name"`
		ABI  json.RawMessage `json:"abi"`
	}

	if err := json.Unmarshal(result.Hits[0], &doc); err != nil {
		s.logger.Debug("Malformed account document", "account", account, "err", err)

		return nil
	}

	if len(doc.ABI) == 0 || string(doc.ABI) == "null" {
		return nil
	}

	def, err := abi.ParseDef(doc.ABI)
	if err != nil {
		s.logger.Debug("Unable to parse stored schema", "account", account, "err", err)

		return nil
	}

	return def
}
