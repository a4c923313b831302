package ingest

import (
	"fmt"
	"time"
)

// EventCategory identifies which of the four ingestion queues an event
// belongs to. Drain order is fixed: transaction traces first, then
// transaction metadata, then block states, then irreversible blocks.
type EventCategory int

const (
	CategoryTransactionTrace EventCategory = iota
	CategoryTransactionMetadata
	CategoryBlockState
	CategoryIrreversibleBlock

	categoryCount
)

func (c EventCategory) String() string {
	switch c {
	case CategoryTransactionTrace:
		return "transaction_trace"
	case CategoryTransactionMetadata:
		return "transaction_metadata"
	case CategoryBlockState:
		return "block_state"
	case CategoryIrreversibleBlock:
		return "irreversible_block"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// collection names inside the search backend
const (
	CollectionAccounts          = "accounts"
	CollectionBlockStates       = "block_states"
	CollectionBlocks            = "blocks"
	CollectionTransactions      = "transactions"
	CollectionTransactionTraces = "transaction_traces"
	CollectionActions           = "actions"
)

// system contract actions captured for account/schema tracking
const (
	ActionNewAccount = "newaccount"
	ActionSetABI     = "setabi"
)

type PermissionLevel struct {
	Actor      string `json:"actor"`
	Permission string `json:"permission"`
}

// Action is one authorized call inside a transaction. Data carries the
// payload in the ledger's binary encoding; it is decoded through the
// per-account schema where one is available.
type Action struct {
	Account       string            `json:"account"`
	Name          string            `json:"name"`
	Authorization []PermissionLevel `json:"authorization,omitempty"`
	Data          []byte            `json:"-"`
}

type SignedTransaction struct {
	ID         string    `json:"id"`
	Expiration time.Time `json:"expiration"`
	RefBlockN  uint16    `json:"ref_block_num"`
	Actions    []*Action `json:"-"`
	Signatures []string  `json:"signatures,omitempty"`
}

// TransactionMetadata is delivered when the node accepts a transaction
// into a block candidate
type TransactionMetadata struct {
	ID       string             `json:"id"`
	Accepted bool               `json:"accepted"`
	Trx      *SignedTransaction `json:"-"`
}

// ActionTrace is the execution record of one action, including the inline
// actions it spawned
type ActionTrace struct {
	Receiver     string         `json:"receiver"`
	Act          *Action        `json:"-"`
	Console      string         `json:"console,omitempty"`
	ElapsedUs    int64          `json:"elapsed"`
	InlineTraces []*ActionTrace `json:"-"`
}

// TransactionTrace is delivered after the node applies a transaction
type TransactionTrace struct {
	ID           string         `json:"id"`
	BlockNum     uint64         `json:"block_num"`
	Status       string         `json:"status"`
	ElapsedUs    int64          `json:"elapsed"`
	NetUsage     uint64         `json:"net_usage"`
	ActionTraces []*ActionTrace `json:"-"`
}

type TransactionReceipt struct {
	Status        string             `json:"status"`
	CPUUsageUs    uint32             `json:"cpu_usage_us"`
	NetUsageWords uint32             `json:"net_usage_words"`
	Trx           *SignedTransaction `json:"-"`
}

// SignedBlock is the full block body as produced by the node
type SignedBlock struct {
	Timestamp    time.Time             `json:"timestamp"`
	Producer     string                `json:"producer"`
	Previous     string                `json:"previous"`
	TrxMroot     string                `json:"transaction_mroot"`
	ActionMroot  string                `json:"action_mroot"`
	Transactions []*TransactionReceipt `json:"-"`
}

// BlockState is delivered both when a block is accepted and when the
// consensus protocol marks it irreversible. Immutable once produced by the
// node; the pipeline never mutates it.
type BlockState struct {
	BlockNum       uint64       `json:"block_num"`
	BlockID        string       `json:"block_id"`
	Validated      bool         `json:"validated"`
	InCurrentChain bool         `json:"in_current_chain"`
	Block          *SignedBlock `json:"-"`

	// historical producer bookkeeping, large and not worth indexing
	// (disabled in the collection mapping)
	ProducerToLastProduced   map[string]uint64 `json:"producer_to_last_produced,omitempty"`
	ProducerToLastImpliedIRB map[string]uint64 `json:"producer_to_last_implied_irb,omitempty"`
}

func (bs BlockState) String() string {
	return fmt.Sprintf("num = %d, id = %s", bs.BlockNum, bs.BlockID)
}

// QueueEntry wraps one event together with its enqueue time. The timestamp
// is diagnostics only.
type QueueEntry[T any] struct {
	Event      T
	EnqueuedAt time.Time
}

// Document is one record destined for the search backend. An empty ID lets
// the backend assign one.
type Document struct {
	Collection string
	ID         string
	Body       interface{}
}

// ProgressPoint marks the last block the pipeline has written documents for
type ProgressPoint struct {
	BlockNum uint64 `json:"num"`
	BlockID  string `json:"id"`
}

func (pp ProgressPoint) String() string {
	return fmt.Sprintf("num = %d, id = %s", pp.BlockNum, pp.BlockID)
}
