package ingest

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/chainindex/indexer-infrastructure/ingest/abi"
)

type DocumentBuilderConfig struct {
	// events for blocks below this number produce no documents; once a block
	// at or above it is accepted the gate opens for good
	StartBlockNum uint64 `json:"startBlockNum"`
	// transaction, trace and action document emission (account/schema
	// capture always runs)
	StoreTransactions bool `json:"storeTransactions"`
	// the account whose schema-update action embeds schemas of its own
	SystemAccount string `json:"systemAccount"`
}

// DocumentBuilder turns one chain event into the documents describing it
// and writes them through the IndexClient. It runs exclusively on the drain
// goroutine; nothing here needs locking.
type DocumentBuilder struct {
	config  *DocumentBuilderConfig
	client  IndexClient
	schemas SchemaStore
	db      Database // optional progress store, may be nil

	startBlockReached bool

	ctx    context.Context
	logger hclog.Logger
}

var _ EventProcessor = (*DocumentBuilder)(nil)

func NewDocumentBuilder(
	config *DocumentBuilderConfig, client IndexClient, schemas SchemaStore, db Database, logger hclog.Logger,
) *DocumentBuilder {
	return &DocumentBuilder{
		config:            config,
		client:            client,
		schemas:           schemas,
		db:                db,
		startBlockReached: config.StartBlockNum == 0,
		ctx:               context.Background(),
		logger:            logger,
	}
}

// setStartBlock overrides the gate before the consumer starts; used by the
// pipeline to resume from the persisted progress point
func (b *DocumentBuilder) setStartBlock(blockNum uint64) {
	b.config.StartBlockNum = blockNum
	b.startBlockReached = blockNum == 0
}

func (b *DocumentBuilder) ProcessAcceptedBlock(state *BlockState) error {
	if !b.startBlockReached {
		if state.BlockNum < b.config.StartBlockNum {
			return nil
		}

		b.startBlockReached = true

		b.logger.Info("Start block reached", "block", state.BlockNum)
	}

	now := time.Now().UnixMilli()

	blockStateDoc := map[string]interface{}{
		"block_num":        state.BlockNum,
		"block_id":         state.BlockID,
		"validated":        state.Validated,
		"in_current_chain": state.InCurrentChain,
		"block_header_state": map[string]interface{}{
			"producer_to_last_produced":    state.ProducerToLastProduced,
			"producer_to_last_implied_irb": state.ProducerToLastImpliedIRB,
		},
		"createAt": now,
	}

	if err := b.client.Index(b.ctx, CollectionBlockStates, state.BlockID, blockStateDoc); err != nil {
		return err
	}

	blockDoc := map[string]interface{}{
		"block_num":    state.BlockNum,
		"block_id":     state.BlockID,
		"irreversible": false,
		"block":        b.blockToDoc(state.Block),
		"createAt":     now,
	}

	if err := b.client.Index(b.ctx, CollectionBlocks, state.BlockID, blockDoc); err != nil {
		return err
	}

	b.saveProgress(func(tx DBTransactionWriter) {
		tx.SetAcceptedPoint(&ProgressPoint{BlockNum: state.BlockNum, BlockID: state.BlockID})
	})

	return nil
}

// ProcessIrreversibleBlock flips the block document's irreversible flag.
// Upsert keyed by block id keeps duplicate signals idempotent.
func (b *DocumentBuilder) ProcessIrreversibleBlock(state *BlockState) error {
	if !b.startBlockReached {
		return nil
	}

	doc := map[string]interface{}{
		"block_num":    state.BlockNum,
		"block_id":     state.BlockID,
		"irreversible": true,
		"validated":    state.Validated,
		"updateAt":     time.Now().UnixMilli(),
	}

	if err := b.client.Update(b.ctx, CollectionBlocks, state.BlockID, doc); err != nil {
		return err
	}

	b.saveProgress(func(tx DBTransactionWriter) {
		tx.SetIrreversiblePoint(&ProgressPoint{BlockNum: state.BlockNum, BlockID: state.BlockID})
	})

	return nil
}

func (b *DocumentBuilder) ProcessAcceptedTransaction(meta *TransactionMetadata) error {
	if meta.Trx == nil {
		return nil
	}

	// account and schema capture must run even when transaction documents
	// are not stored, otherwise later payloads cannot be decoded
	for _, act := range meta.Trx.Actions {
		if err := b.captureAccountAction(act); err != nil {
			return err
		}
	}

	if !b.startBlockReached || !b.config.StoreTransactions {
		return nil
	}

	doc := map[string]interface{}{
		"id":            meta.ID,
		"accepted":      meta.Accepted,
		"expiration":    meta.Trx.Expiration,
		"ref_block_num": meta.Trx.RefBlockN,
		"signatures":    meta.Trx.Signatures,
		"actions":       b.actionsToDoc(meta.Trx.Actions),
		"createAt":      time.Now().UnixMilli(),
	}

	return b.client.Index(b.ctx, CollectionTransactions, meta.ID, doc)
}

func (b *DocumentBuilder) ProcessAppliedTransaction(trace *TransactionTrace) error {
	if !b.startBlockReached || !b.config.StoreTransactions {
		return nil
	}

	now := time.Now().UnixMilli()

	docs := make([]Document, 0, 1+len(trace.ActionTraces))
	docs = append(docs, Document{
		Collection: CollectionTransactionTraces,
		ID:         trace.ID,
		Body: map[string]interface{}{
			"id":        trace.ID,
			"block_num": trace.BlockNum,
			"status":    trace.Status,
			"elapsed":   trace.ElapsedUs,
			"net_usage": trace.NetUsage,
			"createAt":  now,
		},
	})

	for _, at := range trace.ActionTraces {
		docs = append(docs, b.actionTraceToDocs(trace.ID, at, now)...)
	}

	return b.client.BulkIndex(b.ctx, docs)
}

func (b *DocumentBuilder) actionTraceToDocs(trxID string, trace *ActionTrace, now int64) []Document {
	body := map[string]interface{}{
		"trx_id":   trxID,
		"receiver": trace.Receiver,
		"act":      b.actionToDoc(trace.Act),
		"elapsed":  trace.ElapsedUs,
		"createAt": now,
	}

	if trace.Console != "" {
		body["console"] = trace.Console
	}

	docs := []Document{{Collection: CollectionActions, Body: body}}

	for _, inline := range trace.InlineTraces {
		docs = append(docs, b.actionTraceToDocs(trxID, inline, now)...)
	}

	return docs
}

// captureAccountAction keeps the accounts collection current: account
// creations add an account document, schema updates store the structured
// schema and drop the stale cache entry
func (b *DocumentBuilder) captureAccountAction(act *Action) error {
	if act.Account != b.config.SystemAccount {
		return nil
	}

	now := time.Now().UnixMilli()

	switch act.Name {
	case ActionNewAccount:
		_, name, err := abi.UnpackNewAccount(act.Data)
		if err != nil {
			b.logger.Debug("Malformed account-creation payload", "err", err)

			return nil
		}

		return b.client.Update(b.ctx, CollectionAccounts, name, map[string]interface{}{
			"name":     name,
			"createAt": now,
		})
	case ActionSetABI:
		account, def, err := abi.UnpackSetABI(act.Data)
		if err != nil {
			b.logger.Debug("Malformed schema-update payload", "err", err)

			return nil
		}

		b.schemas.Invalidate(account)

		return b.client.Update(b.ctx, CollectionAccounts, account, map[string]interface{}{
			"name":     account,
			"abi":      def,
			"updateAt": now,
		})
	}

	return nil
}

func (b *DocumentBuilder) blockToDoc(block *SignedBlock) map[string]interface{} {
	if block == nil {
		return nil
	}

	receipts := make([]map[string]interface{}, 0, len(block.Transactions))

	for _, receipt := range block.Transactions {
		receiptDoc := map[string]interface{}{
			"status":          receipt.Status,
			"cpu_usage_us":    receipt.CPUUsageUs,
			"net_usage_words": receipt.NetUsageWords,
		}

		if receipt.Trx != nil {
			receiptDoc["trx"] = map[string]interface{}{
				"id":            receipt.Trx.ID,
				"expiration":    receipt.Trx.Expiration,
				"ref_block_num": receipt.Trx.RefBlockN,
				"signatures":    receipt.Trx.Signatures,
				"actions":       b.actionsToDoc(receipt.Trx.Actions),
			}
		}

		receipts = append(receipts, receiptDoc)
	}

	return map[string]interface{}{
		"timestamp":         block.Timestamp,
		"producer":          block.Producer,
		"previous":          block.Previous,
		"transaction_mroot": block.TrxMroot,
		"action_mroot":      block.ActionMroot,
		"transactions":      receipts,
	}
}

func (b *DocumentBuilder) actionsToDoc(actions []*Action) []map[string]interface{} {
	result := make([]map[string]interface{}, len(actions))
	for i, act := range actions {
		result[i] = b.actionToDoc(act)
	}

	return result
}

// actionToDoc decodes the payload through the account's schema where one is
// available; otherwise the raw payload is indexed hex encoded
func (b *DocumentBuilder) actionToDoc(act *Action) map[string]interface{} {
	doc := map[string]interface{}{
		"account":       act.Account,
		"name":          act.Name,
		"authorization": act.Authorization,
	}

	if decoder := b.schemas.Get(b.ctx, act.Account); decoder != nil {
		if fields, err := decoder.DecodeAction(act.Name, act.Data); err == nil {
			doc["data"] = fields

			return doc
		} else {
			b.logger.Debug("Could not decode action payload",
				"account", act.Account, "action", act.Name, "err", err)
		}
	}

	doc["hex_data"] = hex.EncodeToString(act.Data)

	return doc
}

func (b *DocumentBuilder) saveProgress(apply func(tx DBTransactionWriter)) {
	if b.db == nil {
		return
	}

	tx := b.db.OpenTx()
	apply(tx)

	if err := tx.Execute(); err != nil {
		b.logger.Warn("Could not persist ingestion progress", "err", err)
	}
}
