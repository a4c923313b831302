package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/chainindex/indexer-infrastructure/common"
)

type PipelineConfig struct {
	// enqueues past this per-queue size slow the producer down
	QueueSoftLimit int `json:"queueSoftLimit"`
	// maximum live entries in the schema decoder cache
	CacheCapacity int `json:"cacheCapacity"`
	// first block to produce documents for; zero means resume from the
	// stored progress point, or from the beginning when there is none
	StartBlockNum uint64 `json:"startBlockNum"`
	// drop all existing collections before starting
	WipeIndexOnStartup bool `json:"wipeIndexOnStartup"`
	// store transaction, trace and action documents
	StoreTransactions bool `json:"storeTransactions"`
	// account hosting the system contract
	SystemAccount string `json:"systemAccount"`
}

// Pipeline wires the queues, the schema cache, the document builder and the
// consumer together and binds them to a node's event signals.
type Pipeline struct {
	config  *PipelineConfig
	client  IndexClient
	db      Database
	queues  *EventQueues
	schemas *CachedSchemaStore
	builder *DocumentBuilder

	consumer     *Consumer
	unsubscribes []func()

	logger hclog.Logger
}

func NewPipeline(
	config *PipelineConfig, client IndexClient, db Database, logger hclog.Logger,
) (*Pipeline, error) {
	schemas, err := NewCachedSchemaStore(
		client, config.CacheCapacity, config.SystemAccount, logger.Named("schemas"))
	if err != nil {
		return nil, err
	}

	queues := NewEventQueues(config.QueueSoftLimit, logger.Named("queues"))
	builder := NewDocumentBuilder(&DocumentBuilderConfig{
		StartBlockNum:     config.StartBlockNum,
		StoreTransactions: config.StoreTransactions,
		SystemAccount:     config.SystemAccount,
	}, client, schemas, db, logger.Named("builder"))

	return &Pipeline{
		config:   config,
		client:   client,
		db:       db,
		queues:   queues,
		schemas:  schemas,
		builder:  builder,
		consumer: NewConsumer(queues, builder, logger.Named("consumer")),
		logger:   logger,
	}, nil
}

// Start prepares the backend collections and launches the drain goroutine.
// Must be called before Attach.
func (p *Pipeline) Start(ctx context.Context) error {
	if p.config.WipeIndexOnStartup {
		p.logger.Info("Wiping existing collections")

		if err := p.client.DeleteIndex(ctx); err != nil {
			return fmt.Errorf("failed to wipe collections: %w", err)
		}
	}

	_, err := common.ExecuteWithRetry(ctx, func(ctx context.Context) (bool, error) {
		return true, p.client.InitIndex(ctx, collectionMappings)
	}, common.WithIsRetryableError(IsTransient), common.WithLogger(p.logger))
	if err != nil {
		return fmt.Errorf("failed to initialize collections: %w", err)
	}

	if err := p.seedSystemAccount(ctx); err != nil {
		return err
	}

	if err := p.resumeFromProgress(ctx); err != nil {
		return err
	}

	p.consumer.Start()

	return nil
}

// Attach subscribes the pipeline to a node's event signals. May be called
// for more than one source; Close detaches them all.
func (p *Pipeline) Attach(source EventSource) {
	p.unsubscribes = append(p.unsubscribes,
		source.SubscribeAppliedTransaction(func(trace *TransactionTrace) {
			p.queues.PushAppliedTransaction(trace)
		}),
		source.SubscribeAcceptedTransaction(func(meta *TransactionMetadata) {
			p.queues.PushAcceptedTransaction(meta)
		}),
		source.SubscribeAcceptedBlock(func(state *BlockState) {
			p.queues.PushBlockState(state)
		}),
		source.SubscribeIrreversibleBlock(func(state *BlockState) {
			p.queues.PushIrreversibleBlock(state)
		}),
	)
}

// ErrorCh reports fatal-classified ingestion errors
func (p *Pipeline) ErrorCh() <-chan error {
	return p.consumer.ErrorCh()
}

// Close detaches from the event sources, then drains and stops the
// consumer. Everything enqueued before Close is written before it returns.
func (p *Pipeline) Close() error {
	for _, unsubscribe := range p.unsubscribes {
		unsubscribe()
	}

	p.unsubscribes = nil

	return p.consumer.Close()
}

// seedSystemAccount makes sure the accounts collection starts with the
// system contract's account so its schema can be attached to it later
func (p *Pipeline) seedSystemAccount(ctx context.Context) error {
	count, err := p.client.Count(ctx, CollectionAccounts, "")
	if err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}

	if count > 0 {
		return nil
	}

	return p.client.Index(ctx, CollectionAccounts, p.config.SystemAccount, map[string]interface{}{
		"name":     p.config.SystemAccount,
		"createAt": time.Now().UnixMilli(),
	})
}

// resumeFromProgress reopens the document gate at the stored progress point
// when no explicit start block is configured
func (p *Pipeline) resumeFromProgress(ctx context.Context) error {
	if p.db == nil || p.config.StartBlockNum != 0 || p.config.WipeIndexOnStartup {
		return nil
	}

	point, err := p.db.GetAcceptedPoint()
	if err != nil {
		return fmt.Errorf("failed to read progress point: %w", err)
	}

	if point == nil {
		return nil
	}

	p.logger.Info("Resuming ingestion", "point", point)
	p.builder.setStartBlock(point.BlockNum + 1)

	return nil
}
