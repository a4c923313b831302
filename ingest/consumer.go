package ingest

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
)

// batches slower than this get a timing log entry
const slowBatchThreshold = 500 * time.Millisecond

// Consumer is the single drain goroutine: the only reader of all four
// queues. Within a category documents are produced in enqueue order;
// across categories the order is fixed by the drain loop (transaction
// traces, transaction metadata, block states, irreversible blocks).
type Consumer struct {
	queues    *EventQueues
	processor EventProcessor

	isClosed  uint32
	isStarted uint32
	errorCh   chan error
	doneCh    chan struct{}

	logger hclog.Logger
}

var _ Service = (*Consumer)(nil)

func NewConsumer(queues *EventQueues, processor EventProcessor, logger hclog.Logger) *Consumer {
	return &Consumer{
		queues:    queues,
		processor: processor,
		errorCh:   make(chan error, 1),
		doneCh:    make(chan struct{}),
		logger:    logger,
	}
}

func (c *Consumer) Start() {
	if atomic.CompareAndSwapUint32(&c.isStarted, 0, 1) {
		go c.run()
	}
}

// Close stops the queues and waits for the drain loop to flush everything
// still pending. No documents are written after Close returns.
func (c *Consumer) Close() error {
	if atomic.CompareAndSwapUint32(&c.isClosed, 0, 1) {
		c.logger.Info("Closing event consumer, draining remaining queues")

		c.queues.Close()

		if atomic.LoadUint32(&c.isStarted) == 1 {
			<-c.doneCh
		}
	}

	return nil
}

// ErrorCh reports fatal-classified processing errors. The drain loop keeps
// running regardless; the channel exists so the owner can alert.
func (c *Consumer) ErrorCh() <-chan error {
	return c.errorCh
}

func (c *Consumer) run() {
	c.logger.Info("Event consumer has been started")

	defer func() {
		c.logger.Info("Event consumer has been stopped")
		close(c.doneCh)
	}()

	buffers := &processingBuffers{}

	for {
		total, closed := c.queues.waitAndSwap(buffers)

		if closed && total > 0 {
			c.logger.Info("Draining ingestion queues", "size", total)
		}

		processBatch(c, CategoryTransactionTrace, buffers.appliedTransactions,
			c.processor.ProcessAppliedTransaction)
		processBatch(c, CategoryTransactionMetadata, buffers.acceptedTransactions,
			c.processor.ProcessAcceptedTransaction)
		processBatch(c, CategoryBlockState, buffers.blockStates,
			c.processor.ProcessAcceptedBlock)
		processBatch(c, CategoryIrreversibleBlock, buffers.irreversibleBlocks,
			c.processor.ProcessIrreversibleBlock)

		*buffers = processingBuffers{}

		if closed && total == 0 {
			return
		}
	}
}

// processBatch drains one category buffer strictly in FIFO order. A failed
// event is logged and skipped; it is never retried and never stops the loop.
func processBatch[T any](c *Consumer, category EventCategory, entries []QueueEntry[T], handler func(T) error) {
	if len(entries) == 0 {
		return
	}

	start := time.Now()
	maxWait := time.Duration(0)

	for _, entry := range entries {
		if wait := start.Sub(entry.EnqueuedAt); wait > maxWait {
			maxWait = wait
		}

		if err := handler(entry.Event); err != nil {
			c.logger.Error("Failed to process event", "category", category, "err", err)

			if errors.Is(err, ErrIngestFatal) {
				select {
				case c.errorCh <- err:
				default:
				}
			}
		}
	}

	if elapsed := time.Since(start); elapsed > slowBatchThreshold {
		c.logger.Info("Slow batch", "category", category, "size", len(entries),
			"time", elapsed, "per", elapsed/time.Duration(len(entries)), "max_wait", maxWait)
	}
}
