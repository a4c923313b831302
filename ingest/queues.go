package ingest

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// each enqueue over the soft limit grows the producer sleep by this
	// step, each enqueue under it shrinks it by the same step
	throttleStep = 10 * time.Millisecond

	// sustained overload worth shouting about
	throttleWarnAfter = time.Second

	defaultSoftLimit = 1024
)

// EventQueues buffers events between the node's signal handlers and the
// single drain goroutine: four category deques behind one mutex and one
// condition variable. Enqueues never drop data; over the soft limit the
// producer is slowed down by an adaptively growing bounded sleep.
type EventQueues struct {
	mutex     sync.Mutex
	condition *sync.Cond

	softLimit int
	sleepFor  time.Duration
	closed    bool

	appliedTransactions  []QueueEntry[*TransactionTrace]
	acceptedTransactions []QueueEntry[*TransactionMetadata]
	blockStates          []QueueEntry[*BlockState]
	irreversibleBlocks   []QueueEntry[*BlockState]

	logger hclog.Logger
}

func NewEventQueues(softLimit int, logger hclog.Logger) *EventQueues {
	if softLimit <= 0 {
		softLimit = defaultSoftLimit
	}

	eq := &EventQueues{
		softLimit: softLimit,
		logger:    logger,
	}

	eq.condition = sync.NewCond(&eq.mutex)

	return eq
}

func (eq *EventQueues) PushAppliedTransaction(trace *TransactionTrace) bool {
	return pushEntry(eq, &eq.appliedTransactions, trace)
}

func (eq *EventQueues) PushAcceptedTransaction(meta *TransactionMetadata) bool {
	return pushEntry(eq, &eq.acceptedTransactions, meta)
}

func (eq *EventQueues) PushBlockState(state *BlockState) bool {
	return pushEntry(eq, &eq.blockStates, state)
}

func (eq *EventQueues) PushIrreversibleBlock(state *BlockState) bool {
	return pushEntry(eq, &eq.irreversibleBlocks, state)
}

// Close stops accepting new events and wakes the consumer so it can drain
// whatever is left and exit
func (eq *EventQueues) Close() {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()

	if !eq.closed {
		eq.closed = true
		eq.condition.Broadcast()
	}
}

// Sizes returns the current queue lengths in drain order
func (eq *EventQueues) Sizes() (applied, accepted, blocks, irreversible int) {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()

	return len(eq.appliedTransactions), len(eq.acceptedTransactions),
		len(eq.blockStates), len(eq.irreversibleBlocks)
}

// SleepDuration returns the current adaptive throttle value
func (eq *EventQueues) SleepDuration() time.Duration {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()

	return eq.sleepFor
}

func (eq *EventQueues) emptyLocked() bool {
	return len(eq.appliedTransactions) == 0 &&
		len(eq.acceptedTransactions) == 0 &&
		len(eq.blockStates) == 0 &&
		len(eq.irreversibleBlocks) == 0
}

// processingBuffers hold swapped-out queue contents private to the consumer
type processingBuffers struct {
	appliedTransactions  []QueueEntry[*TransactionTrace]
	acceptedTransactions []QueueEntry[*TransactionMetadata]
	blockStates          []QueueEntry[*BlockState]
	irreversibleBlocks   []QueueEntry[*BlockState]
}

func (pb *processingBuffers) total() int {
	return len(pb.appliedTransactions) + len(pb.acceptedTransactions) +
		len(pb.blockStates) + len(pb.irreversibleBlocks)
}

// waitAndSwap blocks until at least one queue is non-empty or the queues are
// closed, then atomically moves every queue's contents into the buffers.
// Producers can resume enqueueing immediately after it returns. The second
// return value reports whether the queues were closed at swap time.
func (eq *EventQueues) waitAndSwap(buffers *processingBuffers) (int, bool) {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()

	for eq.emptyLocked() && !eq.closed {
		eq.condition.Wait()
	}

	buffers.appliedTransactions = eq.appliedTransactions
	buffers.acceptedTransactions = eq.acceptedTransactions
	buffers.blockStates = eq.blockStates
	buffers.irreversibleBlocks = eq.irreversibleBlocks

	eq.appliedTransactions = nil
	eq.acceptedTransactions = nil
	eq.blockStates = nil
	eq.irreversibleBlocks = nil

	return buffers.total(), eq.closed
}

func pushEntry[T any](eq *EventQueues, queue *[]QueueEntry[T], event T) bool {
	eq.mutex.Lock()

	if eq.closed {
		eq.mutex.Unlock()

		return false
	}

	if size := len(*queue); size > eq.softLimit {
		eq.sleepFor += throttleStep
		sleepFor := eq.sleepFor

		// sleep with the lock released so the consumer can drain
		eq.mutex.Unlock()
		eq.condition.Signal()

		if sleepFor > throttleWarnAfter {
			eq.logger.Warn("Ingestion queue over soft limit", "size", size, "sleep", sleepFor)
		}

		time.Sleep(sleepFor)

		eq.mutex.Lock()

		if eq.closed {
			eq.mutex.Unlock()

			return false
		}
	} else if eq.sleepFor > 0 {
		eq.sleepFor -= throttleStep
		if eq.sleepFor < 0 {
			eq.sleepFor = 0
		}
	}

	*queue = append(*queue, QueueEntry[T]{Event: event, EnqueuedAt: time.Now()})

	eq.mutex.Unlock()
	eq.condition.Signal()

	return true
}
