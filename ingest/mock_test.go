package ingest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/chainindex/indexer-infrastructure/ingest/abi"
)

// fakeIndexClient records every write so tests can assert on the produced
// documents without a live backend
type fakeIndexClient struct {
	lock sync.Mutex

	indexed []Document
	updated []Document

	searchFn func(collection, query string) (*SearchResult, error)
	countFn  func(collection, query string) (int64, error)
	indexFn  func(collection, id string) error
	bulkFn   func(docs []Document) error

	searchCalls  int
	deletedIndex bool
	initialized  bool
}

var _ IndexClient = (*fakeIndexClient)(nil)

func (f *fakeIndexClient) Index(_ context.Context, collection, id string, body interface{}) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.indexFn != nil {
		if err := f.indexFn(collection, id); err != nil {
			return err
		}
	}

	f.indexed = append(f.indexed, Document{Collection: collection, ID: id, Body: body})

	return nil
}

func (f *fakeIndexClient) Update(_ context.Context, collection, id string, body interface{}) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.updated = append(f.updated, Document{Collection: collection, ID: id, Body: body})

	return nil
}

func (f *fakeIndexClient) Search(_ context.Context, collection, query string) (*SearchResult, error) {
	f.lock.Lock()
	f.searchCalls++
	fn := f.searchFn
	f.lock.Unlock()

	if fn != nil {
		return fn(collection, query)
	}

	return &SearchResult{}, nil
}

func (f *fakeIndexClient) Count(_ context.Context, collection, query string) (int64, error) {
	if f.countFn != nil {
		return f.countFn(collection, query)
	}

	return 0, nil
}

func (f *fakeIndexClient) DeleteByQuery(_ context.Context, collection, query string) error {
	return nil
}

func (f *fakeIndexClient) DeleteIndex(_ context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.deletedIndex = true

	return nil
}

func (f *fakeIndexClient) InitIndex(_ context.Context, mappings map[string]string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.initialized = true

	return nil
}

func (f *fakeIndexClient) BulkIndex(_ context.Context, docs []Document) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.bulkFn != nil {
		if err := f.bulkFn(docs); err != nil {
			return err
		}
	}

	f.indexed = append(f.indexed, docs...)

	return nil
}

func (f *fakeIndexClient) docsFor(collection string) []Document {
	f.lock.Lock()
	defer f.lock.Unlock()

	var result []Document

	for _, doc := range f.indexed {
		if doc.Collection == collection {
			result = append(result, doc)
		}
	}

	return result
}

func (f *fakeIndexClient) updatesFor(collection string) []Document {
	f.lock.Lock()
	defer f.lock.Unlock()

	var result []Document

	for _, doc := range f.updated {
		if doc.Collection == collection {
			result = append(result, doc)
		}
	}

	return result
}

// fakeSchemaStore returns a fixed decoder per account and records
// invalidations
type fakeSchemaStore struct {
	lock sync.Mutex

	decoders    map[string]*abi.Decoder
	invalidated []string
}

var _ SchemaStore = (*fakeSchemaStore)(nil)

func (f *fakeSchemaStore) Get(_ context.Context, account string) *abi.Decoder {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.decoders[account]
}

func (f *fakeSchemaStore) Invalidate(account string) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.invalidated = append(f.invalidated, account)
}

// recordingProcessor captures processed events in arrival order
type recordingProcessor struct {
	lock sync.Mutex

	order []string

	appliedFn func(trace *TransactionTrace) error
}

var _ EventProcessor = (*recordingProcessor)(nil)

func (p *recordingProcessor) record(entry string) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.order = append(p.order, entry)
}

func (p *recordingProcessor) recorded() []string {
	p.lock.Lock()
	defer p.lock.Unlock()

	return append([]string(nil), p.order...)
}

func (p *recordingProcessor) ProcessAppliedTransaction(trace *TransactionTrace) error {
	p.record("trace:" + trace.ID)

	if p.appliedFn != nil {
		return p.appliedFn(trace)
	}

	return nil
}

func (p *recordingProcessor) ProcessAcceptedTransaction(meta *TransactionMetadata) error {
	p.record("meta:" + meta.ID)

	return nil
}

func (p *recordingProcessor) ProcessAcceptedBlock(state *BlockState) error {
	p.record("block:" + state.BlockID)

	return nil
}

func (p *recordingProcessor) ProcessIrreversibleBlock(state *BlockState) error {
	p.record("irreversible:" + state.BlockID)

	return nil
}

// fakeEventSource dispatches events synchronously to the subscribed
// callbacks, the way a node signal would
type fakeEventSource struct {
	lock sync.Mutex

	acceptedBlockFns     []func(*BlockState)
	irreversibleBlockFns []func(*BlockState)
	acceptedTrxFns       []func(*TransactionMetadata)
	appliedTrxFns        []func(*TransactionTrace)
	activeSubscriptions  int
}

var _ EventSource = (*fakeEventSource)(nil)

func (s *fakeEventSource) subscribe(register func()) func() {
	s.lock.Lock()
	defer s.lock.Unlock()

	register()
	s.activeSubscriptions++

	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()

		s.activeSubscriptions--
	}
}

func (s *fakeEventSource) SubscribeAcceptedBlock(fn func(*BlockState)) func() {
	return s.subscribe(func() { s.acceptedBlockFns = append(s.acceptedBlockFns, fn) })
}

func (s *fakeEventSource) SubscribeIrreversibleBlock(fn func(*BlockState)) func() {
	return s.subscribe(func() { s.irreversibleBlockFns = append(s.irreversibleBlockFns, fn) })
}

func (s *fakeEventSource) SubscribeAcceptedTransaction(fn func(*TransactionMetadata)) func() {
	return s.subscribe(func() { s.acceptedTrxFns = append(s.acceptedTrxFns, fn) })
}

func (s *fakeEventSource) SubscribeAppliedTransaction(fn func(*TransactionTrace)) func() {
	return s.subscribe(func() { s.appliedTrxFns = append(s.appliedTrxFns, fn) })
}

func (s *fakeEventSource) emitAcceptedBlock(state *BlockState) {
	for _, fn := range s.acceptedBlockFns {
		fn(state)
	}
}

func (s *fakeEventSource) emitIrreversibleBlock(state *BlockState) {
	for _, fn := range s.irreversibleBlockFns {
		fn(state)
	}
}

type DatabaseMock struct {
	mock.Mock
	Writer             *DBTransactionWriterMock
	GetAcceptedPointFn func() (*ProgressPoint, error)
}

var _ Database = (*DatabaseMock)(nil)

func (m *DatabaseMock) Init(filePath string) error {
	return m.Called(filePath).Error(0)
}

func (m *DatabaseMock) Close() error {
	return m.Called().Error(0)
}

func (m *DatabaseMock) GetAcceptedPoint() (*ProgressPoint, error) {
	args := m.Called()

	if m.GetAcceptedPointFn != nil {
		return m.GetAcceptedPointFn()
	}

	return args.Get(0).(*ProgressPoint), args.Error(1) //nolint:forcetypeassert
}

func (m *DatabaseMock) GetIrreversiblePoint() (*ProgressPoint, error) {
	args := m.Called()

	return args.Get(0).(*ProgressPoint), args.Error(1) //nolint:forcetypeassert
}

func (m *DatabaseMock) OpenTx() DBTransactionWriter {
	args := m.Called()

	if m.Writer != nil {
		return m.Writer
	}

	return args.Get(0).(DBTransactionWriter) //nolint:forcetypeassert
}

type DBTransactionWriterMock struct {
	mock.Mock
	AcceptedPoints     []*ProgressPoint
	IrreversiblePoints []*ProgressPoint
}

var _ DBTransactionWriter = (*DBTransactionWriterMock)(nil)

func (m *DBTransactionWriterMock) SetAcceptedPoint(point *ProgressPoint) DBTransactionWriter {
	m.AcceptedPoints = append(m.AcceptedPoints, point)

	return m
}

func (m *DBTransactionWriterMock) SetIrreversiblePoint(point *ProgressPoint) DBTransactionWriter {
	m.IrreversiblePoints = append(m.IrreversiblePoints, point)

	return m
}

func (m *DBTransactionWriterMock) Execute() error {
	return m.Called().Error(0)
}
