package couchman

import (
	"context"

	dombatch "github.com/kailas-cloud/couchman/internal/domain/batch"
	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
	healthuc "github.com/kailas-cloud/couchman/internal/usecase/health"
)

// --- databaseUseCase mock ---

type mockDatabaseUC struct {
	listFn       func(ctx context.Context) ([]string, error)
	createFn     func(ctx context.Context, name string) error
	deleteFn     func(ctx context.Context, name string) error
	deleteManyFn func(ctx context.Context, names []string) []dombatch.Result
	deleteAllFn  func(ctx context.Context) ([]dombatch.Result, error)
}

func (m *mockDatabaseUC) List(ctx context.Context) ([]string, error) {
	return m.listFn(ctx)
}

func (m *mockDatabaseUC) Create(ctx context.Context, name string) error {
	return m.createFn(ctx, name)
}

func (m *mockDatabaseUC) Delete(ctx context.Context, name string) error {
	return m.deleteFn(ctx, name)
}

func (m *mockDatabaseUC) DeleteMany(ctx context.Context, names []string) []dombatch.Result {
	return m.deleteManyFn(ctx, names)
}

func (m *mockDatabaseUC) DeleteAll(ctx context.Context) ([]dombatch.Result, error) {
	return m.deleteAllFn(ctx)
}

// --- indexUseCase mock ---

type mockIndexUC struct {
	listFn     func(ctx context.Context, database string) ([]domidx.Index, error)
	rowsFn     func(ctx context.Context, database string) ([]domidx.Row, error)
	createFn   func(ctx context.Context, database, name string, fields []domidx.Field) (domidx.Index, error)
	fromTextFn func(ctx context.Context, database, name, fieldsText string) (domidx.Index, error)
	deleteFn   func(ctx context.Context, database, ddoc, name string) error
}

func (m *mockIndexUC) List(ctx context.Context, database string) ([]domidx.Index, error) {
	return m.listFn(ctx, database)
}

func (m *mockIndexUC) Rows(ctx context.Context, database string) ([]domidx.Row, error) {
	return m.rowsFn(ctx, database)
}

func (m *mockIndexUC) Create(
	ctx context.Context, database, name string, fields []domidx.Field,
) (domidx.Index, error) {
	return m.createFn(ctx, database, name, fields)
}

func (m *mockIndexUC) CreateFromText(ctx context.Context, database, name, fieldsText string) (domidx.Index, error) {
	return m.fromTextFn(ctx, database, name, fieldsText)
}

func (m *mockIndexUC) Delete(ctx context.Context, database, ddoc, name string) error {
	return m.deleteFn(ctx, database, ddoc, name)
}

// --- documentUseCase mock ---

type mockDocumentUC struct {
	listFn   func(ctx context.Context, database string) ([]domdoc.Document, error)
	getFn    func(ctx context.Context, database, id string) (domdoc.Document, error)
	saveFn   func(ctx context.Context, database string, doc domdoc.Document) (domdoc.Document, error)
	deleteFn func(ctx context.Context, database, id, rev string) error
}

func (m *mockDocumentUC) List(ctx context.Context, database string) ([]domdoc.Document, error) {
	return m.listFn(ctx, database)
}

func (m *mockDocumentUC) Get(ctx context.Context, database, id string) (domdoc.Document, error) {
	return m.getFn(ctx, database, id)
}

func (m *mockDocumentUC) Save(ctx context.Context, database string, doc domdoc.Document) (domdoc.Document, error) {
	return m.saveFn(ctx, database, doc)
}

func (m *mockDocumentUC) Delete(ctx context.Context, database, id, rev string) error {
	return m.deleteFn(ctx, database, id, rev)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report       healthuc.Report
	serverReport healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report {
	return m.report
}

func (m *mockHealthUC) CheckServer(context.Context) healthuc.Report {
	return m.serverReport
}

// --- helpers ---

func testClient(
	dbSvc databaseUseCase,
	idxSvc indexUseCase,
	docSvc documentUseCase,
) *Client {
	return &Client{
		dbSvc:  dbSvc,
		idxSvc: idxSvc,
		docSvc: docSvc,
	}
}
