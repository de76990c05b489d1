package couchman

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/couchman/internal/db"
	"github.com/kailas-cloud/couchman/internal/db/couchdb"
	dombatch "github.com/kailas-cloud/couchman/internal/domain/batch"
	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
	databaserepo "github.com/kailas-cloud/couchman/internal/repository/database"
	documentrepo "github.com/kailas-cloud/couchman/internal/repository/document"
	indexrepo "github.com/kailas-cloud/couchman/internal/repository/index"
	serverrepo "github.com/kailas-cloud/couchman/internal/repository/server"
	databaseuc "github.com/kailas-cloud/couchman/internal/usecase/database"
	documentuc "github.com/kailas-cloud/couchman/internal/usecase/document"
	healthuc "github.com/kailas-cloud/couchman/internal/usecase/health"
	indexuc "github.com/kailas-cloud/couchman/internal/usecase/index"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced by mocks in tests.
type databaseUseCase interface {
	List(ctx context.Context) ([]string, error)
	Create(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	DeleteMany(ctx context.Context, names []string) []dombatch.Result
	DeleteAll(ctx context.Context) ([]dombatch.Result, error)
}

type indexUseCase interface {
	List(ctx context.Context, database string) ([]domidx.Index, error)
	Rows(ctx context.Context, database string) ([]domidx.Row, error)
	Create(ctx context.Context, database, name string, fields []domidx.Field) (domidx.Index, error)
	CreateFromText(ctx context.Context, database, name, fieldsText string) (domidx.Index, error)
	Delete(ctx context.Context, database, ddoc, name string) error
}

type documentUseCase interface {
	List(ctx context.Context, database string) ([]domdoc.Document, error)
	Get(ctx context.Context, database, id string) (domdoc.Document, error)
	Save(ctx context.Context, database string, doc domdoc.Document) (domdoc.Document, error)
	Delete(ctx context.Context, database, id, rev string) error
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
	CheckServer(ctx context.Context) healthuc.Report
}

type serverRepo interface {
	Ping(ctx context.Context) error
	Info(ctx context.Context) (db.ServerInfo, error)
}

type closer interface {
	Close()
}

// Client is the couchman SDK entry point. It is safe for concurrent use;
// Browser values it hands out are not.
type Client struct {
	store          closer
	server         serverRepo
	dbSvc          databaseUseCase
	idxSvc         indexUseCase
	docSvc         documentUseCase
	healthSvc      healthUseCase
	hasCredentials bool
	obs            *observer
}

// New creates a Client. Unless WithoutReadinessCheck is given, ctx bounds
// the wait for the server to answer. A server that rejects the credentials
// fails at once with ErrUnauthorized; only an unreachable or starting
// server is retried until the readiness timeout.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.url == "" {
		return nil, errors.New("couchman: server URL required (use WithServer)")
	}

	store, err := couchdb.NewStore(couchdb.Config{
		URL:        cfg.url,
		Username:   cfg.username,
		Password:   cfg.password,
		Timeout:    cfg.timeout,
		HTTPClient: cfg.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("couchman: create couchdb store: %w", err)
	}

	server := serverrepo.New(store)
	if !cfg.skipReadiness {
		if err := server.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			store.Close()
			if errors.Is(err, ErrUnauthorized) {
				return nil, fmt.Errorf("couchman: credentials rejected: %w", err)
			}
			return nil, fmt.Errorf("couchman: server not ready: %w", err)
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, server, cfg, obs), nil
}

func wireClient(store *couchdb.Store, server *serverrepo.Repo, cfg *clientConfig, obs *observer) *Client {
	idxRepo := indexrepo.New(store)

	dbSvc := databaseuc.New(databaserepo.New(store), idxRepo).
		WithDefaultIndex(!cfg.noDefaultIndex)

	return &Client{
		store:          store,
		server:         server,
		dbSvc:          dbSvc,
		idxSvc:         indexuc.New(idxRepo),
		docSvc:         documentuc.New(documentrepo.New(store)),
		healthSvc:      healthuc.New(server, dbSvc),
		hasCredentials: cfg.username != "" || cfg.password != "",
		obs:            obs,
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("server.ping", "", start, err) }()

	if err := c.server.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// ServerInfo returns the server version and vendor.
func (c *Client) ServerInfo(ctx context.Context) (_ ServerInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("server.info", "", start, err) }()

	info, err := c.server.Info(ctx)
	if err != nil {
		return ServerInfo{}, err
	}
	return ServerInfo{Version: info.Version, Vendor: info.Vendor, UUID: info.UUID}, nil
}

// Databases returns the database management service.
func (c *Client) Databases() *DatabaseService {
	return &DatabaseService{svc: c.dbSvc, obs: c.obs}
}

// Indexes returns the Mango index service for a database.
func (c *Client) Indexes(database string) *IndexService {
	return &IndexService{database: database, svc: c.idxSvc, obs: c.obs}
}

// Documents returns the document service for a database.
func (c *Client) Documents(database string) *DocumentService {
	return &DocumentService{database: database, svc: c.docSvc, obs: c.obs}
}

// Browse opens a document browser on a database. Call Refresh to load it.
func (c *Client) Browse(database string) *Browser {
	return newBrowser(database, c.docSvc, c.obs)
}
