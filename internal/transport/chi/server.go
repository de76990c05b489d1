// Package chi serves the couchman web console: a JSON API over the admin use
// cases, mounted on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/couchman/internal/db/couchdb"
	"github.com/kailas-cloud/couchman/internal/domain"
	dombatch "github.com/kailas-cloud/couchman/internal/domain/batch"
	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
	logpkg "github.com/kailas-cloud/couchman/internal/logger"
	browseuc "github.com/kailas-cloud/couchman/internal/usecase/browse"
	databaseuc "github.com/kailas-cloud/couchman/internal/usecase/database"
	documentuc "github.com/kailas-cloud/couchman/internal/usecase/document"
	healthuc "github.com/kailas-cloud/couchman/internal/usecase/health"
	indexuc "github.com/kailas-cloud/couchman/internal/usecase/index"
)

const maxBodyBytes = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the console handlers.
type Server struct {
	databases     *databaseuc.Service
	indexes       *indexuc.Service
	documents     *documentuc.Service
	health        *healthuc.Service
	defaultCreds  bool
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the console server.
func NewServer(
	databases *databaseuc.Service,
	indexes *indexuc.Service,
	documents *documentuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		databases: databases,
		indexes:   indexes,
		documents: documents,
		health:    health,
		validate:  newValidator(),
		logger:    logger,
	}
	// Order matters: a failed listing carries both ErrConnection and its cause.
	s.errorHandlers = []errorHandler{
		revisionConflictHandler,
		sentinelHandler(domain.ErrIDChanged, http.StatusConflict, CodeIDChanged, true),
		sentinelHandler(domain.ErrInvalidJSON, http.StatusBadRequest, CodeInvalidJSON, true),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed, true),
		unauthorizedHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound, true),
		sentinelHandler(domain.ErrConflict, http.StatusConflict, CodeConflict, true),
		sentinelHandler(domain.ErrConnection, http.StatusBadGateway, CodeConnectionFailed, false),
		sentinelHandler(domain.ErrServer, http.StatusBadGateway, CodeServerError, false),
	}
	return s
}

// WithDefaultCredentials tells the server whether CouchDB calls without
// operator credentials still authenticate with configured defaults.
func (s *Server) WithDefaultCredentials(ok bool) *Server {
	s.defaultCreds = ok
	return s
}

// Routes mounts the console API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/format", s.FormatDocument)

	r.Route("/api/databases", func(r chi.Router) {
		r.Get("/", s.ListDatabases)
		r.Post("/", s.CreateDatabase)
		r.Delete("/", s.DeleteDatabases)

		r.Route("/{db}", func(r chi.Router) {
			r.Delete("/", s.DeleteDatabase)

			r.Get("/indexes", s.ListIndexes)
			r.Post("/indexes", s.CreateIndex)
			r.Delete("/indexes/{ddoc}/{name}", s.DeleteIndex)

			r.Get("/documents", s.ListDocuments)
			r.Post("/documents", s.CreateDocument)
			// Document ids may contain slashes (_design/...), hence the wildcard.
			r.Get("/documents/*", s.GetDocument)
			r.Put("/documents/*", s.PutDocument)
			r.Delete("/documents/*", s.DeleteDocument)
		})
	})
}

// ListDatabases handles GET /api/databases.
func (s *Server) ListDatabases(w http.ResponseWriter, r *http.Request) {
	names, err := s.databases.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, databaseListResponse{Items: names})
}

// CreateDatabase handles POST /api/databases.
func (s *Server) CreateDatabase(w http.ResponseWriter, r *http.Request) {
	var req createDatabaseRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.databases.Create(r.Context(), req.Name); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, databaseResponse{Name: req.Name})
}

// DeleteDatabase handles DELETE /api/databases/{db}.
func (s *Server) DeleteDatabase(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "db")
	if err := s.databases.Delete(r.Context(), name); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDatabases handles DELETE /api/databases with a list of names or all=true.
func (s *Server) DeleteDatabases(w http.ResponseWriter, r *http.Request) {
	var req deleteDatabasesRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	var results []dombatch.Result
	if req.All {
		var err error
		results, err = s.databases.DeleteAll(r.Context())
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	} else {
		results = s.databases.DeleteMany(r.Context(), req.Names)
	}

	resp := bulkResponse{Items: make([]bulkItem, len(results))}
	for i, res := range results {
		resp.Items[i] = bulkItemFromResult(res)
	}
	resp.Succeeded, resp.Failed = dombatch.Count(results)
	writeJSON(w, http.StatusOK, resp)
}

// ListIndexes handles GET /api/databases/{db}/indexes.
func (s *Server) ListIndexes(w http.ResponseWriter, r *http.Request) {
	rows, err := s.indexes.Rows(r.Context(), pathParam(r, "db"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, indexListResponse{Items: rows})
}

// CreateIndex handles POST /api/databases/{db}/indexes.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var req createIndexRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	idx, err := s.indexes.CreateFromText(r.Context(), pathParam(r, "db"), req.Name, req.Fields)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idx.Row())
}

// DeleteIndex handles DELETE /api/databases/{db}/indexes/{ddoc}/{name}.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	err := s.indexes.Delete(r.Context(), pathParam(r, "db"), pathParam(r, "ddoc"), pathParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments handles GET /api/databases/{db}/documents?q=.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	view := browseuc.New(s.documents, pathParam(r, "db"))
	if _, err := view.Refresh(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	rows := view.Filter(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, documentListResponse{Items: rows, Total: view.Len()})
}

// GetDocument handles GET /api/databases/{db}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), pathParam(r, "db"), pathParam(r, "*"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /api/databases/{db}/documents.
// An empty body creates an empty document with a generated id.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.readDocument(w, r, true)
	if !ok {
		return
	}

	saved, err := s.documents.Save(r.Context(), pathParam(r, "db"), doc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, writeResult{ID: saved.ID(), Rev: saved.Rev()})
}

// PutDocument handles PUT /api/databases/{db}/documents/{id}.
// A body without _id saves under the path id; a different _id is refused
// unless ?confirm_id_change=true, in which case a new document is written.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.readDocument(w, r, false)
	if !ok {
		return
	}

	id := pathParam(r, "*")
	switch {
	case !doc.HasID():
		doc = doc.WithID(id)
	case doc.ID() != id && r.URL.Query().Get("confirm_id_change") != "true":
		s.handleDomainError(w, r, fmt.Errorf("%w from %q to %q", domain.ErrIDChanged, id, doc.ID()))
		return
	}

	saved, err := s.documents.Save(r.Context(), pathParam(r, "db"), doc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, writeResult{ID: saved.ID(), Rev: saved.Rev()})
}

// DeleteDocument handles DELETE /api/databases/{db}/documents/{id}?rev=.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	err := s.documents.Delete(r.Context(), pathParam(r, "db"), pathParam(r, "*"), r.URL.Query().Get("rev"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FormatDocument handles POST /api/format: pretty-prints the JSON body.
func (s *Server) FormatDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	text, err := domdoc.Format(string(body))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, formatResponse{Text: text})
}

// HealthCheck handles GET /health. Access is verified with the request's
// credentials, or the defaults; with neither it is reported as skipped.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var report healthuc.Report
	if _, ok := couchdb.CredentialsFromContext(r.Context()); ok || s.defaultCreds {
		report = s.health.Check(r.Context())
	} else {
		report = s.health.CheckServer(r.Context())
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// readDocument reads a JSON object body. allowEmpty treats an empty body as {}.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request, allowEmpty bool) (domdoc.Document, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return domdoc.Document{}, false
	}
	if allowEmpty && strings.TrimSpace(string(body)) == "" {
		return domdoc.New(nil), true
	}

	doc, err := domdoc.Parse(string(body))
	if err != nil {
		s.handleDomainError(w, r, err)
		return domdoc.Document{}, false
	}
	return doc, true
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

// pathParam returns a decoded route parameter. chi matches on the escaped
// path when the request carries escaped characters such as %2F.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// domainMessage returns the message shown to the client. Errors caused by the
// request are echoed; server-side failures show only the sentinel text.
func domainMessage(err, sentinel error, detailed bool) string {
	if detailed {
		return err.Error()
	}
	return sentinel.Error()
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string, detailed bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, domainMessage(err, sentinel, detailed))
		return true
	}
}

// revisionConflictHandler reports stale revisions with the offending id and rev.
func revisionConflictHandler(w http.ResponseWriter, err error) bool {
	var rce *domain.RevisionConflictError
	if !errors.As(err, &rce) {
		return false
	}
	writeJSON(w, http.StatusConflict, revisionConflictResponse{
		Code:     CodeRevisionConflict,
		Message:  rce.Error(),
		ID:       rce.ID,
		Revision: rce.Revision,
	})
	return true
}

// unauthorizedHandler asks the browser for credentials to forward to CouchDB.
func unauthorizedHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrUnauthorized) {
		return false
	}
	w.Header().Set("WWW-Authenticate", `Basic realm="couchman"`)
	writeError(w, http.StatusUnauthorized, CodeUnauthorized, domain.ErrUnauthorized.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContextOr(r.Context(), s.logger)
	logger.Warn("domain error", zap.String("path", r.URL.Path), zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func bulkItemFromResult(r dombatch.Result) bulkItem {
	item := bulkItem{Name: r.Name(), Status: string(r.Status())}
	if r.Err() != nil {
		item.Error = &errorResponse{
			Code:    bulkErrorCode(r.Err()),
			Message: r.Err().Error(),
		}
	}
	return item
}

func bulkErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return CodeValidationFailed
	case errors.Is(err, domain.ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrConnection):
		return CodeConnectionFailed
	default:
		return CodeServerError
	}
}
