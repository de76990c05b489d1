package chi

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
	browseuc "github.com/kailas-cloud/couchman/internal/usecase/browse"
)

// Error codes returned in errorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeInvalidJSON      = "invalid_json"
	CodeIDChanged        = "id_changed"
	CodeUnauthorized     = "unauthorized"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeRevisionConflict = "revision_conflict"
	CodeConnectionFailed = "connection_failed"
	CodeServerError      = "server_error"
	CodeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type revisionConflictResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	ID       string `json:"id"`
	Revision string `json:"revision,omitempty"`
}

type createDatabaseRequest struct {
	Name string `json:"name" validate:"required"`
}

type deleteDatabasesRequest struct {
	Names []string `json:"names" validate:"required_without=All,dive,required"`
	All   bool     `json:"all"`
}

type createIndexRequest struct {
	Name   string `json:"name" validate:"required"`
	Fields string `json:"fields" validate:"required"`
}

type databaseResponse struct {
	Name string `json:"name"`
}

type databaseListResponse struct {
	Items []string `json:"items"`
}

type bulkItem struct {
	Name   string         `json:"name"`
	Status string         `json:"status"`
	Error  *errorResponse `json:"error,omitempty"`
}

type bulkResponse struct {
	Items     []bulkItem `json:"items"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
}

type indexListResponse struct {
	Items []domidx.Row `json:"items"`
}

type documentListResponse struct {
	Items []browseuc.Row `json:"items"`
	Total int            `json:"total"`
}

type writeResult struct {
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

type formatResponse struct {
	Text string `json:"text"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage flattens validator errors into "field: rule" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
