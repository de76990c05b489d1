package batch

// Status is the outcome of a single item in a bulk operation.
type Status string

// Item status values.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result is the outcome of one item (for example one database) in a bulk operation.
type Result struct {
	name string
	err  error
}

// NewOK creates a successful result.
func NewOK(name string) Result { return Result{name: name} }

// NewError creates a failed result.
func NewError(name string, err error) Result { return Result{name: name, err: err} }

// Name returns the item name.
func (r Result) Name() string { return r.name }

// Status returns the processing outcome.
func (r Result) Status() Status {
	if r.err != nil {
		return StatusError
	}
	return StatusOK
}

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Count returns the number of succeeded and failed items.
func Count(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}
