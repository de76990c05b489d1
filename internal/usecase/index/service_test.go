package index

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/couchman/internal/domain"
	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
)

type mockRepo struct {
	listResult []domidx.Index
	listErr    error
	createErr  error
	deleteErr  error
	calls      int
}

func (m *mockRepo) List(_ context.Context, _ string) ([]domidx.Index, error) {
	m.calls++
	return m.listResult, m.listErr
}

func (m *mockRepo) Create(_ context.Context, _ string, idx domidx.Index, _ string) (domidx.Index, error) {
	m.calls++
	if m.createErr != nil {
		return domidx.Index{}, m.createErr
	}
	return domidx.Reconstruct("_design/gen", idx.Name(), idx.Type(), idx.Fields()), nil
}

func (m *mockRepo) Delete(_ context.Context, _, _, _ string) error {
	m.calls++
	return m.deleteErr
}

func TestCreate_EmptyFieldsRejectedBeforeNetwork(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	if _, err := svc.Create(context.Background(), "db", "idx", nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.CreateFromText(context.Background(), "db", "idx", " , "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if repo.calls != 0 {
		t.Errorf("expected no repository calls, got %d", repo.calls)
	}
}

func TestCreateFromText_UnknownOrderRejectedBeforeNetwork(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	for _, text := range []string{"a:", "a:sideways"} {
		if _, err := svc.CreateFromText(context.Background(), "db", "idx", text); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("CreateFromText(%q): expected ErrValidation, got %v", text, err)
		}
	}
	if repo.calls != 0 {
		t.Errorf("expected no repository calls, got %d", repo.calls)
	}
}

func TestCreateFromText(t *testing.T) {
	svc := New(&mockRepo{})
	idx, err := svc.CreateFromText(context.Background(), "db", "by-name", "name, age:desc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := idx.Row()
	if row.DesignDoc != "gen" || row.Name != "by-name" || row.Fields != "name, age:desc" {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestCreate_RepoError(t *testing.T) {
	svc := New(&mockRepo{createErr: domain.ErrUnauthorized})
	_, err := svc.Create(context.Background(), "db", "x", []domidx.Field{{Name: "a"}})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRows(t *testing.T) {
	svc := New(&mockRepo{listResult: []domidx.Index{
		domidx.Reconstruct("_design/foo", "bar", "json", []domidx.Field{{Name: "x", Order: domidx.OrderAsc}}),
	}})

	rows, err := svc.Rows(context.Background(), "db")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domidx.Row{DesignDoc: "foo", Name: "bar", Fields: "x:asc"}
	if len(rows) != 1 || rows[0] != want {
		t.Errorf("Rows = %+v, want [%+v]", rows, want)
	}
}

func TestDelete_Validation(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)
	if err := svc.Delete(context.Background(), "db", "", "bar"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if repo.calls != 0 {
		t.Error("expected no repository call")
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := New(&mockRepo{deleteErr: domain.ErrNotFound})
	if err := svc.Delete(context.Background(), "db", "foo", "bar"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
