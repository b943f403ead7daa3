package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

type mockIndex struct {
	entries  []domain.IndexEntry
	err      error
	gotText  string
	gotLimit int
}

func (m *mockIndex) Search(_ context.Context, text string, limit int) ([]domain.IndexEntry, error) {
	m.gotText = text
	m.gotLimit = limit
	return m.entries, m.err
}

func TestQuery_ProjectsHits(t *testing.T) {
	idx := &mockIndex{entries: []domain.IndexEntry{
		{ID: "a1", Score: 2.5, Fields: map[string]string{
			"name": "diagram.png", "summary": "a red circle",
		}},
		{ID: "a2", Score: 1.0, Fields: map[string]string{
			"name": "photo.jpg", "summary": "a blue square",
		}},
	}}

	svc := New(idx, zap.NewNop())

	hits, err := svc.Query(context.Background(), "  red circle ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.gotText != "red circle" {
		t.Errorf("query text = %q", idx.gotText)
	}
	if idx.gotLimit != 50 {
		t.Errorf("limit = %d, want 50", idx.gotLimit)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d", len(hits))
	}
	if hits[0].ID != "a1" || hits[0].Name != "diagram.png" || hits[0].Summary != "a red circle" {
		t.Errorf("hit[0] = %+v", hits[0])
	}
	if hits[0].Score != 2.5 {
		t.Errorf("score = %f", hits[0].Score)
	}
}

func TestQuery_DropsMalformedEntries(t *testing.T) {
	idx := &mockIndex{entries: []domain.IndexEntry{
		{ID: "a1", Fields: map[string]string{"name": "n", "summary": "s"}},
		{ID: "a2", Fields: map[string]string{"name": "n"}},
		{ID: "a3", Fields: map[string]string{"summary": "s"}},
		{ID: "", Fields: map[string]string{"name": "n", "summary": "s"}},
	}}

	svc := New(idx, zap.NewNop())

	hits, err := svc.Query(context.Background(), "circle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a1" {
		t.Errorf("expected only the well-formed entry, got %+v", hits)
	}
}

func TestQuery_IndexFailure(t *testing.T) {
	idx := &mockIndex{err: errors.New("connection refused")}
	svc := New(idx, zap.NewNop())

	_, err := svc.Query(context.Background(), "circle")
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
}

func TestQuery_BlankText(t *testing.T) {
	idx := &mockIndex{}
	svc := New(idx, zap.NewNop())

	if _, err := svc.Query(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if idx.gotText != "" {
		t.Error("index must not be queried for blank text")
	}
}

func TestQuery_NoResults(t *testing.T) {
	svc := New(&mockIndex{}, zap.NewNop())

	hits, err := svc.Query(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %+v", hits)
	}
}
