package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// --- Mocks ---

type mockBlobs struct {
	location string
	err      error
	calls    int
}

func (m *mockBlobs) Store(_ context.Context, _ []byte, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.location, nil
}

type mockRecords struct {
	insertErr error
	inserted  []domain.Asset
	findAsset domain.Asset
	findErr   error
	deleteErr error
	deleted   []string
	listOut   []domain.Asset
	listErr   error
}

func (m *mockRecords) Insert(_ context.Context, a *domain.Asset) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, *a)
	return nil
}
func (m *mockRecords) FindByID(_ context.Context, _ string) (domain.Asset, error) {
	return m.findAsset, m.findErr
}
func (m *mockRecords) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}
func (m *mockRecords) List(_ context.Context) ([]domain.Asset, error) {
	return m.listOut, m.listErr
}

type mockMirror struct {
	upsertErr error
	upserted  []string
	deleteErr error
	deleted   []string
	resetErr  error
	resets    int
}

func (m *mockMirror) Upsert(_ context.Context, a *domain.Asset) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, a.ID())
	return nil
}
func (m *mockMirror) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}
func (m *mockMirror) Reset(_ context.Context) error {
	m.resets++
	return m.resetErr
}

// mockSummarizer returns its replies in order, repeating the last one.
type mockSummarizer struct {
	replies []domain.Summary
	err     error
	calls   int
}

func (m *mockSummarizer) Summarize(_ context.Context, _, _ string) (domain.Summary, error) {
	m.calls++
	if m.err != nil {
		return domain.Summary{}, m.err
	}
	i := m.calls - 1
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return m.replies[i], nil
}

var validSummary = domain.Summary{
	Text:     "a red circle on white background",
	Keywords: []string{"circle", "red", "shape"},
}

func newService(blobs *mockBlobs, records *mockRecords, mirror *mockMirror, sum *mockSummarizer) *Service {
	return New(blobs, records, mirror, sum, zap.NewNop())
}

func testAsset(t *testing.T, id string) domain.Asset {
	t.Helper()
	a, err := domain.NewAsset(id, "diagram.png", "/tmp/x", "image/png",
		validSummary.Text, validSummary.Keywords)
	if err != nil {
		t.Fatalf("NewAsset: %v", err)
	}
	return a
}

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

// --- Ingest tests ---

func TestIngest_Success(t *testing.T) {
	blobs := &mockBlobs{location: "/uploads/x-diagram.png"}
	records := &mockRecords{}
	mirror := &mockMirror{}
	sum := &mockSummarizer{replies: []domain.Summary{validSummary}}

	svc := newService(blobs, records, mirror, sum)

	asset, err := svc.Ingest(context.Background(), pngBytes, "diagram.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.ID() == "" {
		t.Error("expected minted id")
	}
	if asset.Summary() != validSummary.Text {
		t.Errorf("summary = %q", asset.Summary())
	}

	if len(records.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(records.inserted))
	}
	rec := records.inserted[0]
	if rec.Name() != "diagram.png" || rec.Location() != "/uploads/x-diagram.png" {
		t.Errorf("record = %q %q", rec.Name(), rec.Location())
	}
	if rec.MediaType() != "image/png" {
		t.Errorf("media type = %q", rec.MediaType())
	}
	if kw := rec.Keywords(); len(kw) != 3 || kw[0] != "circle" {
		t.Errorf("keywords = %v", kw)
	}

	if len(mirror.upserted) != 1 || mirror.upserted[0] != asset.ID() {
		t.Errorf("mirror upserts = %v, want [%s]", mirror.upserted, asset.ID())
	}
}

func TestIngest_RetriesEmptyReplies(t *testing.T) {
	blobs := &mockBlobs{location: "/uploads/x"}
	records := &mockRecords{}
	sum := &mockSummarizer{replies: []domain.Summary{{}, {}, validSummary}}

	svc := newService(blobs, records, &mockMirror{}, sum)

	asset, err := svc.Ingest(context.Background(), pngBytes, "diagram.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.calls != 3 {
		t.Errorf("summarizer calls = %d, want 3", sum.calls)
	}
	if asset.Summary() != validSummary.Text {
		t.Errorf("summary = %q", asset.Summary())
	}
}

func TestIngest_TransportErrorIsFatal(t *testing.T) {
	records := &mockRecords{}
	mirror := &mockMirror{}
	sum := &mockSummarizer{err: domain.ErrSummarizerUnavailable}

	svc := newService(&mockBlobs{location: "/uploads/x"}, records, mirror, sum)

	_, err := svc.Ingest(context.Background(), pngBytes, "diagram.png")
	if !errors.Is(err, domain.ErrSummarizerUnavailable) {
		t.Fatalf("expected ErrSummarizerUnavailable, got %v", err)
	}
	if sum.calls != 1 {
		t.Errorf("summarizer calls = %d, want 1", sum.calls)
	}
	if len(records.inserted) != 0 {
		t.Error("expected no record insert after transport failure")
	}
	if len(mirror.upserted) != 0 {
		t.Error("expected no mirror upsert after transport failure")
	}
}

func TestIngest_ExhaustsEmptyReplies(t *testing.T) {
	records := &mockRecords{}
	sum := &mockSummarizer{replies: []domain.Summary{{}}}

	svc := newService(&mockBlobs{location: "/uploads/x"}, records, &mockMirror{}, sum).
		WithMaxAttempts(3)

	_, err := svc.Ingest(context.Background(), pngBytes, "diagram.png")
	if !errors.Is(err, domain.ErrSummaryExhausted) {
		t.Fatalf("expected ErrSummaryExhausted, got %v", err)
	}
	if sum.calls != 3 {
		t.Errorf("summarizer calls = %d, want 3", sum.calls)
	}
	if len(records.inserted) != 0 {
		t.Error("expected no record insert after exhaustion")
	}
}

func TestIngest_UnboundedRetriesStopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := &mockSummarizer{replies: []domain.Summary{{}}}
	svc := newService(&mockBlobs{location: "/uploads/x"}, &mockRecords{}, &mockMirror{}, sum).
		WithMaxAttempts(-1)

	_, err := svc.Ingest(ctx, pngBytes, "diagram.png")
	if !errors.Is(err, domain.ErrSummarizerUnavailable) {
		t.Fatalf("expected cancellation surfaced as ErrSummarizerUnavailable, got %v", err)
	}
	if sum.calls != 1 {
		t.Errorf("summarizer calls = %d, want 1", sum.calls)
	}
}

func TestIngest_InsertFailureSkipsMirror(t *testing.T) {
	records := &mockRecords{insertErr: errors.New("db down")}
	mirror := &mockMirror{}
	sum := &mockSummarizer{replies: []domain.Summary{validSummary}}

	svc := newService(&mockBlobs{location: "/uploads/x"}, records, mirror, sum)

	_, err := svc.Ingest(context.Background(), pngBytes, "diagram.png")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(mirror.upserted) != 0 {
		t.Error("mirror must never be called when the record insert fails")
	}
}

func TestIngest_MirrorFailureStillSucceeds(t *testing.T) {
	records := &mockRecords{}
	mirror := &mockMirror{upsertErr: errors.New("index down")}
	sum := &mockSummarizer{replies: []domain.Summary{validSummary}}

	svc := newService(&mockBlobs{location: "/uploads/x"}, records, mirror, sum)

	asset, err := svc.Ingest(context.Background(), pngBytes, "diagram.png")
	if err != nil {
		t.Fatalf("expected success despite mirror failure, got %v", err)
	}
	if asset.ID() == "" {
		t.Error("expected minted id")
	}
	if len(records.inserted) != 1 {
		t.Errorf("record inserts = %d, want 1", len(records.inserted))
	}
}

func TestIngest_BlobFailureIsFatal(t *testing.T) {
	blobs := &mockBlobs{err: domain.ErrBlobStore}
	sum := &mockSummarizer{replies: []domain.Summary{validSummary}}

	svc := newService(blobs, &mockRecords{}, &mockMirror{}, sum)

	_, err := svc.Ingest(context.Background(), pngBytes, "diagram.png")
	if !errors.Is(err, domain.ErrBlobStore) {
		t.Fatalf("expected ErrBlobStore, got %v", err)
	}
	if sum.calls != 0 {
		t.Error("summarizer must not be called when bytes were not stored")
	}
}

func TestIngest_ValidatesInput(t *testing.T) {
	svc := newService(&mockBlobs{}, &mockRecords{}, &mockMirror{}, &mockSummarizer{})

	if _, err := svc.Ingest(context.Background(), pngBytes, "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("blank name: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Ingest(context.Background(), nil, "x.png"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty body: expected ErrInvalidInput, got %v", err)
	}
}

func TestIngest_RejectsLongNameBeforeAnyIO(t *testing.T) {
	blobs := &mockBlobs{location: "/uploads/x"}
	sum := &mockSummarizer{replies: []domain.Summary{validSummary}}

	svc := newService(blobs, &mockRecords{}, &mockMirror{}, sum)

	longName := strings.Repeat("a", domain.MaxNameLength+1)
	_, err := svc.Ingest(context.Background(), pngBytes, longName)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if blobs.calls != 0 {
		t.Errorf("blob store calls = %d, want 0 for rejected input", blobs.calls)
	}
	if sum.calls != 0 {
		t.Errorf("summarizer calls = %d, want 0 for rejected input", sum.calls)
	}
}

// --- Delete tests ---

func TestDelete_Success(t *testing.T) {
	records := &mockRecords{findAsset: testAsset(t, "a1")}
	mirror := &mockMirror{}

	svc := newService(&mockBlobs{}, records, mirror, &mockSummarizer{})

	if err := svc.Delete(context.Background(), "a1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records.deleted) != 1 || records.deleted[0] != "a1" {
		t.Errorf("record deletes = %v", records.deleted)
	}
	if len(mirror.deleted) != 1 || mirror.deleted[0] != "a1" {
		t.Errorf("mirror deletes = %v", mirror.deleted)
	}
}

func TestDelete_NotFound(t *testing.T) {
	records := &mockRecords{findErr: domain.ErrNotFound}
	mirror := &mockMirror{}

	svc := newService(&mockBlobs{}, records, mirror, &mockSummarizer{})

	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(records.deleted) != 0 || len(mirror.deleted) != 0 {
		t.Error("no deletes expected for an unknown id")
	}
}

func TestDelete_MirrorFailureStillSucceeds(t *testing.T) {
	records := &mockRecords{findAsset: testAsset(t, "a1")}
	mirror := &mockMirror{deleteErr: errors.New("index down")}

	svc := newService(&mockBlobs{}, records, mirror, &mockSummarizer{})

	if err := svc.Delete(context.Background(), "a1"); err != nil {
		t.Fatalf("expected success despite mirror failure, got %v", err)
	}
	if len(records.deleted) != 1 {
		t.Errorf("record deletes = %v", records.deleted)
	}
}

func TestDelete_RecordFailureIsFatal(t *testing.T) {
	records := &mockRecords{findAsset: testAsset(t, "a1"), deleteErr: errors.New("db down")}
	mirror := &mockMirror{}

	svc := newService(&mockBlobs{}, records, mirror, &mockSummarizer{})

	if err := svc.Delete(context.Background(), "a1"); err == nil {
		t.Fatal("expected error")
	}
	if len(mirror.deleted) != 0 {
		t.Error("mirror delete must not run when the record delete fails")
	}
}

// --- Get / List / Reindex ---

func TestGet(t *testing.T) {
	records := &mockRecords{findAsset: testAsset(t, "a1")}
	svc := newService(&mockBlobs{}, records, &mockMirror{}, &mockSummarizer{})

	asset, err := svc.Get(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.ID() != "a1" {
		t.Errorf("id = %q", asset.ID())
	}

	records.findErr = domain.ErrNotFound
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReindex(t *testing.T) {
	records := &mockRecords{listOut: []domain.Asset{testAsset(t, "a1"), testAsset(t, "a2")}}
	mirror := &mockMirror{}

	svc := newService(&mockBlobs{}, records, mirror, &mockSummarizer{})

	indexed, failed, err := svc.Reindex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if indexed != 2 || failed != 0 {
		t.Errorf("indexed=%d failed=%d", indexed, failed)
	}
	if len(mirror.upserted) != 2 {
		t.Errorf("mirror upserts = %v", mirror.upserted)
	}
	if mirror.resets != 1 {
		t.Errorf("mirror resets = %d, want 1", mirror.resets)
	}
}

func TestReindex_ResetFailureIsFatal(t *testing.T) {
	records := &mockRecords{listOut: []domain.Asset{testAsset(t, "a1")}}
	mirror := &mockMirror{resetErr: errors.New("index down")}

	svc := newService(&mockBlobs{}, records, mirror, &mockSummarizer{})

	if _, _, err := svc.Reindex(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(mirror.upserted) != 0 {
		t.Errorf("no upserts expected after failed reset, got %v", mirror.upserted)
	}
}

func TestReindex_CountsFailures(t *testing.T) {
	records := &mockRecords{listOut: []domain.Asset{testAsset(t, "a1"), testAsset(t, "a2")}}
	mirror := &mockMirror{upsertErr: errors.New("index down")}

	svc := newService(&mockBlobs{}, records, mirror, &mockSummarizer{})

	indexed, failed, err := svc.Reindex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if indexed != 0 || failed != 2 {
		t.Errorf("indexed=%d failed=%d", indexed, failed)
	}
}
