package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"modalsearch/internal/embedding"
	"modalsearch/internal/handlers"
	"modalsearch/internal/jobs"
	"modalsearch/internal/jobs/mocks"
	"modalsearch/internal/modality"
	"modalsearch/internal/search"
	"modalsearch/internal/storage"
)

type fakeEngine struct {
	gotRequest search.Request
	response   search.Response
	err        error
}

func (f *fakeEngine) Search(ctx context.Context, req search.Request) (search.Response, error) {
	f.gotRequest = req
	if f.err != nil {
		return search.Response{}, f.err
	}
	return f.response, nil
}

type memQueryStore struct {
	rows    map[uint]*storage.Query
	nextID  uint
	deleted []uint
}

func newMemQueryStore() *memQueryStore {
	return &memQueryStore{rows: make(map[uint]*storage.Query)}
}

func (m *memQueryStore) Create(ctx context.Context, query *storage.Query) error {
	m.nextID++
	query.ID = m.nextID
	query.Timestamp = time.Now()
	m.rows[query.ID] = query
	return nil
}

func (m *memQueryStore) ListByUser(ctx context.Context, userID uint) ([]storage.Query, error) {
	var out []storage.Query
	for _, row := range m.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memQueryStore) GetByID(ctx context.Context, userID, queryID uint) (*storage.Query, error) {
	row, ok := m.rows[queryID]
	if !ok || row.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return row, nil
}

func (m *memQueryStore) Delete(ctx context.Context, query *storage.Query) error {
	delete(m.rows, query.ID)
	m.deleted = append(m.deleted, query.ID)
	return nil
}

type memRecordStore struct {
	records map[uint][]storage.SearchRecord
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{records: make(map[uint][]storage.SearchRecord)}
}

func (m *memRecordStore) CreateBatch(ctx context.Context, records []storage.SearchRecord) error {
	for _, rec := range records {
		m.records[rec.QueryID] = append(m.records[rec.QueryID], rec)
	}
	return nil
}

func (m *memRecordStore) ListByQuery(ctx context.Context, queryID uint) ([]storage.SearchRecord, error) {
	return m.records[queryID], nil
}

func searchForm(t *testing.T, texts []string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, text := range texts {
		if err := writer.WriteField("text", text); err != nil {
			t.Fatalf("failed to write text field: %v", err)
		}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestSearchHandler_Search_CombinesTextParts(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockClient(ctrl)
	engine := &fakeEngine{response: search.Response{
		QueryID: 11,
		Results: []search.Result{{ContentID: 3, Score: 0.9, Modality: modality.Image}},
	}}
	handler := handlers.NewSearchHandler(
		embedding.NewProducer(queue, time.Minute),
		engine,
		newMemQueryStore(),
		newMemRecordStore(),
		newMemFileStore(),
	)

	vectors := [][]float32{{1, 3}, {3, 5}}
	for i := range vectors {
		vec := vectors[i]
		queue.EXPECT().
			Enqueue(gomock.Any(), jobs.JobProcessQuery, gomock.Any(), jobs.PriorityHigh).
			Return(fmt.Sprintf("job-%d", i), nil)
		queue.EXPECT().
			Wait(gomock.Any(), fmt.Sprintf("job-%d", i), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ time.Duration, out any) error {
				*out.(*embedding.QueryJobResult) = embedding.QueryJobResult{Vector: vec, Modality: modality.Text}
				return nil
			})
	}

	body, contentType := searchForm(t, []string{"red", "bicycle"}, map[string]string{"limit": "5"})
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/search", body), 7)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Search() status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	want := []float32{2, 4}
	if len(engine.gotRequest.Vector) != len(want) {
		t.Fatalf("engine received %d dimensions, want %d", len(engine.gotRequest.Vector), len(want))
	}
	for i := range want {
		if math.Abs(float64(engine.gotRequest.Vector[i]-want[i])) > 1e-6 {
			t.Errorf("engine vector[%d] = %v, want %v", i, engine.gotRequest.Vector[i], want[i])
		}
	}
	if engine.gotRequest.Modality != modality.Text {
		t.Errorf("engine modality = %q, want %q", engine.gotRequest.Modality, modality.Text)
	}
	if engine.gotRequest.Limit != 5 {
		t.Errorf("engine limit = %d, want 5", engine.gotRequest.Limit)
	}
	if engine.gotRequest.UserID != 7 {
		t.Errorf("engine user = %d, want 7", engine.gotRequest.UserID)
	}

	var resp handlers.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.QueryID != 11 || len(resp.Results) != 1 {
		t.Errorf("response = %+v, want query 11 with one result", resp)
	}
}

func TestSearchHandler_Search_EmptyRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockClient(ctrl)
	handler := handlers.NewSearchHandler(
		embedding.NewProducer(queue, time.Minute),
		&fakeEngine{},
		newMemQueryStore(),
		newMemRecordStore(),
		newMemFileStore(),
	)

	body, contentType := searchForm(t, nil, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/search", body), 7)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Search() status = %d, want 400", rec.Code)
	}
}

func TestSearchHandler_Search_EmbeddingTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockClient(ctrl)
	handler := handlers.NewSearchHandler(
		embedding.NewProducer(queue, time.Second),
		&fakeEngine{},
		newMemQueryStore(),
		newMemRecordStore(),
		newMemFileStore(),
	)

	queue.EXPECT().
		Enqueue(gomock.Any(), jobs.JobProcessQuery, gomock.Any(), jobs.PriorityHigh).
		Return("job-slow", nil)
	queue.EXPECT().
		Wait(gomock.Any(), "job-slow", gomock.Any(), gomock.Any()).
		Return(jobs.ErrWaitTimeout)

	body, contentType := searchForm(t, []string{"slow"}, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/search", body), 7)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Search(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("Search() status = %d, want 504; body: %s", rec.Code, rec.Body.String())
	}
}

func TestSearchHandler_Records(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockClient(ctrl)
	queries := newMemQueryStore()
	records := newMemRecordStore()
	handler := handlers.NewSearchHandler(
		embedding.NewProducer(queue, time.Minute),
		&fakeEngine{},
		queries,
		records,
		newMemFileStore(),
	)

	query := &storage.Query{Text: "red bicycle", UserID: 7}
	_ = queries.Create(context.Background(), query)
	_ = records.CreateBatch(context.Background(), []storage.SearchRecord{
		{SimilarityScore: 0.9, Modality: modality.Image, ContentID: 3, QueryID: query.ID},
	})

	router := chi.NewRouter()
	router.Get("/api/search/{queryID}", handler.Records)

	req := asUser(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/search/%d", query.ID), nil), 7)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Records() status = %d, want 200", rec.Code)
	}
	var resp handlers.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ContentID != 3 {
		t.Errorf("response = %+v, want the stored record", resp)
	}
}

func TestSearchHandler_Records_ForeignQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockClient(ctrl)
	queries := newMemQueryStore()
	handler := handlers.NewSearchHandler(
		embedding.NewProducer(queue, time.Minute),
		&fakeEngine{},
		queries,
		newMemRecordStore(),
		newMemFileStore(),
	)

	query := &storage.Query{Text: "private", UserID: 7}
	_ = queries.Create(context.Background(), query)

	router := chi.NewRouter()
	router.Get("/api/search/{queryID}", handler.Records)

	req := asUser(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/search/%d", query.ID), nil), 8)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Records() status = %d, want 404 for a foreign query", rec.Code)
	}
}

func TestSearchHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockClient(ctrl)
	queries := newMemQueryStore()
	handler := handlers.NewSearchHandler(
		embedding.NewProducer(queue, time.Minute),
		&fakeEngine{},
		queries,
		newMemRecordStore(),
		newMemFileStore(),
	)

	query := &storage.Query{Text: "old", UserID: 7}
	_ = queries.Create(context.Background(), query)

	router := chi.NewRouter()
	router.Delete("/api/search/{queryID}", handler.Delete)

	req := asUser(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/search/%d", query.ID), nil), 7)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Delete() status = %d, want 204", rec.Code)
	}
	if len(queries.deleted) != 1 {
		t.Error("Delete() did not remove the query")
	}
}
