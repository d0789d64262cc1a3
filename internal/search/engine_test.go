package search_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/mock/gomock"

	"modalsearch/internal/modality"
	"modalsearch/internal/search"
	"modalsearch/internal/service"
	"modalsearch/internal/storage"
	"modalsearch/internal/vectorstore"
	"modalsearch/internal/vectorstore/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeQueryStore struct {
	nextID  uint
	created []*storage.Query
	err     error
}

func (f *fakeQueryStore) Create(_ context.Context, q *storage.Query) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	q.ID = f.nextID
	f.created = append(f.created, q)
	return nil
}

func (f *fakeQueryStore) ListByUser(context.Context, uint) ([]storage.Query, error) {
	return nil, nil
}

func (f *fakeQueryStore) GetByID(context.Context, uint, uint) (*storage.Query, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeQueryStore) Delete(context.Context, *storage.Query) error { return nil }

type fakeRecordStore struct {
	batches [][]storage.SearchRecord
	err     error
}

func (f *fakeRecordStore) CreateBatch(_ context.Context, records []storage.SearchRecord) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, records)
	return nil
}

func (f *fakeRecordStore) ListByQuery(context.Context, uint) ([]storage.SearchRecord, error) {
	return nil, nil
}

type fakeModelStore struct{}

func (fakeModelStore) GetOrCreateDefault(context.Context) (*storage.Model, error) {
	return &storage.Model{ID: 1, Name: "default"}, nil
}

func newEngine(t *testing.T, searcher vectorstore.Searcher, queries *fakeQueryStore, records *fakeRecordStore, policy search.FusionPolicy) search.Engine {
	t.Helper()
	if policy == nil {
		policy = search.NewThresholdPolicy(search.DefaultThresholds())
	}
	return search.NewEngine(searcher, queries, records, fakeModelStore{}, policy, 50, 10)
}

func TestEngine_RankedAndLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	searcher := mocks.NewMockSearcher(ctrl)
	queries := &fakeQueryStore{}
	records := &fakeRecordStore{}
	engine := newEngine(t, searcher, queries, records, nil)

	vec := []float32{0.5, 0.5}
	searcher.EXPECT().
		SearchByModality(gomock.Any(), vec, modality.Text, uint(7), 50).
		Return([]vectorstore.Candidate{
			{ContentID: 1, Score: 0.90, Modality: modality.Text},
			{ContentID: 2, Score: 0.70, Modality: modality.Text},
		}, nil)
	searcher.EXPECT().
		SearchByModality(gomock.Any(), vec, modality.Image, uint(7), 50).
		Return([]vectorstore.Candidate{
			{ContentID: 3, Score: 0.95, Modality: modality.Image},
		}, nil)
	searcher.EXPECT().
		SearchByModality(gomock.Any(), vec, modality.Audio, uint(7), 50).
		Return(nil, nil)

	resp, err := engine.Search(context.Background(), search.Request{
		UserID:      7,
		Vector:      vec,
		Modality:    modality.Text,
		DisplayText: "cat photos",
		Limit:       2,
	})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}

	if resp.QueryID == 0 {
		t.Error("Search() did not assign a query id")
	}
	if len(resp.Results) != 2 {
		t.Fatalf("Search() returned %d results, want 2 (limit)", len(resp.Results))
	}
	if resp.Results[0].ContentID != 3 || resp.Results[1].ContentID != 1 {
		t.Errorf("Search() order = [%d %d], want [3 1]", resp.Results[0].ContentID, resp.Results[1].ContentID)
	}
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i-1].Score < resp.Results[i].Score {
			t.Errorf("Search() results not sorted descending at %d", i)
		}
	}

	if len(queries.created) != 1 {
		t.Fatalf("Search() created %d query rows, want 1", len(queries.created))
	}
	if queries.created[0].Text != "cat photos" {
		t.Errorf("query display text = %q, want %q", queries.created[0].Text, "cat photos")
	}
	if len(records.batches) != 1 || len(records.batches[0]) != 2 {
		t.Fatalf("Search() persisted batches = %+v, want one batch of 2", records.batches)
	}
	for i, rec := range records.batches[0] {
		if rec.QueryID != resp.QueryID {
			t.Errorf("record %d query id = %d, want %d", i, rec.QueryID, resp.QueryID)
		}
		if rec.ContentID != resp.Results[i].ContentID {
			t.Errorf("record %d content id = %d, want %d", i, rec.ContentID, resp.Results[i].ContentID)
		}
	}
}

func TestEngine_ThresholdScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	searcher := mocks.NewMockSearcher(ctrl)
	queries := &fakeQueryStore{}
	records := &fakeRecordStore{}
	engine := newEngine(t, searcher, queries, records, nil)

	vec := []float32{1}
	// Text candidate at 0.60 sits below the 0.65 same-modality bar; the
	// image candidate at 0.25 clears the 0.2 cross-modality bar.
	searcher.EXPECT().
		SearchByModality(gomock.Any(), vec, modality.Text, uint(1), 50).
		Return([]vectorstore.Candidate{{ContentID: 10, Score: 0.60, Modality: modality.Text}}, nil)
	searcher.EXPECT().
		SearchByModality(gomock.Any(), vec, modality.Image, uint(1), 50).
		Return([]vectorstore.Candidate{{ContentID: 20, Score: 0.25, Modality: modality.Image}}, nil)
	searcher.EXPECT().
		SearchByModality(gomock.Any(), vec, modality.Audio, uint(1), 50).
		Return(nil, nil)

	resp, err := engine.Search(context.Background(), search.Request{
		UserID:   1,
		Vector:   vec,
		Modality: modality.Text,
	})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("Search() returned %d results, want 1", len(resp.Results))
	}
	if resp.Results[0].ContentID != 20 {
		t.Errorf("Search() kept content %d, want 20 (cross-modality survivor)", resp.Results[0].ContentID)
	}
}

func TestEngine_EmptyCandidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	searcher := mocks.NewMockSearcher(ctrl)
	queries := &fakeQueryStore{}
	records := &fakeRecordStore{}
	engine := newEngine(t, searcher, queries, records, nil)

	searcher.EXPECT().
		SearchByModality(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil).
		Times(3)

	resp, err := engine.Search(context.Background(), search.Request{
		UserID:   1,
		Vector:   []float32{1},
		Modality: modality.Audio,
	})
	if err != nil {
		t.Fatalf("Search() with zero candidates should not error, got: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("Search() returned %d results, want 0", len(resp.Results))
	}
}

func TestEngine_TargetModalitiesRestricted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	searcher := mocks.NewMockSearcher(ctrl)
	queries := &fakeQueryStore{}
	records := &fakeRecordStore{}
	engine := newEngine(t, searcher, queries, records, nil)

	searcher.EXPECT().
		SearchByModality(gomock.Any(), gomock.Any(), modality.Image, uint(1), 50).
		Return(nil, nil)

	_, err := engine.Search(context.Background(), search.Request{
		UserID:           1,
		Vector:           []float32{1},
		Modality:         modality.Text,
		TargetModalities: []string{modality.Image},
	})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
}

func TestEngine_PersistenceFailurePreservesQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	searcher := mocks.NewMockSearcher(ctrl)
	queries := &fakeQueryStore{}
	records := &fakeRecordStore{err: errors.New("connection reset")}
	engine := newEngine(t, searcher, queries, records, nil)

	searcher.EXPECT().
		SearchByModality(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vectorstore.Candidate{{ContentID: 1, Score: 0.9, Modality: modality.Text}}, nil).
		Times(3)

	_, err := engine.Search(context.Background(), search.Request{
		UserID:   1,
		Vector:   []float32{1},
		Modality: modality.Text,
	})
	if !errors.Is(err, service.ErrSearchPersistence) {
		t.Fatalf("Search() error = %v, want ErrSearchPersistence", err)
	}
	if len(queries.created) != 1 {
		t.Errorf("query row count = %d, want 1 (query survives record failure)", len(queries.created))
	}
}

func TestEngine_InvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	searcher := mocks.NewMockSearcher(ctrl)
	queries := &fakeQueryStore{}
	records := &fakeRecordStore{}
	engine := newEngine(t, searcher, queries, records, nil)

	tests := []struct {
		name    string
		req     search.Request
		wantErr error
	}{
		{
			name:    "empty vector",
			req:     search.Request{UserID: 1, Modality: modality.Text},
			wantErr: service.ErrInvalidInput,
		},
		{
			name:    "unknown query modality",
			req:     search.Request{UserID: 1, Vector: []float32{1}, Modality: "video"},
			wantErr: service.ErrUnsupportedModality,
		},
		{
			name: "unknown target modality",
			req: search.Request{
				UserID: 1, Vector: []float32{1}, Modality: modality.Text,
				TargetModalities: []string{"video"},
			},
			wantErr: service.ErrUnsupportedModality,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Search(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Search() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_SearcherErrorAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	searcher := mocks.NewMockSearcher(ctrl)
	queries := &fakeQueryStore{}
	records := &fakeRecordStore{}
	engine := newEngine(t, searcher, queries, records, nil)

	searcher.EXPECT().
		SearchByModality(gomock.Any(), gomock.Any(), modality.Text, gomock.Any(), gomock.Any()).
		Return(nil, errors.New("index offline"))

	_, err := engine.Search(context.Background(), search.Request{
		UserID:   1,
		Vector:   []float32{1},
		Modality: modality.Text,
	})
	if err == nil {
		t.Fatal("Search() expected error when a modality subquery fails")
	}
	if len(records.batches) != 0 {
		t.Error("Search() persisted records despite an aborted search")
	}
}

func TestEngine_SoftmaxPolicyWiring(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	searcher := mocks.NewMockSearcher(ctrl)
	queries := &fakeQueryStore{}
	records := &fakeRecordStore{}
	engine := newEngine(t, searcher, queries, records, search.SoftmaxPolicy{})

	searcher.EXPECT().
		SearchByModality(gomock.Any(), gomock.Any(), modality.Text, gomock.Any(), gomock.Any()).
		Return([]vectorstore.Candidate{
			{ContentID: 1, Score: 0.95, Modality: modality.Text},
			{ContentID: 2, Score: 0.85, Modality: modality.Text},
		}, nil)
	searcher.EXPECT().
		SearchByModality(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil).
		Times(2)

	resp, err := engine.Search(context.Background(), search.Request{
		UserID:   1,
		Vector:   []float32{1},
		Modality: modality.Text,
	})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(resp.Results))
	}
	sum := resp.Results[0].Score + resp.Results[1].Score
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("softmax group sum = %v, want 1", sum)
	}
	if resp.Results[0].ContentID != 1 {
		t.Errorf("softmax broke relative order, top = %d, want 1", resp.Results[0].ContentID)
	}
}
