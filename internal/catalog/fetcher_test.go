package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSource struct {
	mu        sync.Mutex
	makes     []VPICMake
	models    map[int64][]VPICModel
	years     map[int64][]string
	failMake  int64
	listErr   error
	requested []int64
}

func (f *fakeSource) GetAllMakes(context.Context) ([]VPICMake, error) {
	return f.makes, f.listErr
}

func (f *fakeSource) GetModelsForMakeID(_ context.Context, id int64) ([]VPICModel, error) {
	f.mu.Lock()
	f.requested = append(f.requested, id)
	f.mu.Unlock()
	if id == f.failMake {
		return nil, errors.New("upstream timeout")
	}
	return f.models[id], nil
}

func (f *fakeSource) GetModelYearsForMakeID(_ context.Context, id int64) ([]string, error) {
	return f.years[id], nil
}

func TestFetcher_Fetch(t *testing.T) {
	src := &fakeSource{
		makes: []VPICMake{{ID: 1, Name: "HONDA "}, {ID: 2, Name: "BROKEN"}, {ID: 3, Name: "EMPTY"}, {ID: 4, Name: "FORD"}},
		models: map[int64][]VPICModel{
			1: {{Name: "Civic"}, {Name: " "}, {Name: "Accord"}},
			4: {{Name: "Focus"}},
		},
		years: map[int64][]string{
			1: {"2019", "1995", "n/a", "2024"},
		},
		failMake: 2,
	}
	core, logs := observer.New(zapcore.WarnLevel)

	records, err := NewFetcher(src, FetcherConfig{Concurrency: 2}, zap.New(core)).Fetch(context.Background())
	require.NoError(t, err)

	want := []MakeRecord{
		{Name: "HONDA", Models: []ModelRecord{{Name: "Civic", YearStart: 1995, YearEnd: 2024}, {Name: "Accord", YearStart: 1995, YearEnd: 2024}}},
		{Name: "FORD", Models: []ModelRecord{{Name: "Focus"}}},
	}
	assert.Equal(t, want, records)
	assert.Equal(t, 1, logs.FilterMessage("failed to fetch make details").Len())
}

func TestFetcher_MaxMakes(t *testing.T) {
	src := &fakeSource{
		makes:  []VPICMake{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}},
		models: map[int64][]VPICModel{1: {{Name: "a"}}, 2: {{Name: "b"}}, 3: {{Name: "c"}}},
	}

	records, err := NewFetcher(src, FetcherConfig{MaxMakes: 2, Concurrency: 4}, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.ElementsMatch(t, []int64{1, 2}, src.requested)
}

func TestFetcher_ListError(t *testing.T) {
	src := &fakeSource{listErr: errors.New("service unavailable")}

	_, err := NewFetcher(src, FetcherConfig{}, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list makes")
}

func TestFetcher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := NewFetcher(client, FetcherConfig{}, nil).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestYearRange(t *testing.T) {
	start, end := yearRange([]string{"2001", "1999", "bogus", " 2005 "})
	assert.Equal(t, 1999, start)
	assert.Equal(t, 2005, end)

	start, end = yearRange(nil)
	assert.Zero(t, start)
	assert.Zero(t, end)
}

func newVPICServer(t *testing.T) *httptest.Server {
	t.Helper()
	write := func(w http.ResponseWriter, results any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"Count": 1, "Results": results})
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/GetAllMakes", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			http.Error(w, "format required", http.StatusBadRequest)
			return
		}
		write(w, []map[string]any{{"Make_ID": 474, "Make_Name": "HONDA"}, {"Make_ID": 999, "Make_Name": "GHOST"}})
	})
	mux.HandleFunc("/GetModelsForMakeId/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/999") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		write(w, []map[string]any{{"Model_ID": 1861, "Model_Name": "Civic"}})
	})
	mux.HandleFunc("/GetModelYearsForMakeId/", func(w http.ResponseWriter, r *http.Request) {
		write(w, []map[string]any{{"ModelYear": "2018"}, {"ModelYear": "2020"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_AgainstServer(t *testing.T) {
	srv := newVPICServer(t)
	client := NewClient(ClientConfig{BaseURL: srv.URL + "/", RateLimit: 1000, Burst: 10})
	ctx := context.Background()

	makes, err := client.GetAllMakes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []VPICMake{{ID: 474, Name: "HONDA"}, {ID: 999, Name: "GHOST"}}, makes)

	models, err := client.GetModelsForMakeID(ctx, 474)
	require.NoError(t, err)
	assert.Equal(t, []VPICModel{{ID: 1861, Name: "Civic"}}, models)

	years, err := client.GetModelYearsForMakeID(ctx, 474)
	require.NoError(t, err)
	assert.Equal(t, []string{"2018", "2020"}, years)

	_, err = client.GetModelsForMakeID(ctx, 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("status %d", http.StatusInternalServerError))
}

func TestUpdater_Update(t *testing.T) {
	srv := newVPICServer(t)
	client := NewClient(ClientConfig{BaseURL: srv.URL, RateLimit: 1000, Burst: 10})

	st, err := Open(filepath.Join(t.TempDir(), "cars.db"), nil)
	require.NoError(t, err)
	defer st.Close()

	stats, err := NewUpdater(NewFetcher(client, FetcherConfig{Concurrency: 2}, nil), st).Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UpsertStats{Makes: 1, Models: 1}, stats)

	makes, err := st.ListMakes(context.Background())
	require.NoError(t, err)
	require.Len(t, makes, 1)
	assert.Equal(t, "HONDA", makes[0].Name)
}
