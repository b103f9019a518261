package state

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Sternrassler/movie-search/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	MemoryBackend
	loadErr error
	saveErr error
}

func (f *failingBackend) Load(ctx context.Context) (Snapshot, error) {
	if f.loadErr != nil {
		return Snapshot{}, f.loadErr
	}
	return f.MemoryBackend.Load(ctx)
}

func (f *failingBackend) Save(ctx context.Context, snap Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryBackend.Save(ctx, snap)
}

func movies(titles ...string) []catalog.MovieSummary {
	out := make([]catalog.MovieSummary, len(titles))
	for i, title := range titles {
		out[i] = catalog.MovieSummary{ID: int64(i + 1), Title: title}
	}
	return out
}

func TestOpen_NilBackend(t *testing.T) {
	_, err := Open(context.Background(), nil)
	assert.Error(t, err)
}

func TestOpen_LoadError(t *testing.T) {
	backend := &failingBackend{loadErr: errors.New("disk on fire")}

	_, err := Open(context.Background(), backend)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestOpen_RestoresSavedQuery(t *testing.T) {
	backend := NewMemoryBackend(Snapshot{
		Query:   "alien",
		Results: movies("Alien"),
	})

	store, err := Open(context.Background(), backend)
	require.NoError(t, err)

	assert.Equal(t, catalog.SearchQuery("alien"), store.Get())
	assert.Len(t, store.Results(), 1)
}

func TestOpen_EmptyBackend(t *testing.T) {
	store, err := Open(context.Background(), NewMemoryBackend(Snapshot{}))
	require.NoError(t, err)

	assert.True(t, store.Get().IsEmpty())
	assert.Empty(t, store.Results())
}

func TestStore_SetPersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(Snapshot{})
	store, err := Open(ctx, backend)
	require.NoError(t, err)

	var got []catalog.SearchQuery
	store.Subscribe(func(q catalog.SearchQuery) {
		got = append(got, q)
	})

	require.NoError(t, store.Set(ctx, "alien"))
	require.NoError(t, store.Set(ctx, "heat"))

	assert.Equal(t, []catalog.SearchQuery{"alien", "heat"}, got)
	assert.Equal(t, catalog.SearchQuery("heat"), store.Get())

	saved, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.SearchQuery("heat"), saved.Query)
	assert.False(t, saved.UpdatedAt.IsZero())
	assert.Equal(t, 2, backend.Saves())
}

func TestStore_SetSameQueryStillNotifies(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, NewMemoryBackend(Snapshot{Query: "alien"}))
	require.NoError(t, err)

	calls := 0
	store.Subscribe(func(catalog.SearchQuery) { calls++ })

	require.NoError(t, store.Set(ctx, "alien"))
	assert.Equal(t, 1, calls)
}

func TestStore_SetSaveFailureStillNotifies(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{saveErr: errors.New("read-only")}
	store, err := Open(ctx, backend)
	require.NoError(t, err)

	var got catalog.SearchQuery
	store.Subscribe(func(q catalog.SearchQuery) { got = q })

	err = store.Set(ctx, "alien")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
	assert.Equal(t, catalog.SearchQuery("alien"), got)
	assert.Equal(t, catalog.SearchQuery("alien"), store.Get())
}

func TestStore_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, NewMemoryBackend(Snapshot{}))
	require.NoError(t, err)

	calls := 0
	unsubscribe := store.Subscribe(func(catalog.SearchQuery) { calls++ })

	require.NoError(t, store.Set(ctx, "alien"))
	unsubscribe()
	require.NoError(t, store.Set(ctx, "heat"))

	assert.Equal(t, 1, calls)
}

func TestStore_Results(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(Snapshot{})
	store, err := Open(ctx, backend)
	require.NoError(t, err)

	require.NoError(t, store.SetResults(ctx, movies("Alien", "Aliens")))
	assert.Len(t, store.Results(), 2)

	saved, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, saved.Results, 2)

	require.NoError(t, store.RemoveResults(ctx))
	assert.Empty(t, store.Results())

	saved, err = backend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, saved.Results)
}

func TestStore_ResultsAreCopies(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, NewMemoryBackend(Snapshot{}))
	require.NoError(t, err)

	in := movies("Alien")
	require.NoError(t, store.SetResults(ctx, in))
	in[0].Title = "mutated"

	out := store.Results()
	assert.Equal(t, "Alien", out[0].Title)
	out[0].Title = "mutated"
	assert.Equal(t, "Alien", store.Results()[0].Title)
}

func TestStore_ConcurrentSet(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(Snapshot{})
	store, err := Open(ctx, backend)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, q := range []catalog.SearchQuery{"a", "b", "c", "d", "e"} {
		wg.Add(1)
		go func(q catalog.SearchQuery) {
			defer wg.Done()
			assert.NoError(t, store.Set(ctx, q))
		}(q)
	}
	wg.Wait()

	saved, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Get(), saved.Query)
}

func TestStore_ConcurrentSetNotifiesInWriteOrder(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, NewMemoryBackend(Snapshot{}))
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		notified catalog.SearchQuery
	)
	store.Subscribe(func(q catalog.SearchQuery) {
		mu.Lock()
		notified = q
		mu.Unlock()
	})

	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		for _, q := range []catalog.SearchQuery{"alien", "heat", "ran", "up"} {
			wg.Add(1)
			go func(q catalog.SearchQuery) {
				defer wg.Done()
				assert.NoError(t, store.Set(ctx, q))
			}(q)
		}
		wg.Wait()

		mu.Lock()
		last := notified
		mu.Unlock()
		require.Equal(t, store.Get(), last, "round %d", round)
	}
}
