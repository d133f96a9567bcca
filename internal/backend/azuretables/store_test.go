package azuretables

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/service"
)

// fakeTable keeps entities in memory, keyed by row key.
type fakeTable struct {
	mu       sync.Mutex
	rows     map[string][]byte
	created  bool
	listErr  error
	upserted []aztables.UpdateMode
}

func newFakeTable() *fakeTable {
	return &fakeTable{rows: make(map[string][]byte)}
}

func notFound() error {
	return &azcore.ResponseError{StatusCode: 404, ErrorCode: string(aztables.ResourceNotFound)}
}

func (f *fakeTable) CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.created {
		return aztables.CreateTableResponse{}, &azcore.ResponseError{StatusCode: 409, ErrorCode: string(aztables.TableAlreadyExists)}
	}
	f.created = true
	return aztables.CreateTableResponse{}, nil
}

func (f *fakeTable) GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.rows[rowKey]
	if !ok || partitionKey != PartitionKey {
		return aztables.GetEntityResponse{}, notFound()
	}
	return aztables.GetEntityResponse{Value: raw}, nil
}

func (f *fakeTable) UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error) {
	var keys struct {
		RowKey string `json:"RowKey"`
	}
	if err := json.Unmarshal(entity, &keys); err != nil {
		return aztables.UpsertEntityResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[keys.RowKey] = entity
	if options != nil {
		f.upserted = append(f.upserted, options.UpdateMode)
	}
	return aztables.UpsertEntityResponse{}, nil
}

func (f *fakeTable) DeleteEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[rowKey]; !ok {
		return aztables.DeleteEntityResponse{}, notFound()
	}
	delete(f.rows, rowKey)
	return aztables.DeleteEntityResponse{}, nil
}

// NewListEntitiesPager returns all matching rows in one page. Only the two
// filters the store sends are understood.
func (f *fakeTable) NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse] {
	onlyCompleted := options != nil && options.Filter != nil && strings.Contains(*options.Filter, "Completed eq true")
	return runtime.NewPager(runtime.PagingHandler[aztables.ListEntitiesResponse]{
		More: func(aztables.ListEntitiesResponse) bool { return false },
		Fetcher: func(ctx context.Context, _ *aztables.ListEntitiesResponse) (aztables.ListEntitiesResponse, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.listErr != nil {
				return aztables.ListEntitiesResponse{}, f.listErr
			}
			var resp aztables.ListEntitiesResponse
			for _, raw := range f.rows {
				var ent taskEntity
				if err := json.Unmarshal(raw, &ent); err != nil {
					return aztables.ListEntitiesResponse{}, err
				}
				if onlyCompleted && !ent.Completed {
					continue
				}
				resp.Entities = append(resp.Entities, raw)
			}
			return resp, nil
		},
	})
}

func newTestStore() (*Store, *fakeTable) {
	table := newFakeTable()
	store := newStore(table)

	// Strictly increasing clock so creation order is deterministic.
	var mu sync.Mutex
	clock := time.Unix(1700000000, 0)
	store.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return store, table
}

func TestNew_InvalidConnectionString(t *testing.T) {
	_, err := New("not a connection string", "tasks")
	assert.Error(t, err)
}

func TestStore_EnsureTable(t *testing.T) {
	store, table := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureTable(ctx))
	require.NoError(t, store.EnsureTable(ctx))
	assert.True(t, table.created)
}

func TestStore_EmptyIsNotAnError(t *testing.T) {
	store, _ := newTestStore()

	tasks, err := store.GetTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStore_GetTaskMiss(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrRemoteNotFound)
}

func TestStore_SaveKeepsCreationOrder(t *testing.T) {
	store, table := newTestStore()
	ctx := context.Background()

	a := service.Task{ID: "a", Title: "first"}
	b := service.Task{ID: "b", Title: "second", Description: "d"}
	c := service.Task{ID: "c", Title: "third"}
	require.NoError(t, store.SaveTask(ctx, a))
	require.NoError(t, store.SaveTask(ctx, b))
	require.NoError(t, store.SaveTask(ctx, c))

	a.Title = "first, renamed"
	require.NoError(t, store.SaveTask(ctx, a))

	tasks, err := store.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []service.Task{a, b, c}, tasks)

	for _, mode := range table.upserted {
		assert.Equal(t, aztables.UpdateModeReplace, mode)
	}

	var stored map[string]any
	require.NoError(t, json.Unmarshal(table.rows["b"], &stored))
	assert.Equal(t, PartitionKey, stored["PartitionKey"])
	assert.Equal(t, "Edm.Int64", stored["Seq@odata.type"])
}

func TestStore_CompleteActivateClear(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	a := service.Task{ID: "a", Title: "a"}
	b := service.Task{ID: "b", Title: "b"}
	require.NoError(t, store.SaveTask(ctx, a))
	require.NoError(t, store.SaveTask(ctx, b))

	require.NoError(t, store.CompleteTask(ctx, a))
	require.NoError(t, store.CompleteTask(ctx, b))
	require.NoError(t, store.ActivateTask(ctx, b))

	got, err := store.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Completed)

	require.NoError(t, store.ClearCompletedTasks(ctx))

	tasks, err := store.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []service.Task{b}, tasks)
}

func TestStore_Delete(t *testing.T) {
	store, table := newTestStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveTask(ctx, service.Task{ID: id, Title: id}))
	}

	require.NoError(t, store.DeleteTask(ctx, "b"))
	require.NoError(t, store.DeleteTask(ctx, "missing"))
	assert.Len(t, table.rows, 2)

	require.NoError(t, store.DeleteAllTasks(ctx))
	assert.Empty(t, table.rows)
}

func TestStore_ListFailureIsDataSourceError(t *testing.T) {
	store, table := newTestStore()
	table.listErr = errors.New("connection reset")

	_, err := store.GetTasks(context.Background())
	assert.ErrorIs(t, err, service.ErrDataSource)
	assert.ErrorIs(t, store.ClearCompletedTasks(context.Background()), service.ErrDataSource)
}

func TestStore_NoOps(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	assert.NoError(t, store.CompleteTaskByID(ctx, "a"))
	assert.NoError(t, store.ActivateTaskByID(ctx, "a"))
	assert.NoError(t, store.RefreshTasks(ctx))
}
