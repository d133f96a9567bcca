package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/repository"
	"todo/internal/service"
	"todo/internal/testutil"
)

func newStore(tasks ...service.Task) *Store {
	return New(WithLatency(0), WithTasks(tasks...))
}

func TestStore_EmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	tasks, err := newStore().GetTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStore_GetTaskMiss(t *testing.T) {
	t.Parallel()

	_, err := newStore().GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrRemoteNotFound)
	assert.True(t, service.IsNotFound(err))
}

func TestStore_SaveKeepsPosition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a := service.Task{ID: "a", Title: "a"}
	b := service.Task{ID: "b", Title: "b"}
	s := newStore(a, b)

	a.Title = "a2"
	require.NoError(t, s.SaveTask(ctx, a))

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []service.Task{a, b}, tasks)
}

func TestStore_CompleteActivateClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a := service.Task{ID: "a", Title: "a"}
	b := service.Task{ID: "b", Title: "b"}
	s := newStore(a, b)

	require.NoError(t, s.CompleteTask(ctx, a))
	require.NoError(t, s.CompleteTask(ctx, b))
	require.NoError(t, s.ActivateTask(ctx, b))

	got, err := s.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Completed)

	require.NoError(t, s.ClearCompletedTasks(ctx))
	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []service.Task{b}, tasks)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newStore(
		service.Task{ID: "a", Title: "a"},
		service.Task{ID: "b", Title: "b"},
		service.Task{ID: "c", Title: "c"},
	)

	require.NoError(t, s.DeleteTask(ctx, "b"))
	require.NoError(t, s.DeleteTask(ctx, "missing"))

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "c", tasks[1].ID)

	require.NoError(t, s.DeleteAllTasks(ctx))
	tasks, err = s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStore_LatencyHonoursContext(t *testing.T) {
	t.Parallel()

	s := New(WithLatency(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.GetTasks(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, s.SaveTask(ctx, service.Task{ID: "x"}), context.DeadlineExceeded)
}

func TestSampleTasks(t *testing.T) {
	t.Parallel()

	tasks := SampleTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "Build tower in Pisa", tasks[0].Title)
	assert.Equal(t, "Finish bridge in Tacoma", tasks[1].Title)
	assert.NotEqual(t, tasks[0].ID, tasks[1].ID)
	assert.Equal(t, tasks, SampleTasks(), "sample IDs are stable across calls")
}

func TestSeedFrom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	empty, err := SeedFrom(ctx, testutil.NewFakeLocal())
	require.NoError(t, err)
	assert.Equal(t, SampleTasks(), empty)

	local := testutil.NewFakeLocal()
	local.AddTasks(service.Task{ID: "x", Title: "added locally"})
	seeded, err := SeedFrom(ctx, local)
	require.NoError(t, err)
	assert.Equal(t, []service.Task{{ID: "x", Title: "added locally"}}, seeded)

	broken := testutil.NewFakeLocal()
	broken.GetTasksErr = service.ErrDataSource
	_, err = SeedFrom(ctx, broken)
	assert.ErrorIs(t, err, service.ErrDataSource)
}

func TestSeedFrom_RefreshKeepsTasksFromEarlierRuns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	local := testutil.NewFakeLocal()
	added := service.Task{ID: "x", Title: "added in first run"}

	first := newSeededRepository(t, local)
	_, err := first.GetTasks(ctx)
	require.NoError(t, err)
	require.NoError(t, first.SaveTask(ctx, added))

	second := newSeededRepository(t, local)
	require.NoError(t, second.RefreshTasks(ctx))
	tasks, err := second.GetTasks(ctx)
	require.NoError(t, err)

	want := append(SampleTasks(), added)
	assert.Equal(t, want, tasks)
	assert.Equal(t, want, local.Tasks())
}

func newSeededRepository(t *testing.T, local service.DataSource) *repository.Repository {
	t.Helper()
	seed, err := SeedFrom(context.Background(), local)
	require.NoError(t, err)
	return repository.New(New(WithLatency(0), WithTasks(seed...)), local)
}
