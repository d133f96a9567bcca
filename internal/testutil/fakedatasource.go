// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"todo/internal/service"
)

// Operation names counted by FakeDataSource.
const (
	OpGetTasks            = "GetTasks"
	OpGetTask             = "GetTask"
	OpSaveTask            = "SaveTask"
	OpCompleteTask        = "CompleteTask"
	OpCompleteTaskByID    = "CompleteTaskByID"
	OpActivateTask        = "ActivateTask"
	OpActivateTaskByID    = "ActivateTaskByID"
	OpClearCompletedTasks = "ClearCompletedTasks"
	OpRefreshTasks        = "RefreshTasks"
	OpDeleteAllTasks      = "DeleteAllTasks"
	OpDeleteTask          = "DeleteTask"
)

// FakeDataSource is an in-memory implementation of service.DataSource for testing.
// It keeps insertion order and counts every call.
type FakeDataSource struct {
	mu    sync.RWMutex
	ids   []string
	tasks map[string]service.Task
	calls map[string]int

	// NotFoundErr is returned by GetTask on a miss.
	NotFoundErr error

	// EmptyErr is returned by GetTasks when the store is empty.
	// Nil means an empty slice is a success.
	EmptyErr error

	// Error injection for testing
	GetTasksErr       error
	GetTaskErr        error
	SaveTaskErr       error
	CompleteTaskErr   error
	ActivateTaskErr   error
	ClearCompletedErr error
	DeleteAllErr      error
	DeleteTaskErr     error
}

// NewFakeLocal creates a FakeDataSource that fails like the local store:
// an empty table and a missing row are both ErrLocalNotFound.
func NewFakeLocal() *FakeDataSource {
	f := newFake()
	f.NotFoundErr = service.ErrLocalNotFound
	f.EmptyErr = service.ErrLocalNotFound
	return f
}

// NewFakeRemote creates a FakeDataSource that fails like a remote store:
// a missing task is ErrRemoteNotFound and an empty list is a success.
func NewFakeRemote() *FakeDataSource {
	f := newFake()
	f.NotFoundErr = service.ErrRemoteNotFound
	return f
}

func newFake() *FakeDataSource {
	return &FakeDataSource{
		tasks: make(map[string]service.Task),
		calls: make(map[string]int),
	}
}

// AddTasks stores tasks without counting a call.
func (f *FakeDataSource) AddTasks(tasks ...service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tasks {
		f.put(t)
	}
}

// Tasks returns a snapshot of the stored tasks in insertion order.
func (f *FakeDataSource) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot()
}

// Calls returns how many times op was invoked.
func (f *FakeDataSource) Calls(op string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[op]
}

// ResetCalls clears the call counters.
func (f *FakeDataSource) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
}

func (f *FakeDataSource) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *FakeDataSource) put(t service.Task) {
	if _, ok := f.tasks[t.ID]; !ok {
		f.ids = append(f.ids, t.ID)
	}
	f.tasks[t.ID] = t
}

func (f *FakeDataSource) remove(id string) {
	if _, ok := f.tasks[id]; !ok {
		return
	}
	delete(f.tasks, id)
	for i, existing := range f.ids {
		if existing == id {
			f.ids = append(f.ids[:i], f.ids[i+1:]...)
			break
		}
	}
}

func (f *FakeDataSource) snapshot() []service.Task {
	result := make([]service.Task, 0, len(f.ids))
	for _, id := range f.ids {
		result = append(result, f.tasks[id])
	}
	return result
}

// GetTasks implements service.DataSource.
func (f *FakeDataSource) GetTasks(ctx context.Context) ([]service.Task, error) {
	f.count(OpGetTasks)
	if f.GetTasksErr != nil {
		return nil, f.GetTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.ids) == 0 && f.EmptyErr != nil {
		return nil, f.EmptyErr
	}
	return f.snapshot(), nil
}

// GetTask implements service.DataSource.
func (f *FakeDataSource) GetTask(ctx context.Context, id string) (service.Task, error) {
	f.count(OpGetTask)
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[id]
	if !ok {
		return service.Task{}, f.NotFoundErr
	}
	return t, nil
}

// SaveTask implements service.DataSource.
func (f *FakeDataSource) SaveTask(ctx context.Context, task service.Task) error {
	f.count(OpSaveTask)
	if f.SaveTaskErr != nil {
		return f.SaveTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(task)
	return nil
}

// CompleteTask implements service.DataSource.
func (f *FakeDataSource) CompleteTask(ctx context.Context, task service.Task) error {
	f.count(OpCompleteTask)
	if f.CompleteTaskErr != nil {
		return f.CompleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(task.WithCompleted(true))
	return nil
}

// CompleteTaskByID implements service.DataSource. It is a no-op.
func (f *FakeDataSource) CompleteTaskByID(ctx context.Context, id string) error {
	f.count(OpCompleteTaskByID)
	return nil
}

// ActivateTask implements service.DataSource.
func (f *FakeDataSource) ActivateTask(ctx context.Context, task service.Task) error {
	f.count(OpActivateTask)
	if f.ActivateTaskErr != nil {
		return f.ActivateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(task.WithCompleted(false))
	return nil
}

// ActivateTaskByID implements service.DataSource. It is a no-op.
func (f *FakeDataSource) ActivateTaskByID(ctx context.Context, id string) error {
	f.count(OpActivateTaskByID)
	return nil
}

// ClearCompletedTasks implements service.DataSource.
func (f *FakeDataSource) ClearCompletedTasks(ctx context.Context) error {
	f.count(OpClearCompletedTasks)
	if f.ClearCompletedErr != nil {
		return f.ClearCompletedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.snapshot() {
		if t.Completed {
			f.remove(t.ID)
		}
	}
	return nil
}

// RefreshTasks implements service.DataSource. It is a no-op.
func (f *FakeDataSource) RefreshTasks(ctx context.Context) error {
	f.count(OpRefreshTasks)
	return nil
}

// DeleteAllTasks implements service.DataSource.
func (f *FakeDataSource) DeleteAllTasks(ctx context.Context) error {
	f.count(OpDeleteAllTasks)
	if f.DeleteAllErr != nil {
		return f.DeleteAllErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = nil
	f.tasks = make(map[string]service.Task)
	return nil
}

// DeleteTask implements service.DataSource.
func (f *FakeDataSource) DeleteTask(ctx context.Context, id string) error {
	f.count(OpDeleteTask)
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remove(id)
	return nil
}
