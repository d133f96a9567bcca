// Package memory provides a remote service.DataSource kept in process memory.
// Every call is delayed by a configurable latency to behave like a network
// service.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"todo/internal/backend"
	"todo/internal/service"
)

// DefaultLatency is the delay applied to every call when none is configured.
const DefaultLatency = 200 * time.Millisecond

// Store is an insertion-ordered task table guarded by a mutex.
type Store struct {
	latency time.Duration

	mu    sync.RWMutex
	order []string
	tasks map[string]service.Task
}

var _ service.DataSource = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLatency sets the delay applied to every call.
func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		s.latency = d
	}
}

// WithTasks seeds the store.
func WithTasks(tasks ...service.Task) Option {
	return func(s *Store) {
		for _, t := range tasks {
			s.put(t)
		}
	}
}

// SampleTasks returns the two tasks a fresh demo store starts with. Their IDs
// are fixed so every run seeds the same tasks.
func SampleTasks() []service.Task {
	return []service.Task{
		{ID: "sample-pisa", Title: "Build tower in Pisa", Description: "Ground looks good, no foundation work required."},
		{ID: "sample-tacoma", Title: "Finish bridge in Tacoma", Description: "Found awesome girders at half the cost!"},
	}
}

// SeedFrom returns the tasks a Store standing in for a remote should start
// with: a copy of src, or SampleTasks when src holds none. The store lives
// only as long as the process, so seeding it from the local store keeps a
// refresh from dropping tasks added in earlier runs.
func SeedFrom(ctx context.Context, src service.DataSource) ([]service.Task, error) {
	tasks, err := src.GetTasks(ctx)
	if err != nil && !errors.Is(err, service.ErrLocalNotFound) {
		return nil, fmt.Errorf("failed to read seed tasks: %w", err)
	}
	if len(tasks) == 0 {
		return SampleTasks(), nil
	}
	return tasks, nil
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		latency: DefaultLatency,
		tasks:   make(map[string]service.Task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// put inserts or replaces t. Callers must hold mu.
func (s *Store) put(t service.Task) {
	if _, ok := s.tasks[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.tasks[t.ID] = t
}

// retain drops tasks for which keep is false. Callers must hold mu.
func (s *Store) retain(keep func(service.Task) bool) {
	order := s.order[:0]
	for _, id := range s.order {
		if keep(s.tasks[id]) {
			order = append(order, id)
			continue
		}
		delete(s.tasks, id)
	}
	s.order = order
}

// GetTasks returns every task in insertion order. An empty store is not an
// error.
func (s *Store) GetTasks(ctx context.Context) ([]service.Task, error) {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]service.Task, 0, len(s.order))
	for _, id := range s.order {
		tasks = append(tasks, s.tasks[id])
	}
	return tasks, nil
}

// GetTask returns the task with the given ID.
func (s *Store) GetTask(ctx context.Context, id string) (service.Task, error) {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return service.Task{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return service.Task{}, fmt.Errorf("%w: task %s", service.ErrRemoteNotFound, id)
	}
	return t, nil
}

// SaveTask inserts or replaces the task.
func (s *Store) SaveTask(ctx context.Context, task service.Task) error {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(task)
	return nil
}

// CompleteTask stores a completed copy of the task.
func (s *Store) CompleteTask(ctx context.Context, task service.Task) error {
	return s.SaveTask(ctx, task.WithCompleted(true))
}

// CompleteTaskByID is a no-op.
func (s *Store) CompleteTaskByID(ctx context.Context, id string) error {
	return nil
}

// ActivateTask stores an active copy of the task.
func (s *Store) ActivateTask(ctx context.Context, task service.Task) error {
	return s.SaveTask(ctx, task.WithCompleted(false))
}

// ActivateTaskByID is a no-op.
func (s *Store) ActivateTaskByID(ctx context.Context, id string) error {
	return nil
}

// ClearCompletedTasks removes every completed task.
func (s *Store) ClearCompletedTasks(ctx context.Context) error {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retain(service.Task.IsActive)
	return nil
}

// RefreshTasks is a no-op.
func (s *Store) RefreshTasks(ctx context.Context) error {
	return nil
}

// DeleteAllTasks removes every task.
func (s *Store) DeleteAllTasks(ctx context.Context) error {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.tasks = make(map[string]service.Task)
	return nil
}

// DeleteTask removes one task. Removing a missing task is not an error.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return nil
	}
	s.retain(func(t service.Task) bool { return t.ID != id })
	return nil
}
