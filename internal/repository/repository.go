// Package repository implements the cache-aside coordinator that presents a
// single service.DataSource over an in-memory cache, a local store and a
// remote store.
//
// Reads prefer the cache, then the local store, then the remote store, and
// populate the cache on the way back. Writes update the cache first and then
// go to the remote and local stores in that order. RefreshTasks marks the
// cache dirty so the next full listing is fetched from the remote store and
// copied over the local one.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"todo/internal/logging"
	"todo/internal/service"
)

// maxFillAttempts bounds how often a full listing is re-read when writes keep
// landing while it is in flight.
const maxFillAttempts = 3

// Repository coordinates the cache, the local store and the remote store.
// Construct one with New and share it between consumers.
type Repository struct {
	remote service.DataSource
	local  service.DataSource
	log    *logrus.Entry

	// fillMu is held shared by every write for its whole duration and
	// exclusively while a full listing replaces the cache and local store.
	fillMu sync.RWMutex

	// mu guards cache, dirty and writes. It is never held across store calls.
	mu    sync.Mutex
	cache *taskCache
	dirty bool
	// writes counts finished writes. A listing read before a write finished
	// must not replace what that write put in place.
	writes uint64
}

var _ service.DataSource = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used when the request context carries none.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Repository) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a Repository over the given remote and local stores.
func New(remote, local service.DataSource, opts ...Option) *Repository {
	if remote == nil || local == nil {
		panic("repository.New: remote and local data sources are required")
	}
	r := &Repository{
		remote: remote,
		local:  local,
		log:    logging.Discard(),
		cache:  newTaskCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithField("component", "repository")
	return r
}

func (r *Repository) logger(ctx context.Context) *logrus.Entry {
	return logging.FromContext(ctx, r.log)
}

// GetTasks returns every task.
// A clean, non-empty cache is returned without I/O. Otherwise the local store
// is tried unless the cache is dirty, and the remote store is the last resort.
// A successful remote fetch replaces both the cache and the local store.
func (r *Repository) GetTasks(ctx context.Context) ([]service.Task, error) {
	log := r.logger(ctx)

	r.mu.Lock()
	if r.cache.len() > 0 && !r.dirty {
		tasks := r.cache.snapshot()
		r.mu.Unlock()
		log.WithField("count", len(tasks)).Debug("serving tasks from cache")
		return tasks, nil
	}
	dirty := r.dirty
	r.mu.Unlock()

	if !dirty {
		tasks, err := r.loadLocal(ctx, log)
		if err == nil {
			return tasks, nil
		}
		log.WithError(err).Debug("local tasks unavailable, fetching from remote")
	}

	return r.fetchRemote(ctx, log)
}

func (r *Repository) loadLocal(ctx context.Context, log *logrus.Entry) ([]service.Task, error) {
	var tasks []service.Task
	for attempt := 0; attempt < maxFillAttempts; attempt++ {
		gen := r.generation()
		var err error
		tasks, err = r.local.GetTasks(ctx)
		if err != nil {
			return nil, err
		}
		if snapshot, ok, _ := r.fill(ctx, gen, tasks, false); ok {
			log.WithField("count", len(snapshot)).Debug("loaded tasks from local store")
			return snapshot, nil
		}
		log.Debug("tasks changed while reading local store, reading again")
	}
	log.Warn("tasks kept changing while reading local store, cache left as is")
	return tasks, nil
}

func (r *Repository) fetchRemote(ctx context.Context, log *logrus.Entry) ([]service.Task, error) {
	var tasks []service.Task
	for attempt := 0; attempt < maxFillAttempts; attempt++ {
		gen := r.generation()
		var err error
		tasks, err = r.remote.GetTasks(ctx)
		if err != nil {
			log.WithError(err).Warn("failed to fetch tasks from remote")
			return nil, remoteNotFound(err)
		}

		snapshot, ok, err := r.fill(ctx, gen, tasks, true)
		if !ok {
			log.Debug("tasks changed while fetching from remote, fetching again")
			continue
		}
		if err != nil {
			log.WithError(err).Warn("failed to overwrite local store with remote tasks")
		}
		log.WithField("count", len(snapshot)).Debug("loaded tasks from remote")
		return snapshot, nil
	}
	log.Warn("tasks kept changing while fetching from remote, cache left as is")
	return tasks, nil
}

func (r *Repository) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// fill replaces the cache with tasks, and the local store too when
// overwriteLocal is set, then clears the dirty flag. Nothing is replaced and
// ok is false when a write finished after gen was read.
func (r *Repository) fill(ctx context.Context, gen uint64, tasks []service.Task, overwriteLocal bool) (snapshot []service.Task, ok bool, err error) {
	r.fillMu.Lock()
	defer r.fillMu.Unlock()

	r.mu.Lock()
	if r.writes != gen {
		r.mu.Unlock()
		return nil, false, nil
	}
	r.cache.clear()
	for _, t := range tasks {
		r.cache.put(t)
	}
	r.dirty = false
	snapshot = r.cache.snapshot()
	r.mu.Unlock()

	if overwriteLocal {
		err = r.refreshLocal(ctx, tasks)
	}
	return snapshot, true, err
}

// refreshLocal overwrites the local store with tasks.
func (r *Repository) refreshLocal(ctx context.Context, tasks []service.Task) error {
	if err := r.local.DeleteAllTasks(ctx); err != nil {
		return err
	}
	var errs []error
	for _, t := range tasks {
		if err := r.local.SaveTask(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}

// beginWrite keeps full listings from replacing the cache until endWrite.
func (r *Repository) beginWrite() {
	r.fillMu.RLock()
}

func (r *Repository) endWrite() {
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
	r.fillMu.RUnlock()
}

// GetTask returns the task with the given ID from the cache, the local store
// or the remote store, in that order. The cache is consulted even when dirty.
func (r *Repository) GetTask(ctx context.Context, id string) (service.Task, error) {
	log := r.logger(ctx).WithField("task_id", id)

	r.mu.Lock()
	t, ok := r.cache.get(id)
	r.mu.Unlock()
	if ok {
		log.Debug("serving task from cache")
		return t, nil
	}

	t, err := r.local.GetTask(ctx, id)
	if err == nil {
		r.cachePut(t)
		return t, nil
	}
	log.WithError(err).Debug("local task unavailable, fetching from remote")

	t, err = r.remote.GetTask(ctx, id)
	if err == nil {
		r.cachePut(t)
		return t, nil
	}
	return service.Task{}, remoteNotFound(err)
}

func (r *Repository) cachePut(t service.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.put(t)
}

// SaveTask caches the task and writes it to the remote and local stores.
// A task without an ID is given a new one.
func (r *Repository) SaveTask(ctx context.Context, task service.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	r.beginWrite()
	defer r.endWrite()
	r.cachePut(task)
	return r.writeThrough(ctx, "save", task.ID, func(ds service.DataSource) error {
		return ds.SaveTask(ctx, task)
	})
}

// CompleteTask caches a completed copy of the task and writes it through.
func (r *Repository) CompleteTask(ctx context.Context, task service.Task) error {
	completed := task.WithCompleted(true)
	r.beginWrite()
	defer r.endWrite()
	r.cachePut(completed)
	return r.writeThrough(ctx, "complete", task.ID, func(ds service.DataSource) error {
		return ds.CompleteTask(ctx, completed)
	})
}

// CompleteTaskByID completes a cached task. Tasks that are not cached are
// ignored.
func (r *Repository) CompleteTaskByID(ctx context.Context, id string) error {
	r.mu.Lock()
	t, ok := r.cache.get(id)
	r.mu.Unlock()
	if !ok {
		r.logger(ctx).WithField("task_id", id).Debug("complete by id ignored, task not cached")
		return nil
	}
	return r.CompleteTask(ctx, t)
}

// ActivateTask caches an active copy of the task and writes it through.
func (r *Repository) ActivateTask(ctx context.Context, task service.Task) error {
	active := task.WithCompleted(false)
	r.beginWrite()
	defer r.endWrite()
	r.cachePut(active)
	return r.writeThrough(ctx, "activate", task.ID, func(ds service.DataSource) error {
		return ds.ActivateTask(ctx, active)
	})
}

// ActivateTaskByID activates a cached task. Tasks that are not cached are
// ignored.
func (r *Repository) ActivateTaskByID(ctx context.Context, id string) error {
	r.mu.Lock()
	t, ok := r.cache.get(id)
	r.mu.Unlock()
	if !ok {
		r.logger(ctx).WithField("task_id", id).Debug("activate by id ignored, task not cached")
		return nil
	}
	return r.ActivateTask(ctx, t)
}

// ClearCompletedTasks deletes completed tasks from both stores and the cache.
func (r *Repository) ClearCompletedTasks(ctx context.Context) error {
	r.beginWrite()
	defer r.endWrite()

	err := r.writeThrough(ctx, "clear completed", "", func(ds service.DataSource) error {
		return ds.ClearCompletedTasks(ctx)
	})

	r.mu.Lock()
	r.cache.retain(service.Task.IsActive)
	r.mu.Unlock()
	return err
}

// RefreshTasks marks the cache dirty. It performs no I/O.
func (r *Repository) RefreshTasks(ctx context.Context) error {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
	r.logger(ctx).Debug("cache marked dirty")
	return nil
}

// DeleteAllTasks deletes every task from both stores and empties the cache.
func (r *Repository) DeleteAllTasks(ctx context.Context) error {
	r.beginWrite()
	defer r.endWrite()

	err := r.writeThrough(ctx, "delete all", "", func(ds service.DataSource) error {
		return ds.DeleteAllTasks(ctx)
	})

	r.mu.Lock()
	r.cache.clear()
	r.mu.Unlock()
	return err
}

// DeleteTask deletes the task from both stores and the cache.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	r.beginWrite()
	defer r.endWrite()

	err := r.writeThrough(ctx, "delete", id, func(ds service.DataSource) error {
		return ds.DeleteTask(ctx, id)
	})

	r.mu.Lock()
	r.cache.remove(id)
	r.mu.Unlock()
	return err
}

// writeThrough applies op to the remote store and then the local store.
// Both stores are always attempted; failures are logged and returned joined.
func (r *Repository) writeThrough(ctx context.Context, action, id string, op func(service.DataSource) error) error {
	log := r.logger(ctx).WithField("action", action)
	if id != "" {
		log = log.WithField("task_id", id)
	}

	var errs []error
	if err := op(r.remote); err != nil {
		log.WithError(err).Warn("remote write failed")
		errs = append(errs, fmt.Errorf("remote %s: %w", action, err))
	}
	if err := op(r.local); err != nil {
		log.WithError(err).Warn("local write failed")
		errs = append(errs, fmt.Errorf("local %s: %w", action, err))
	}
	return errors.Join(errs...)
}

// Close closes the underlying stores that hold resources.
func (r *Repository) Close() error {
	var errs []error
	for _, ds := range []service.DataSource{r.remote, r.local} {
		if c, ok := ds.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// remoteNotFound maps a remote failure to ErrRemoteNotFound, keeping the cause.
func remoteNotFound(err error) error {
	if errors.Is(err, service.ErrRemoteNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", service.ErrRemoteNotFound, err)
}
