// Package redisstore implements the remote service.DataSource on Redis.
//
// Tasks are stored as JSON in the hash <prefix>:tasks. Their order is kept in
// the sorted set <prefix>:order, scored by the counter <prefix>:seq, so a
// replaced task keeps its position.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"todo/internal/backend"
	"todo/internal/config"
	"todo/internal/service"
)

// DefaultPrefix namespaces keys when none is configured.
const DefaultPrefix = "todo"

// Store implements service.DataSource on a Redis client.
type Store struct {
	client  *redis.Client
	prefix  string
	latency time.Duration
}

var _ service.DataSource = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLatency adds an artificial delay to every call.
func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		s.latency = d
	}
}

// Connect creates a client for cfg and checks it with PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// New creates a Store on client.
func New(client *redis.Client, opts ...Option) *Store {
	if client == nil {
		panic("redisstore.New: client is nil")
	}
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) tasksKey() string { return s.prefix + ":tasks" }
func (s *Store) orderKey() string { return s.prefix + ":order" }
func (s *Store) seqKey() string   { return s.prefix + ":seq" }

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// GetTasks returns every task in insertion order. An empty table is not an
// error.
func (s *Store) GetTasks(ctx context.Context) ([]service.Task, error) {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return nil, err
	}
	return s.loadAll(ctx)
}

func (s *Store) loadAll(ctx context.Context) ([]service.Task, error) {
	ids, err := s.client.ZRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, wrapError("list task order", err)
	}
	tasks := make([]service.Task, 0, len(ids))
	if len(ids) == 0 {
		return tasks, nil
	}

	values, err := s.client.HMGet(ctx, s.tasksKey(), ids...).Result()
	if err != nil {
		return nil, wrapError("load tasks", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Order entry without a task body; skip it.
			continue
		}
		t, err := decodeTask(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode task %s: %w", ids[i], err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// GetTask returns the task with the given ID.
func (s *Store) GetTask(ctx context.Context, id string) (service.Task, error) {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return service.Task{}, err
	}
	raw, err := s.client.HGet(ctx, s.tasksKey(), id).Result()
	if err != nil {
		return service.Task{}, wrapError("get task", err)
	}
	t, err := decodeTask(raw)
	if err != nil {
		return service.Task{}, fmt.Errorf("failed to decode task %s: %w", id, err)
	}
	return t, nil
}

// SaveTask inserts or replaces the task.
func (s *Store) SaveTask(ctx context.Context, task service.Task) error {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return err
	}
	return s.put(ctx, task)
}

func (s *Store) put(ctx context.Context, task service.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return wrapError("allocate sequence", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.tasksKey(), task.ID, data)
		p.ZAddNX(ctx, s.orderKey(), redis.Z{Score: float64(seq), Member: task.ID})
		return nil
	})
	if err != nil {
		return wrapError("save task", err)
	}
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
	tasks, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	var ids []string
	for _, t := range tasks {
		if t.Completed {
			ids = append(ids, t.ID)
		}
	}
	return s.remove(ctx, ids...)
}

// RefreshTasks is a no-op.
func (s *Store) RefreshTasks(ctx context.Context) error {
	return nil
}

// DeleteAllTasks removes every task and resets the sequence.
func (s *Store) DeleteAllTasks(ctx context.Context) error {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.tasksKey(), s.orderKey(), s.seqKey()).Err(); err != nil {
		return wrapError("delete tasks", err)
	}
	return nil
}

// DeleteTask removes one task. Removing a missing task is not an error.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := backend.Wait(ctx, s.latency); err != nil {
		return err
	}
	return s.remove(ctx, id)
}

func (s *Store) remove(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, s.tasksKey(), ids...)
		p.ZRem(ctx, s.orderKey(), members...)
		return nil
	})
	if err != nil {
		return wrapError("delete task", err)
	}
	return nil
}

func decodeTask(raw string) (service.Task, error) {
	var t service.Task
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return service.Task{}, err
	}
	return t, nil
}

// wrapError maps redis.Nil to ErrRemoteNotFound and everything else to
// ErrDataSource, keeping the cause.
func wrapError(op string, err error) error {
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", op, service.ErrRemoteNotFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, service.ErrDataSource, err)
}
