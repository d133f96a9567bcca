// Package azuretables implements the remote service.DataSource on an Azure
// Storage table. All tasks live in one partition, keyed by task ID.
package azuretables

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"todo/internal/service"
)

const (
	// PartitionKey holds every task.
	PartitionKey = "tasks"

	edmInt64 = "Edm.Int64"

	// completedFilter selects completed tasks of the partition.
	completedFilter = "PartitionKey eq '" + PartitionKey + "' and Completed eq true"
	partitionFilter = "PartitionKey eq '" + PartitionKey + "'"
)

// tableClient is the subset of *aztables.Client the store uses.
type tableClient interface {
	CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

// taskEntity is the table row of a task.
type taskEntity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
	Title        string `json:"Title"`
	Description  string `json:"Description"`
	Completed    bool   `json:"Completed"`
	Seq          int64  `json:"Seq,string"`
	SeqType      string `json:"Seq@odata.type"`
}

func (e taskEntity) task() service.Task {
	return service.Task{
		ID:          e.RowKey,
		Title:       e.Title,
		Description: e.Description,
		Completed:   e.Completed,
	}
}

// Store implements service.DataSource on an Azure table.
type Store struct {
	table tableClient
	now   func() time.Time
}

var _ service.DataSource = (*Store)(nil)

// New creates a Store for table using a storage account connection string.
func New(connStr, table string) (*Store, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create table service client: %w", err)
	}
	return newStore(svc.NewClient(table)), nil
}

func newStore(table tableClient) *Store {
	return &Store{table: table, now: time.Now}
}

// EnsureTable creates the table if it does not exist yet.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.table.CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			return nil
		}
		return wrapError("create table", err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, filter string) ([]taskEntity, error) {
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var entities []taskEntity
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, wrapError("list tasks", err)
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, fmt.Errorf("failed to decode task entity: %w", err)
			}
			entities = append(entities, ent)
		}
	}
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Seq < entities[j].Seq
	})
	return entities, nil
}

func (s *Store) get(ctx context.Context, id string) (taskEntity, error) {
	resp, err := s.table.GetEntity(ctx, PartitionKey, id, nil)
	if err != nil {
		return taskEntity{}, wrapError("get task", err)
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return taskEntity{}, fmt.Errorf("failed to decode task entity: %w", err)
	}
	return ent, nil
}

// GetTasks returns every task in creation order. An empty table is not an
// error.
func (s *Store) GetTasks(ctx context.Context) ([]service.Task, error) {
	entities, err := s.list(ctx, partitionFilter)
	if err != nil {
		return nil, err
	}
	tasks := make([]service.Task, 0, len(entities))
	for _, ent := range entities {
		tasks = append(tasks, ent.task())
	}
	return tasks, nil
}

// GetTask returns the task with the given ID.
func (s *Store) GetTask(ctx context.Context, id string) (service.Task, error) {
	ent, err := s.get(ctx, id)
	if err != nil {
		return service.Task{}, err
	}
	return ent.task(), nil
}

// SaveTask inserts or replaces the task, keeping the creation order of an
// existing row.
func (s *Store) SaveTask(ctx context.Context, task service.Task) error {
	seq := s.now().UnixNano()
	existing, err := s.get(ctx, task.ID)
	switch {
	case err == nil:
		seq = existing.Seq
	case !errors.Is(err, service.ErrRemoteNotFound):
		return err
	}

	payload, err := json.Marshal(taskEntity{
		PartitionKey: PartitionKey,
		RowKey:       task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Completed:    task.Completed,
		Seq:          seq,
		SeqType:      edmInt64,
	})
	if err != nil {
		return fmt.Errorf("failed to encode task entity: %w", err)
	}
	_, err = s.table.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return wrapError("save task", err)
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

// ClearCompletedTasks deletes every completed row.
func (s *Store) ClearCompletedTasks(ctx context.Context) error {
	entities, err := s.list(ctx, completedFilter)
	if err != nil {
		return err
	}
	return s.deleteEntities(ctx, entities)
}

// RefreshTasks is a no-op.
func (s *Store) RefreshTasks(ctx context.Context) error {
	return nil
}

// DeleteAllTasks deletes every row of the partition.
func (s *Store) DeleteAllTasks(ctx context.Context) error {
	entities, err := s.list(ctx, partitionFilter)
	if err != nil {
		return err
	}
	return s.deleteEntities(ctx, entities)
}

// DeleteTask deletes one row. Deleting a missing row is not an error.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

func (s *Store) deleteEntities(ctx context.Context, entities []taskEntity) error {
	for _, ent := range entities {
		if err := s.delete(ctx, ent.RowKey); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) delete(ctx context.Context, id string) error {
	match := azcore.ETagAny
	_, err := s.table.DeleteEntity(ctx, PartitionKey, id, &aztables.DeleteEntityOptions{IfMatch: &match})
	err = wrapError("delete task", err)
	if errors.Is(err, service.ErrRemoteNotFound) {
		return nil
	}
	return err
}

// wrapError maps 404 responses to ErrRemoteNotFound and other failures to
// ErrDataSource.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && (respErr.StatusCode == http.StatusNotFound ||
		respErr.ErrorCode == string(aztables.ResourceNotFound)) {
		return fmt.Errorf("%s: %w", op, service.ErrRemoteNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, service.ErrDataSource, err)
}
