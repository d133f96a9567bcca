// Package googletasks implements the remote service.DataSource on one Google
// Tasks list.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todo/internal/config"
	"todo/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// OAuth scope for Google Tasks
	tasksScope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.DataSource using Google Tasks API.
type Client struct {
	svc    *tasks.Service
	listID string
}

var _ service.DataSource = (*Client)(nil)

// OAuthConfig reads the OAuth client credentials stored in the config dir.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, tasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return oauthConfig, nil
}

// New creates a new Google Tasks client for the configured list.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	// Create token source that auto-refreshes
	tokenSource := oauthConfig.TokenSource(ctx, &token)
	httpClient := oauth2.NewClient(ctx, tokenSource)

	return NewWithOptions(ctx, cfg.Settings.Remote.Google.ListID, option.WithHTTPClient(httpClient))
}

// NewWithHTTPClient creates a client with a custom HTTP client.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, listID string) (*Client, error) {
	return NewWithOptions(ctx, listID, option.WithHTTPClient(httpClient))
}

// NewWithOptions creates a client for listID from raw API client options.
// An empty listID selects the default list.
func NewWithOptions(ctx context.Context, listID string, opts ...option.ClientOption) (*Client, error) {
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	if listID == "" {
		listID = DefaultListID
	}
	return &Client{svc: svc, listID: listID}, nil
}

// ListID returns the task list the client works on.
func (c *Client) ListID() string {
	return c.listID
}

// listAll returns every visible task of the list in API order.
func (c *Client) listAll(ctx context.Context) ([]*tasks.Task, error) {
	var result []*tasks.Task
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			result = append(result, resp.Items...)
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// find returns the API task that maps to id.
func (c *Client) find(ctx context.Context, id string) (*tasks.Task, error) {
	items, err := c.listAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if taskID(item) == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("%w: task %s", service.ErrRemoteNotFound, id)
}

// GetTasks returns every task of the list. An empty list is not an error.
func (c *Client) GetTasks(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	items, err := c.listAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]service.Task, 0, len(items))
	for _, item := range items {
		result = append(result, fromAPI(item))
	}
	return result, nil
}

// GetTask returns the task with the given ID.
func (c *Client) GetTask(ctx context.Context, id string) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	item, err := c.find(ctx, id)
	if err != nil {
		return service.Task{}, err
	}
	return fromAPI(item), nil
}

// SaveTask creates the task, or updates it when the list already holds it.
func (c *Client) SaveTask(ctx context.Context, task service.Task) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	existing, err := c.find(ctx, task.ID)
	switch {
	case errors.Is(err, service.ErrRemoteNotFound):
		_, err = c.svc.Tasks.Insert(c.listID, toAPI(task)).Context(ctx).Do()
		return wrapError(err)
	case err != nil:
		return err
	}

	_, err = c.svc.Tasks.Patch(c.listID, existing.Id, toAPI(task)).Context(ctx).Do()
	return wrapError(err)
}

// CompleteTask stores a completed copy of the task.
func (c *Client) CompleteTask(ctx context.Context, task service.Task) error {
	return c.SaveTask(ctx, task.WithCompleted(true))
}

// CompleteTaskByID is a no-op.
func (c *Client) CompleteTaskByID(ctx context.Context, id string) error {
	return nil
}

// ActivateTask stores an active copy of the task.
func (c *Client) ActivateTask(ctx context.Context, task service.Task) error {
	return c.SaveTask(ctx, task.WithCompleted(false))
}

// ActivateTaskByID is a no-op.
func (c *Client) ActivateTaskByID(ctx context.Context, id string) error {
	return nil
}

// ClearCompletedTasks deletes every completed task of the list. The API's
// own clear call only hides them, and listAll still returns hidden tasks.
func (c *Client) ClearCompletedTasks(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	items, err := c.listAll(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Status != statusCompleted {
			continue
		}
		if err := c.svc.Tasks.Delete(c.listID, item.Id).Context(ctx).Do(); err != nil {
			return wrapError(err)
		}
	}
	return nil
}

// RefreshTasks is a no-op.
func (c *Client) RefreshTasks(ctx context.Context) error {
	return nil
}

// DeleteAllTasks deletes every task of the list.
func (c *Client) DeleteAllTasks(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	items, err := c.listAll(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := c.svc.Tasks.Delete(c.listID, item.Id).Context(ctx).Do(); err != nil {
			return wrapError(err)
		}
	}
	return nil
}

// DeleteTask deletes one task. Deleting a missing task is not an error.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	item, err := c.find(ctx, id)
	if errors.Is(err, service.ErrRemoteNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return wrapError(c.svc.Tasks.Delete(c.listID, item.Id).Context(ctx).Do())
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", service.ErrDataSource)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", service.ErrRemoteNotFound, apiErr.Message)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: token expired or revoked (run: todo login)", service.ErrDataSource)
		}
	}

	return fmt.Errorf("%w: %w", service.ErrDataSource, err)
}
