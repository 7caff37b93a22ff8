package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/cleberrangel/clickup-risk-api/internal/logger"
	"github.com/cleberrangel/clickup-risk-api/internal/model"
)

func init() {
	logger.Init("error", true)
}

func newTestClient(server *httptest.Server, pageSize, maxItems int) *Client {
	c := NewClient("test-token", pageSize, maxItems)
	c.SetBaseURL(server.URL)
	return c
}

func taskPage(prefix string, count int, lastPage bool) model.TaskResponse {
	resp := model.TaskResponse{LastPage: lastPage}
	for i := 0; i < count; i++ {
		resp.Tasks = append(resp.Tasks, model.Task{
			ID:   fmt.Sprintf("%s-%d", prefix, i),
			Name: "task",
		})
	}
	return resp
}

func TestGetTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/task/abc" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(model.Task{ID: "abc", Name: "Fix login flow"})
	}))
	defer server.Close()

	c := newTestClient(server, 100, 1000)

	task, err := c.GetTask(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "abc" || task.Name != "Fix login flow" {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(server, 100, 1000)

	_, err := c.GetTask(context.Background(), "ghost")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOpenTasksPagination(t *testing.T) {
	var requestedPages []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		requestedPages = append(requestedPages, page)

		switch page {
		case "0":
			json.NewEncoder(w).Encode(taskPage("p0", 2, false))
		case "1":
			json.NewEncoder(w).Encode(taskPage("p1", 1, true))
		default:
			t.Errorf("unexpected page requested: %s", page)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	c := newTestClient(server, 2, 1000)

	tasks, err := c.GetOpenTasks(context.Background(), "team-1", "worker-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tasks) != 3 {
		t.Errorf("expected 3 tasks across pages, got %d", len(tasks))
	}
	if len(requestedPages) != 2 {
		t.Errorf("expected 2 page requests, got %v", requestedPages)
	}
}

func TestGetOpenTasksStopsOnShortPage(t *testing.T) {
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Fewer tasks than the page size, but last_page not flagged
		json.NewEncoder(w).Encode(taskPage("p", 1, false))
	}))
	defer server.Close()

	c := newTestClient(server, 100, 1000)

	tasks, err := c.GetOpenTasks(context.Background(), "team-1", "worker-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || calls != 1 {
		t.Errorf("expected single short page to end collection, tasks=%d calls=%d", len(tasks), calls)
	}
}

func TestGetOpenTasksRespectsCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Endless full pages; only the cap stops the collection
		json.NewEncoder(w).Encode(taskPage("p", 2, false))
	}))
	defer server.Close()

	c := newTestClient(server, 2, 5)

	tasks, err := c.GetOpenTasks(context.Background(), "team-1", "worker-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 5 {
		t.Errorf("expected collection truncated at 5, got %d", len(tasks))
	}
}

func TestGetOpenTasksRateLimitedNoRetry(t *testing.T) {
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(server, 100, 1000)

	_, err := c.GetOpenTasks(context.Background(), "team-1", "worker-1")
	if !errors.Is(err, model.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if calls != 1 {
		t.Errorf("rate limit must not be retried, got %d calls", calls)
	}
}

func TestGetOpenTasksUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := newTestClient(server, 100, 1000)

	_, err := c.GetOpenTasks(context.Background(), "team-1", "worker-1")
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGetOpenTasksQueryFilters(t *testing.T) {
	var query string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		json.NewEncoder(w).Encode(taskPage("p", 0, true))
	}))
	defer server.Close()

	c := newTestClient(server, 100, 1000)

	if _, err := c.GetOpenTasks(context.Background(), "team-1", "worker-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values := map[string]string{
		"include_closed": "false",
		"subtasks":       "false",
		"order_by":       "due_date",
	}
	parsed, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("bad query %q: %v", query, err)
	}
	for key, want := range values {
		if got := parsed.Get(key); got != want {
			t.Errorf("expected %s=%s, got %q", key, want, got)
		}
	}
	if got := parsed.Get("assignees[]"); got != "worker-1" {
		t.Errorf("expected assignee filter, got %q", got)
	}
}

func TestValidateToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(model.UserResponse{User: model.UserInfo{ID: 1, Username: "worker"}})
	}))
	defer server.Close()

	c := newTestClient(server, 100, 1000)

	if err := c.ValidateToken(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(server, 100, 1000)

	if err := c.ValidateToken(context.Background()); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
