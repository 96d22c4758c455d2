package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/tasks"
)

func TestTasksController(t *testing.T) {
	t.Run("routes are absent without a queue", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.do(http.MethodGet, "/api/tasks/abc", "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("reports status", func(t *testing.T) {
		queue := &fakeQueue{statuses: map[string]string{"abc": "success"}}
		env := setupTestRouter(t, func(cfg *RouterConfig) { cfg.TaskQueue = queue })

		w := env.do(http.MethodGet, "/api/tasks/abc", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"abc","status":"success"}`, w.Body.String())
	})

	t.Run("unknown task id", func(t *testing.T) {
		env := setupTestRouter(t, func(cfg *RouterConfig) { cfg.TaskQueue = &fakeQueue{} })

		w := env.do(http.MethodGet, "/api/tasks/missing", "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("runs reconciliation", func(t *testing.T) {
		queue := &fakeQueue{}
		env := setupTestRouter(t, func(cfg *RouterConfig) { cfg.TaskQueue = queue })

		w := env.postJSON("/api/tasks/reconcile_loans/run", "{}")

		assert.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, queue.enqueued, 1)
		assert.IsType(t, tasks.ReconcileLoansTask{}, queue.enqueued[0])
	})

	t.Run("unknown task type", func(t *testing.T) {
		queue := &fakeQueue{}
		env := setupTestRouter(t, func(cfg *RouterConfig) { cfg.TaskQueue = queue })

		w := env.postJSON("/api/tasks/import_books/run", "{}")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, queue.enqueued)
	})

	t.Run("queue failure", func(t *testing.T) {
		queue := &fakeQueue{err: errors.New("disk full")}
		env := setupTestRouter(t, func(cfg *RouterConfig) { cfg.TaskQueue = queue })

		w := env.postJSON("/api/tasks/reconcile_loans/run", "{}")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
