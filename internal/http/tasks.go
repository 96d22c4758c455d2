package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookstore/internal/tasks"
)

// TasksController exposes the background task queue.
type TasksController struct {
	queue TaskQueue
}

func NewTasksController(queue TaskQueue) *TasksController {
	return &TasksController{queue: queue}
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue unavailable", Code: "storage_unavailable"})
		return
	}
	if status == "not_found" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "task not found", Code: "not_found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": status,
	})
}

// RunTask handles POST /api/tasks/:type/run
// Imports are queued through POST /import; only parameterless tasks run here.
func (tc *TasksController) RunTask(c *gin.Context) {
	// Registered under the shared :id wildcard, gin allows one name per segment
	taskType := c.Param("id")

	var task backlite.Task
	switch taskType {
	case "reconcile_loans":
		task = tasks.ReconcileLoansTask{}
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	taskID, err := tc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue unavailable", Code: "storage_unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
		"type":    taskType,
		"message": "task enqueued",
	})
}
