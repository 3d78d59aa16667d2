package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/authz"
	"buildmatrix/internal/models"
)

func (h *Handler) listTasks(c *gin.Context) {
	tasks, err := h.store.ListTasks(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) listTasksByEmployee(c *gin.Context) {
	employeeID, err := idParam(c, "employeeId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.decide(c, authz.Tasks, authz.ReadScoped(employeeID)); err != nil {
		h.respondError(c, err)
		return
	}
	tasks, err := h.store.ListTasksByEmployee(c.Request.Context(), employeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) getTask(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	task, err := h.store.GetTask(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.decide(c, authz.Tasks, authz.ReadOne(authz.OwnedBy(task.EmployeeID))); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) createTask(c *gin.Context) {
	ctx := c.Request.Context()
	var req models.CreateTaskRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	task, err := h.store.CreateTask(ctx, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) updateTask(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	existing, err := h.store.GetTask(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.decide(c, authz.Tasks, authz.Update(authz.OwnedBy(existing.EmployeeID))); err != nil {
		h.respondError(c, err)
		return
	}

	var patch models.TaskPatch
	if err := bind(c, &patch); err != nil {
		h.respondError(c, err)
		return
	}
	if patch.IsEmpty() {
		h.respondError(c, apperrors.NoFieldsToUpdate())
		return
	}

	task, err := h.store.UpdateTask(ctx, id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// updateTaskStatus is the one task write open to the assigned employee.
func (h *Handler) updateTaskStatus(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	existing, err := h.store.GetTask(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.decide(c, authz.Tasks, authz.UpdateStatus(authz.OwnedBy(existing.EmployeeID))); err != nil {
		h.respondError(c, err)
		return
	}

	var req models.TaskStatusUpdate
	if err := bind(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.store.UpdateTaskStatus(ctx, id, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteTask(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	respondDeleted(c, "Task")
}
