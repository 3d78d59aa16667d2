package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/authz"
	"buildmatrix/internal/models"
	"buildmatrix/internal/store"
)

func (h *Handler) listEmployees(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) listEmployeesByRole(c *gin.Context) {
	role, err := authz.ParseRole(c.Param("role"))
	if err != nil {
		h.respondError(c, apperrors.Validation("Invalid role"))
		return
	}
	users, err := h.store.ListUsersByRole(c.Request.Context(), role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) getEmployee(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.store.GetUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) createEmployee(c *gin.Context) {
	var req models.CreateUserRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.respondError(c, apperrors.Internal(err))
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), store.NewUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         authz.Role(req.Role),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) updateEmployee(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if _, err := h.store.GetUser(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}

	var patch models.UserPatch
	if err := bind(c, &patch); err != nil {
		h.respondError(c, err)
		return
	}
	if patch.IsEmpty() {
		h.respondError(c, apperrors.NoFieldsToUpdate())
		return
	}

	update := store.UserUpdate{Name: patch.Name, Email: patch.Email}
	if patch.Password != nil {
		hash, err := h.hasher.Hash(*patch.Password)
		if err != nil {
			h.respondError(c, apperrors.Internal(err))
			return
		}
		update.PasswordHash = &hash
	}
	if patch.Role != nil {
		role := authz.Role(*patch.Role)
		update.Role = &role
	}

	user, err := h.store.UpdateUser(ctx, id, update)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) deleteEmployee(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteUser(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	respondDeleted(c, "Employee")
}
