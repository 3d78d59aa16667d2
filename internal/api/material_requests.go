package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/authz"
	"buildmatrix/internal/models"
	"buildmatrix/internal/store"
)

func (h *Handler) listMaterialRequests(c *gin.Context) {
	requests, err := h.store.ListMaterialRequests(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *Handler) listMaterialRequestsByManager(c *gin.Context) {
	managerID, err := idParam(c, "managerId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.decide(c, authz.MaterialRequests, authz.ReadScoped(managerID)); err != nil {
		h.respondError(c, err)
		return
	}
	requests, err := h.store.ListMaterialRequestsByManager(c.Request.Context(), managerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *Handler) getMaterialRequest(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	mr, err := h.store.GetMaterialRequest(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.decide(c, authz.MaterialRequests, authz.ReadOne(authz.OwnerOf(mr.ProjectManagerID))); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mr)
}

// createMaterialRequest resolves the project's manager and decides against
// it. When the decision rested on that ownership, the insert is made
// conditional on the project still having the same manager.
func (h *Handler) createMaterialRequest(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := principal(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req models.CreateMaterialRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	managerID, err := h.store.ProjectManagerOf(ctx, req.ProjectID.Int64())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := authz.Decide(p, authz.MaterialRequests, authz.Create(authz.OwnerOf(managerID))); err != nil {
		h.respondError(c, err)
		return
	}

	var expected *int64
	if authz.Decide(p, authz.MaterialRequests, authz.Create(authz.Owner{})) != nil {
		expected = managerID
	}
	mr, err := h.store.CreateMaterialRequest(ctx, req, expected)
	if errors.Is(err, store.ErrProjectReassigned) {
		err = authz.Decide(p, authz.MaterialRequests, authz.Create(authz.Owner{}))
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mr)
}

func (h *Handler) updateMaterialRequest(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	existing, err := h.store.GetMaterialRequest(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.decide(c, authz.MaterialRequests, authz.Update(authz.OwnerOf(existing.ProjectManagerID))); err != nil {
		h.respondError(c, err)
		return
	}

	var patch models.MaterialRequestPatch
	if err := bind(c, &patch); err != nil {
		h.respondError(c, err)
		return
	}
	if patch.IsEmpty() {
		h.respondError(c, apperrors.NoFieldsToUpdate())
		return
	}

	mr, err := h.store.UpdateMaterialRequest(ctx, id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mr)
}

func (h *Handler) deleteMaterialRequest(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteMaterialRequest(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	respondDeleted(c, "Material request")
}
