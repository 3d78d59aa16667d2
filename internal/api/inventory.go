package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/models"
)

func (h *Handler) listInventory(c *gin.Context) {
	items, err := h.store.ListInventory(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getInventoryItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	item, err := h.store.GetInventoryItem(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) createInventoryItem(c *gin.Context) {
	var req models.CreateInventoryRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	item, err := h.store.CreateInventoryItem(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) updateInventoryItem(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if _, err := h.store.GetInventoryItem(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}

	var patch models.InventoryPatch
	if err := bind(c, &patch); err != nil {
		h.respondError(c, err)
		return
	}
	if patch.IsEmpty() {
		h.respondError(c, apperrors.NoFieldsToUpdate())
		return
	}

	item, err := h.store.UpdateInventoryItem(ctx, id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteInventoryItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteInventoryItem(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	respondDeleted(c, "Inventory item")
}
