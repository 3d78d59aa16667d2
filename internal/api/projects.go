package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/authz"
	"buildmatrix/internal/models"
)

// decide asks the authorization engine about the current caller.
func (h *Handler) decide(c *gin.Context, res authz.Resource, act authz.Action) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return authz.Decide(p, res, act)
}

func (h *Handler) listProjects(c *gin.Context) {
	projects, err := h.store.ListProjects(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) listProjectsByManager(c *gin.Context) {
	managerID, err := idParam(c, "managerId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.decide(c, authz.Projects, authz.ReadScoped(managerID)); err != nil {
		h.respondError(c, err)
		return
	}
	projects, err := h.store.ListProjectsByManager(c.Request.Context(), managerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) getProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	project, err := h.store.GetProject(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.decide(c, authz.Projects, authz.ReadOne(authz.OwnerOf(project.ProjectManagerID))); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) createProject(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := bind(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	project, err := h.store.CreateProject(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *Handler) updateProject(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	existing, err := h.store.GetProject(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.decide(c, authz.Projects, authz.Update(authz.OwnerOf(existing.ProjectManagerID))); err != nil {
		h.respondError(c, err)
		return
	}

	var patch models.ProjectPatch
	if err := bind(c, &patch); err != nil {
		h.respondError(c, err)
		return
	}
	if patch.IsEmpty() {
		h.respondError(c, apperrors.NoFieldsToUpdate())
		return
	}

	project, err := h.store.UpdateProject(ctx, id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) deleteProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteProject(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	respondDeleted(c, "Project")
}
