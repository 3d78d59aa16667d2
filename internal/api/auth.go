package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/auth"
	"buildmatrix/internal/models"
)

type userSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func summarize(u models.User) userSummary {
	return userSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role.String()}
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

func (h *Handler) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		h.respondError(c, apperrors.Validation("Email and password are required"))
		return
	}

	invalid := apperrors.Unauthenticated("Invalid credentials")
	user, err := h.store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			h.respondError(c, invalid)
			return
		}
		h.respondError(c, err)
		return
	}

	ok, err := h.hasher.Check(req.Password, user.PasswordHash)
	if err != nil {
		h.respondError(c, apperrors.Internal(err))
		return
	}
	if !ok {
		h.respondError(c, invalid)
		return
	}

	token, err := h.tokens.Issue(user.Principal(), user.Email)
	if err != nil {
		h.respondError(c, apperrors.Internal(err))
		return
	}
	h.log.Info("User logged in", map[string]interface{}{"user_id": user.ID, "role": user.Role.String()})
	c.JSON(http.StatusOK, loginResponse{Token: token, User: summarize(user)})
}

// verify re-reads the account named by the token so the response reflects
// its current name and role.
func (h *Handler) verify(c *gin.Context) {
	claims, ok := auth.CurrentClaims(c)
	if !ok {
		h.respondError(c, apperrors.Unauthenticated(""))
		return
	}
	user, err := h.store.GetUser(c.Request.Context(), claims.ID)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			h.respondError(c, apperrors.Unauthenticated("User not found"))
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summarize(user))
}
