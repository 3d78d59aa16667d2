// Package api exposes the REST surface under /api. Every request follows the
// same order: authenticate, refuse roles that could never act on the route,
// load the owning record, ask authz about ownership, run the store operation
// and shape the response.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/auth"
	"buildmatrix/internal/authz"
	"buildmatrix/internal/logger"
	"buildmatrix/internal/store"
)

// Handler holds the dependencies shared by all routes.
type Handler struct {
	store  *store.Store
	tokens *auth.TokenService
	hasher *auth.Hasher
	log    *logger.Logger
}

// Options configures NewRouter.
type Options struct {
	Store       *store.Store
	Tokens      *auth.TokenService
	Hasher      *auth.Hasher
	Logger      *logger.Logger
	CORSOrigins []string
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{
		store:  opts.Store,
		tokens: opts.Tokens,
		hasher: opts.Hasher,
		log:    log.WithComponent("api"),
	}

	r := gin.New()
	r.Use(RequestID(), RequestLogger(h.log), Recovery(h.log), CORS(opts.CORSOrigins))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	api := r.Group("/api")
	api.GET("/health", h.health)

	authenticate := auth.Middleware(h.tokens, h.resolvePrincipal)
	h.authRoutes(api.Group("/auth"), authenticate)

	protected := api.Group("", authenticate)
	h.employeeRoutes(protected.Group("/employees"))
	h.projectRoutes(protected.Group("/projects"))
	h.inventoryRoutes(protected.Group("/inventory"))
	h.materialRequestRoutes(protected.Group("/material-requests"))
	h.taskRoutes(protected.Group("/tasks"))

	return r
}

func (h *Handler) health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.respondError(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "BuildMatrix API is running"})
}

// resolvePrincipal reloads the caller so role changes and deleted accounts
// apply to tokens issued earlier.
func (h *Handler) resolvePrincipal(ctx context.Context, p authz.Principal) (authz.Principal, error) {
	user, err := h.store.GetUser(ctx, p.ID)
	if err != nil {
		return authz.Principal{}, err
	}
	return user.Principal(), nil
}

func (h *Handler) authRoutes(g *gin.RouterGroup, authenticate gin.HandlerFunc) {
	g.POST("/login", h.login)
	g.GET("/verify", authenticate, h.verify)
}

func (h *Handler) employeeRoutes(g *gin.RouterGroup) {
	g.Use(auth.Authorize(authz.Employees, authz.List()))
	g.GET("", h.listEmployees)
	g.GET("/role/:role", h.listEmployeesByRole)
	g.GET("/:id", h.getEmployee)
	g.POST("", h.createEmployee)
	g.PUT("/:id", h.updateEmployee)
	g.DELETE("/:id", h.deleteEmployee)
}

func (h *Handler) projectRoutes(g *gin.RouterGroup) {
	g.GET("/manager/:managerId", h.listProjectsByManager)
	g.GET("", auth.Authorize(authz.Projects, authz.List()), h.listProjects)
	g.GET("/:id", auth.Authorize(authz.Projects, authz.ReadOne(authz.Owner{})), h.getProject)
	g.POST("", auth.Authorize(authz.Projects, authz.Create(authz.Owner{})), h.createProject)
	g.PUT("/:id", auth.Authorize(authz.Projects, authz.Update(authz.Owner{})), h.updateProject)
	g.DELETE("/:id", auth.Authorize(authz.Projects, authz.Delete()), h.deleteProject)
}

func (h *Handler) inventoryRoutes(g *gin.RouterGroup) {
	g.GET("", auth.Authorize(authz.Inventory, authz.List()), h.listInventory)
	g.GET("/:id", auth.Authorize(authz.Inventory, authz.ReadOne(authz.Owner{})), h.getInventoryItem)
	g.POST("", auth.Authorize(authz.Inventory, authz.Create(authz.Owner{})), h.createInventoryItem)
	g.PUT("/:id", auth.Authorize(authz.Inventory, authz.Update(authz.Owner{})), h.updateInventoryItem)
	g.DELETE("/:id", auth.Authorize(authz.Inventory, authz.Delete()), h.deleteInventoryItem)
}

func (h *Handler) materialRequestRoutes(g *gin.RouterGroup) {
	g.GET("/manager/:managerId", h.listMaterialRequestsByManager)
	g.GET("", auth.Authorize(authz.MaterialRequests, authz.List()), h.listMaterialRequests)
	g.GET("/:id", auth.Authorize(authz.MaterialRequests, authz.ReadOne(authz.Owner{})), h.getMaterialRequest)
	g.POST("", auth.Authorize(authz.MaterialRequests, authz.Create(authz.Owner{})), h.createMaterialRequest)
	g.PUT("/:id", auth.Authorize(authz.MaterialRequests, authz.Update(authz.Owner{})), h.updateMaterialRequest)
	g.DELETE("/:id", auth.Authorize(authz.MaterialRequests, authz.Delete()), h.deleteMaterialRequest)
}

func (h *Handler) taskRoutes(g *gin.RouterGroup) {
	g.GET("/employee/:employeeId", h.listTasksByEmployee)
	g.GET("", auth.Authorize(authz.Tasks, authz.List()), h.listTasks)
	g.GET("/:id", auth.Authorize(authz.Tasks, authz.ReadOne(authz.Owner{})), h.getTask)
	g.POST("", auth.Authorize(authz.Tasks, authz.Create(authz.Owner{})), h.createTask)
	g.PATCH("/:id/status", auth.Authorize(authz.Tasks, authz.UpdateStatus(authz.Owner{})), h.updateTaskStatus)
	g.PUT("/:id", auth.Authorize(authz.Tasks, authz.Update(authz.Owner{})), h.updateTask)
	g.DELETE("/:id", auth.Authorize(authz.Tasks, authz.Delete()), h.deleteTask)
}
