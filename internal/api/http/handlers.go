package http

import (
	"context"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lovstudio/lovcode/backend/internal/domain/workspace"
	"github.com/lovstudio/lovcode/backend/internal/infrastructure/monitoring"
	"github.com/lovstudio/lovcode/backend/internal/providers/terminal"
	"github.com/lovstudio/lovcode/backend/internal/shared/utils"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Terminal is the PTY registry as seen by the API
type Terminal interface {
	Create(ctx context.Context, opts terminal.CreateOptions) error
	Write(id string, data []byte) error
	Resize(id string, cols, rows uint16) error
	Kill(id string)
	List() []string
	Exists(id string) bool
	Count() int
}

// Workspace is the workspace store as seen by the API
type Workspace interface {
	Path() string
	Load() (*workspace.WorkspaceData, error)
	Save(data *workspace.WorkspaceData) error
	ListProjects() ([]workspace.WorkspaceProject, error)
	AddProject(path string) (*workspace.WorkspaceProject, error)
	RemoveProject(projectID string) error
	SetActiveProject(projectID string) error
	CreateFeature(projectID, name string, description *string) (*workspace.Feature, error)
	RenameFeature(featureID, name string) error
	UpdateFeatureStatus(projectID, featureID string, status workspace.FeatureStatus) error
	DeleteFeature(projectID, featureID string) error
	SetActiveFeature(projectID, featureID string) error
	SetFeatureLayout(projectID, featureID string, layout *workspace.LayoutNode) error
	AddPanelToFeature(projectID, featureID string, panel workspace.PanelState) error
	RemovePanelFromFeature(projectID, featureID, panelID string) error
	TogglePanelShared(projectID, panelID string) (bool, error)
	PendingReviews() ([]workspace.PendingReview, error)
}

// ClientCounter reports connected event stream clients
type ClientCounter interface {
	ClientCount() int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	terminal  Terminal
	workspace Workspace
	clients   ClientCounter
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewHandlers creates a new handler set. clients and metrics may be nil.
func NewHandlers(
	term Terminal,
	ws Workspace,
	clients ClientCounter,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		terminal:  term,
		workspace: ws,
		clients:   clients,
		metrics:   metrics,
		logger:    logger,
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	pty := r.Group("/pty")
	pty.GET("", h.ListPty)
	pty.POST("", h.CreatePty)
	pty.GET("/:id", h.PtyExists)
	pty.DELETE("/:id", h.KillPty)
	pty.POST("/:id/write", h.WritePty)
	pty.POST("/:id/resize", h.ResizePty)

	ws := r.Group("/workspace")
	ws.GET("", h.LoadWorkspace)
	ws.PUT("", h.SaveWorkspace)
	ws.GET("/reviews", h.PendingReviews)
	ws.PATCH("/features/:featureId", h.RenameFeature)

	projects := ws.Group("/projects")
	projects.GET("", h.ListProjects)
	projects.POST("", h.AddProject)
	projects.DELETE("/:projectId", h.RemoveProject)
	projects.POST("/:projectId/activate", h.ActivateProject)
	projects.POST("/:projectId/features", h.CreateFeature)
	projects.PUT("/:projectId/features/:featureId/status", h.UpdateFeatureStatus)
	projects.DELETE("/:projectId/features/:featureId", h.DeleteFeature)
	projects.POST("/:projectId/features/:featureId/activate", h.ActivateFeature)
	projects.PUT("/:projectId/features/:featureId/layout", h.SetFeatureLayout)
	projects.POST("/:projectId/features/:featureId/panels", h.AddPanel)
	projects.DELETE("/:projectId/features/:featureId/panels/:panelId", h.RemovePanel)
	projects.POST("/:projectId/panels/:panelId/toggle-shared", h.TogglePanelShared)
}

// Root reports the service identity
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "lovcode backend",
		"version": Version,
	})
}

// Health reports live session and client counts
func (h *Handlers) Health(c *gin.Context) {
	clients := 0
	if h.clients != nil {
		clients = h.clients.ClientCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"sessions":   h.terminal.Count(),
		"ws_clients": clients,
		"workspace":  h.workspace.Path(),
		"metrics":    h.metrics.Snapshot(),
	})
}

// bindJSON decodes a size-limited request body with sonic.
func bindJSON(c *gin.Context, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxJSONSize))
	if err != nil {
		return invalidRequest("failed to read request body: %v", err)
	}
	if len(body) == 0 {
		return invalidRequest("request body is required")
	}
	if err := sonic.ConfigStd.Unmarshal(body, v); err != nil {
		return invalidRequest("invalid request body: %v", err)
	}
	return nil
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}
