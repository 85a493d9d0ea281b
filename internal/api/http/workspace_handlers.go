package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovstudio/lovcode/backend/internal/domain/workspace"
	"github.com/lovstudio/lovcode/backend/internal/shared/utils"
)

type addProjectRequest struct {
	Path string `json:"path"`
}

type createFeatureRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type renameFeatureRequest struct {
	Name string `json:"name"`
}

type featureStatusRequest struct {
	Status string `json:"status"`
}

type featureLayoutRequest struct {
	Layout *workspace.LayoutNode `json:"layout"`
}

// LoadWorkspace returns the whole document
func (h *Handlers) LoadWorkspace(c *gin.Context) {
	data, err := h.workspace.Load()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// SaveWorkspace replaces the whole document
func (h *Handlers) SaveWorkspace(c *gin.Context) {
	var data workspace.WorkspaceData
	if err := bindJSON(c, &data); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.workspace.Save(&data); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// ListProjects lists all projects
func (h *Handlers) ListProjects(c *gin.Context) {
	projects, err := h.workspace.ListProjects()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// AddProject registers a project directory
func (h *Handlers) AddProject(c *gin.Context) {
	var req addProjectRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	if err := utils.ValidatePath(req.Path, "path", true); err != nil {
		h.respondError(c, invalidRequest("%v", err))
		return
	}

	project, err := h.workspace.AddProject(req.Path)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// RemoveProject deletes a project
func (h *Handlers) RemoveProject(c *gin.Context) {
	if err := h.workspace.RemoveProject(c.Param("projectId")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// ActivateProject marks a project active
func (h *Handlers) ActivateProject(c *gin.Context) {
	if err := h.workspace.SetActiveProject(c.Param("projectId")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// CreateFeature adds a feature to a project
func (h *Handlers) CreateFeature(c *gin.Context) {
	var req createFeatureRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	if err := utils.ValidateName(req.Name, "name"); err != nil {
		h.respondError(c, invalidRequest("%v", err))
		return
	}
	if req.Description != nil {
		if err := utils.ValidateString(*req.Description, "description", 0, utils.MaxDescriptionLength, false); err != nil {
			h.respondError(c, invalidRequest("%v", err))
			return
		}
	}

	feature, err := h.workspace.CreateFeature(c.Param("projectId"), req.Name, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, feature)
}

// RenameFeature renames a feature in any project
func (h *Handlers) RenameFeature(c *gin.Context) {
	var req renameFeatureRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	if err := utils.ValidateName(req.Name, "name"); err != nil {
		h.respondError(c, invalidRequest("%v", err))
		return
	}

	if err := h.workspace.RenameFeature(c.Param("featureId"), req.Name); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// UpdateFeatureStatus sets a feature's workflow status
func (h *Handlers) UpdateFeatureStatus(c *gin.Context) {
	var req featureStatusRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	status, err := workspace.ParseFeatureStatus(req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.workspace.UpdateFeatureStatus(c.Param("projectId"), c.Param("featureId"), status); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// DeleteFeature removes a feature
func (h *Handlers) DeleteFeature(c *gin.Context) {
	if err := h.workspace.DeleteFeature(c.Param("projectId"), c.Param("featureId")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// ActivateFeature marks a feature active within its project
func (h *Handlers) ActivateFeature(c *gin.Context) {
	if err := h.workspace.SetActiveFeature(c.Param("projectId"), c.Param("featureId")); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// SetFeatureLayout replaces or clears a feature's split tree
func (h *Handlers) SetFeatureLayout(c *gin.Context) {
	var req featureLayoutRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.workspace.SetFeatureLayout(c.Param("projectId"), c.Param("featureId"), req.Layout); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// AddPanel attaches a panel to a feature
func (h *Handlers) AddPanel(c *gin.Context) {
	var panel workspace.PanelState
	if err := bindJSON(c, &panel); err != nil {
		h.respondError(c, err)
		return
	}
	if err := utils.ValidateID(panel.ID, "id", true); err != nil {
		h.respondError(c, invalidRequest("%v", err))
		return
	}

	if err := h.workspace.AddPanelToFeature(c.Param("projectId"), c.Param("featureId"), panel); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// RemovePanel detaches a panel from a feature
func (h *Handlers) RemovePanel(c *gin.Context) {
	err := h.workspace.RemovePanelFromFeature(c.Param("projectId"), c.Param("featureId"), c.Param("panelId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// TogglePanelShared moves a panel between a feature and the shared pool
func (h *Handlers) TogglePanelShared(c *gin.Context) {
	shared, err := h.workspace.TogglePanelShared(c.Param("projectId"), c.Param("panelId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shared": shared})
}

// PendingReviews lists features waiting for review
func (h *Handlers) PendingReviews(c *gin.Context) {
	reviews, err := h.workspace.PendingReviews()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
