package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovstudio/lovcode/backend/internal/providers/terminal"
	"github.com/lovstudio/lovcode/backend/internal/shared/id"
	"github.com/lovstudio/lovcode/backend/internal/shared/paths"
	"github.com/lovstudio/lovcode/backend/internal/shared/utils"
)

type createPtyRequest struct {
	ID      string `json:"id"`
	Cwd     string `json:"cwd"`
	Shell   string `json:"shell"`
	Command string `json:"command"`
}

type writePtyRequest struct {
	Data []byte  `json:"data"`
	Text *string `json:"text"`
}

type resizePtyRequest struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// CreatePty spawns a shell session
func (h *Handlers) CreatePty(c *gin.Context) {
	var req createPtyRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	if req.ID == "" {
		req.ID = id.NewPtyID().String()
	}
	if err := utils.ValidateID(req.ID, "id", true); err != nil {
		h.respondError(c, invalidRequest("%v", err))
		return
	}
	if err := utils.ValidatePath(req.Cwd, "cwd", false); err != nil {
		h.respondError(c, invalidRequest("%v", err))
		return
	}
	if err := utils.ValidateString(req.Command, "command", 0, utils.MaxCommandLength, false); err != nil {
		h.respondError(c, invalidRequest("%v", err))
		return
	}
	if err := utils.ValidatePath(req.Shell, "shell", false); err != nil {
		h.respondError(c, invalidRequest("%v", err))
		return
	}

	cwd := paths.Expand(req.Cwd)
	if cwd != "" {
		if err := paths.ValidateWorkingDir(cwd); err != nil {
			h.respondError(c, invalidRequest("%v", err))
			return
		}
	}

	err := h.terminal.Create(c.Request.Context(), terminal.CreateOptions{
		ID:      req.ID,
		Cwd:     cwd,
		Shell:   req.Shell,
		Command: req.Command,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

// WritePty sends input to a session. Binary input arrives base64-encoded in
// data; text is accepted as a convenience for plain keystrokes.
func (h *Handlers) WritePty(c *gin.Context) {
	var req writePtyRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	data := req.Data
	if data == nil && req.Text != nil {
		data = []byte(*req.Text)
	}
	if data == nil {
		h.respondError(c, invalidRequest("data or text is required"))
		return
	}
	if err := utils.ValidateSize(data, utils.MaxWriteSize, "data"); err != nil {
		h.respondError(c, invalidRequest("%v", err))
		return
	}

	if err := h.terminal.Write(c.Param("id"), data); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// ResizePty changes a session's terminal size
func (h *Handlers) ResizePty(c *gin.Context) {
	var req resizePtyRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	if err := utils.ValidateDimensions(req.Cols, req.Rows); err != nil {
		h.respondError(c, invalidRequest("%v", err))
		return
	}

	if err := h.terminal.Resize(c.Param("id"), uint16(req.Cols), uint16(req.Rows)); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c)
}

// KillPty tears a session down. Unknown ids succeed.
func (h *Handlers) KillPty(c *gin.Context) {
	h.terminal.Kill(c.Param("id"))
	ok(c)
}

// ListPty lists live session ids
func (h *Handlers) ListPty(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.terminal.List()})
}

// PtyExists reports whether a session is live
func (h *Handlers) PtyExists(c *gin.Context) {
	ptyID := c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"id":     ptyID,
		"exists": h.terminal.Exists(ptyID),
	})
}
