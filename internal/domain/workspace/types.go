package workspace

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// FeatureStatus is the workflow state of a feature.
type FeatureStatus string

const (
	StatusPending     FeatureStatus = "pending"
	StatusRunning     FeatureStatus = "running"
	StatusCompleted   FeatureStatus = "completed"
	StatusNeedsReview FeatureStatus = "needs-review"
)

// ParseFeatureStatus validates a status string.
func ParseFeatureStatus(s string) (FeatureStatus, error) {
	switch st := FeatureStatus(s); st {
	case StatusPending, StatusRunning, StatusCompleted, StatusNeedsReview:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown feature status %q", ErrInvalid, s)
}

// UnmarshalJSON rejects unknown statuses. An empty string means pending.
func (s *FeatureStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := sonic.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = StatusPending
		return nil
	}
	st, err := ParseFeatureStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// SessionState is one terminal tab inside a panel.
type SessionState struct {
	ID      string  `json:"id"`
	PtyID   string  `json:"pty_id"`
	Title   string  `json:"title"`
	Command *string `json:"command"`
}

// PanelState is a container of terminal tabs. IsShared must agree with the
// collection holding the panel: Feature.Panels or WorkspaceProject.SharedPanels.
type PanelState struct {
	ID              string         `json:"id"`
	Sessions        []SessionState `json:"sessions"`
	ActiveSessionID string         `json:"active_session_id"`
	IsShared        bool           `json:"is_shared"`
	Cwd             string         `json:"cwd"`
}

// Feature is a unit of work inside a project.
type Feature struct {
	ID            string        `json:"id"`
	Seq           uint32        `json:"seq"`
	Name          string        `json:"name"`
	Description   *string       `json:"description"`
	Status        FeatureStatus `json:"status"`
	Pinned        *bool         `json:"pinned"`
	Archived      *bool         `json:"archived"`
	ArchivedNote  *string       `json:"archived_note"`
	GitBranch     *string       `json:"git_branch"`
	ChatSessionID *string       `json:"chat_session_id"`
	Panels        []PanelState  `json:"panels"`

	// Deprecated: use Layout. Kept so older documents round-trip.
	LayoutDirection *string     `json:"layout_direction"`
	Layout          *LayoutNode `json:"layout"`
	CreatedAt       uint64      `json:"created_at"`
}

// IsArchived treats an absent flag as false.
func (f *Feature) IsArchived() bool {
	return f.Archived != nil && *f.Archived
}

// WorkspaceProject is a directory the user works in.
type WorkspaceProject struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Path            string       `json:"path"`
	Archived        *bool        `json:"archived"`
	Features        []Feature    `json:"features"`
	SharedPanels    []PanelState `json:"shared_panels"`
	ActiveFeatureID *string      `json:"active_feature_id"`
	FeatureCounter  *uint32      `json:"feature_counter"`
	CreatedAt       uint64       `json:"created_at"`
}

// IsArchived treats an absent flag as false.
func (p *WorkspaceProject) IsArchived() bool {
	return p.Archived != nil && *p.Archived
}

// WorkspaceData is the root of the persisted document.
type WorkspaceData struct {
	Projects        []WorkspaceProject `json:"projects"`
	ActiveProjectID *string            `json:"active_project_id"`
}

// PendingReview names a feature waiting for the user's review.
type PendingReview struct {
	ProjectID string `json:"project_id"`
	FeatureID string `json:"feature_id"`
	Label     string `json:"label"`
}

// normalize replaces nil collections with empty ones so the document never
// serializes null where a list is expected.
func (d *WorkspaceData) normalize() {
	if d.Projects == nil {
		d.Projects = []WorkspaceProject{}
	}
	for i := range d.Projects {
		p := &d.Projects[i]
		if p.Features == nil {
			p.Features = []Feature{}
		}
		p.SharedPanels = normalizePanels(p.SharedPanels)
		for j := range p.Features {
			p.Features[j].Panels = normalizePanels(p.Features[j].Panels)
			if p.Features[j].Status == "" {
				p.Features[j].Status = StatusPending
			}
		}
		if id := p.ActiveFeatureID; id != nil {
			if _, err := p.feature(*id); err != nil {
				p.ActiveFeatureID = nil
			}
		}
	}
	// Active ids that point nowhere are dropped rather than rejected.
	if id := d.ActiveProjectID; id != nil {
		if _, err := d.project(*id); err != nil {
			d.ActiveProjectID = nil
		}
	}
}

func normalizePanels(panels []PanelState) []PanelState {
	if panels == nil {
		return []PanelState{}
	}
	for i := range panels {
		if panels[i].Sessions == nil {
			panels[i].Sessions = []SessionState{}
		}
	}
	return panels
}

func (d *WorkspaceData) project(id string) (*WorkspaceProject, error) {
	for i := range d.Projects {
		if d.Projects[i].ID == id {
			return &d.Projects[i], nil
		}
	}
	return nil, fmt.Errorf("project '%s': %w", id, ErrNotFound)
}

func (p *WorkspaceProject) feature(id string) (*Feature, error) {
	for i := range p.Features {
		if p.Features[i].ID == id {
			return &p.Features[i], nil
		}
	}
	return nil, fmt.Errorf("feature '%s': %w", id, ErrNotFound)
}

// hasPanel reports whether id is in the shared pool or any feature.
func (p *WorkspaceProject) hasPanel(id string) bool {
	for i := range p.SharedPanels {
		if p.SharedPanels[i].ID == id {
			return true
		}
	}
	for i := range p.Features {
		for j := range p.Features[i].Panels {
			if p.Features[i].Panels[j].ID == id {
				return true
			}
		}
	}
	return false
}

func stringPtr(s string) *string { return &s }
