package workspace

import (
	"fmt"
	"strings"
	"time"

	"github.com/lovstudio/lovcode/backend/internal/shared/id"
	"github.com/lovstudio/lovcode/backend/internal/shared/paths"
)

func now() uint64 {
	return uint64(time.Now().Unix())
}

// ListProjects returns every project in document order.
func (s *Store) ListProjects() ([]WorkspaceProject, error) {
	var out []WorkspaceProject
	err := s.view("list_projects", func(d *WorkspaceData) error {
		out = d.Projects
		return nil
	})
	return out, err
}

// AddProject registers a directory. Its name is the final path component and
// it becomes active only when no project is active yet.
func (s *Store) AddProject(path string) (*WorkspaceProject, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: project path is required", ErrInvalid)
	}

	var created WorkspaceProject
	err := s.update("add_project", func(d *WorkspaceData) error {
		for _, p := range d.Projects {
			if p.Path == path {
				return fmt.Errorf("project '%s': %w", path, ErrAlreadyExists)
			}
		}

		created = WorkspaceProject{
			ID:           id.NewProjectID().String(),
			Name:         paths.BaseName(path),
			Path:         path,
			Features:     []Feature{},
			SharedPanels: []PanelState{},
			CreatedAt:    now(),
		}
		d.Projects = append(d.Projects, created)

		if d.ActiveProjectID == nil {
			d.ActiveProjectID = stringPtr(created.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// RemoveProject deletes a project with its features and panels.
func (s *Store) RemoveProject(projectID string) error {
	return s.update("remove_project", func(d *WorkspaceData) error {
		idx := -1
		for i := range d.Projects {
			if d.Projects[i].ID == projectID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("project '%s': %w", projectID, ErrNotFound)
		}

		d.Projects = append(d.Projects[:idx], d.Projects[idx+1:]...)

		if d.ActiveProjectID != nil && *d.ActiveProjectID == projectID {
			d.ActiveProjectID = nil
			if len(d.Projects) > 0 {
				d.ActiveProjectID = stringPtr(d.Projects[0].ID)
			}
		}
		return nil
	})
}

// SetActiveProject marks an existing project active.
func (s *Store) SetActiveProject(projectID string) error {
	return s.update("set_active_project", func(d *WorkspaceData) error {
		if _, err := d.project(projectID); err != nil {
			return err
		}
		d.ActiveProjectID = stringPtr(projectID)
		return nil
	})
}

// CreateFeature adds a pending feature. Seq is left at zero; callers assign
// it from the project's feature counter.
func (s *Store) CreateFeature(projectID, name string, description *string) (*Feature, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: feature name is required", ErrInvalid)
	}

	var created Feature
	err := s.update("create_feature", func(d *WorkspaceData) error {
		p, err := d.project(projectID)
		if err != nil {
			return err
		}

		created = Feature{
			ID:          id.NewFeatureID().String(),
			Name:        name,
			Description: description,
			Status:      StatusPending,
			Panels:      []PanelState{},
			CreatedAt:   now(),
		}
		p.Features = append(p.Features, created)

		if p.ActiveFeatureID == nil {
			p.ActiveFeatureID = stringPtr(created.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// RenameFeature renames a feature wherever it lives.
func (s *Store) RenameFeature(featureID, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: feature name is required", ErrInvalid)
	}

	return s.update("rename_feature", func(d *WorkspaceData) error {
		for i := range d.Projects {
			if f, err := d.Projects[i].feature(featureID); err == nil {
				f.Name = name
				return nil
			}
		}
		return fmt.Errorf("feature '%s': %w", featureID, ErrNotFound)
	})
}

// UpdateFeatureStatus sets any status; transitions are not restricted.
func (s *Store) UpdateFeatureStatus(projectID, featureID string, status FeatureStatus) error {
	if _, err := ParseFeatureStatus(string(status)); err != nil {
		return err
	}

	return s.update("update_feature_status", func(d *WorkspaceData) error {
		p, err := d.project(projectID)
		if err != nil {
			return err
		}
		f, err := p.feature(featureID)
		if err != nil {
			return err
		}
		f.Status = status
		return nil
	})
}

// DeleteFeature removes a feature. If it was active, the first remaining
// feature becomes active.
func (s *Store) DeleteFeature(projectID, featureID string) error {
	return s.update("delete_feature", func(d *WorkspaceData) error {
		p, err := d.project(projectID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range p.Features {
			if p.Features[i].ID == featureID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("feature '%s': %w", featureID, ErrNotFound)
		}

		p.Features = append(p.Features[:idx], p.Features[idx+1:]...)

		if p.ActiveFeatureID != nil && *p.ActiveFeatureID == featureID {
			p.ActiveFeatureID = nil
			if len(p.Features) > 0 {
				p.ActiveFeatureID = stringPtr(p.Features[0].ID)
			}
		}
		return nil
	})
}

// SetActiveFeature marks an existing feature of the project active.
func (s *Store) SetActiveFeature(projectID, featureID string) error {
	return s.update("set_active_feature", func(d *WorkspaceData) error {
		p, err := d.project(projectID)
		if err != nil {
			return err
		}
		if _, err := p.feature(featureID); err != nil {
			return err
		}
		p.ActiveFeatureID = stringPtr(featureID)
		return nil
	})
}

// AddPanelToFeature appends a panel to a feature. The panel is stored as
// unshared since it now lives in a feature. A panel id already held anywhere
// in the project is rejected with ErrAlreadyExists.
func (s *Store) AddPanelToFeature(projectID, featureID string, panel PanelState) error {
	if panel.ID == "" {
		return fmt.Errorf("%w: panel id is required", ErrInvalid)
	}

	return s.update("add_panel", func(d *WorkspaceData) error {
		p, err := d.project(projectID)
		if err != nil {
			return err
		}
		f, err := p.feature(featureID)
		if err != nil {
			return err
		}
		if p.hasPanel(panel.ID) {
			return fmt.Errorf("panel '%s': %w", panel.ID, ErrAlreadyExists)
		}

		panel.IsShared = false
		if panel.Sessions == nil {
			panel.Sessions = []SessionState{}
		}
		f.Panels = append(f.Panels, panel)
		return nil
	})
}

// RemovePanelFromFeature drops a panel by id. Unknown panel ids are ignored
// and the layout tree is left for the caller to update.
func (s *Store) RemovePanelFromFeature(projectID, featureID, panelID string) error {
	return s.update("remove_panel", func(d *WorkspaceData) error {
		p, err := d.project(projectID)
		if err != nil {
			return err
		}
		f, err := p.feature(featureID)
		if err != nil {
			return err
		}

		kept := f.Panels[:0]
		for _, panel := range f.Panels {
			if panel.ID != panelID {
				kept = append(kept, panel)
			}
		}
		f.Panels = kept
		return nil
	})
}

// TogglePanelShared moves a panel between the project's shared pool and a
// feature and returns its new shared state. A shared panel moves into the
// active feature; a feature panel moves into the shared pool.
func (s *Store) TogglePanelShared(projectID, panelID string) (bool, error) {
	var shared bool
	err := s.update("toggle_panel_shared", func(d *WorkspaceData) error {
		p, err := d.project(projectID)
		if err != nil {
			return err
		}

		for i := range p.SharedPanels {
			if p.SharedPanels[i].ID != panelID {
				continue
			}
			if p.ActiveFeatureID == nil {
				return fmt.Errorf("project '%s': %w", projectID, ErrNoActiveFeature)
			}
			target, err := p.feature(*p.ActiveFeatureID)
			if err != nil {
				return fmt.Errorf("project '%s': %w", projectID, ErrNoActiveFeature)
			}

			panel := p.SharedPanels[i]
			panel.IsShared = false
			p.SharedPanels = append(p.SharedPanels[:i], p.SharedPanels[i+1:]...)
			target.Panels = append(target.Panels, panel)
			shared = false
			return nil
		}

		for fi := range p.Features {
			f := &p.Features[fi]
			for i := range f.Panels {
				if f.Panels[i].ID != panelID {
					continue
				}
				panel := f.Panels[i]
				panel.IsShared = true
				f.Panels = append(f.Panels[:i], f.Panels[i+1:]...)
				p.SharedPanels = append(p.SharedPanels, panel)
				shared = true
				return nil
			}
		}

		return fmt.Errorf("panel '%s': %w", panelID, ErrNotFound)
	})
	return shared, err
}

// SetFeatureLayout replaces a feature's layout tree. A nil layout clears it.
func (s *Store) SetFeatureLayout(projectID, featureID string, layout *LayoutNode) error {
	if layout != nil {
		if err := layout.Validate(); err != nil {
			return err
		}
	}

	return s.update("set_feature_layout", func(d *WorkspaceData) error {
		p, err := d.project(projectID)
		if err != nil {
			return err
		}
		f, err := p.feature(featureID)
		if err != nil {
			return err
		}
		f.Layout = layout.Clone()
		return nil
	})
}

// PendingReviews lists every feature waiting for review.
func (s *Store) PendingReviews() ([]PendingReview, error) {
	out := []PendingReview{}
	err := s.view("pending_reviews", func(d *WorkspaceData) error {
		for _, p := range d.Projects {
			for _, f := range p.Features {
				if f.Status == StatusNeedsReview {
					out = append(out, PendingReview{
						ProjectID: p.ID,
						FeatureID: f.ID,
						Label:     fmt.Sprintf("%s: %s", p.Name, f.Name),
					})
				}
			}
		}
		return nil
	})
	return out, err
}
