package workspace

import (
	"testing"

	"github.com/lovstudio/lovcode/backend/internal/shared/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func panel(panelID, ptyID string) PanelState {
	return PanelState{
		ID:              panelID,
		Sessions:        []SessionState{{ID: panelID + "-s1", PtyID: ptyID, Title: "Terminal"}},
		ActiveSessionID: panelID + "-s1",
		Cwd:             "/src/app",
	}
}

func mustProject(t *testing.T, s *Store, path string) *WorkspaceProject {
	t.Helper()
	p, err := s.AddProject(path)
	require.NoError(t, err)
	return p
}

func mustFeature(t *testing.T, s *Store, projectID, name string) *Feature {
	t.Helper()
	f, err := s.CreateFeature(projectID, name, nil)
	require.NoError(t, err)
	return f
}

func loadProject(t *testing.T, s *Store, projectID string) WorkspaceProject {
	t.Helper()
	data, err := s.Load()
	require.NoError(t, err)
	p, err := data.project(projectID)
	require.NoError(t, err)
	return *p
}

func panelCount(p WorkspaceProject) int {
	n := len(p.SharedPanels)
	for _, f := range p.Features {
		n += len(f.Panels)
	}
	return n
}

func TestAddProject(t *testing.T) {
	s := newTestStore(t)

	first := mustProject(t, s, "/a/b/proj")
	assert.Equal(t, "proj", first.Name)
	assert.True(t, id.IsUUID(first.ID))
	assert.NotZero(t, first.CreatedAt)

	second := mustProject(t, s, "/a/b/other/")
	assert.Equal(t, "other", second.Name)

	data, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, data.ActiveProjectID)
	assert.Equal(t, first.ID, *data.ActiveProjectID, "only the first project becomes active")
}

func TestAddProjectDuplicatePath(t *testing.T) {
	s := newTestStore(t)
	mustProject(t, s, "/a/b/proj")

	_, err := s.AddProject("/a/b/proj")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Contains(t, err.Error(), "already exists")

	projects, err := s.ListProjects()
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestAddProjectRejectsEmptyPath(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddProject("  ")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRemoveProjectRetargetsActive(t *testing.T) {
	s := newTestStore(t)
	a := mustProject(t, s, "/a")
	b := mustProject(t, s, "/b")

	require.NoError(t, s.RemoveProject(a.ID))
	data, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, data.ActiveProjectID)
	assert.Equal(t, b.ID, *data.ActiveProjectID)

	require.NoError(t, s.RemoveProject(b.ID))
	data, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, data.ActiveProjectID)
	assert.Empty(t, data.Projects)

	assert.ErrorIs(t, s.RemoveProject(b.ID), ErrNotFound)
}

func TestRemoveInactiveProjectKeepsActive(t *testing.T) {
	s := newTestStore(t)
	a := mustProject(t, s, "/a")
	b := mustProject(t, s, "/b")

	require.NoError(t, s.RemoveProject(b.ID))
	data, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, a.ID, *data.ActiveProjectID)
}

func TestSetActiveProject(t *testing.T) {
	s := newTestStore(t)
	mustProject(t, s, "/a")
	b := mustProject(t, s, "/b")

	require.NoError(t, s.SetActiveProject(b.ID))
	data, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, b.ID, *data.ActiveProjectID)

	assert.ErrorIs(t, s.SetActiveProject("ghost"), ErrNotFound)
}

func TestCreateFeature(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")

	desc := "goals"
	f1, err := s.CreateFeature(p.ID, "f1", &desc)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), f1.Seq)
	assert.Equal(t, StatusPending, f1.Status)
	assert.Equal(t, "goals", *f1.Description)

	f2 := mustFeature(t, s, p.ID, "f2")

	got := loadProject(t, s, p.ID)
	require.Len(t, got.Features, 2)
	assert.Equal(t, f1.ID, *got.ActiveFeatureID)
	assert.Equal(t, f2.ID, got.Features[1].ID)

	_, err = s.CreateFeature(p.ID, "", nil)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.CreateFeature("ghost", "f3", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenameFeature(t *testing.T) {
	s := newTestStore(t)
	mustProject(t, s, "/a")
	p := mustProject(t, s, "/b")
	f := mustFeature(t, s, p.ID, "old")

	require.NoError(t, s.RenameFeature(f.ID, "new"))
	assert.Equal(t, "new", loadProject(t, s, p.ID).Features[0].Name)

	assert.ErrorIs(t, s.RenameFeature("ghost", "x"), ErrNotFound)
	assert.ErrorIs(t, s.RenameFeature(f.ID, " "), ErrInvalid)
}

func TestUpdateFeatureStatusAnyToAny(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")
	f := mustFeature(t, s, p.ID, "f")

	for _, st := range []FeatureStatus{StatusCompleted, StatusPending, StatusNeedsReview, StatusRunning, StatusPending} {
		require.NoError(t, s.UpdateFeatureStatus(p.ID, f.ID, st))
		assert.Equal(t, st, loadProject(t, s, p.ID).Features[0].Status)
	}

	assert.ErrorIs(t, s.UpdateFeatureStatus(p.ID, f.ID, "blocked"), ErrInvalid)
	assert.ErrorIs(t, s.UpdateFeatureStatus(p.ID, "ghost", StatusRunning), ErrNotFound)
}

func TestDeleteActiveFeatureRetargets(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")
	f1 := mustFeature(t, s, p.ID, "f1")
	f2 := mustFeature(t, s, p.ID, "f2")

	require.NoError(t, s.DeleteFeature(p.ID, f1.ID))
	got := loadProject(t, s, p.ID)
	require.NotNil(t, got.ActiveFeatureID)
	assert.Equal(t, f2.ID, *got.ActiveFeatureID)

	require.NoError(t, s.DeleteFeature(p.ID, f2.ID))
	got = loadProject(t, s, p.ID)
	assert.Nil(t, got.ActiveFeatureID)
	assert.Empty(t, got.Features)

	assert.ErrorIs(t, s.DeleteFeature(p.ID, f2.ID), ErrNotFound)
}

func TestSetActiveFeature(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")
	mustFeature(t, s, p.ID, "f1")
	f2 := mustFeature(t, s, p.ID, "f2")

	require.NoError(t, s.SetActiveFeature(p.ID, f2.ID))
	assert.Equal(t, f2.ID, *loadProject(t, s, p.ID).ActiveFeatureID)

	assert.ErrorIs(t, s.SetActiveFeature(p.ID, "ghost"), ErrNotFound)
	assert.ErrorIs(t, s.SetActiveFeature("ghost", f2.ID), ErrNotFound)
}

func TestAddAndRemovePanel(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")
	f := mustFeature(t, s, p.ID, "f")

	shared := panel("p1", "pty-1")
	shared.IsShared = true
	require.NoError(t, s.AddPanelToFeature(p.ID, f.ID, shared))
	require.NoError(t, s.AddPanelToFeature(p.ID, f.ID, panel("p2", "pty-2")))

	got := loadProject(t, s, p.ID).Features[0]
	require.Len(t, got.Panels, 2)
	assert.False(t, got.Panels[0].IsShared)
	assert.Equal(t, "p2", got.Panels[1].ID)

	require.NoError(t, s.RemovePanelFromFeature(p.ID, f.ID, "p1"))
	require.NoError(t, s.RemovePanelFromFeature(p.ID, f.ID, "missing"))

	got = loadProject(t, s, p.ID).Features[0]
	require.Len(t, got.Panels, 1)
	assert.Equal(t, "p2", got.Panels[0].ID)

	assert.ErrorIs(t, s.AddPanelToFeature(p.ID, "ghost", panel("p3", "")), ErrNotFound)
	assert.ErrorIs(t, s.AddPanelToFeature(p.ID, f.ID, PanelState{}), ErrInvalid)
}

func TestAddPanelRejectsIDHeldElsewhere(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")
	f1 := mustFeature(t, s, p.ID, "f1")
	f2 := mustFeature(t, s, p.ID, "f2")
	require.NoError(t, s.AddPanelToFeature(p.ID, f1.ID, panel("p1", "pty-1")))
	require.NoError(t, s.AddPanelToFeature(p.ID, f1.ID, panel("p2", "pty-2")))

	assert.ErrorIs(t, s.AddPanelToFeature(p.ID, f1.ID, panel("p1", "pty-9")), ErrAlreadyExists)
	assert.ErrorIs(t, s.AddPanelToFeature(p.ID, f2.ID, panel("p1", "pty-9")), ErrAlreadyExists)

	_, err := s.TogglePanelShared(p.ID, "p2")
	require.NoError(t, err)
	assert.ErrorIs(t, s.AddPanelToFeature(p.ID, f2.ID, panel("p2", "pty-9")), ErrAlreadyExists)

	got := loadProject(t, s, p.ID)
	assert.Equal(t, 2, panelCount(got))
	assert.Empty(t, got.Features[1].Panels)

	// Panel ids are scoped to their project.
	other := mustProject(t, s, "/b")
	of := mustFeature(t, s, other.ID, "f")
	assert.NoError(t, s.AddPanelToFeature(other.ID, of.ID, panel("p1", "pty-3")))
}

func TestTogglePanelSharedIsItsOwnInverse(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")
	f := mustFeature(t, s, p.ID, "f")
	require.NoError(t, s.AddPanelToFeature(p.ID, f.ID, panel("p1", "pty-1")))
	require.NoError(t, s.AddPanelToFeature(p.ID, f.ID, panel("p2", "pty-2")))

	before := loadProject(t, s, p.ID)
	total := panelCount(before)

	shared, err := s.TogglePanelShared(p.ID, "p1")
	require.NoError(t, err)
	assert.True(t, shared)

	mid := loadProject(t, s, p.ID)
	require.Len(t, mid.SharedPanels, 1)
	assert.True(t, mid.SharedPanels[0].IsShared)
	assert.Equal(t, "pty-1", mid.SharedPanels[0].Sessions[0].PtyID)
	assert.Equal(t, total, panelCount(mid))

	shared, err = s.TogglePanelShared(p.ID, "p1")
	require.NoError(t, err)
	assert.False(t, shared)

	after := loadProject(t, s, p.ID)
	assert.Empty(t, after.SharedPanels)
	assert.Equal(t, total, panelCount(after))
	require.Len(t, after.Features[0].Panels, 2)
	for _, pn := range after.Features[0].Panels {
		assert.False(t, pn.IsShared)
	}
}

func TestTogglePanelSharedMovesIntoActiveFeature(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")
	f1 := mustFeature(t, s, p.ID, "f1")
	f2 := mustFeature(t, s, p.ID, "f2")
	require.NoError(t, s.AddPanelToFeature(p.ID, f1.ID, panel("p1", "pty-1")))

	_, err := s.TogglePanelShared(p.ID, "p1")
	require.NoError(t, err)
	require.NoError(t, s.SetActiveFeature(p.ID, f2.ID))

	_, err = s.TogglePanelShared(p.ID, "p1")
	require.NoError(t, err)

	got := loadProject(t, s, p.ID)
	assert.Empty(t, got.Features[0].Panels)
	require.Len(t, got.Features[1].Panels, 1)
	assert.Equal(t, "p1", got.Features[1].Panels[0].ID)
}

func TestTogglePanelSharedWithoutActiveFeature(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")
	f := mustFeature(t, s, p.ID, "f")
	require.NoError(t, s.AddPanelToFeature(p.ID, f.ID, panel("p1", "pty-1")))

	_, err := s.TogglePanelShared(p.ID, "p1")
	require.NoError(t, err)
	require.NoError(t, s.DeleteFeature(p.ID, f.ID))

	_, err = s.TogglePanelShared(p.ID, "p1")
	assert.ErrorIs(t, err, ErrNoActiveFeature)

	got := loadProject(t, s, p.ID)
	require.Len(t, got.SharedPanels, 1, "panel must stay in the shared pool")
	assert.True(t, got.SharedPanels[0].IsShared)
}

func TestTogglePanelSharedNotFound(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")

	_, err := s.TogglePanelShared(p.ID, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.TogglePanelShared("ghost", "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetFeatureLayout(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/a")
	f := mustFeature(t, s, p.ID, "f")

	require.NoError(t, s.SetFeatureLayout(p.ID, f.ID, sampleLayout()))
	assert.Equal(t, []string{"p1", "p2", "p3"}, loadProject(t, s, p.ID).Features[0].Layout.PanelIDs())

	bad := NewSplitNode(Vertical, NewPanelNode("a"), NewPanelNode("a"))
	assert.ErrorIs(t, s.SetFeatureLayout(p.ID, f.ID, bad), ErrInvalid)

	require.NoError(t, s.SetFeatureLayout(p.ID, f.ID, nil))
	assert.Nil(t, loadProject(t, s, p.ID).Features[0].Layout)
}

func TestPendingReviews(t *testing.T) {
	s := newTestStore(t)

	reviews, err := s.PendingReviews()
	require.NoError(t, err)
	assert.Empty(t, reviews)

	p := mustProject(t, s, "/src/app")
	f1 := mustFeature(t, s, p.ID, "login")
	mustFeature(t, s, p.ID, "search")
	require.NoError(t, s.UpdateFeatureStatus(p.ID, f1.ID, StatusNeedsReview))

	reviews, err = s.PendingReviews()
	require.NoError(t, err)
	assert.Equal(t, []PendingReview{{ProjectID: p.ID, FeatureID: f1.ID, Label: "app: login"}}, reviews)
}

func TestStalePtyIDsSurviveReload(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "/work/P")
	f := mustFeature(t, s, p.ID, "f1")
	require.NoError(t, s.AddPanelToFeature(p.ID, f.ID, panel("panel-1", "pty_gone")))

	reopened := NewStore(s.Path(), nil, nil)
	data, err := reopened.Load()
	require.NoError(t, err)

	got, err := data.project(p.ID)
	require.NoError(t, err)
	require.Len(t, got.Features[0].Panels, 1)
	assert.Equal(t, "pty_gone", got.Features[0].Panels[0].Sessions[0].PtyID)
}
