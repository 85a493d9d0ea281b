package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/a/b/proj", "proj"},
		{"/a/b/proj/", "proj"},
		{"proj", "proj"},
		{`C:\work\repo`, "repo"},
		{"/", "Unknown"},
		{"", "Unknown"},
		{"/a/..", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseName(tt.path))
		})
	}
}

func TestDefaultWorkspacePath(t *testing.T) {
	p := DefaultWorkspacePath()
	assert.True(t, strings.HasSuffix(p, filepath.Join(".lovstudio", "lovcode", "workspace.json")))
}

func TestExpand(t *testing.T) {
	assert.Equal(t, HomeDir(), Expand("~"))
	assert.Equal(t, filepath.Join(HomeDir(), "x", "y"), Expand("~/x/y"))
	assert.Equal(t, "/abs/path", Expand("/abs/path"))
}

func TestValidateWorkingDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, ValidateWorkingDir(dir))
	assert.Error(t, ValidateWorkingDir(""))
	assert.Error(t, ValidateWorkingDir(filepath.Join(dir, "missing")))

	file := filepath.Join(dir, "f")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, ValidateWorkingDir(file))
}
