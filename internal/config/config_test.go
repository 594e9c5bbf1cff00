package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/project"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"CuraPath", CuraPath, "/test/project/.cura"},
		{"ConfigPath", ConfigPath, "/test/project/.cura/config.json"},
		{"BoardPath", BoardPath, "/test/project/.cura/board.json"},
		{"CasesPath", CasesPath, "/test/project/.cura/cases.json"},
		{"CachePath", CachePath, "/test/project/.cura/cache.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(root)
			if got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestIsProject(t *testing.T) {
	tmpDir := t.TempDir()

	// Not a project initially
	if IsProject(tmpDir) {
		t.Error("IsProject() = true for non-project directory")
	}

	// Create .cura directory
	if err := os.Mkdir(filepath.Join(tmpDir, CuraDir), 0755); err != nil {
		t.Fatalf("Failed to create .cura: %v", err)
	}

	// Now it should be a project
	if !IsProject(tmpDir) {
		t.Error("IsProject() = false for project directory")
	}
}

func TestIsProject_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()

	// Create .cura as a file, not directory
	if err := os.WriteFile(filepath.Join(tmpDir, CuraDir), []byte("not a dir"), 0644); err != nil {
		t.Fatalf("Failed to create .cura file: %v", err)
	}

	// Should not be considered a project
	if IsProject(tmpDir) {
		t.Error("IsProject() = true when .cura is a file")
	}
}

func TestFindProject(t *testing.T) {
	// Create nested structure: /tmp/xxx/project/.cura
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "project")
	nestedDir := filepath.Join(projectDir, "data", "imports")

	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatalf("Failed to create nested dirs: %v", err)
	}
	if err := os.Mkdir(filepath.Join(projectDir, CuraDir), 0755); err != nil {
		t.Fatalf("Failed to create .cura: %v", err)
	}

	// Find from nested dir should return project root
	found, err := FindProject(nestedDir)
	if err != nil {
		t.Fatalf("FindProject() error = %v", err)
	}
	if found != projectDir {
		t.Errorf("FindProject() = %q, want %q", found, projectDir)
	}

	// Find from project root
	found, err = FindProject(projectDir)
	if err != nil {
		t.Fatalf("FindProject() error = %v", err)
	}
	if found != projectDir {
		t.Errorf("FindProject() = %q, want %q", found, projectDir)
	}
}

func TestFindProject_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := FindProject(tmpDir)
	if err == nil {
		t.Error("FindProject() should return error when no project found")
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.Mkdir(filepath.Join(tmpDir, CuraDir), 0755); err != nil {
		t.Fatalf("Failed to create .cura: %v", err)
	}

	cfg := &Config{
		ProjectID:  "proj-42",
		APIBaseURL: "http://localhost:8080/v1",
		Columns:    []string{"search results", "included"},
	}
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.ProjectID != cfg.ProjectID {
		t.Errorf("ProjectID = %q, want %q", loaded.ProjectID, cfg.ProjectID)
	}
	if loaded.APIBaseURL != cfg.APIBaseURL {
		t.Errorf("APIBaseURL = %q, want %q", loaded.APIBaseURL, cfg.APIBaseURL)
	}
	if len(loaded.Columns) != 2 || loaded.Columns[0] != "search results" {
		t.Errorf("Columns = %v, want %v", loaded.Columns, cfg.Columns)
	}
	if loaded.ProjectDir != tmpDir {
		t.Errorf("ProjectDir = %q, want %q", loaded.ProjectDir, tmpDir)
	}
}

func TestLoad_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	// Create .cura directory but no config
	if err := os.Mkdir(filepath.Join(tmpDir, CuraDir), 0755); err != nil {
		t.Fatalf("Failed to create .cura: %v", err)
	}

	_, err := Load(tmpDir)
	if err == nil {
		t.Error("Load() should return error when config not found")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.Mkdir(filepath.Join(tmpDir, CuraDir), 0755); err != nil {
		t.Fatalf("Failed to create .cura: %v", err)
	}
	if err := os.WriteFile(ConfigPath(tmpDir), []byte("not json"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(tmpDir)
	if err == nil {
		t.Error("Load() should return error for invalid JSON")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~", home},
		{"~/projects", filepath.Join(home, "projects")},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ExpandPath(tt.path); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
