package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Setenv("AVAGEN_HOME", "/custom/path")

	got := GetHome()
	if got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_FallbackNotEmpty(t *testing.T) {
	ResetHome()
	t.Setenv("AVAGEN_HOME", "")

	if got := GetHome(); got == "" {
		t.Error("GetHome() returned empty string")
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Setenv("AVAGEN_HOME", "/first")

	first := GetHome()

	t.Setenv("AVAGEN_HOME", "/second")
	second := GetHome()

	if first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestHomeSubdirs(t *testing.T) {
	ResetHome()
	t.Setenv("AVAGEN_HOME", "/test/home")
	t.Cleanup(ResetHome)

	if got, want := GetPlansDir(), filepath.Join("/test/home", "plans"); got != want {
		t.Errorf("GetPlansDir() = %q, want %q", got, want)
	}
	if got, want := GetReportsDir(), filepath.Join("/test/home", "reports"); got != want {
		t.Errorf("GetReportsDir() = %q, want %q", got, want)
	}
}

func TestGetHome_DiscoversWorkspace(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "flows", "android")
	if err := os.MkdirAll(filepath.Join(root, "plans"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		ResetHome()
	})

	ResetHome()
	t.Setenv("AVAGEN_HOME", "")

	if got := GetHome(); got != root {
		t.Errorf("GetHome() = %q, want %q", got, root)
	}
	if got, want := GetPlansDir(), filepath.Join(root, "plans"); got != want {
		t.Errorf("GetPlansDir() = %q, want %q", got, want)
	}
}

func TestIsWorkspace(t *testing.T) {
	dir := t.TempDir()
	if isWorkspace(dir) {
		t.Error("empty dir is not a workspace")
	}
	writeConfig(t, dir, "config.yml", "plans: plans\n")
	if !isWorkspace(dir) {
		t.Error("dir with config.yml is a workspace")
	}

	other := t.TempDir()
	if err := os.WriteFile(filepath.Join(other, "plans"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if isWorkspace(other) {
		t.Error("a plans file is not a plans directory")
	}
}
