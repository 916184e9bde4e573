package config

import (
	"os"
	"path/filepath"
	"sync"
)

// A workspace is laid out as
//
//	<home>/config.yaml
//	<home>/plans/<appId>_actionplan.json
//	<home>/reports/report.json
const (
	envHome    = "AVAGEN_HOME"
	plansDir   = "plans"
	reportsDir = "reports"
)

var home = sync.OnceValue(findHome)

// GetHome returns the workspace root. It is $AVAGEN_HOME when set, else the
// nearest directory at or above the working directory that looks like a
// workspace, else the parent of a bin/ directory holding the binary, else
// the working directory. The result is cached.
func GetHome() string {
	return home()
}

// GetPlansDir returns the default plan directory, <home>/plans.
func GetPlansDir() string {
	return filepath.Join(GetHome(), plansDir)
}

// GetReportsDir returns the default report directory, <home>/reports.
func GetReportsDir() string {
	return filepath.Join(GetHome(), reportsDir)
}

// ResetHome drops the cached workspace root.
func ResetHome() {
	home = sync.OnceValue(findHome)
}

func findHome() string {
	if env := os.Getenv(envHome); env != "" {
		return env
	}

	cwd, err := os.Getwd()
	if err == nil {
		for dir := cwd; ; dir = filepath.Dir(dir) {
			if isWorkspace(dir) {
				return dir
			}
			if filepath.Dir(dir) == dir {
				break
			}
		}
	}

	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		if bin := filepath.Dir(exe); filepath.Base(bin) == "bin" {
			return filepath.Dir(bin)
		}
	}

	if cwd != "" {
		return cwd
	}
	return "."
}

// isWorkspace reports whether dir holds a config file or a plans directory.
func isWorkspace(dir string) bool {
	for _, name := range []string{"config.yaml", "config.yml"} {
		if fi, err := os.Stat(filepath.Join(dir, name)); err == nil && fi.Mode().IsRegular() {
			return true
		}
	}
	fi, err := os.Stat(filepath.Join(dir, plansDir))
	return err == nil && fi.IsDir()
}
