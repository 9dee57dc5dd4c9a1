package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExecutableDir returns the directory where the current executable resides.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err == nil && strings.TrimSpace(exe) != "" {
		if resolved, resolveErr := filepath.EvalSymlinks(exe); resolveErr == nil && strings.TrimSpace(resolved) != "" {
			exe = resolved
		}
		return filepath.Dir(exe)
	}

	if wd, wdErr := os.Getwd(); wdErr == nil && strings.TrimSpace(wd) != "" {
		return wd
	}
	return "."
}

// ResolveRuntimePath resolves runtime directories against the working directory,
// which is where the site has always kept its data/ and public/ folders.
func ResolveRuntimePath(raw string, fallbackSubdir string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallbackSubdir)
		if target == "" {
			return workingDir()
		}
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(workingDir(), target))
}

func workingDir() string {
	if wd, err := os.Getwd(); err == nil && strings.TrimSpace(wd) != "" {
		return wd
	}
	return ExecutableDir()
}

// DataPath returns the absolute data directory holding the collection files.
func (c *AppConfig) DataPath() string { return ResolveRuntimePath(c.DataDir, defaultDataDir) }

// StaticPath returns the absolute directory uploads are written to.
func (c *AppConfig) StaticPath() string {
	return ResolveRuntimePath(c.Paths.Static, defaultStaticDir)
}

// LogPath returns the configured log directory, or "" to let the logger pick one.
func (c *AppConfig) LogPath() string {
	if c.Paths.Logs == "" {
		return ""
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}
