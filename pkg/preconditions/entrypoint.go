package preconditions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/core-tools/hsu-stackup/pkg/errors"
)

// EntryPointConfig describes a service's primary entry-point file and the
// fallback written when it is missing.
type EntryPointConfig struct {
	Path         string `yaml:"path"`
	FallbackPath string `yaml:"fallback_path,omitempty"` // defaults next to Path
	Title        string `yaml:"title,omitempty"`
	BackendURL   string `yaml:"backend_url,omitempty"`
	FrontendURL  string `yaml:"frontend_url,omitempty"`
}

// EntryPoint degrades gracefully: when the primary entry-point file is
// absent, Repair synthesizes a minimal placeholder page so the launcher
// always has something valid to run. EffectivePath reports which file the
// launch arguments must reference.
type EntryPoint struct {
	Config EntryPointConfig

	usingFallback bool
}

func (e *EntryPoint) Name() string {
	return "entry-point:" + filepath.Base(e.Config.Path)
}

// EffectivePath returns the file the launcher must run: the primary entry
// point, or the fallback after a repair.
func (e *EntryPoint) EffectivePath() string {
	if e.usingFallback {
		return e.fallbackPath()
	}
	return e.Config.Path
}

// UsingFallback reports whether the placeholder replaced the primary file.
func (e *EntryPoint) UsingFallback() bool {
	return e.usingFallback
}

func (e *EntryPoint) fallbackPath() string {
	if e.Config.FallbackPath != "" {
		return e.Config.FallbackPath
	}
	return filepath.Join(filepath.Dir(e.Config.Path), "fallback_app.py")
}

func (e *EntryPoint) Verify(ctx context.Context) error {
	if e.Config.Path == "" {
		return errors.NewValidationError("entry-point path cannot be empty", nil)
	}
	if e.usingFallback {
		// Repair already redirected to the fallback file
		if _, err := os.Stat(e.fallbackPath()); err != nil {
			return errors.NewIOError("fallback entry point missing", err).WithContext("path", e.fallbackPath())
		}
		return nil
	}

	info, err := os.Stat(e.Config.Path)
	if err != nil {
		return errors.NewNotFoundError("entry-point file not found", err).WithContext("path", e.Config.Path)
	}
	if info.IsDir() {
		return errors.NewValidationError("entry-point path is a directory", nil).WithContext("path", e.Config.Path)
	}
	return nil
}

func (e *EntryPoint) Repair(ctx context.Context) error {
	fallback := e.fallbackPath()

	if err := os.WriteFile(fallback, []byte(e.placeholderContent()), 0644); err != nil {
		return errors.NewIOError("failed to write fallback entry point", err).WithContext("path", fallback)
	}

	e.usingFallback = true
	return nil
}

func (e *EntryPoint) placeholderContent() string {
	title := e.Config.Title
	if title == "" {
		title = "Service"
	}

	content := fmt.Sprintf(`import streamlit as st

st.set_page_config(page_title=%q)

st.title(%q)
st.success("The stack is online.")
`, title, title)

	if e.Config.BackendURL != "" {
		content += fmt.Sprintf("st.write(\"Backend: %s\")\n", e.Config.BackendURL)
	}
	if e.Config.FrontendURL != "" {
		content += fmt.Sprintf("st.write(\"Frontend: %s\")\n", e.Config.FrontendURL)
	}

	content += "\nst.info(\"This is a generated placeholder page. The primary entry point was missing at startup.\")\n"
	return content
}
