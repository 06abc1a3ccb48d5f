// Package project maps working directories to configured project ids.
// Discovery is deliberately dumb: a project owns the directory tree under
// its configured path, and the longest matching prefix wins.
package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kolapsis/overseer/internal/config"
)

// Resolver resolves a session's working directory to a project id.
type Resolver struct {
	projects map[string]config.Project
}

// NewResolver creates a Resolver over the configured projects.
func NewResolver(projects map[string]config.Project) *Resolver {
	return &Resolver{projects: projects}
}

// Validate checks that every configured project has a usable path.
func (r *Resolver) Validate() error {
	for name, p := range r.projects {
		if !filepath.IsAbs(config.ExpandHome(p.Path)) {
			return fmt.Errorf("project %q: path must be absolute, got %q", name, p.Path)
		}
	}
	return nil
}

// Resolve returns the project id owning the given working directory.
// When several project paths prefix the directory, the longest one wins.
func (r *Resolver) Resolve(workingDirectory string) (string, bool) {
	if workingDirectory == "" {
		return "", false
	}
	dir := filepath.Clean(workingDirectory)

	best := ""
	bestLen := -1
	for name, p := range r.projects {
		root := filepath.Clean(config.ExpandHome(p.Path))
		if dir != root && !strings.HasPrefix(dir, root+string(filepath.Separator)) {
			continue
		}
		if len(root) > bestLen {
			best = name
			bestLen = len(root)
		}
	}
	if bestLen < 0 {
		return "", false
	}
	return best, true
}
