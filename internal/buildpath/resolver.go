// SPDX-License-Identifier: MPL-2.0

// Package buildpath locates the build-configuration directory produced by the
// build orchestrator (e.g. out/Debug holding args.gn).
package buildpath

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/vkshadergen/vkshadergen/internal/issue"
	"github.com/vkshadergen/vkshadergen/pkg/fspath"
	"github.com/vkshadergen/vkshadergen/pkg/types"
)

const (
	// DefaultOutDirName is the conventional output directory name.
	DefaultOutDirName = "out"
	// DefaultMarkerFile identifies a valid build-configuration directory.
	DefaultMarkerFile = "args.gn"
	// DefaultMaxDepth bounds the upward search.
	DefaultMaxDepth = 64
)

// Resolver searches from a start directory upward for <OutDirName>/<config>/<MarkerFile>.
type Resolver struct {
	OutDirName string
	MarkerFile string
	// MaxDepth is the number of directories inspected, the start directory included.
	MaxDepth int
}

// NewResolver returns a Resolver with the default names and depth bound.
func NewResolver() Resolver {
	return Resolver{
		OutDirName: DefaultOutDirName,
		MarkerFile: DefaultMarkerFile,
		MaxDepth:   DefaultMaxDepth,
	}
}

// Resolve returns the absolute path of the build-configuration directory.
//
// At each level it checks for a child named OutDirName. When present, its
// immediate subdirectories are scanned in lexicographic order and the first one
// containing MarkerFile wins; an out directory without any marker ends the
// search. Otherwise the search moves to the parent until the filesystem root
// or MaxDepth is reached.
func (r Resolver) Resolve(start string) (string, error) {
	r = r.withDefaults()

	dir, err := fspath.Abs(types.FilesystemPath(start))
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}

	visited := 0
	for range r.MaxDepth {
		visited++

		outDir := fspath.JoinStr(dir, r.OutDirName)
		if fspath.IsDir(outDir) {
			found, err := r.scanOutDir(outDir.String())
			if err != nil {
				return "", err
			}
			if found != "" {
				return found, nil
			}
			return "", r.notFound(start, fmt.Errorf("no subdirectory of %s contains %s", outDir, r.MarkerFile))
		}

		parent := fspath.Dir(dir)
		if parent == dir {
			return "", r.notFound(start, fmt.Errorf("reached filesystem root after %d directories", visited))
		}
		dir = parent
	}

	return "", r.notFound(start, fmt.Errorf("gave up after %d directories (max depth)", visited))
}

// scanOutDir returns the first subdirectory of outDir, in lexicographic order,
// that holds the marker file, or "" when none does.
func (r Resolver) scanOutDir(outDir string) (string, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", issue.NewErrorContext(issue.KindConfigurationNotFound).
			WithOperation("read build output directory").
			WithResource(outDir).
			Wrap(err).
			BuildError()
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	// Lexicographic tie-break between build configurations.
	slices.Sort(names)

	for _, name := range names {
		candidate := filepath.Join(outDir, name)
		if fspath.IsFile(fspath.JoinStr(types.FilesystemPath(candidate), r.MarkerFile)) {
			return candidate, nil
		}
	}
	return "", nil
}

func (r Resolver) notFound(start string, cause error) error {
	return issue.NewErrorContext(issue.KindConfigurationNotFound).
		WithOperation("locate build directory").
		WithResource(start).
		WithSuggestion(fmt.Sprintf("Run 'gn gen %s/<config>' to create a build configuration", r.OutDirName)).
		WithSuggestion("Run vkshadergen from inside the source checkout (see --dir)").
		Wrap(cause).
		BuildError()
}

func (r Resolver) withDefaults() Resolver {
	if r.OutDirName == "" {
		r.OutDirName = DefaultOutDirName
	}
	if r.MarkerFile == "" {
		r.MarkerFile = DefaultMarkerFile
	}
	if r.MaxDepth <= 0 {
		r.MaxDepth = DefaultMaxDepth
	}
	return r
}
