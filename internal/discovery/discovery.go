// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vkshadergen/vkshadergen/internal/issue"
	"github.com/vkshadergen/vkshadergen/pkg/platform"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrNameCollision is returned when two sources derive the same identifier
	// or variable name.
	ErrNameCollision = errors.New("shader name collision")
	// ErrReservedName is returned for sources whose names Windows cannot create.
	ErrReservedName = errors.New("reserved shader name")
)

type (
	// Options configures Discover.
	Options struct {
		// ShadersDir is the source directory, relative to the root.
		ShadersDir string
		// Exclude holds doublestar patterns matched against file names.
		Exclude []string
		Naming
	}

	// NameCollisionError reports two sources that map to the same name.
	NameCollisionError struct {
		// Field is "identifier" or "variable".
		Field  string
		Name   string
		First  string
		Second string
	}

	// ReservedNameError reports a source name that is a Windows device name.
	ReservedNameError struct {
		Input string
	}
)

// Error implements the error interface.
func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("%s %q derived from both %s and %s", e.Field, e.Name, e.First, e.Second)
}

// Unwrap returns ErrNameCollision for errors.Is() compatibility.
func (e *NameCollisionError) Unwrap() error { return ErrNameCollision }

// Error implements the error interface.
func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("%s uses a name reserved on Windows", e.Input)
}

// Unwrap returns ErrReservedName for errors.Is() compatibility.
func (e *ReservedNameError) Unwrap() error { return ErrReservedName }

// Discover lists the shader sources under <root>/<ShadersDir>, sorted by input
// path. Only regular files directly inside the directory are considered. It
// touches nothing on disk.
func Discover(root string, opts Options) ([]Shader, error) {
	dir := filepath.Join(root, opts.ShadersDir)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", dir)
		}
		return nil, issue.NewErrorContext(issue.KindConfigurationNotFound).
			WithOperation("discover shader sources").
			WithResource(dir).
			WithSuggestion("Run vkshadergen from the directory that contains " + opts.ShadersDir).
			WithSuggestion("Use --dir or the shaders_dir setting to point at the sources").
			Wrap(err).
			BuildError()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read shader directory %s: %w", dir, err)
	}

	var shaders []Shader
	for _, e := range entries {
		name := e.Name()
		if excluded(name, opts.Exclude) {
			continue
		}
		if !isRegular(dir, e) {
			continue
		}
		input := filepath.Join(opts.ShadersDir, name)
		if platform.IsWindowsReservedName(name) {
			return nil, &ReservedNameError{Input: input}
		}
		shaders = append(shaders, opts.Shader(input))
	}

	slices.SortFunc(shaders, func(a, b Shader) int {
		return strings.Compare(a.Input, b.Input)
	})

	if err := checkCollisions(shaders); err != nil {
		return nil, err
	}
	return shaders, nil
}

// Inputs returns the input paths in discovery order.
func Inputs(shaders []Shader) []string {
	out := make([]string, len(shaders))
	for i, s := range shaders {
		out[i] = s.Input
	}
	return out
}

// SortedOutputs returns the blob paths sorted lexicographically. Both the
// build fragment and the outputs query use it.
func SortedOutputs(shaders []Shader) []string {
	out := make([]string, len(shaders))
	for i, s := range shaders {
		out[i] = s.Output
	}
	slices.Sort(out)
	return out
}

func excluded(name string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, name); err == nil && ok {
			return true
		}
	}
	return false
}

// isRegular accepts regular files and symlinks that resolve to one.
func isRegular(dir string, e fs.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && info.Mode().IsRegular()
}

func checkCollisions(shaders []Shader) error {
	ids := make(map[string]string, len(shaders))
	vars := make(map[string]string, len(shaders))
	for _, s := range shaders {
		if prev, ok := ids[s.ID]; ok {
			return &NameCollisionError{Field: "identifier", Name: s.ID, First: prev, Second: s.Input}
		}
		ids[s.ID] = s.Input
		if prev, ok := vars[s.Variable]; ok {
			return &NameCollisionError{Field: "variable", Name: s.Variable, First: prev, Second: s.Input}
		}
		vars[s.Variable] = s.Input
	}
	return nil
}
