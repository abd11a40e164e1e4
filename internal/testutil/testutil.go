// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// MustMkdirAll creates a directory along with any necessary parents.
// The test fails immediately if the operation fails.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// MustWriteFile writes content to path, creating parent directories.
// The test fails immediately if the operation fails.
func MustWriteFile(t testing.TB, path, content string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MustReadFile returns the content of path.
// The test fails immediately if the file cannot be read.
func MustReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// ShaderTree lays out a generator root in a temp directory:
//
//	<Root>/shaders/src/<sources...>
//	<Root>/out/Debug/args.gn
type ShaderTree struct {
	Root     string
	BuildDir string
}

// NewShaderTree creates a tree with the given shader sources. Each source
// holds a small GLSL stub; use WriteSource for specific content.
func NewShaderTree(t testing.TB, sources ...string) *ShaderTree {
	t.Helper()
	root := t.TempDir()
	tree := &ShaderTree{
		Root:     root,
		BuildDir: filepath.Join(root, "out", "Debug"),
	}
	MustWriteFile(t, filepath.Join(tree.BuildDir, "args.gn"), "is_debug = true\n")
	MustMkdirAll(t, tree.SourceDir(), 0o755)
	for _, name := range sources {
		tree.WriteSource(t, name, "#version 450 core\nvoid main() {}\n")
	}
	return tree
}

// SourceDir returns the shader source directory.
func (tree *ShaderTree) SourceDir() string {
	return filepath.Join(tree.Root, "shaders", "src")
}

// WriteSource writes one shader source.
func (tree *ShaderTree) WriteSource(t testing.TB, name, content string) {
	t.Helper()
	MustWriteFile(t, filepath.Join(tree.SourceDir(), name), content)
}

// Path joins elem onto the tree root.
func (tree *ShaderTree) Path(elem ...string) string {
	return filepath.Join(append([]string{tree.Root}, elem...)...)
}
