// SPDX-License-Identifier: MPL-2.0

package fspath_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vkshadergen/vkshadergen/pkg/fspath"
	"github.com/vkshadergen/vkshadergen/pkg/types"
)

func TestJoinStr(t *testing.T) {
	t.Parallel()

	got := fspath.JoinStr(types.FilesystemPath("out"), "Debug", "args.gn")
	want := types.FilesystemPath(filepath.Join("out", "Debug", "args.gn"))
	if got != want {
		t.Errorf("JoinStr() = %q, want %q", got, want)
	}
}

func TestDir(t *testing.T) {
	t.Parallel()

	got := fspath.Dir(types.FilesystemPath(filepath.Join("shaders", "src", "a.vert")))
	want := types.FilesystemPath(filepath.Join("shaders", "src"))
	if got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}

func TestAbs(t *testing.T) {
	t.Parallel()

	got, err := fspath.Abs(types.FilesystemPath("shaders"))
	if err != nil {
		t.Fatalf("Abs() error: %v", err)
	}
	if !filepath.IsAbs(string(got)) {
		t.Errorf("Abs() = %q, want an absolute path", got)
	}

	if _, err := fspath.Abs(""); !errors.Is(err, types.ErrInvalidFilesystemPath) {
		t.Errorf("Abs(\"\") error = %v, want ErrInvalidFilesystemPath", err)
	}
}

func TestIsDirIsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "marker")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		wantDir  bool
		wantFile bool
	}{
		{"directory", dir, true, false},
		{"regular file", file, false, true},
		{"missing", filepath.Join(dir, "missing"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := types.FilesystemPath(tt.path)
			if got := fspath.IsDir(p); got != tt.wantDir {
				t.Errorf("IsDir(%q) = %v, want %v", tt.path, got, tt.wantDir)
			}
			if got := fspath.IsFile(p); got != tt.wantFile {
				t.Errorf("IsFile(%q) = %v, want %v", tt.path, got, tt.wantFile)
			}
		})
	}
}
