// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/vkshadergen/vkshadergen/internal/issue"
)

func testOptions() Options {
	return Options{
		ShadersDir: filepath.Join("shaders", "src"),
		Exclude:    []string{".*"},
		Naming: Naming{
			GeneratedDir:   filepath.Join("shaders", "gen"),
			OutputSuffix:   ".inc",
			VariablePrefix: "k",
		},
	}
}

func writeSources(t *testing.T, root string, names ...string) {
	t.Helper()
	dir := filepath.Join(root, "shaders", "src")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#version 450\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscover_SortedByInput(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSources(t, root, "b.frag", "a.vert")

	shaders, err := Discover(root, testOptions())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	var ids []string
	for _, s := range shaders {
		ids = append(ids, s.ID)
	}
	if want := []string{"a_vert", "b_frag"}; !slices.Equal(ids, want) {
		t.Errorf("IDs = %v, want %v", ids, want)
	}

	wantInputs := []string{
		filepath.Join("shaders", "src", "a.vert"),
		filepath.Join("shaders", "src", "b.frag"),
	}
	if got := Inputs(shaders); !slices.Equal(got, wantInputs) {
		t.Errorf("Inputs() = %v, want %v", got, wantInputs)
	}
}

func TestDiscover_DerivedNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSources(t, root, "FullScreenQuad.vert")

	shaders, err := Discover(root, testOptions())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(shaders) != 1 {
		t.Fatalf("Discover() returned %d shaders, want 1", len(shaders))
	}
	want := Shader{
		Input:    filepath.Join("shaders", "src", "FullScreenQuad.vert"),
		Output:   filepath.Join("shaders", "gen", "FullScreenQuad.vert.inc"),
		Variable: "kFullScreenQuad_vert",
		ID:       "FullScreenQuad_vert",
	}
	if shaders[0] != want {
		t.Errorf("Discover() = %+v, want %+v", shaders[0], want)
	}
}

func TestDiscover_SkipsDirectoriesAndExcluded(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSources(t, root, "a.comp", ".a.comp.swp", "notes.md")
	if err := os.Mkdir(filepath.Join(root, "shaders", "src", "nested.comp"), 0o755); err != nil {
		t.Fatal(err)
	}

	opts := testOptions()
	opts.Exclude = append(opts.Exclude, "*.md")
	shaders, err := Discover(root, opts)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if got := Inputs(shaders); len(got) != 1 || filepath.Base(got[0]) != "a.comp" {
		t.Errorf("Inputs() = %v, want only a.comp", got)
	}
}

func TestDiscover_EmptyDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSources(t, root)

	shaders, err := Discover(root, testOptions())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(shaders) != 0 {
		t.Errorf("Discover() = %v, want none", shaders)
	}
}

func TestDiscover_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := Discover(t.TempDir(), testOptions())
	if !errors.Is(err, issue.ErrConfigurationNotFound) {
		t.Fatalf("Discover() error = %v, want ErrConfigurationNotFound", err)
	}
}

func TestDiscover_SourceDirIsFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "shaders"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "shaders", "src"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Discover(root, testOptions())
	if !errors.Is(err, issue.ErrConfigurationNotFound) {
		t.Fatalf("Discover() error = %v, want ErrConfigurationNotFound", err)
	}
}

func TestDiscover_Collision(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSources(t, root, "a_.b", "a._b")

	_, err := Discover(root, testOptions())
	if !errors.Is(err, ErrNameCollision) {
		t.Fatalf("Discover() error = %v, want ErrNameCollision", err)
	}
	var collision *NameCollisionError
	if !errors.As(err, &collision) || collision.Field != "identifier" {
		t.Errorf("Discover() error = %#v, want identifier collision", err)
	}
}

func TestDiscover_ReservedName(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("device names cannot be created on Windows")
	}

	root := t.TempDir()
	writeSources(t, root, "aux.comp")

	_, err := Discover(root, testOptions())
	if !errors.Is(err, ErrReservedName) {
		t.Fatalf("Discover() error = %v, want ErrReservedName", err)
	}
}

func TestSortedOutputs(t *testing.T) {
	t.Parallel()

	n := testOptions().Naming
	// "a" sorts before "a-" but "a-.inc" sorts before "a.inc".
	shaders := []Shader{n.Shader(filepath.Join("src", "a")), n.Shader(filepath.Join("src", "a-"))}
	got := SortedOutputs(shaders)
	want := []string{
		filepath.Join("shaders", "gen", "a-.inc"),
		filepath.Join("shaders", "gen", "a.inc"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("SortedOutputs() = %v, want %v", got, want)
	}
}
