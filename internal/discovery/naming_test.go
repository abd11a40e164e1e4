// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"path/filepath"
	"testing"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"a.vert", "a_vert"},
		{"BlitResolve.frag", "BlitResolve_frag"},
		{"Image_Copy.frag", "Image__Copy_frag"},
		{"image-copy.frag", "image_x2d_copy_frag"},
		{"a b", "a_x20_b"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Names differing only by a separator keep distinct identifiers.
func TestNaming_SeparatorBijection(t *testing.T) {
	t.Parallel()

	n := Naming{GeneratedDir: "gen", OutputSuffix: ".inc", VariablePrefix: "k"}
	groups := [][]string{
		{"a.b.vert", "a_b.vert", "a-b.vert", "a b.vert", "ab.vert"},
		{"x.frag", "x_frag", "x-frag"},
	}

	for _, group := range groups {
		ids := make(map[string]string)
		vars := make(map[string]string)
		for _, name := range group {
			s := n.Shader(filepath.Join("src", name))
			if prev, ok := ids[s.ID]; ok {
				t.Errorf("ID %q shared by %q and %q", s.ID, prev, name)
			}
			ids[s.ID] = name
			if prev, ok := vars[s.Variable]; ok {
				t.Errorf("variable %q shared by %q and %q", s.Variable, prev, name)
			}
			vars[s.Variable] = name
		}
	}
}

func TestNaming_Derivations(t *testing.T) {
	t.Parallel()

	n := Naming{GeneratedDir: filepath.Join("shaders", "gen"), OutputSuffix: ".inc", VariablePrefix: "k"}
	input := filepath.Join("shaders", "src", "ConvertVertex.comp")

	if got, want := n.OutputPath(input), filepath.Join("shaders", "gen", "ConvertVertex.comp.inc"); got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
	if got := n.VariableName(input); got != "kConvertVertex_comp" {
		t.Errorf("VariableName() = %q, want kConvertVertex_comp", got)
	}
	if got := n.ID(input); got != "ConvertVertex_comp" {
		t.Errorf("ID() = %q, want ConvertVertex_comp", got)
	}
}

func TestNaming_LeadingDigitID(t *testing.T) {
	t.Parallel()

	n := Naming{VariablePrefix: "k"}
	if got := n.ID("2d.frag"); got != "_2d_frag" {
		t.Errorf("ID() = %q, want _2d_frag", got)
	}
	if got := n.VariableName("2d.frag"); got != "k2d_frag" {
		t.Errorf("VariableName() = %q, want k2d_frag", got)
	}
}

// The variable name equals the sanitized output base name with the sanitized
// suffix stripped, prefixed.
func TestNaming_VariableMatchesOutput(t *testing.T) {
	t.Parallel()

	n := Naming{GeneratedDir: "gen", OutputSuffix: ".inc", VariablePrefix: "k"}
	for _, name := range []string{"a.vert", "Image_Copy.frag", "x-y.comp"} {
		s := n.Shader(filepath.Join("src", name))
		outBase := Sanitize(filepath.Base(s.Output))
		suffix := Sanitize(n.OutputSuffix)
		want := "k" + outBase[:len(outBase)-len(suffix)]
		if s.Variable != want {
			t.Errorf("Variable for %q = %q, want %q", name, s.Variable, want)
		}
	}
}
