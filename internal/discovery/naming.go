// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"path/filepath"
	"strings"
)

type (
	// Naming holds the fixed parts of every derived name. All of its methods
	// are pure functions of the input path.
	Naming struct {
		// GeneratedDir receives the compiled blobs, relative to the working directory.
		GeneratedDir string
		// OutputSuffix is appended to the source base name (".inc").
		OutputSuffix string
		// VariablePrefix starts every variable name ("k").
		VariablePrefix string
	}

	// Shader is one discovered source with its derived names.
	Shader struct {
		// Input is the source path relative to the working directory.
		Input string
		// Output is the compiled blob path relative to the working directory.
		Output string
		// Variable is the C array name the compiler emits into Output.
		Variable string
		// ID is the enumerator name in the declaration artifact.
		ID string
	}
)

// Shader derives every name for input.
func (n Naming) Shader(input string) Shader {
	return Shader{
		Input:    input,
		Output:   n.OutputPath(input),
		Variable: n.VariableName(input),
		ID:       n.ID(input),
	}
}

// OutputPath maps shaders/src/a.vert to <GeneratedDir>/a.vert<OutputSuffix>.
func (n Naming) OutputPath(input string) string {
	return filepath.Join(n.GeneratedDir, filepath.Base(input)+n.OutputSuffix)
}

// VariableName is VariablePrefix followed by the sanitized base name.
func (n Naming) VariableName(input string) string {
	return n.VariablePrefix + Sanitize(filepath.Base(input))
}

// ID is the sanitized base name: a.vert becomes a_vert. A leading digit gets
// an underscore in front so the result is a valid enumerator.
func (n Naming) ID(input string) string {
	id := Sanitize(filepath.Base(input))
	if id != "" && id[0] >= '0' && id[0] <= '9' {
		return "_" + id
	}
	return id
}

// Sanitize turns a file name into a C identifier fragment. ASCII letters and
// digits are kept, '.' becomes '_', '_' is doubled, and every other byte is
// written as _xHH_. Names that differ only in which separator they use stay
// distinct; the rare remaining collisions, such as "a_.b" and "a._b", are
// rejected by Discover.
func Sanitize(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for i := range len(name) {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			sb.WriteByte(c)
		case c == '.':
			sb.WriteByte('_')
		case c == '_':
			sb.WriteString("__")
		default:
			fmt.Fprintf(&sb, "_x%02x_", c)
		}
	}
	return sb.String()
}
