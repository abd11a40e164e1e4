// SPDX-License-Identifier: MPL-2.0

// Package assemble renders the generated source artifacts from the ordered
// shader list. The templates hold placeholders only; every list is joined
// here so the output layout is fixed by Go code.
package assemble

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/vkshadergen/vkshadergen/internal/discovery"
)

const (
	// KindImplementation is the blob table and accessor.
	KindImplementation Kind = iota
	// KindDeclaration is the shader ID enum and accessor declaration.
	KindDeclaration
	// KindBuildFragment is the build-system list of blob files.
	KindBuildFragment
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl"))

type (
	// Kind identifies one of the generated artifacts.
	Kind int

	// Artifact is one rendered file. Path is relative to the working directory.
	Artifact struct {
		Kind    Kind
		Path    string
		Content []byte
	}

	// Provenance is embedded in every artifact header.
	Provenance struct {
		// Generator identifies the tool, e.g. "vkshadergen".
		Generator string
		// InputGlob names the source of truth, e.g. "shaders/src/*".
		InputGlob string
		Year      int
	}

	// Settings names the artifacts and the values spliced into them.
	Settings struct {
		Implementation  string
		Declaration     string
		BuildFragment   string
		IncludePrefix   string
		GNVariable      string
		CopyrightHolder string
	}

	// Assembler renders and writes artifacts.
	Assembler struct {
		settings Settings
	}

	header struct {
		Generator       string
		InputGlob       string
		Year            int
		CopyrightHolder string
		FileName        string
	}

	implementationData struct {
		header
		DeclarationInclude string
		Includes           string
		Entries            string
	}

	declarationData struct {
		header
		HeaderGuard string
		IDs         string
	}

	buildFragmentData struct {
		header
		GNVariable string
		ShaderList string
	}
)

// String returns the artifact kind name.
func (k Kind) String() string {
	switch k {
	case KindImplementation:
		return "implementation"
	case KindDeclaration:
		return "declaration"
	case KindBuildFragment:
		return "build fragment"
	default:
		return "unknown"
	}
}

// New creates an Assembler.
func New(settings Settings) *Assembler {
	return &Assembler{settings: settings}
}

// FileNames returns the names of the implementation and declaration
// artifacts, in that order. The outputs query lists them after the blobs.
func (a *Assembler) FileNames() []string {
	return []string{a.settings.Implementation, a.settings.Declaration}
}

// Render produces the three artifacts. shaders must already be sorted by
// input path; the enum, includes and table follow that order, while the build
// fragment lists the blob paths sorted on their own.
func (a *Assembler) Render(shaders []discovery.Shader, prov Provenance) ([]Artifact, error) {
	impl, err := a.render("implementation.cpp.tmpl", implementationData{
		header:             a.header(prov, a.settings.Implementation),
		DeclarationInclude: a.includePath(a.settings.Declaration),
		Includes:           joinEach(shaders, "\n", func(s discovery.Shader) string { return `#include "` + a.includePath(s.Output) + `"` }),
		Entries:            joinEach(shaders, ",\n", func(s discovery.Shader) string { return fmt.Sprintf("{%s, sizeof(%s)}", s.Variable, s.Variable) }),
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(shaders)+1)
	for _, s := range shaders {
		ids = append(ids, s.ID)
	}
	ids = append(ids, "EnumCount")

	decl, err := a.render("declaration.h.tmpl", declarationData{
		header:      a.header(prov, a.settings.Declaration),
		HeaderGuard: HeaderGuard(a.includePath(a.settings.Declaration)),
		IDs:         strings.Join(ids, ",\n"),
	})
	if err != nil {
		return nil, err
	}

	outputs := discovery.SortedOutputs(shaders)
	list := make([]string, len(outputs))
	for i, o := range outputs {
		list[i] = `  "` + filepath.ToSlash(o) + `"`
	}
	gni, err := a.render("build_fragment.gni.tmpl", buildFragmentData{
		header:     a.header(prov, a.settings.BuildFragment),
		GNVariable: a.settings.GNVariable,
		ShaderList: strings.Join(list, ",\n"),
	})
	if err != nil {
		return nil, err
	}

	return []Artifact{
		{Kind: KindImplementation, Path: a.settings.Implementation, Content: impl},
		{Kind: KindDeclaration, Path: a.settings.Declaration, Content: decl},
		{Kind: KindBuildFragment, Path: a.settings.BuildFragment, Content: gni},
	}, nil
}

// Write stores every artifact under root, overwriting existing files.
func Write(root string, artifacts []Artifact) error {
	for _, art := range artifacts {
		dst := filepath.Join(root, art.Path)
		if err := os.WriteFile(dst, art.Content, 0o644); err != nil {
			return fmt.Errorf("write %s artifact: %w", art.Kind, err)
		}
	}
	return nil
}

// HeaderGuard derives an include guard from an include path:
// libANGLE/renderer/vulkan/vk_internal_shaders_autogen.h becomes
// LIBANGLE_RENDERER_VULKAN_VK_INTERNAL_SHADERS_AUTOGEN_H_.
func HeaderGuard(includePath string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(includePath) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	sb.WriteByte('_')
	return sb.String()
}

func (a *Assembler) header(prov Provenance, fileName string) header {
	return header{
		Generator:       prov.Generator,
		InputGlob:       prov.InputGlob,
		Year:            prov.Year,
		CopyrightHolder: a.settings.CopyrightHolder,
		FileName:        fileName,
	}
}

// includePath joins the include prefix with a forward-slash relative path.
func (a *Assembler) includePath(rel string) string {
	rel = filepath.ToSlash(rel)
	if a.settings.IncludePrefix == "" {
		return rel
	}
	return path.Join(a.settings.IncludePrefix, rel)
}

func (a *Assembler) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func joinEach(shaders []discovery.Shader, sep string, fn func(discovery.Shader) string) string {
	parts := make([]string, len(shaders))
	for i, s := range shaders {
		parts[i] = fn(s)
	}
	return strings.Join(parts, sep)
}
