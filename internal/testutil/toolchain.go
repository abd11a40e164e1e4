// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/vkshadergen/vkshadergen/internal/toolchain"
	"github.com/vkshadergen/vkshadergen/pkg/platform"
	"github.com/vkshadergen/vkshadergen/pkg/types"
)

// FailMarker in a shader source makes FakeToolchain fail its compile.
const FailMarker = "FAIL"

// FakeToolchain is a toolchain.Runner standing in for the orchestrator and
// the compiler. An orchestrator call ("-C <dir> <target>") creates the
// compiler binary in <dir>; a compiler call writes a small array definition
// to the -o path unless the input contains FailMarker.
type FakeToolchain struct {
	// CompilerBinary is created by the orchestrator step; empty skips it.
	CompilerBinary string
	// CompilerContent is written to the compiler binary; nil writes a stub
	// shell script that exits 0.
	CompilerContent []byte
	// OrchestratorExit, when nonzero, fails the orchestrator step.
	OrchestratorExit int

	mu    sync.Mutex
	calls []toolchain.Command
}

// NewFakeToolchain returns a FakeToolchain that builds glslang_validator.
func NewFakeToolchain() *FakeToolchain {
	return &FakeToolchain{CompilerBinary: "glslang_validator"}
}

// Calls returns a copy of every recorded command.
func (f *FakeToolchain) Calls() []toolchain.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CompileCalls returns the recorded compiler invocations.
func (f *FakeToolchain) CompileCalls() []toolchain.Command {
	var out []toolchain.Command
	for _, c := range f.Calls() {
		if !slices.Contains(c.Args, "-C") {
			out = append(out, c)
		}
	}
	return out
}

// Run implements toolchain.Runner.
func (f *FakeToolchain) Run(_ context.Context, c toolchain.Command) toolchain.Result {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	if i := slices.Index(c.Args, "-C"); i >= 0 && i+1 < len(c.Args) {
		return f.orchestrate(c.Args[i+1])
	}
	return f.compile(c)
}

func (f *FakeToolchain) orchestrate(buildDir string) toolchain.Result {
	if f.OrchestratorExit != 0 {
		return toolchain.Result{ExitCode: types.ExitCode(f.OrchestratorExit)}
	}
	if f.CompilerBinary == "" {
		return toolchain.Result{}
	}
	content := f.CompilerContent
	if content == nil {
		content = []byte("#!/bin/sh\nexit 0\n")
	}
	bin := filepath.Join(buildDir, platform.ExecutableName(f.CompilerBinary))
	if err := os.WriteFile(bin, content, 0o755); err != nil {
		return toolchain.Result{ExitCode: 1, Error: err}
	}
	return toolchain.Result{}
}

func (f *FakeToolchain) compile(c toolchain.Command) toolchain.Result {
	var variable, output string
	for i := 0; i+1 < len(c.Args); i++ {
		switch c.Args[i] {
		case "--variable-name":
			variable = c.Args[i+1]
		case "-o":
			output = c.Args[i+1]
		}
	}
	if len(c.Args) == 0 || variable == "" || output == "" {
		return toolchain.Result{ExitCode: 2}
	}
	input := c.Args[len(c.Args)-1]

	src, err := os.ReadFile(filepath.Join(c.Dir, input))
	if err != nil {
		return toolchain.Result{ExitCode: 1}
	}
	if strings.Contains(string(src), FailMarker) {
		if c.Stderr != nil {
			fmt.Fprintf(c.Stderr, "ERROR: %s:1: fake compile failure\n", input)
		}
		return toolchain.Result{ExitCode: 2}
	}

	blob := fmt.Sprintf("const uint32_t %s[] = {\n\t0x07230203, 0x%08x,\n};\n", variable, len(src))
	if err := os.WriteFile(filepath.Join(c.Dir, output), []byte(blob), 0o644); err != nil {
		return toolchain.Result{ExitCode: 1, Error: err}
	}
	return toolchain.Result{}
}
