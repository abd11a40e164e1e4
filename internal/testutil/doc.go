// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by package tests: Must* file
// helpers that fail the test on error, a FakeClock, a ShaderTree that lays out
// a generator root, and a FakeToolchain runner that stands in for the build
// orchestrator and the shader compiler.
package testutil
