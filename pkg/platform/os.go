// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// It covers the two places where vkshadergen's behavior depends on the host:
// the executable suffix of tools built by the orchestrator, and Windows
// reserved file names that cannot be checked out as shader sources.
package platform

import (
	"runtime"
	"strings"
)

// Windows is the runtime.GOOS value of Windows hosts.
const Windows = "windows"

// ExecutableSuffix is appended to tool names on Windows.
const ExecutableSuffix = ".exe"

// ExecutableName returns name with the executable suffix of the host OS.
func ExecutableName(name string) string {
	return ExecutableNameFor(runtime.GOOS, name)
}

// ExecutableNameFor returns name with the executable suffix used on goos.
func ExecutableNameFor(goos, name string) string {
	if goos == Windows && !strings.HasSuffix(strings.ToLower(name), ExecutableSuffix) {
		return name + ExecutableSuffix
	}
	return name
}
