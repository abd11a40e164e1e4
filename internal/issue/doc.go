// SPDX-License-Identifier: MPL-2.0

// Package issue provides the user-facing error type of vkshadergen.
//
// Failures fall into three kinds: a missing directory the generator depends
// on (ConfigurationNotFound), an external tool exiting nonzero
// (ExternalToolFailure), and a compiler binary that is absent after the build
// step (ToolMissing). None of them is recovered; each aborts the run.
package issue
