// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the vkshadergen command line.
//
// Running vkshadergen with no subcommand compiles every shader source and
// regenerates the three artifacts. The inputs and outputs subcommands answer
// build-system queries without compiling anything, watch regenerates on
// source changes, and config inspects or creates the project configuration.
package cmd
