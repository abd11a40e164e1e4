// SPDX-License-Identifier: MPL-2.0

// Package config handles vkshadergen configuration using Viper with CUE as the file format.
//
// Every setting has a default that reproduces the layout of the Vulkan back-end
// directory (shaders/src, shaders/gen, out/<config>/args.gn, ninja, glslang_validator).
// A project file named vkshadergen.cue in the working directory, or the file given with
// --config, overrides the defaults after being validated against the embedded #Config
// schema (config_schema.cue). VKSHADERGEN_* environment variables take precedence over
// both; nested keys use underscores (VKSHADERGEN_BUILD_TARGET).
package config
