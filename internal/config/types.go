// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// LogLevelDebug logs every compiler invocation.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs the build directory in use and each written artifact.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs only errors.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidSetting is the sentinel wrapped by InvalidSettingError.
	ErrInvalidSetting = errors.New("invalid setting")
	// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel selects the verbosity of the pipeline logger.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidSettingError reports a single setting that failed validation.
	InvalidSettingError struct {
		Key    string
		Value  string
		Reason string
	}

	// InvalidConfigError collects every field-level validation error of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the vkshadergen configuration.
	Config struct {
		// ShadersDir is the directory holding shader sources, relative to the working directory.
		ShadersDir string `json:"shaders_dir" mapstructure:"shaders_dir" toml:"shaders_dir"`
		// GeneratedDir receives one compiled blob per shader.
		GeneratedDir string `json:"generated_dir" mapstructure:"generated_dir" toml:"generated_dir"`
		// OutputSuffix is appended to the shader base name to form the blob file name.
		OutputSuffix string `json:"output_suffix" mapstructure:"output_suffix" toml:"output_suffix"`
		// VariablePrefix prefixes every generated C variable name.
		VariablePrefix string `json:"variable_prefix" mapstructure:"variable_prefix" toml:"variable_prefix"`
		// Exclude lists doublestar patterns of shader file names to skip.
		Exclude []string `json:"exclude" mapstructure:"exclude" toml:"exclude"`
		// LogLevel sets the logger verbosity.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level" toml:"log_level"`
		// Artifacts configures the three generated files.
		Artifacts ArtifactsConfig `json:"artifacts" mapstructure:"artifacts" toml:"artifacts"`
		// Build configures build directory discovery and the orchestrator step.
		Build BuildConfig `json:"build" mapstructure:"build" toml:"build"`
		// Compiler configures the external shader compiler.
		Compiler CompilerConfig `json:"compiler" mapstructure:"compiler" toml:"compiler"`
		// Watch configures watch mode.
		Watch WatchConfig `json:"watch" mapstructure:"watch" toml:"watch"`
	}

	// ArtifactsConfig names the generated files and the values spliced into them.
	ArtifactsConfig struct {
		// Implementation is the file holding the blob includes and table.
		Implementation string `json:"implementation" mapstructure:"implementation" toml:"implementation"`
		// Declaration is the header declaring the shader ID enum and accessor.
		Declaration string `json:"declaration" mapstructure:"declaration" toml:"declaration"`
		// BuildFragment is the GN fragment listing the blob files.
		BuildFragment string `json:"build_fragment" mapstructure:"build_fragment" toml:"build_fragment"`
		// IncludePrefix is prepended to blob paths in #include directives.
		IncludePrefix string `json:"include_prefix" mapstructure:"include_prefix" toml:"include_prefix"`
		// GNVariable is the list variable assigned in the build fragment.
		GNVariable string `json:"gn_variable" mapstructure:"gn_variable" toml:"gn_variable"`
		// CopyrightHolder appears in the provenance header.
		CopyrightHolder string `json:"copyright_holder" mapstructure:"copyright_holder" toml:"copyright_holder"`
	}

	// BuildConfig configures the build orchestrator.
	BuildConfig struct {
		// OutDir is the directory name searched for build configurations.
		OutDir string `json:"out_dir" mapstructure:"out_dir" toml:"out_dir"`
		// MarkerFile identifies a valid build configuration directory.
		MarkerFile string `json:"marker_file" mapstructure:"marker_file" toml:"marker_file"`
		// MaxDepth bounds how many parent directories are searched.
		MaxDepth int `json:"max_depth" mapstructure:"max_depth" toml:"max_depth"`
		// Command is the orchestrator command line; "-C <dir> <target>" is appended.
		Command string `json:"command" mapstructure:"command" toml:"command"`
		// Target is the orchestrator target that produces the compiler.
		Target string `json:"target" mapstructure:"target" toml:"target"`
	}

	// CompilerConfig configures the shader compiler.
	CompilerConfig struct {
		// Binary is the compiler file name inside the build directory, without .exe.
		Binary string `json:"binary" mapstructure:"binary" toml:"binary"`
		// TargetFlag selects the compiler's output profile.
		TargetFlag string `json:"target_flag" mapstructure:"target_flag" toml:"target_flag"`
	}

	// WatchConfig configures watch mode.
	WatchConfig struct {
		// Debounce is the quiet period before regenerating, as a Go duration.
		Debounce string `json:"debounce" mapstructure:"debounce" toml:"debounce"`
		// ClearScreen clears the terminal before each regeneration.
		ClearScreen bool `json:"clear_screen" mapstructure:"clear_screen" toml:"clear_screen"`
	}
)

// DefaultConfig returns the configuration matching the Vulkan back-end layout.
func DefaultConfig() *Config {
	return &Config{
		ShadersDir:     "shaders/src",
		GeneratedDir:   "shaders/gen",
		OutputSuffix:   ".inc",
		VariablePrefix: "k",
		Exclude:        []string{".*"},
		LogLevel:       LogLevelInfo,
		Artifacts: ArtifactsConfig{
			Implementation:  "vk_internal_shaders_autogen.cpp",
			Declaration:     "vk_internal_shaders_autogen.h",
			BuildFragment:   "vk_internal_shaders_autogen.gni",
			IncludePrefix:   "libANGLE/renderer/vulkan",
			GNVariable:      "angle_vulkan_internal_shaders",
			CopyrightHolder: "The ANGLE Project Authors",
		},
		Build: BuildConfig{
			OutDir:     "out",
			MarkerFile: "args.gn",
			MaxDepth:   64,
			Command:    "ninja",
			Target:     "glslang_validator",
		},
		Compiler: CompilerConfig{
			Binary:     "glslang_validator",
			TargetFlag: "-V",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// DebounceDuration parses Watch.Debounce. An empty value yields zero.
func (c WatchConfig) DebounceDuration() (time.Duration, error) {
	if c.Debounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return 0, fmt.Errorf("invalid watch debounce %q: %w", c.Debounce, err)
	}
	return d, nil
}

// IsValid returns whether the LogLevel is one of the supported levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface for InvalidSettingError.
func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Key, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidSetting for errors.Is() compatibility.
func (e *InvalidSettingError) Unwrap() error { return ErrInvalidSetting }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid checks the constraints the generator relies on. Environment
// variables bypass the CUE schema, so every schema rule that matters at
// runtime is repeated here.
func (c Config) IsValid() (bool, []error) {
	var errs []error

	required := []struct{ key, value string }{
		{"shaders_dir", c.ShadersDir},
		{"generated_dir", c.GeneratedDir},
		{"artifacts.implementation", c.Artifacts.Implementation},
		{"artifacts.declaration", c.Artifacts.Declaration},
		{"artifacts.build_fragment", c.Artifacts.BuildFragment},
		{"build.out_dir", c.Build.OutDir},
		{"build.marker_file", c.Build.MarkerFile},
		{"build.command", c.Build.Command},
		{"build.target", c.Build.Target},
		{"compiler.binary", c.Compiler.Binary},
		{"compiler.target_flag", c.Compiler.TargetFlag},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, &InvalidSettingError{Key: r.key, Value: r.value, Reason: "must be non-empty"})
		}
	}

	if !strings.HasPrefix(c.OutputSuffix, ".") || len(c.OutputSuffix) < 2 {
		errs = append(errs, &InvalidSettingError{Key: "output_suffix", Value: c.OutputSuffix, Reason: "must start with '.'"})
	}
	if !isIdentifier(c.VariablePrefix) {
		errs = append(errs, &InvalidSettingError{Key: "variable_prefix", Value: c.VariablePrefix, Reason: "must be a C identifier"})
	}
	if !isIdentifier(c.Artifacts.GNVariable) {
		errs = append(errs, &InvalidSettingError{Key: "artifacts.gn_variable", Value: c.Artifacts.GNVariable, Reason: "must be an identifier"})
	}
	if c.Build.MaxDepth <= 0 {
		errs = append(errs, &InvalidSettingError{Key: "build.max_depth", Value: fmt.Sprint(c.Build.MaxDepth), Reason: "must be positive"})
	}
	for _, pat := range c.Exclude {
		if !doublestar.ValidatePattern(pat) {
			errs = append(errs, &InvalidSettingError{Key: "exclude", Value: pat, Reason: "invalid glob pattern"})
		}
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		errs = append(errs, &InvalidSettingError{Key: "watch.debounce", Value: c.Watch.Debounce, Reason: "must be a Go duration"})
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
