// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vkshadergen/vkshadergen/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "vkshadergen"
	// ConfigFileName is the project config file looked up in the working directory.
	ConfigFileName = AppName + ".cue"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "VKSHADERGEN"

	// maxConfigFileSize guards against accidentally pointing --config at a large file.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// FilePath returns the config file Load would read for opts, or "" when
// defaults apply.
func FilePath(opts LoadOptions) string {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath
	}
	local := filepath.Join(opts.WorkDir, ConfigFileName)
	if fileExists(local) {
		return local
	}
	return ""
}

// loadWithOptions layers defaults, the optional CUE file and environment
// variables, then validates the result.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFilePath != "" && !fileExists(opts.ConfigFilePath) {
		return nil, issue.NewErrorContext(issue.KindConfigurationNotFound).
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the --config path is correct").
			WithSuggestion("Run 'vkshadergen config init' to create " + ConfigFileName).
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}

	if path := FilePath(opts); path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext(issue.KindUnknown).
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare with 'vkshadergen config dump' for the expected fields").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext(issue.KindUnknown).
			WithOperation("validate configuration").
			WithSuggestion("Check " + EnvPrefix + "_* environment variables and " + ConfigFileName).
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("shaders_dir", d.ShadersDir)
	v.SetDefault("generated_dir", d.GeneratedDir)
	v.SetDefault("output_suffix", d.OutputSuffix)
	v.SetDefault("variable_prefix", d.VariablePrefix)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("log_level", string(d.LogLevel))
	v.SetDefault("artifacts.implementation", d.Artifacts.Implementation)
	v.SetDefault("artifacts.declaration", d.Artifacts.Declaration)
	v.SetDefault("artifacts.build_fragment", d.Artifacts.BuildFragment)
	v.SetDefault("artifacts.include_prefix", d.Artifacts.IncludePrefix)
	v.SetDefault("artifacts.gn_variable", d.Artifacts.GNVariable)
	v.SetDefault("artifacts.copyright_holder", d.Artifacts.CopyrightHolder)
	v.SetDefault("build.out_dir", d.Build.OutDir)
	v.SetDefault("build.marker_file", d.Build.MarkerFile)
	v.SetDefault("build.max_depth", d.Build.MaxDepth)
	v.SetDefault("build.command", d.Build.Command)
	v.SetDefault("build.target", d.Build.Target)
	v.SetDefault("compiler.binary", d.Compiler.Binary)
	v.SetDefault("compiler.target_flag", d.Compiler.TargetFlag)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.clear_screen", d.Watch.ClearScreen)
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper. Fields are optional, so validation does
// not require concrete values for every schema field.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a vkshadergen.cue with the default settings into
// dir. It returns the path and false when the file already exists.
func CreateDefaultConfig(dir string) (string, bool, error) {
	cfgPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, true, nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// vkshadergen project configuration.\n")
	sb.WriteString("// Paths are relative to the directory vkshadergen runs in.\n\n")

	fmt.Fprintf(&sb, "shaders_dir:     %q\n", cfg.ShadersDir)
	fmt.Fprintf(&sb, "generated_dir:   %q\n", cfg.GeneratedDir)
	fmt.Fprintf(&sb, "output_suffix:   %q\n", cfg.OutputSuffix)
	fmt.Fprintf(&sb, "variable_prefix: %q\n", cfg.VariablePrefix)
	fmt.Fprintf(&sb, "log_level:       %q\n", cfg.LogLevel)

	sb.WriteString("exclude: [")
	for i, pat := range cfg.Exclude {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", pat)
	}
	sb.WriteString("]\n")

	sb.WriteString("\nartifacts: {\n")
	fmt.Fprintf(&sb, "\timplementation:   %q\n", cfg.Artifacts.Implementation)
	fmt.Fprintf(&sb, "\tdeclaration:      %q\n", cfg.Artifacts.Declaration)
	fmt.Fprintf(&sb, "\tbuild_fragment:   %q\n", cfg.Artifacts.BuildFragment)
	fmt.Fprintf(&sb, "\tinclude_prefix:   %q\n", cfg.Artifacts.IncludePrefix)
	fmt.Fprintf(&sb, "\tgn_variable:      %q\n", cfg.Artifacts.GNVariable)
	fmt.Fprintf(&sb, "\tcopyright_holder: %q\n", cfg.Artifacts.CopyrightHolder)
	sb.WriteString("}\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tout_dir:     %q\n", cfg.Build.OutDir)
	fmt.Fprintf(&sb, "\tmarker_file: %q\n", cfg.Build.MarkerFile)
	fmt.Fprintf(&sb, "\tmax_depth:   %d\n", cfg.Build.MaxDepth)
	fmt.Fprintf(&sb, "\tcommand:     %q\n", cfg.Build.Command)
	fmt.Fprintf(&sb, "\ttarget:      %q\n", cfg.Build.Target)
	sb.WriteString("}\n")

	sb.WriteString("\ncompiler: {\n")
	fmt.Fprintf(&sb, "\tbinary:      %q\n", cfg.Compiler.Binary)
	fmt.Fprintf(&sb, "\ttarget_flag: %q\n", cfg.Compiler.TargetFlag)
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce:     %q\n", cfg.Watch.Debounce)
	fmt.Fprintf(&sb, "\tclear_screen: %v\n", cfg.Watch.ClearScreen)
	sb.WriteString("}\n")

	return sb.String()
}

// GenerateTOML renders the configuration as TOML, for tooling that does not
// read CUE.
func GenerateTOML(cfg *Config) (string, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config as TOML: %w", err)
	}
	return string(out), nil
}
