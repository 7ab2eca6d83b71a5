// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loam

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"os"
	"strings"

	"github.com/loamhq/loam/config"
	"github.com/loamhq/loam/internal/otel"
	"github.com/loamhq/loam/route"

	bedrockcfg "github.com/z5labs/bedrock/config"
)

// ConfigSource standardizes the template for configuration of loam applications.
// The [io.Reader] is expected to be YAML with support for Go templating. Currently,
// only 2 template functions are supported:
//   - env - this allows environment variables to be substituted into the YAML
//   - default - define a default value in case the original value is nil
func ConfigSource(r io.Reader) bedrockcfg.Source {
	return bedrockcfg.FromYaml(
		bedrockcfg.RenderTextTemplate(
			r,
			bedrockcfg.TemplateFunc("env", func(key string) any {
				v, ok := os.LookupEnv(key)
				if ok {
					return v
				}
				return nil
			}),
			bedrockcfg.TemplateFunc("default", func(def, v any) any {
				if v == nil {
					return def
				}
				return v
			}),
		),
	)
}

//go:embed default_config.yaml
var defaultConfig []byte

// DefaultConfig returns the default config source which corresponds to the [Config] type.
func DefaultConfig() bedrockcfg.Source {
	return ConfigSource(bytes.NewReader(defaultConfig))
}

// RoutesConfig configures route discovery and compilation.
type RoutesConfig struct {
	// Mount is prefixed onto every compiled pattern. Must start with "/".
	Mount string `config:"mount"`

	// Dirs are the route root directories, relative to BuildRoot.
	Dirs []string `config:"dirs"`

	// BuildRoot is the directory route file paths are keyed against.
	BuildRoot string `config:"build_root"`

	// Extensions is the accepted route file extension allow list.
	Extensions []string `config:"extensions"`

	// Convention selects the segment grammar: "sigil" or "bracket".
	Convention string `config:"convention"`

	// Exclude holds extra glob rules tested against entry names.
	Exclude []string `config:"exclude"`

	// LogRoutes emits one info record per compiled route at startup.
	LogRoutes bool `config:"log_routes"`

	// ValidateResponses enables post handler response validation for
	// routes declaring parse language response schemas.
	ValidateResponses bool `config:"validate_responses"`
}

// Config defines the common configuration for all loam based applications.
type Config struct {
	OTel   config.OTel  `config:"otel"`
	Routes RoutesConfig `config:"routes"`
}

// InitializeOTel implements the [appbuilder.OTelInitializer] interface.
func (cfg Config) InitializeOTel(ctx context.Context) error {
	return otel.Initialize(ctx, cfg.OTel)
}

// Validate reports the first configuration value the route compiler cannot
// work with. Directory existence is not checked here; the walker owns that.
func (cfg RoutesConfig) Validate() error {
	if !strings.HasPrefix(cfg.Mount, "/") {
		return route.InvalidMountError{Mount: cfg.Mount}
	}
	if _, err := route.ParseConvention(cfg.Convention); err != nil {
		return err
	}
	for _, dir := range cfg.Dirs {
		if strings.HasPrefix(dir, "/") {
			return route.AbsoluteRootError{Path: dir}
		}
	}
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return route.InvalidExtensionError{Ext: ext}
		}
	}
	return nil
}

func (cfg RoutesConfig) exclusions() []route.ExclusionRule {
	rules := make([]route.ExclusionRule, 0, len(cfg.Exclude))
	for _, pattern := range cfg.Exclude {
		rules = append(rules, route.Glob(pattern))
	}
	return rules
}
