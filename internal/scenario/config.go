package scenario

import (
	"fmt"
	"maps"
	"slices"

	"github.com/BurntSushi/toml"

	"tsolver/internal/compat"
	"tsolver/internal/evaluate"
)

// ConfigSpec is the [config] table. Toggles left out keep the value of the
// preset.
type ConfigSpec struct {
	// Preset is "default" (strict), "legacy" or "sound".
	Preset                     string          `toml:"preset"`
	Sound                      bool            `toml:"sound"`
	StrictNullChecks           bool            `toml:"strict_null_checks"`
	NoUncheckedIndexedAccess   bool            `toml:"no_unchecked_indexed_access"`
	ExactOptionalPropertyTypes bool            `toml:"exact_optional_property_types"`
	StrictFunctionTypes        bool            `toml:"strict_function_types"`
	DisableMethodBivariance    bool            `toml:"disable_method_bivariance"`
	Rules                      map[string]bool `toml:"rules"`
	MaxTemplateSize            int             `toml:"max_template_size"`

	set map[string]bool
}

var toggleKeys = []string{
	"strict_null_checks",
	"no_unchecked_indexed_access",
	"exact_optional_property_types",
	"strict_function_types",
	"disable_method_bivariance",
}

func (s *ConfigSpec) record(meta toml.MetaData) {
	s.set = make(map[string]bool, len(toggleKeys))
	for _, key := range toggleKeys {
		if meta.IsDefined("config", key) {
			s.set[key] = true
		}
	}
}

// Resolve builds the engine configuration. sound forces the sound preset
// and ignores the file's toggles.
func (s ConfigSpec) Resolve(sound bool) (compat.Config, evaluate.Options, error) {
	opts := evaluate.Options{MaxTemplateSize: s.MaxTemplateSize}
	if sound {
		cfg := compat.SoundConfig()
		opts.NoUncheckedIndexedAccess = cfg.NoUncheckedIndexedAccess
		return cfg, opts, nil
	}

	var cfg compat.Config
	preset := s.Preset
	if s.Sound {
		preset = "sound"
	}
	switch preset {
	case "", "default", "strict":
		cfg = compat.DefaultConfig()
	case "legacy":
		cfg = compat.LegacyConfig()
	case "sound":
		cfg = compat.SoundConfig()
	default:
		return compat.Config{}, opts, fmt.Errorf("unknown config preset %q (expected: default|legacy|sound)", s.Preset)
	}

	overlay := func(key string, dst *bool, v bool) {
		if s.set[key] {
			*dst = v
		}
	}
	overlay("strict_null_checks", &cfg.StrictNullChecks, s.StrictNullChecks)
	overlay("no_unchecked_indexed_access", &cfg.NoUncheckedIndexedAccess, s.NoUncheckedIndexedAccess)
	overlay("exact_optional_property_types", &cfg.ExactOptionalPropertyTypes, s.ExactOptionalPropertyTypes)
	overlay("strict_function_types", &cfg.StrictFunctionTypes, s.StrictFunctionTypes)
	overlay("disable_method_bivariance", &cfg.DisableMethodBivariance, s.DisableMethodBivariance)

	for _, name := range slices.Sorted(maps.Keys(s.Rules)) {
		rule, err := compat.ParseRule(name)
		if err != nil {
			return compat.Config{}, opts, fmt.Errorf("[config.rules]: %w", err)
		}
		cfg.Rules = cfg.Rules.With(rule, s.Rules[name])
	}
	opts.NoUncheckedIndexedAccess = cfg.NoUncheckedIndexedAccess
	return cfg, opts, nil
}
