package omnifs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/ini.v1"
)

// Environment variables controlling the custom scheme configuration file
// location.
const (
	// EnvConfigPath points directly at the configuration file.
	EnvConfigPath = "OMNIFS_CONFIG_PATH"

	// EnvConfigHome is the base configuration directory consulted when
	// EnvConfigPath is unset; the file is <dir>/omnifs.ini. Falls back to
	// $HOME/.config.
	EnvConfigHome = "XDG_CONFIG_HOME"
)

// SchemeConfig maps custom scheme names to a real backend scheme plus
// default backend options.
//
// The file is INI-style, one section per custom scheme. Each section must
// contain a "scheme" key naming a registered backend scheme; all other keys
// are default backend options merged into FromURL calls without overwriting
// caller-supplied values:
//
//	[traindata]
//	scheme = s3
//	bucket = ml-datasets
//	endpoint = https://minio.internal:9000
type SchemeConfig struct {
	sections map[string]map[string]string
}

// LoadSchemeConfig reads a custom scheme configuration file. A missing file
// yields an empty configuration, matching "no custom schemes declared".
func LoadSchemeConfig(path string) (*SchemeConfig, error) {
	cfg := &SchemeConfig{sections: make(map[string]map[string]string)}

	f, err := ini.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load scheme config %s: %w", path, err)
	}

	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		cfg.sections[sec.Name()] = sec.KeysHash()
	}
	return cfg, nil
}

// Lookup resolves a custom scheme name. It returns the real backend scheme,
// the section's default backend options (without the "scheme" key), and
// whether the scheme was declared.
func (c *SchemeConfig) Lookup(scheme string) (string, map[string]string, bool) {
	if c == nil {
		return "", nil, false
	}
	sec, ok := c.sections[scheme]
	if !ok {
		return "", nil, false
	}
	real := sec["scheme"]
	defaults := make(map[string]string, len(sec))
	for k, v := range sec {
		if k == "scheme" {
			continue
		}
		defaults[k] = v
	}
	return real, defaults, true
}

// DefaultConfigPath returns the configuration file location resolved from
// the environment.
func DefaultConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	basedir := os.Getenv(EnvConfigHome)
	if basedir == "" {
		basedir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(basedir, "omnifs.ini")
}

var (
	defaultConfigOnce sync.Once
	defaultConfig     *SchemeConfig
)

// DefaultSchemeConfig loads the configuration from DefaultConfigPath once
// per process and caches it for the process lifetime. It is not re-read per
// lookup and not invalidated on fork; construct a SchemeConfig explicitly
// with LoadSchemeConfig to control reloading.
func DefaultSchemeConfig() *SchemeConfig {
	defaultConfigOnce.Do(func() {
		cfg, err := LoadSchemeConfig(DefaultConfigPath())
		if err != nil {
			// A malformed file must not take down every FromURL call;
			// treat it as absent and let unknown schemes fail.
			cfg = &SchemeConfig{sections: make(map[string]map[string]string)}
		}
		defaultConfig = cfg
	})
	return defaultConfig
}
