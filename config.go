package switchyard

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"
)

// Config is the application configuration as seen by the router.
//
// Keys read by the router:
//
//	router.errors       controller dispatched for unmatched requests ("Error")
//	router.autoload     middleware tokens run before every route's own
//	router.controllers  controller namespace ("controllers")
//	router.patterns     extra placeholder patterns
type Config interface {
	// Get returns the value at the dotted key, or def if it is not set.
	Get(key string, def any) any
}

// MapConfig is a Config backed by nested maps.  Keys are dotted paths into
// the nesting, e.g. "router.errors" is m["router"]["errors"].
type MapConfig map[string]any

func (m MapConfig) Get(key string, def any) any {
	var cur any = map[string]any(m)
	for _, part := range strings.Split(key, ".") {
		node, err := cast.ToStringMapE(cur)
		if err != nil {
			return def
		}
		v, ok := node[part]
		if !ok {
			return def
		}
		cur = v
	}
	if cur == nil {
		return def
	}
	return cur
}

// LoadConfig parses a YAML document into a MapConfig.
func LoadConfig(data []byte) (MapConfig, error) {
	m := MapConfig{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return m, nil
}

// LoadConfigFile reads and parses a YAML config file.
func LoadConfigFile(path string) (MapConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Settings are the router settings that can be registered in one go, either
// directly through Router.Register or from the "router" config section
// through Router.Configure.
type Settings struct {
	Patterns    map[string]string `mapstructure:"patterns"`
	Autoload    []string          `mapstructure:"autoload"`
	Controllers string            `mapstructure:"controllers"`
	Errors      string            `mapstructure:"errors"`
}

// decodeSettings decodes the "router" section of cfg.
func decodeSettings(cfg Config) (Settings, error) {
	var s Settings
	raw := cfg.Get("router", nil)
	if raw == nil {
		return s, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return s, err
	}
	if err := dec.Decode(raw); err != nil {
		return s, fmt.Errorf("decoding router settings: %w", err)
	}
	return s, nil
}
