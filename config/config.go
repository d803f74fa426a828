// Copyright 2025 The fetch-extension Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"golang.org/x/net/http/httpguts"

	fetch "github.com/dueltech/fetch-extension"
)

// envPrefix is the prefix of the environment variables read by Load and
// LoadBytes. FETCH_TIMEOUT overrides the timeout key, FETCH_RETRY_LIMIT
// overrides retry.limit, and so on.
const envPrefix = "FETCH_"

// A Config is the file and environment representation of per-call
// options for the robust HTTP client.
//
// Configuration is loaded in layers, each layer overriding the one
// below it: built-in defaults, then an optional YAML document, then
// FETCH_-prefixed environment variables. All duration-valued keys
// accept either a duration string ("2s", "100 ms") or a plain integer
// which is interpreted as a count of milliseconds.
type Config struct {
	// Timeout bounds each individual request attempt. Zero, the
	// default, means no per-attempt timeout.
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`

	// Retry configures retry for the call. Retry is opt-in: it stays
	// nil, and calls make exactly one attempt, unless the retry key is
	// present in the loaded configuration. An empty retry block enables
	// retry with the package retry defaults.
	//
	// No built-in defaults are provided for the retry keys, so retry is
	// only enabled when explicitly configured.
	Retry *RetryConfig `koanf:"retry"`
}

// RetryConfig is the configuration file representation of
// fetch.RetryOptions.
type RetryConfig struct {
	// Limit is the maximum number of retries. Zero means the package
	// default; a negative value disables retry.
	Limit int `koanf:"limit"`

	// Delay is the pause between attempts. Zero means the package
	// default; a negative value retries without pause.
	Delay time.Duration `koanf:"delay"`

	// Methods lists the HTTP methods eligible for retry after a 5XX
	// response. An absent list means the package default method set.
	Methods []string `koanf:"methods" validate:"dive,httpmethod"`
}

// Options converts the loaded configuration into per-call options for
// Client.Call. The OnComplete callback cannot be expressed in
// configuration; set it on the returned options if a report callback
// is wanted.
func (c *Config) Options() *fetch.Options {
	opts := &fetch.Options{
		Timeout: c.Timeout,
	}
	if c.Retry != nil {
		opts.Retry = &fetch.RetryOptions{
			Limit:   c.Retry.Limit,
			Delay:   c.Retry.Delay,
			Methods: c.Retry.Methods,
		}
	}

	return opts
}

// Load loads configuration from built-in defaults, the named YAML
// file, and FETCH_-prefixed environment variables, in that order of
// increasing priority. If path is empty, the file layer is skipped and
// only defaults and environment variables apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("fetch/config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("fetch/config: load %s: %w", path, err)
		}
	}

	return finish(k)
}

// LoadBytes loads configuration like Load, but reads the YAML document
// from b instead of a file. Use LoadBytes with embedded configuration.
func LoadBytes(b []byte) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("fetch/config: load defaults: %w", err)
	}

	if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("fetch/config: parse configuration: %w", err)
	}

	return finish(k)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"timeout": 0,

		// Retry defaults are deliberately not provided. Retry is enabled
		// by the presence of the retry key, so defaulting any retry
		// subkey would switch retry on for every load.
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// finish applies the environment layer on top of whatever k already
// holds, then unmarshals and validates the result.
func finish(k *koanf.Koanf) (*Config, error) {
	err := k.Load(envprovider.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch/config: load environment: %w", err)
	}

	var cfg Config
	err = k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				durationHook,
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch/config: unmarshal: %w", err)
	}

	// An empty retry block carries no subkeys for the unmarshal step to
	// allocate from, but its presence still means retry is wanted.
	if cfg.Retry == nil && k.Exists("retry") {
		cfg.Retry = &RetryConfig{}
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("fetch/config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

// durationHook converts any value destined for a time.Duration field
// using ParseDuration, so configuration durations follow the
// millisecond-integer convention instead of mapstructure's default
// nanosecond interpretation.
func durationHook(_, t reflect.Type, data any) (any, error) {
	if t != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}

	return ParseDuration(data)
}

// ParseDuration converts a configuration value to a time.Duration.
//
// Strings are parsed as duration expressions ("2s", "1m30s"), with
// interior spaces ignored so "100 ms" is read as "100ms". A string
// holding a plain integer, and any numeric value, is interpreted as a
// count of milliseconds.
func ParseDuration(v any) (time.Duration, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Duration(n) * time.Millisecond, nil
		}
		d, err := time.ParseDuration(strings.ReplaceAll(s, " ", ""))
		if err != nil {
			return 0, fmt.Errorf("fetch/config: invalid duration %q", x)
		}
		return d, nil
	case int:
		return time.Duration(x) * time.Millisecond, nil
	case int32:
		return time.Duration(x) * time.Millisecond, nil
	case int64:
		return time.Duration(x) * time.Millisecond, nil
	case uint:
		return time.Duration(x) * time.Millisecond, nil
	case uint32:
		return time.Duration(x) * time.Millisecond, nil
	case uint64:
		return time.Duration(x) * time.Millisecond, nil
	case float32:
		return time.Duration(float64(x) * float64(time.Millisecond)), nil
	case float64:
		return time.Duration(x * float64(time.Millisecond)), nil
	default:
		return 0, fmt.Errorf("fetch/config: unsupported duration type %T", v)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("httpmethod", validMethod); err != nil {
		panic(err)
	}

	return v
}

// validMethod reports whether the field holds a valid HTTP method
// token per RFC 7230 section 3.2.6. Methods share the token production
// with header field names, so the check is delegated to httpguts.
func validMethod(fl validator.FieldLevel) bool {
	return httpguts.ValidHeaderFieldName(fl.Field().String())
}
