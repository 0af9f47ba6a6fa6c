// Package config loads the application configuration from YAML and
// validates it against a CUE schema before use.
//
// Validation happens on the raw document, so typos and out-of-range values
// are reported with the schema's constraints rather than surfacing later as
// zero values deep in a subsystem.
package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// configSchema constrains the raw YAML document. Unknown fields are
// rejected (closed structs); absent fields fall back to defaults in code.
const configSchema = `
#Config: {
	db_path?:    string & !=""
	queue_path?: string & !=""
	probe?: {
		address?:     string & !=""
		interval_ms?: int & >0
	}
	retry?: {
		max_retries?:      int & >=1
		initial_delay_ms?: int & >0
	}
	queue?: {
		ceiling?:   int & >=1
		settle_ms?: int & >=0
	}
}
`

// Config is the validated application configuration.
type Config struct {
	DBPath    string      `yaml:"db_path"`
	QueuePath string      `yaml:"queue_path"`
	Probe     ProbeConfig `yaml:"probe"`
	Retry     RetryConfig `yaml:"retry"`
	Queue     QueueConfig `yaml:"queue"`
}

// ProbeConfig configures the connectivity probe.
type ProbeConfig struct {
	Address    string `yaml:"address"`
	IntervalMS int    `yaml:"interval_ms"`
}

// RetryConfig tunes the exponential-backoff retry wrapper.
type RetryConfig struct {
	MaxRetries     int `yaml:"max_retries"`
	InitialDelayMS int `yaml:"initial_delay_ms"`
}

// QueueConfig tunes the offline mutation queue.
type QueueConfig struct {
	Ceiling  int `yaml:"ceiling"`
	SettleMS int `yaml:"settle_ms"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DBPath:    "grocerly.db",
		QueuePath: "grocerly-queue",
		Probe:     ProbeConfig{Address: "1.1.1.1:443", IntervalMS: 5000},
		Retry:     RetryConfig{MaxRetries: 5, InitialDelayMS: 1000},
		Queue:     QueueConfig{Ceiling: 5, SettleMS: 250},
	}
}

// InitialDelay returns the retry base delay as a duration.
func (c RetryConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMS) * time.Millisecond
}

// Settle returns the queue settle delay as a duration.
func (c QueueConfig) Settle() time.Duration {
	return time.Duration(c.SettleMS) * time.Millisecond
}

// Interval returns the probe interval as a duration.
func (c ProbeConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// Load reads, validates, and decodes the YAML config at path, applying
// defaults for absent fields.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and decodes a YAML config document.
func Parse(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("config: parse yaml: %w", err)
	}
	if raw == nil {
		// Empty document: all defaults.
		return Default(), nil
	}

	if err := validate(raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// validate unifies the raw document with the CUE schema.
func validate(raw map[string]any) error {
	cueCtx := cuecontext.New()

	compiled := cueCtx.CompileString(configSchema)
	if err := compiled.Err(); err != nil {
		return fmt.Errorf("config: compile schema: %w", err)
	}
	// Definitions are recursively closed, so unknown fields anywhere in the
	// document are rejected.
	schema := compiled.LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config: resolve schema: %w", err)
	}

	doc := cueCtx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("config: encode document: %w", err)
	}

	if err := schema.Unify(doc).Validate(); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}
