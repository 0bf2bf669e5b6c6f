package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PortsConfig selects MIDI ports by name substring
type PortsConfig struct {
	OutputHint string   `json:"outputHint,omitempty"`
	Inputs     []string `json:"inputs,omitempty"` // empty = all non-system inputs
}

// ScaleConfig stores the scale-snap settings
type ScaleConfig struct {
	Enabled bool   `json:"enabled"`
	Root    string `json:"root"` // "C", "F#", ...
	Type    string `json:"type"` // "major", "minor", "dorian", ...
}

// ArpConfig stores the arpeggiator settings
type ArpConfig struct {
	Enabled bool    `json:"enabled"`
	Mode    string  `json:"mode"`
	Tempo   float64 `json:"tempo"`
	Swing   float64 `json:"swing"`
	PPQN    int     `json:"ppqn"`
	Gate    float64 `json:"gate"`
	Latch   bool    `json:"latch"`
	Steps   []bool  `json:"steps,omitempty"` // active flags, empty = all 16 on
}

// HarmonyConfig stores the harmony settings
type HarmonyConfig struct {
	Enabled    bool  `json:"enabled"`
	Intervals  []int `json:"intervals,omitempty"`
	VoiceLimit int   `json:"voiceLimit,omitempty"`
}

// OutputConfig stores the outbound transform settings
type OutputConfig struct {
	Transpose int `json:"transpose"`
	Octave    int `json:"octave"`
	Channel   int `json:"channel"` // 0-15, -1 = keep incoming
}

// Config is the main configuration structure
type Config struct {
	Ports   PortsConfig   `json:"ports,omitempty"`
	Scale   ScaleConfig   `json:"scale"`
	Arp     ArpConfig     `json:"arp"`
	Harmony HarmonyConfig `json:"harmony"`
	Output  OutputConfig  `json:"output"`
	Debug   bool          `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scale: ScaleConfig{
			Root: "C",
			Type: "major",
		},
		Arp: ArpConfig{
			Mode:  "up",
			Tempo: 120,
			Swing: 0,
			PPQN:  4,
			Gate:  0.5,
		},
		Harmony: HarmonyConfig{
			Intervals:  []int{4, 7},
			VoiceLimit: 4,
		},
		Output: OutputConfig{
			Channel: -1,
		},
	}
}

// Validate rejects values outside their legal ranges. Out-of-range
// settings are an error here rather than a silent clamp so a typo in
// the file doesn't surprise anyone at runtime.
func (c *Config) Validate() error {
	if c.Output.Transpose < -12 || c.Output.Transpose > 12 {
		return fmt.Errorf("config: transpose %d outside -12..12", c.Output.Transpose)
	}
	if c.Output.Octave < -4 || c.Output.Octave > 4 {
		return fmt.Errorf("config: octave %d outside -4..4", c.Output.Octave)
	}
	if c.Output.Channel < -1 || c.Output.Channel > 15 {
		return fmt.Errorf("config: channel %d outside -1..15", c.Output.Channel)
	}
	if c.Arp.Tempo < 20 || c.Arp.Tempo > 300 {
		return fmt.Errorf("config: tempo %.1f outside 20..300", c.Arp.Tempo)
	}
	if c.Arp.Swing < 0 || c.Arp.Swing > 1 {
		return fmt.Errorf("config: swing %.2f outside 0..1", c.Arp.Swing)
	}
	if c.Arp.PPQN < 1 || c.Arp.PPQN > 24 {
		return fmt.Errorf("config: ppqn %d outside 1..24", c.Arp.PPQN)
	}
	return nil
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-midifx"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
