// Package config loads and writes the fretpad TOML configuration
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const configFile = "config.toml"

var (
	ErrEmptyCourse = errors.New("course has no pitches")
	ErrBadFrets    = errors.New("fret count must be between 0 and 36")
)

// Course is one row of the board: the open pitch (or pitches, for doubled
// courses) and the fill color of its pads.
type Course struct {
	Pitches []int  `toml:"pitches"`
	Color   string `toml:"color"`
}

// Board describes the pad layout. Courses are listed highest first; the
// first entry is course 1 and is drawn on top.
type Board struct {
	Frets      int      `toml:"frets"`
	CellWidth  int      `toml:"cell_width"`
	CellHeight int      `toml:"cell_height"`
	FillWidth  string   `toml:"fill_width"`
	FillHeight string   `toml:"fill_height"`
	Disabled   []string `toml:"disabled"`
	Courses    []Course `toml:"courses"`
}

// MIDI configures the live output port and the recorder
type MIDI struct {
	Out      string `toml:"out"`
	Channel  uint8  `toml:"channel"`
	Velocity uint8  `toml:"velocity"`
	Record   string `toml:"record"`
}

// Server configures the API server
type Server struct {
	Port int `toml:"port"`
}

// Config is the whole configuration file
type Config struct {
	Board  Board  `toml:"board"`
	MIDI   MIDI   `toml:"midi"`
	Server Server `toml:"server"`
}

// StandardTuning is a six-string guitar in E standard, highest course first:
// E4 B3 G3 D3 A2 E2.
var StandardTuning = []int{64, 59, 55, 50, 45, 40}

var courseColors = []string{"#E05D5D", "#E0A05D", "#D6D65D", "#5DD67A", "#5D9BE0", "#A05DE0"}

// Default returns the built-in configuration: a 12-fret guitar in standard
// tuning, no live MIDI output, API on port 8080.
func Default() Config {
	courses := make([]Course, len(StandardTuning))
	for i, p := range StandardTuning {
		courses[i] = Course{Pitches: []int{p}, Color: courseColors[i%len(courseColors)]}
	}
	return Config{
		Board: Board{
			Frets:      12,
			CellWidth:  6,
			CellHeight: 3,
			FillWidth:  "100%",
			FillHeight: "100%",
			Courses:    courses,
		},
		MIDI: MIDI{
			Velocity: 100,
		},
		Server: Server{
			Port: 8080,
		},
	}
}

// Load reads a configuration file. Missing settings take their defaults.
func Load(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	applyDefaults(&cfg, md)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists and returns the defaults otherwise
func LoadOrDefault(path string) (Config, error) {
	ok, err := Exists(path)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func applyDefaults(cfg *Config, md toml.MetaData) {
	def := Default()
	if !md.IsDefined("board", "frets") {
		cfg.Board.Frets = def.Board.Frets
	}
	if cfg.Board.CellWidth < 1 {
		cfg.Board.CellWidth = def.Board.CellWidth
	}
	if cfg.Board.CellHeight < 1 {
		cfg.Board.CellHeight = def.Board.CellHeight
	}
	if !md.IsDefined("board", "fill_width") {
		cfg.Board.FillWidth = def.Board.FillWidth
	}
	if !md.IsDefined("board", "fill_height") {
		cfg.Board.FillHeight = def.Board.FillHeight
	}
	if len(cfg.Board.Courses) == 0 {
		cfg.Board.Courses = def.Board.Courses
	}
	if !md.IsDefined("midi", "velocity") {
		cfg.MIDI.Velocity = def.MIDI.Velocity
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
}

// Validate checks the settings that would make a board impossible to build
func (c Config) Validate() error {
	if c.Board.Frets < 0 || c.Board.Frets > 36 {
		return fmt.Errorf("%w: %d", ErrBadFrets, c.Board.Frets)
	}
	for i, course := range c.Board.Courses {
		if len(course.Pitches) == 0 {
			return fmt.Errorf("course %d: %w", i+1, ErrEmptyCourse)
		}
	}
	if c.MIDI.Channel > 15 {
		return fmt.Errorf("midi channel %d out of range 0-15", c.MIDI.Channel)
	}
	if c.MIDI.Velocity > 127 {
		return fmt.Errorf("midi velocity %d out of range 0-127", c.MIDI.Velocity)
	}
	return nil
}

// Write encodes cfg to path, creating parent directories as needed
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, cfg); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Encode writes cfg as TOML
func Encode(w io.Writer, cfg Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/fretpad/config.toml, falling back to ~/.config
func DefaultPath() string {
	return filepath.Join(xdgOrFallback("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config")), "fretpad", configFile)
}

// Exists reports whether path exists
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func xdgOrFallback(xdg string, fallback string) string {
	dir := os.Getenv(xdg)
	if dir != "" {
		if ok, err := Exists(dir); ok && err == nil {
			return dir
		}
	}
	return fallback
}
