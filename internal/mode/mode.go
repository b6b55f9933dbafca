package mode

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Level is the audit verbosity of a mode.
type Level int

// Audit verbosity levels.
const (
	// LevelDebug journals every command.
	LevelDebug Level = iota
	// LevelInfo journals only successful commands.
	LevelInfo
	// LevelNotice journals only failed commands.
	LevelNotice
)

var levelNames = map[Level]string{
	LevelDebug:  "DEBUG",
	LevelInfo:   "INFO",
	LevelNotice: "NOTICE",
}

// String returns the upper-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// MarshalYAML encodes the level by name.
func (l Level) MarshalYAML() (any, error) {
	return l.String(), nil
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a level name.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// UnmarshalYAML decodes a level name from configuration.
func (l *Level) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Mode is one runtime operating profile.
type Mode struct {
	Name string `json:"name" yaml:"name"`
	Log  Level  `json:"log" yaml:"log"`

	// PollInterval is the liveness poll period in seconds.
	PollInterval int `json:"pollInterval" yaml:"poll_interval"`
}

// Interval returns the poll interval as a duration.
func (m Mode) Interval() time.Duration {
	return time.Duration(m.PollInterval) * time.Second
}

// DefaultModes is the built-in catalog.
func DefaultModes() []Mode {
	return []Mode{
		{Name: "normal", Log: LevelInfo, PollInterval: 60},
		{Name: "debug", Log: LevelDebug, PollInterval: 10},
		{Name: "quiet", Log: LevelNotice, PollInterval: 300},
	}
}

// DefaultModeName names the built-in default mode.
const DefaultModeName = "normal"

// Catalog is the set of modes a client may switch between.
type Catalog struct {
	modes       []Mode
	defaultMode Mode
}

// NewCatalog validates modes and returns a catalog whose default is the mode
// named defaultName.
func NewCatalog(modes []Mode, defaultName string) (*Catalog, error) {
	if len(modes) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]bool, len(modes))
	for _, m := range modes {
		key := strings.ToLower(m.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidMode)
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidMode, m.Name)
		}
		if m.PollInterval <= 0 {
			return nil, fmt.Errorf("%w: %q poll interval must be positive", ErrInvalidMode, m.Name)
		}
		seen[key] = true
	}

	c := &Catalog{modes: append([]Mode(nil), modes...)}
	def, ok := c.Lookup(defaultName)
	if !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownMode, defaultName)
	}
	c.defaultMode = def
	return c, nil
}

// Lookup finds a mode by name, case-insensitively.
func (c *Catalog) Lookup(name string) (Mode, bool) {
	for _, m := range c.modes {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Mode{}, false
}

// Default returns the default mode.
func (c *Catalog) Default() Mode {
	return c.defaultMode
}

// Names returns the mode names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.modes))
	for _, m := range c.modes {
		names = append(names, m.Name)
	}
	return names
}
