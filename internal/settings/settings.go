package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileName is the settings file inside a settings directory.
const FileName = "settings.yaml"

// Settings are the annotator's display and integration preferences.
type Settings struct {
	ColumnWidth         int    `yaml:"Column Width" json:"Column Width"`
	AutoScrollSentences bool   `yaml:"Auto Scrolling Sentence IDs" json:"Auto Scrolling Sentence IDs"`
	DisplayRowLabels    bool   `yaml:"Display Row Labels" json:"Display Row Labels"`
	AutoSave            bool   `yaml:"Auto Save" json:"Auto Save"`
	GeonamesUsername    string `yaml:"Geonames Username" json:"Geonames Username"`
	GeonamesCountries   string `yaml:"Geonames County Codes" json:"Geonames County Codes"`
}

// Defaults returns the settings used for keys missing from every file.
func Defaults() Settings {
	return Settings{
		ColumnWidth:         40,
		AutoScrollSentences: true,
		DisplayRowLabels:    true,
	}
}

// CountryCodes splits the configured geonames country list.
func (s Settings) CountryCodes() []string {
	var out []string
	for _, c := range strings.Split(s.GeonamesCountries, ",") {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Manager reads and writes a global settings file, shared by all datasets,
// and an optional local one that overrides it.
type Manager struct {
	mu         sync.Mutex
	globalPath string
	localPath  string
}

// NewManager creates a manager for the settings files in globalDir and
// localDir. Either may be empty.
func NewManager(globalDir, localDir string) *Manager {
	m := &Manager{}
	if globalDir != "" {
		m.globalPath = filepath.Join(globalDir, FileName)
	}
	if localDir != "" {
		m.localPath = filepath.Join(localDir, FileName)
	}
	return m
}

// Load returns the defaults overlaid with the global file, then the local
// file.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Defaults()
	for _, path := range []string{m.globalPath, m.localPath} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Settings{}, fmt.Errorf("read settings: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}
	if s.ColumnWidth <= 0 {
		s.ColumnWidth = Defaults().ColumnWidth
	}
	return s, nil
}

// Save writes the settings to the local file, or the global one when the
// manager has no local directory.
func (m *Manager) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.localPath
	if path == "" {
		path = m.globalPath
	}
	if path == "" {
		return fmt.Errorf("no settings directory configured")
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
