// Package settings persists the user's grading preferences as a YAML file.
package settings

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/cardshop/cardshop/internal/model"
	"github.com/cardshop/cardshop/internal/prompt"
)

// Settings are the grading and listing preferences.
type Settings struct {
	Strictness     model.Strictness `yaml:"strictness" json:"strictness"`
	Rubric         *prompt.Rubric   `yaml:"rubric,omitempty" json:"rubric,omitempty"`
	PromptOverride string           `yaml:"prompt_override,omitempty" json:"promptOverride,omitempty"`
	PreferredModel string           `yaml:"preferred_model,omitempty" json:"preferredModel,omitempty"`
	Platforms      []string         `yaml:"platforms" json:"platforms"`
}

// Defaults returns the settings used when nothing has been saved.
func Defaults() Settings {
	return Settings{
		Strictness: model.StrictnessStandard,
		Platforms:  []string{"ebay", "tcgplayer"},
	}
}

// Validate reports values outside their enumerations.
func (s Settings) Validate() error {
	if s.Strictness != "" && !s.Strictness.Valid() {
		return eris.Wrapf(model.ErrValidation, "unknown strictness %q", s.Strictness)
	}
	return nil
}

func (s Settings) normalized() Settings {
	s.Strictness = model.ParseStrictness(string(s.Strictness))
	if s.Platforms == nil {
		s.Platforms = []string{}
	}
	s.PreferredModel = strings.TrimSpace(s.PreferredModel)
	return s
}

// FileStore reads and writes Settings at a fixed path.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the saved settings, or Defaults when the file does not exist.
func (f *FileStore) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, eris.Wrap(err, "settings: read")
	}

	s := Defaults()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, eris.Wrapf(err, "settings: decode %s", f.path)
	}
	return s.normalized(), nil
}

// Save validates and writes s atomically.
func (f *FileStore) Save(s Settings) (Settings, error) {
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	s = s.normalized()

	data, err := yaml.Marshal(s)
	if err != nil {
		return Settings{}, eris.Wrap(err, "settings: encode")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Settings{}, eris.Wrap(err, "settings: create dir")
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Settings{}, eris.Wrap(err, "settings: write")
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return Settings{}, eris.Wrap(err, "settings: replace")
	}
	return s, nil
}
