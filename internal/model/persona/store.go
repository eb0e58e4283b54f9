package persona

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidPersona = errors.New("invalid persona")

// Store exposes persona retrieval for services and HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the configured persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

type profileFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFile reads personas from a YAML profile. Replacement rules keep the
// order in which they appear in the file.
func LoadFile(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML persona profile.
func Parse(data []byte) ([]Persona, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode persona profile: %w", err)
	}
	if len(file.Personas) == 0 {
		return nil, fmt.Errorf("%w: profile defines no personas", ErrInvalidPersona)
	}

	seen := make(map[string]struct{}, len(file.Personas))
	for i := range file.Personas {
		p := &file.Personas[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("%w: persona #%d has no id", ErrInvalidPersona, i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidPersona, p.ID)
		}
		seen[p.ID] = struct{}{}
		if strings.TrimSpace(p.Name) == "" {
			p.Name = p.ID
		}
	}
	return file.Personas, nil
}
