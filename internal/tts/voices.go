package tts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Voice describes one synthesized speaker persona.
type Voice struct {
	ID          string `json:"voice_id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Language    string `json:"language" yaml:"language"`
	Gender      string `json:"gender,omitempty" yaml:"gender"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Catalog holds the supported voice set with case-insensitive lookup.
type Catalog struct {
	voices []Voice
	byID   map[string]Voice
}

// DefaultCatalog returns the built-in speaker set of the model.
func DefaultCatalog() *Catalog {
	return newCatalog([]Voice{
		{ID: "Vivian", Name: "Vivian", Language: "en", Gender: "female", Description: "Warm, conversational US English"},
		{ID: "Serena", Name: "Serena", Language: "en", Gender: "female", Description: "Calm, narrative US English"},
		{ID: "Ethan", Name: "Ethan", Language: "en", Gender: "male", Description: "Bright, energetic US English"},
		{ID: "Chelsie", Name: "Chelsie", Language: "en", Gender: "female", Description: "Crisp UK English"},
		{ID: "Cherry", Name: "Cherry", Language: "zh", Gender: "female", Description: "Friendly Mandarin"},
		{ID: "Dylan", Name: "Dylan", Language: "zh", Gender: "male", Description: "Beijing-accented Mandarin"},
		{ID: "Eric", Name: "Eric", Language: "zh", Gender: "male", Description: "Sichuan-accented Mandarin"},
		{ID: "Ryan", Name: "Ryan", Language: "en", Gender: "male", Description: "Deep, steady US English"},
		{ID: "Aiden", Name: "Aiden", Language: "en", Gender: "male", Description: "Youthful US English"},
		{ID: "Ono_Anna", Name: "Ono Anna", Language: "ja", Gender: "female", Description: "Natural Japanese"},
	})
}

// LoadCatalog reads a YAML voice list, replacing the built-in set.
// Used to trim or extend the speaker roster without a rebuild.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read voices file: %w", err)
	}
	var parsed struct {
		Voices []Voice `yaml:"voices"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse voices file: %w", err)
	}
	if len(parsed.Voices) == 0 {
		return nil, fmt.Errorf("voices file %s defines no voices", path)
	}
	for i, v := range parsed.Voices {
		if strings.TrimSpace(v.ID) == "" {
			return nil, fmt.Errorf("voices file %s: entry %d has no id", path, i)
		}
	}
	return newCatalog(parsed.Voices), nil
}

func newCatalog(voices []Voice) *Catalog {
	byID := make(map[string]Voice, len(voices))
	for _, v := range voices {
		byID[strings.ToLower(v.ID)] = v
	}
	return &Catalog{voices: voices, byID: byID}
}

// Voices returns the catalog in declaration order.
func (c *Catalog) Voices() []Voice {
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Get resolves a voice identifier, ignoring case.
func (c *Catalog) Get(id string) (Voice, bool) {
	v, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	return v, ok
}

// IDs lists the supported voice identifiers.
func (c *Catalog) IDs() []string {
	out := make([]string, 0, len(c.voices))
	for _, v := range c.voices {
		out = append(out, v.ID)
	}
	return out
}
