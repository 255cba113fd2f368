package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/paniker63/the-tale/internal/logger"
)

// PlaceDefinition represents a place in YAML format
type PlaceDefinition struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	Terrain string `yaml:"terrain"`
}

// MobDefinition represents a mob in YAML format
type MobDefinition struct {
	ID       int      `yaml:"id"`
	Name     string   `yaml:"name"`
	Terrains []string `yaml:"terrains"`
}

// PersonDefinition represents a person in YAML format
type PersonDefinition struct {
	ID         int    `yaml:"id"`
	Name       string `yaml:"name"`
	Place      int    `yaml:"place"` // Place id the person lives in
	Profession string `yaml:"profession"`
}

// WorldConfig represents the structure of a world YAML file
type WorldConfig struct {
	Places  []PlaceDefinition  `yaml:"places"`
	Mobs    []MobDefinition    `yaml:"mobs"`
	Persons []PersonDefinition `yaml:"persons"`
}

// Merge appends the definitions of other
func (c *WorldConfig) Merge(other *WorldConfig) {
	c.Places = append(c.Places, other.Places...)
	c.Mobs = append(c.Mobs, other.Mobs...)
	c.Persons = append(c.Persons, other.Persons...)
}

// LoadWorldConfig reads world definitions from a YAML file
func LoadWorldConfig(filename string) (*WorldConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}

	var config WorldConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse world YAML: %w", err)
	}
	return &config, nil
}

// Build validates the definitions and creates a registry from them. Places are
// registered first so persons can reference any of them.
func (c *WorldConfig) Build() (*Registry, error) {
	r := NewRegistry()

	for _, def := range c.Places {
		if def.Terrain == "" {
			return nil, fmt.Errorf("place %d has no terrain", def.ID)
		}
		if err := r.AddPlace(&Place{ID: def.ID, Name: def.Name, Terrain: def.Terrain}); err != nil {
			return nil, err
		}
	}
	for _, def := range c.Mobs {
		terrains := append([]string(nil), def.Terrains...)
		if err := r.AddMob(&Mob{ID: def.ID, Name: def.Name, Terrains: terrains}); err != nil {
			return nil, err
		}
	}
	for _, def := range c.Persons {
		p := &Person{ID: def.ID, Name: def.Name, PlaceID: def.Place, Profession: def.Profession}
		if err := r.AddPerson(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadFromYAML loads a registry from a single world file
func LoadFromYAML(filename string) (*Registry, error) {
	config, err := LoadWorldConfig(filename)
	if err != nil {
		return nil, err
	}
	r, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid world %s: %w", filename, err)
	}

	places, mobs, persons := r.Counts()
	logger.Info("Loaded world", "path", filename, "places", places, "mobs", mobs, "persons", persons)
	return r, nil
}

// LoadFromDirectory merges every YAML file in dir into one registry
func LoadFromDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	merged := &WorldConfig{}
	fileCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		filePath := filepath.Join(dir, name)
		config, err := LoadWorldConfig(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", filePath, err)
		}
		merged.Merge(config)
		fileCount++
	}

	r, err := merged.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid world in %s: %w", dir, err)
	}

	places, mobs, persons := r.Counts()
	logger.Info("Loaded world from directory", "dir", dir, "files", fileCount,
		"places", places, "mobs", mobs, "persons", persons)
	return r, nil
}

// Load reads a world from a file or, when path is a directory, from every YAML file
// in it
func Load(path string) (*Registry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat world path: %w", err)
	}
	if info.IsDir() {
		return LoadFromDirectory(path)
	}
	return LoadFromYAML(path)
}
