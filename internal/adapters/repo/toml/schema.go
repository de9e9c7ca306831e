package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Sources []sourceSchema `toml:"sources"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported feed sources schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sourceSchema struct {
	ID   string `toml:"id"`
	Name string `toml:"name,omitempty"`
	Path string `toml:"path"`
}
