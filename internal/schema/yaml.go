package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type document struct {
	Tables []Table `yaml:"tables"`
}

// ParseYAML builds a snapshot from a YAML document with a top-level tables list.
func ParseYAML(data []byte) (*Schema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s := New()
	for _, t := range doc.Tables {
		if err := s.AddTable(t); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// MarshalYAML renders the snapshot in the same layout ParseYAML reads.
func (s *Schema) MarshalYAML() (any, error) {
	doc := document{Tables: make([]Table, 0, s.Len())}
	for _, t := range s.Tables() {
		doc.Tables = append(doc.Tables, t.Clone())
	}

	return doc, nil
}

// LoadFile reads a head schema from disk. Files ending in .sql are parsed as
// PostgreSQL DDL; .yml and .yaml files as the YAML layout.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".sql":
		return FromSQL(string(data))
	case ".yml", ".yaml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("%w: unsupported schema file extension %q", ErrInvalid, filepath.Ext(path))
	}
}
