package ops

import (
	"fmt"

	"github.com/aqasim81/sqlaltery/internal/schema"
)

// AddIndex creates an index. Concurrently builds it without blocking writes,
// which PostgreSQL only allows outside a transaction block.
type AddIndex struct {
	reverseCache `yaml:"-"`

	Table        string       `yaml:"table"`
	Index        schema.Index `yaml:"index"`
	Concurrently bool         `yaml:"concurrently,omitempty"`
}

func (o *AddIndex) Kind() Kind     { return KindAddIndex }
func (o *AddIndex) Target() string { return o.Table }
func (o *AddIndex) String() string { return "add index " + o.Index.Name + " on " + o.Table }

func (o *AddIndex) statements(s *schema.Schema) ([]string, error) {
	t, err := s.Table(o.Table)
	if err != nil {
		return nil, err
	}

	if _, err := t.Index(o.Index.Name); err == nil {
		return nil, fmt.Errorf("index %q on table %q: %w", o.Index.Name, o.Table, schema.ErrExists)
	}

	for _, col := range o.Index.Columns {
		if _, err := t.Column(col); err != nil {
			return nil, err
		}
	}

	return []string{createIndex(o.Table, o.Index, o.Concurrently)}, nil
}

func (o *AddIndex) mutate(s *schema.Schema) error {
	t, err := s.Table(o.Table)
	if err != nil {
		return err
	}

	return t.AddIndex(o.Index)
}

func (o *AddIndex) invert(s *schema.Schema) (Operation, error) {
	if _, err := s.Table(o.Table); err != nil {
		return nil, err
	}

	return &DropIndex{Table: o.Table, Index: o.Index.Name, Concurrently: o.Concurrently}, nil
}

// DropIndex drops an index. Its reverse rebuilds the index from the snapshot.
type DropIndex struct {
	reverseCache `yaml:"-"`

	Table        string `yaml:"table"`
	Index        string `yaml:"index"`
	Concurrently bool   `yaml:"concurrently,omitempty"`
}

func (o *DropIndex) Kind() Kind     { return KindDropIndex }
func (o *DropIndex) Target() string { return o.Table }
func (o *DropIndex) String() string { return "drop index " + o.Index + " on " + o.Table }

func (o *DropIndex) statements(s *schema.Schema) ([]string, error) {
	if _, err := lookupIndex(s, o.Table, o.Index); err != nil {
		return nil, err
	}

	return []string{dropIndex(o.Index, o.Concurrently)}, nil
}

func (o *DropIndex) mutate(s *schema.Schema) error {
	t, err := s.Table(o.Table)
	if err != nil {
		return err
	}

	return t.DropIndex(o.Index)
}

func (o *DropIndex) invert(s *schema.Schema) (Operation, error) {
	ix, err := lookupIndex(s, o.Table, o.Index)
	if err != nil {
		return nil, err
	}

	return &AddIndex{Table: o.Table, Index: ix.Clone(), Concurrently: o.Concurrently}, nil
}

func lookupIndex(s *schema.Schema, table, name string) (*schema.Index, error) {
	t, err := s.Table(table)
	if err != nil {
		return nil, err
	}

	return t.Index(name)
}
