package migration

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aqasim81/sqlaltery/internal/ops"
)

const defaultIndent = 2

// Codec converts between a migration file and its operations.
type Codec interface {
	// Ext is the file extension including the dot, e.g. ".yml".
	Ext() string
	Encode(w io.Writer, operations []ops.Operation) error
	Decode(r io.Reader) ([]ops.Operation, error)
}

// YAMLCodec stores a migration as a YAML sequence of operation records.
type YAMLCodec struct {
	// Indent is the number of spaces per nesting level. Zero means 2.
	Indent int
}

// Ext returns ".yml".
func (c YAMLCodec) Ext() string { return ".yml" }

// Encode writes operations as a YAML sequence.
func (c YAMLCodec) Encode(w io.Writer, operations []ops.Operation) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}

	for _, op := range operations {
		node, err := ops.Render(op)
		if err != nil {
			return err
		}

		seq.Content = append(seq.Content, node)
	}

	indent := c.Indent
	if indent <= 0 {
		indent = defaultIndent
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(indent)

	if err := enc.Encode(seq); err != nil {
		return fmt.Errorf("encoding migration: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding migration: %w", err)
	}

	return nil
}

// Decode reads a YAML sequence of operation records. An empty document yields
// no operations.
func (c YAMLCodec) Decode(r io.Reader) ([]ops.Operation, error) {
	var doc yaml.Node

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("decoding migration: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("decoding migration: expected a list of operations, line %d", root.Line)
	}

	operations := make([]ops.Operation, 0, len(root.Content))

	for _, item := range root.Content {
		op, err := ops.Decode(item)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", item.Line, err)
		}

		operations = append(operations, op)
	}

	return operations, nil
}
