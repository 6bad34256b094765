package ops

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const kindKey = "op"

// Render serializes op into its persisted record: a YAML mapping whose "op"
// key carries the kind tag, followed by the variant's fields.
func Render(op Operation) (*yaml.Node, error) {
	var body yaml.Node
	if err := body.Encode(op); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", op, err)
	}

	if body.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rendering %s: %w: record is not a mapping", op, ErrInvalidOperation)
	}

	head := []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: kindKey},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: op.Kind().String()},
	}
	body.Content = append(head, body.Content...)

	return &body, nil
}

// Decode turns a persisted record back into a typed operation. The returned
// operation has no reverse until GenerateReverse runs on it.
func Decode(node *yaml.Node) (Operation, error) {
	var head struct {
		Op string `yaml:"op"`
	}

	if err := node.Decode(&head); err != nil {
		return nil, fmt.Errorf("decoding operation record: %w", err)
	}

	kind, err := ParseKind(head.Op)
	if err != nil {
		return nil, err
	}

	op, err := newOperation(kind)
	if err != nil {
		return nil, err
	}

	if err := decodeStrict(node, op); err != nil {
		return nil, fmt.Errorf("decoding %s record: %w", kind, err)
	}

	return op, nil
}

// decodeStrict decodes a record's fields into op and rejects keys op does
// not declare.
func decodeStrict(node *yaml.Node, op Operation) error {
	if node.Kind != yaml.MappingNode {
		return node.Decode(op)
	}

	body := *node
	body.Content = make([]*yaml.Node, 0, len(node.Content))

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == kindKey {
			continue
		}

		body.Content = append(body.Content, node.Content[i], node.Content[i+1])
	}

	data, err := yaml.Marshal(&body)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	return dec.Decode(op)
}
