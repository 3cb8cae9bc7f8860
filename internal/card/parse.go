package card

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseAll decodes every document of a card-data file in order. Empty
// documents are skipped.
func ParseAll(data []byte) ([]Record, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var records []Record
	for doc := 1; ; doc++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", ErrInvalidRecord, doc, err)
		}
		if isEmpty(&node) {
			continue
		}

		if err := checkQuantity(&node); err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", ErrInvalidRecord, doc, err)
		}

		var r Record
		if err := node.Decode(&r); err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", ErrInvalidRecord, doc, err)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func isEmpty(node *yaml.Node) bool {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}
		node = node.Content[0]
	}
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// checkQuantity rejects a quantity that is not written as an integer. A
// float would otherwise be truncated on decode.
func checkQuantity(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Value != "quantity" {
			continue
		}
		if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!int" {
			return fmt.Errorf("quantity must be an integer, got %q", value.Value)
		}
	}
	return nil
}
