package document

import (
	"encoding/json"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMalformedYAML indicates input that is not YAML, or YAML that has no JSON
// equivalent such as a mapping with non-string keys.
var ErrMalformedYAML = errors.New("document is not valid YAML")

// ParseYAML reads a workflow written as YAML. The result is checked exactly
// like Parse checks JSON.
func ParseYAML(body []byte) (*Document, error) {
	var tree any

	err := yaml.Unmarshal(body, &tree)
	if err != nil {
		return nil, &ParseError{Err: ErrMalformedYAML, Details: []string{err.Error()}}
	}

	asJSON, err := json.Marshal(tree)
	if err != nil {
		return nil, &ParseError{Err: ErrMalformedYAML, Details: []string{err.Error()}}
	}

	return Parse(asJSON)
}

// EncodeYAML renders d as YAML with the same field names as its JSON form.
func EncodeYAML(d *Document) ([]byte, error) {
	asJSON, err := Encode(d)
	if err != nil {
		return nil, err
	}

	var tree any

	err = yaml.Unmarshal(asJSON, &tree)
	if err != nil {
		return nil, err
	}

	return yaml.Marshal(tree)
}
