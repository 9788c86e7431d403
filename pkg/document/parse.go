package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrMalformedJSON indicates input that is not JSON at all.
	ErrMalformedJSON = errors.New("document is not valid JSON")

	// ErrInvalidStructure indicates JSON that does not have the shape of a workflow.
	ErrInvalidStructure = errors.New("document does not describe a workflow")
)

// ParseError is returned by Parse. Details lists every structural problem.
type ParseError struct {
	Err     error
	Details []string
}

func (e *ParseError) Error() string {
	if len(e.Details) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Details, "; "))
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError checks if an error came from parsing a document.
func IsParseError(err error) bool {
	var parseErr *ParseError

	return errors.As(err, &parseErr)
}

const documentSchema = `{
  "type": "object",
  "required": ["name", "nodes", "edges"],
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string"},
    "description": {"type": "string"},
    "version": {"type": "string"},
    "created_at": {"type": "string"},
    "updated_at": {"type": "string"},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "position", "data"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "position": {
            "type": "object",
            "required": ["x", "y"],
            "properties": {
              "x": {"type": "number"},
              "y": {"type": "number"}
            }
          },
          "data": {"type": "object"}
        }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["source", "target", "sourceHandle", "targetHandle"],
        "properties": {
          "id": {"type": "string"},
          "source": {"type": "string", "minLength": 1},
          "target": {"type": "string", "minLength": 1},
          "sourceHandle": {"type": "string", "minLength": 1},
          "targetHandle": {"type": "string", "minLength": 1},
          "data": {"type": "object"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// Parse decodes an imported workflow file. Input that is not JSON, or that is
// missing the top-level workflow fields, is rejected as a whole.
func Parse(body []byte) (*Document, error) {
	if !json.Valid(body) {
		return nil, &ParseError{Err: ErrMalformedJSON}
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, &ParseError{Err: ErrInvalidStructure, Details: []string{err.Error()}}
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return nil, &ParseError{Err: ErrInvalidStructure, Details: details}
	}

	var doc Document

	err = json.Unmarshal(body, &doc)
	if err != nil {
		return nil, &ParseError{Err: ErrInvalidStructure, Details: []string{err.Error()}}
	}

	return &doc, nil
}
