package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/services"
)

var ErrInvalidWorkflow = errors.New("workflow is not valid")

// readWorkflowFile parses path as YAML when its extension says so and as
// JSON otherwise.
func readWorkflowFile(path string) (*document.Document, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	parse := document.Parse
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		parse = document.ParseYAML
	}

	doc, err := parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return doc, nil
}

// validateFile loads the document at path and prints every problem found.
// It returns ErrInvalidWorkflow when there was at least one.
func validateFile(w io.Writer, svc *services.Workflow, path string) error {
	doc, err := readWorkflowFile(path)
	if err != nil {
		return err
	}

	report, err := svc.Validate(doc)
	if err != nil {
		return err
	}

	if report.Valid {
		_, err = fmt.Fprintf(w, "%s: ok (%d nodes, %d edges)\n", path, len(doc.Nodes), len(doc.Edges))

		return err
	}

	for _, problem := range report.Problems() {
		_, err = fmt.Fprintf(w, "%s: %s\n", path, problem)
		if err != nil {
			return err
		}
	}

	return ErrInvalidWorkflow
}
