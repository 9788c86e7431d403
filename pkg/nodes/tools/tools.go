// Package tools provides the node types an agent can call as tools: API calls,
// knowledge base lookups and Python code.
package tools

import "github.com/genagent/agentflow/pkg/models"

const (
	HandleInput           = "input"
	HandleOutputReference = "output_reference"
	HandleOutput          = "output"
)

// toolHandles are the handles every tool node carries. The json handles carry
// the tool's input and output schemas.
func toolHandles(tool *models.ToolData) []models.Handle {
	return []models.Handle{
		models.TargetHandle(HandleInput, models.CompatibilityJSON).WithSchema(tool.InputSchema),
		models.SourceHandle(HandleOutputReference, models.CompatibilityTools),
		models.SourceHandle(HandleOutput, models.CompatibilityJSON).WithSchema(tool.OutputSchema),
	}
}
