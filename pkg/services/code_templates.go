package services

import (
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/template"
	"github.com/go-playground/validator/v10"
)

// CodeTemplates generates starter code for code-execution tools.
type CodeTemplates struct {
	validate *validator.Validate
}

func NewCodeTemplates() *CodeTemplates {
	return &CodeTemplates{validate: validator.New()}
}

// Generate renders a Python entry point reading every field of inputSchema.
func (c *CodeTemplates) Generate(inputSchema models.NodeSchema) (string, error) {
	for name, field := range inputSchema {
		err := c.validate.Struct(field)
		if err != nil {
			return "", NewValidationError("Generate", "INVALID_INPUT_SCHEMA",
				"field '"+name+"' has an invalid type", ErrInvalidRequest)
		}
	}

	return template.PythonFunction("", inputSchema)
}
