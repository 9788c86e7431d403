// Package template renders starter code for code-execution tool nodes.
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/genagent/agentflow/pkg/models"
)

const pythonFunction = `def main(params):
    """
    {{ .Summary }}

    Args:
        params (dict):
{{- range .Fields }}
            {{ .Key }} ({{ pyType .Field.Type }}):{{ with .Field.Description }} {{ . }}{{ end }}{{ if .Field.Required }} (required){{ end }}
{{- else }}
            no declared inputs
{{- end }}

    Returns:
        dict: the tool result
    """
{{- range .Fields }}

    # {{ .Key }}: {{ .Field.Type }}{{ if .Field.Required }} (required){{ end }}
{{- if .Field.Required }}
    {{ .Ident }} = params[{{ quote .Key }}]
{{- else }}
    {{ .Ident }} = params.get({{ quote .Key }}, {{ pyDefault .Field }})
{{- end }}
{{- end }}

    result = {}

    return result
`

var (
	pythonTmpl = template.Must(template.New("python").Funcs(template.FuncMap{
		"pyType":    pythonType,
		"pyDefault": pythonDefault,
		"quote":     strconv.Quote,
	}).Parse(pythonFunction))

	nonIdent = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

type pythonField struct {
	Key   string
	Ident string
	Field models.SchemaField
}

// PythonFunction renders a Python entry point that reads every field of
// inputSchema from its params argument. Fields appear in lexical order.
func PythonFunction(summary string, inputSchema models.NodeSchema) (string, error) {
	if summary == "" {
		summary = "Tool entry point."
	}

	fields := make([]pythonField, 0, len(inputSchema))
	for _, name := range inputSchema.FieldNames() {
		fields = append(fields, pythonField{
			Key:   name,
			Ident: pythonIdent(name),
			Field: inputSchema[name],
		})
	}

	var buf strings.Builder

	err := pythonTmpl.Execute(&buf, map[string]any{
		"Summary": summary,
		"Fields":  fields,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render python template: %w", err)
	}

	return buf.String(), nil
}

func pythonIdent(name string) string {
	ident := nonIdent.ReplaceAllString(name, "_")
	if ident == "" || (ident[0] >= '0' && ident[0] <= '9') {
		ident = "_" + ident
	}

	return ident
}

func pythonType(t models.SchemaType) string {
	switch t {
	case models.SchemaTypeString:
		return "str"
	case models.SchemaTypeNumber:
		return "float"
	case models.SchemaTypeBoolean:
		return "bool"
	case models.SchemaTypeObject:
		return "dict"
	case models.SchemaTypeArray:
		return "list"
	default:
		return "Any"
	}
}

func pythonDefault(field models.SchemaField) string {
	raw := field.DefaultValue

	switch field.Type {
	case models.SchemaTypeString:
		if raw == "" {
			return "None"
		}

		return strconv.Quote(raw)
	case models.SchemaTypeNumber:
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			return raw
		}
	case models.SchemaTypeBoolean:
		if b, err := strconv.ParseBool(raw); err == nil {
			if b {
				return "True"
			}

			return "False"
		}
	case models.SchemaTypeObject:
		return "{}"
	case models.SchemaTypeArray:
		return "[]"
	}

	return "None"
}
