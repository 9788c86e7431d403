package models

// NodeData is the type-specific payload of a node. Every variant embeds BaseData.
type NodeData interface {
	Base() *BaseData
}

// ToolNodeData is implemented by node data that exposes a callable tool contract.
type ToolNodeData interface {
	NodeData
	Tool() *ToolData
}

// BaseData is shared by every node data variant.
type BaseData struct {
	Name     string   `json:"name"`
	Handlers []Handle `json:"handlers"`
}

func (b *BaseData) Base() *BaseData {
	return b
}

// ToolData is shared by nodes usable as agent tools.
type ToolData struct {
	BaseData

	Description  string     `json:"description"`
	InputSchema  NodeSchema `json:"inputSchema,omitempty"`
	OutputSchema NodeSchema `json:"outputSchema,omitempty"`
}

func (t *ToolData) Tool() *ToolData {
	return t
}

type ChatInputData struct {
	BaseData
}

type ChatOutputData struct {
	BaseData
}

type SlackOutputData struct {
	BaseData

	Token   string `json:"token"`
	Channel string `json:"channel"`
	Message string `json:"message"`
}

// ZendeskCustomField is a ticket custom field. Value is a string or a number.
type ZendeskCustomField struct {
	ID    int64 `json:"id"`
	Value any   `json:"value"`
}

type ZendeskTicketData struct {
	BaseData

	Subject        string               `json:"subject"`
	Description    string               `json:"description"`
	RequesterName  string               `json:"requester_name,omitempty"`
	RequesterEmail string               `json:"requester_email,omitempty"`
	Tags           []string             `json:"tags,omitempty"`
	CustomFields   []ZendeskCustomField `json:"custom_fields,omitempty"`
}

type APIToolData struct {
	ToolData

	Endpoint    string            `json:"endpoint"`
	Method      string            `json:"method"`
	Headers     map[string]string `json:"headers"`
	Parameters  map[string]string `json:"parameters"`
	RequestBody string            `json:"requestBody"`
}

type KnowledgeBaseData struct {
	ToolData

	SelectedBases []string `json:"selectedBases"`
}

type PythonCodeData struct {
	ToolData

	Code string `json:"code"`
}

type LLMModelData struct {
	BaseData

	ProviderID  string `json:"providerId"`
	JSONParsing bool   `json:"jsonParsing,omitempty"`
}

type TemplateData struct {
	BaseData

	Template       string `json:"template"`
	IncludeHistory bool   `json:"includeHistory,omitempty"`
}

// Agent output formats.
const (
	OutputFormatString = "string"
	OutputFormatJSON   = "json"
)

type AgentData struct {
	BaseData

	ProviderID   string `json:"providerId"`
	OutputFormat string `json:"outputFormat,omitempty"`
	JSONParsing  bool   `json:"jsonParsing,omitempty"`
}

// EmitsJSON reports whether the agent output handle carries json.
func (a *AgentData) EmitsJSON() bool {
	return a.JSONParsing || a.OutputFormat == OutputFormatJSON
}
