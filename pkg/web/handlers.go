package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/registry"
	"github.com/genagent/agentflow/pkg/services"
	"github.com/genagent/agentflow/pkg/variables"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	nodeTester      *services.NodeTester
	codeTemplates   *services.CodeTemplates
	validator       *validator.Validate
	registry        *registry.Registry
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	nodeTester *services.NodeTester,
	codeTemplates *services.CodeTemplates,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		nodeTester:      nodeTester,
		codeTemplates:   codeTemplates,
		validator:       validator,
		registry:        registry,
	}
}

// Routes mounts every endpoint on router.
func (h *APIHandlers) Routes(router fiber.Router) {
	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Post("/import", h.ImportWorkflow)
	w.Post("/validate", h.ValidateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Get("/:id/export", h.ExportWorkflow)

	n := router.Group("/node-types")
	n.Get("/", h.GetNodeTypes)
	n.Get("/categories", h.GetNodeCategories)
	n.Get("/:type", h.GetNodeType)

	router.Post("/connections/check", h.CheckConnection)
	router.Post("/variables/extract", h.ExtractVariables)

	t := router.Group("/tools")
	t.Post("/code-template", h.GenerateCodeTemplate)
	t.Post("/:kind/test", h.TestTool)

	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req, err := h.parseListWorkflowsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.workflowService.ListWorkflows(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":     result.Workflows,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListWorkflowsRequest parses query parameters for listing workflows.
func (h *APIHandlers) parseListWorkflowsRequest(c fiber.Ctx) (*services.ListWorkflowsRequest, error) {
	req := &services.ListWorkflowsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	doc, err := h.workflowService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var doc document.Document
	if err := c.Bind().JSON(&doc); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.workflowService.Create(c.Context(), &doc)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var doc document.Document
	if err := c.Bind().JSON(&doc); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.workflowService.Update(c.Context(), c.Params("id"), &doc)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ExportWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	body, err := h.workflowService.Export(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Attachment("workflow-" + id + ".json")

	return c.Send(body)
}

func (h *APIHandlers) ImportWorkflow(c fiber.Ctx) error {
	created, err := h.workflowService.Import(c.Context(), c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	var doc document.Document
	if err := c.Bind().JSON(&doc); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	report, err := h.workflowService.Validate(&doc)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(report)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	nodeTypes := h.registry.Available()
	if category := c.Query("category"); category != "" {
		nodeTypes = h.registry.ListByCategory(models.Category(category))
	}

	response := make([]NodeTypeResponse, 0, len(nodeTypes))
	for _, nodeType := range nodeTypes {
		response = append(response, NewNodeTypeResponse(nodeType, false))
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetNodeCategories(c fiber.Ctx) error {
	return c.JSON(h.registry.ListCategories())
}

func (h *APIHandlers) GetNodeType(c fiber.Ctx) error {
	nodeType, ok := h.registry.Get(c.Params("type"))
	if !ok {
		return notFound(c, "node_type_not_found", "node type not found")
	}

	return c.JSON(NewNodeTypeResponse(nodeType, true))
}

func (h *APIHandlers) CheckConnection(c fiber.Ctx) error {
	var req CheckConnectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	verdict, report, err := h.workflowService.CheckConnection(req.Workflow,
		models.HandleRef{NodeID: req.Connection.Source, HandleID: req.Connection.SourceHandle},
		models.HandleRef{NodeID: req.Connection.Target, HandleID: req.Connection.TargetHandle},
	)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(CheckConnectionResponse{
		Verdict:      verdict,
		SkippedNodes: report.SkippedNodes,
		SkippedEdges: report.SkippedEdges,
	})
}

func (h *APIHandlers) ExtractVariables(c fiber.Ctx) error {
	var req ExtractVariablesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	var found variables.Set
	if req.Text != nil {
		found = variables.Extract(*req.Text)
	} else {
		found = variables.Collect(req.Endpoint, req.Headers, req.Parameters, req.Body)
	}

	return c.JSON(ExtractVariablesResponse{Variables: found.Sorted()})
}

func (h *APIHandlers) TestTool(c fiber.Ctx) error {
	var req TestToolRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.nodeTester.Test(c.Context(), c.Params("kind"), req.NodeConfig, req.Inputs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GenerateCodeTemplate(c fiber.Ctx) error {
	var req CodeTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	template, err := h.codeTemplates.Generate(req.InputSchema)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(CodeTemplateResponse{Template: template})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Agentflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Agentflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
