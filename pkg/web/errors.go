package web

import (
	"errors"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/registry"
	"github.com/genagent/agentflow/pkg/services"
	"github.com/genagent/agentflow/pkg/tools"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// Problem is an RFC 7807 document with an optional list of individual
// problems, e.g. every skipped edge of a rejected workflow.
type Problem struct {
	*problems.Problem

	Errors []string `json:"errors,omitempty"`
}

func writeProblem(c fiber.Ctx, status int, problemType, detail string, details []string) error {
	problem := Problem{
		Problem: problems.NewStatusProblem(status).
			WithInstance(c.Path()).
			WithType(problemType).
			WithDetail(detail),
		Errors: details,
	}

	return c.Status(status).JSON(problem)
}

func badRequest(c fiber.Ctx, detail string) error {
	return writeProblem(c, fiber.StatusBadRequest, "validation_error", detail, nil)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	return writeProblem(c, fiber.StatusNotFound, problemType, detail, nil)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		problemType := "validation_error"

		var serviceErr *services.ServiceError
		if errors.As(err, &serviceErr) && serviceErr.Code == "MALFORMED_DOCUMENT" {
			problemType = "malformed_document"
		}

		return writeProblem(c, fiber.StatusBadRequest, problemType, err.Error(), services.ErrorDetails(err))

	case document.IsParseError(err):
		var parseErr *document.ParseError
		errors.As(err, &parseErr)

		return writeProblem(c, fiber.StatusBadRequest, "malformed_document", err.Error(), parseErr.Details)

	case services.IsNotFoundError(err):
		return notFound(c, "workflow_not_found", "workflow not found")

	case errors.Is(err, registry.ErrRegistryNotPopulated):
		return writeProblem(c, fiber.StatusInternalServerError, "registry_not_populated", err.Error(), nil)

	case registry.IsUnknownNodeType(err):
		return notFound(c, "node_type_not_found", err.Error())

	case errors.Is(err, tools.ErrExecutorNotConfigured):
		return writeProblem(c, fiber.StatusNotImplemented, "executor_not_configured", err.Error(), nil)

	case errors.Is(err, tools.ErrHTTPServerError):
		return writeProblem(c, fiber.StatusBadGateway, "tool_upstream_error", err.Error(), nil)

	default:
		problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
