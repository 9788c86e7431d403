// Package main provides the agentflow API server implementation.
package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/genagent/agentflow/pkg/eventbus"
	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/persistence"
	"github.com/genagent/agentflow/pkg/registry"
	"github.com/genagent/agentflow/pkg/services"
	"github.com/genagent/agentflow/pkg/tools"
	"github.com/genagent/agentflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	executor    tools.Executor
	tracer      trace.Tracer
	schemaMode  graph.SchemaMode
	validate    *validator.Validate
}

type Option func(*API)

// WithToolRunner forwards tests of every tool kind except api to the runner
// at baseURL. Without it only api tools can be tested.
func WithToolRunner(baseURL string) Option {
	return func(a *API) {
		if baseURL == "" {
			return
		}

		remote := tools.NewRemote(baseURL, nil)
		router := tools.NewRouter().
			Register(tools.NewAPICall(a.logger), tools.KindAPI).
			Register(remote, tools.KindPython, tools.KindKnowledgeBase, tools.KindSlack, tools.KindZendesk)
		a.executor = router
	}
}

func WithExecutor(executor tools.Executor) Option {
	return func(a *API) {
		a.executor = executor
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(a *API) {
		a.tracer = tracer
	}
}

func WithSchemaMode(mode graph.SchemaMode) Option {
	return func(a *API) {
		a.schemaMode = mode
	}
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	opts ...Option,
) *API {
	a := &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		eventBus:    eventBus,
		schemaMode:  graph.SchemaModePermissive,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}

	a.executor = tools.NewRouter().Register(tools.NewAPICall(logger), tools.KindAPI)

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *API) App() *fiber.App {
	workflowOpts := []services.WorkflowOption{
		services.WithLogger(a.logger),
		services.WithSchemaMode(a.schemaMode),
	}
	if a.eventBus != nil {
		workflowOpts = append(workflowOpts, services.WithEventPublisher(a.eventBus))
	}

	if a.tracer != nil {
		workflowOpts = append(workflowOpts, services.WithTracer(a.tracer))
	}

	workflowService := services.NewWorkflow(a.persistence, a.registry, workflowOpts...)
	nodeTester := services.NewNodeTester(a.registry, a.executor, a.tracer, a.logger)
	codeTemplates := services.NewCodeTemplates()

	handlers := web.NewAPIHandlers(workflowService, nodeTester, codeTemplates, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.Status(http.StatusOK).SendString("Agentflow API")
	})

	handlers.Routes(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
