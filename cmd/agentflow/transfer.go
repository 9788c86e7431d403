package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/services"
	"github.com/robfig/cron/v3"
)

const exportPageSize = 100

var ErrUnsupportedFormat = errors.New("unsupported export format")

// importFile stores the document at path as a new workflow.
func importFile(ctx context.Context, svc *services.Workflow, path string) (*document.Document, error) {
	doc, err := readWorkflowFile(path)
	if err != nil {
		return nil, err
	}

	return svc.Create(ctx, doc)
}

// exportAll writes every stored workflow to <outDir>/<id>.<format> and
// returns how many were written. format is json or yaml.
func exportAll(ctx context.Context, svc *services.Workflow, outDir, format string) (int, error) {
	encode, err := encoderFor(ctx, svc, format)
	if err != nil {
		return 0, err
	}

	err = os.MkdirAll(outDir, 0750)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	written := 0

	for offset := 0; ; offset += exportPageSize {
		page, err := svc.ListWorkflows(ctx, services.ListWorkflowsRequest{
			Limit:     exportPageSize,
			Offset:    offset,
			SortBy:    "created_at",
			SortOrder: "asc",
		})
		if err != nil {
			return written, err
		}

		for _, summary := range page.Workflows {
			body, err := encode(summary.ID)
			if err != nil {
				return written, fmt.Errorf("failed to export workflow %s: %w", summary.ID, err)
			}

			err = os.WriteFile(filepath.Join(outDir, summary.ID+"."+format), body, 0600)
			if err != nil {
				return written, fmt.Errorf("failed to write workflow %s: %w", summary.ID, err)
			}

			written++
		}

		if !page.HasNextPage {
			return written, nil
		}
	}
}

func encoderFor(ctx context.Context, svc *services.Workflow, format string) (func(id string) ([]byte, error), error) {
	switch format {
	case "json":
		return func(id string) ([]byte, error) {
			return svc.Export(ctx, id)
		}, nil
	case "yaml":
		return func(id string) ([]byte, error) {
			doc, err := svc.FetchByID(ctx, id)
			if err != nil {
				return nil, err
			}

			return document.EncodeYAML(doc)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// scheduleExport runs exportAll on schedule until ctx is done. Runs never
// overlap; a run still going when the next tick fires is skipped.
func scheduleExport(ctx context.Context, logger *slog.Logger, schedule string, svc *services.Workflow, outDir, format string) error {
	_, err := cron.ParseStandard(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression '%s': %w", schedule, err)
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	entryID, err := c.AddFunc(schedule, func() {
		count, err := exportAll(ctx, svc, outDir, format)
		if err != nil {
			logger.ErrorContext(ctx, "Scheduled export failed", "error", err, "exported", count)

			return
		}

		logger.InfoContext(ctx, "Scheduled export completed", "exported", count, "out", outDir)
	})
	if err != nil {
		return fmt.Errorf("failed to add export job: %w", err)
	}

	logger.InfoContext(ctx, "Export scheduled", "cron", schedule, "entry_id", entryID)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}
