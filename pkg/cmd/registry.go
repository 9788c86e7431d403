// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/genagent/agentflow/pkg/registry"
)

func registerNodePlugins(ctx context.Context, reg *registry.Registry, pluginsPath string) error {
	nodePlugins, err := reg.LoadNodePlugins(ctx, pluginsPath)
	if err != nil {
		return fmt.Errorf("failed to load node plugins: %w", err)
	}

	for _, plugin := range nodePlugins {
		reg.Register(plugin)
	}

	return nil
}

// NewRegistry returns a registry holding the built-in node types followed by
// any node types found under pluginsPath. Plugins replace built-ins with the
// same ID.
func NewRegistry(ctx context.Context, log *slog.Logger, pluginsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultNodes()

	if pluginsPath == "" {
		return reg, nil
	}

	err := registerNodePlugins(ctx, reg, pluginsPath)
	if err != nil {
		return nil, err
	}

	return reg, nil
}
