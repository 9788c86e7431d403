package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"

	"github.com/genagent/agentflow/pkg/protocol"
)

const nodePluginSymbol = "NodeType"

// LoadNodePlugins opens every shared object under <pluginsPath>/nodes and
// returns the node types they export as the NodeType symbol.
func (r *Registry) LoadNodePlugins(ctx context.Context, pluginsPath string) ([]protocol.NodeType, error) {
	return loadPlugin[protocol.NodeType](ctx, r.logger, pluginsPath, "nodes", nodePluginSymbol)
}

func loadPlugin[T any](ctx context.Context, logger *slog.Logger, pluginsPath, dir, symbolName string) ([]T, error) {
	rootPath := filepath.Join(pluginsPath, dir)

	pluginPathList, err := fs.Glob(os.DirFS(rootPath), "*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", rootPath), slog.String("symbol", symbolName))
	l.InfoContext(ctx, "Loading plugins", "count", len(pluginPathList))

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(filepath.Join(rootPath, p))
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s does not export %s: %w", p, symbolName, err)
		}

		switch castV := v.(type) {
		case T:
			pluginList = append(pluginList, castV)
		case *T:
			pluginList = append(pluginList, *castV)
		default:
			return nil, fmt.Errorf("plugin %s: symbol %s has unexpected type %T", p, symbolName, v)
		}

		l.InfoContext(ctx, "Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
