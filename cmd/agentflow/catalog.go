package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/registry"
)

// printCatalog writes one row per node type, optionally limited to category.
func printCatalog(w io.Writer, reg *registry.Registry, category string) error {
	nodeTypes := reg.Available()
	if category != "" {
		nodeTypes = reg.ListByCategory(models.Category(category))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, err := fmt.Fprintln(tw, "TYPE\tLABEL\tCATEGORY")
	if err != nil {
		return err
	}

	for _, nodeType := range nodeTypes {
		_, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", nodeType.ID(), nodeType.Label(), nodeType.Category())
		if err != nil {
			return err
		}
	}

	return tw.Flush()
}
