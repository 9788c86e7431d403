package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/registry"
)

// SkippedItem is a node or edge left out while loading a document.
type SkippedItem struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`

	err error
}

// LoadReport lists what Deserialize could not load.
type LoadReport struct {
	SkippedNodes []SkippedItem `json:"skipped_nodes"`
	SkippedEdges []SkippedItem `json:"skipped_edges"`
}

// Clean reports whether every node and edge was loaded.
func (r *LoadReport) Clean() bool {
	return len(r.SkippedNodes) == 0 && len(r.SkippedEdges) == 0
}

// Err joins every skip reason, or returns nil for a clean load.
func (r *LoadReport) Err() error {
	errs := make([]error, 0, len(r.SkippedNodes)+len(r.SkippedEdges))

	for _, item := range r.SkippedNodes {
		errs = append(errs, fmt.Errorf("node %s: %w", item.ID, item.err))
	}

	for _, item := range r.SkippedEdges {
		errs = append(errs, fmt.Errorf("edge %s: %w", item.ID, item.err))
	}

	return errors.Join(errs...)
}

func (r *LoadReport) skipNode(id string, err error) {
	r.SkippedNodes = append(r.SkippedNodes, SkippedItem{ID: id, Reason: err.Error(), err: err})
}

func (r *LoadReport) skipEdge(id string, err error) {
	r.SkippedEdges = append(r.SkippedEdges, SkippedItem{ID: id, Reason: err.Error(), err: err})
}

// Serialize converts a graph into a document.
func Serialize(g *graph.Graph) (*Document, error) {
	nodes := g.Nodes()
	edges := g.Edges()

	doc := &Document{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Version:     g.Version,
		Nodes:       make([]NodeDocument, 0, len(nodes)),
		Edges:       make([]EdgeDocument, 0, len(edges)),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}

	for _, node := range nodes {
		data, err := json.Marshal(node.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize node %s: %w", node.ID, err)
		}

		doc.Nodes = append(doc.Nodes, NodeDocument{
			ID:       node.ID,
			Type:     node.Type,
			Position: node.Position,
			Data:     data,
			Selected: node.Selected,
			Dragging: node.Dragging,
		})
	}

	for _, edge := range edges {
		doc.Edges = append(doc.Edges, EdgeDocument{
			ID:           edge.ID,
			Source:       edge.Source,
			Target:       edge.Target,
			SourceHandle: edge.SourceHandle,
			TargetHandle: edge.TargetHandle,
			Data:         edge.Data,
			Selected:     edge.Selected,
		})
	}

	return doc, nil
}

// Deserialize rebuilds a graph from a document. Every node is recreated by its
// node type so derived handles are recomputed. Nodes of unknown types, or with
// data their type rejects, are skipped and reported; so are edges the graph
// refuses. An error is returned only when the catalog is unusable.
func Deserialize(doc *Document, catalog graph.Catalog, opts ...graph.Option) (*graph.Graph, *LoadReport, error) {
	g := graph.New(catalog, opts...)
	report := &LoadReport{
		SkippedNodes: make([]SkippedItem, 0),
		SkippedEdges: make([]SkippedItem, 0),
	}

	g.ID = doc.ID
	g.Name = doc.Name
	g.Description = doc.Description
	g.CreatedAt = doc.CreatedAt
	g.UpdatedAt = doc.UpdatedAt

	if doc.Version != "" {
		g.Version = doc.Version
	}

	for _, nd := range doc.Nodes {
		data, err := catalog.DecodeData(nd.Type, nd.Data)
		if errors.Is(err, registry.ErrRegistryNotPopulated) {
			return nil, nil, err
		}

		if err != nil {
			report.skipNode(nd.ID, err)
			continue
		}

		node, err := catalog.Instantiate(nd.Type, nd.ID, nd.Position, data)
		if err != nil {
			report.skipNode(nd.ID, err)
			continue
		}

		node.Selected = nd.Selected
		node.Dragging = nd.Dragging

		err = g.InsertNode(node)
		if err != nil {
			report.skipNode(nd.ID, err)
		}
	}

	for _, ed := range doc.Edges {
		verdict := g.InsertEdge(ed.toEdge())
		if !verdict.Accepted {
			report.skipEdge(ed.ID, verdict.Err())
		}
	}

	return g, report, nil
}
