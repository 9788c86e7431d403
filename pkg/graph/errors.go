package graph

import (
	"errors"
	"fmt"
)

var (
	ErrNodeNotFound           = errors.New("node not found")
	ErrEdgeNotFound           = errors.New("edge not found")
	ErrDuplicateNodeID        = errors.New("duplicate node id")
	ErrSourceNodeNotFound     = errors.New("source node not found")
	ErrTargetNodeNotFound     = errors.New("target node not found")
	ErrSourceHandleNotFound   = errors.New("source handle not found")
	ErrTargetHandleNotFound   = errors.New("target handle not found")
	ErrInvalidHandleDirection = errors.New("invalid handle direction")
	ErrIncompatibleHandles    = errors.New("incompatible handles")
	ErrSchemaMismatch         = errors.New("handle schemas are not compatible")
	ErrDuplicateEdge          = errors.New("edge already exists")
	ErrInvalidPatch           = errors.New("invalid node data patch")
	ErrInvariantViolation     = errors.New("graph invariant violated")
)

// ConnectionRejectedError describes why a proposed edge was refused.
type ConnectionRejectedError struct {
	Source string
	Target string
	Err    error
	Detail string
}

func (e *ConnectionRejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cannot connect %s to %s: %v: %s", e.Source, e.Target, e.Err, e.Detail)
	}

	return fmt.Sprintf("cannot connect %s to %s: %v", e.Source, e.Target, e.Err)
}

func (e *ConnectionRejectedError) Unwrap() error {
	return e.Err
}

// IsConnectionRejected checks if an error is a refused connection.
func IsConnectionRejected(err error) bool {
	var rejected *ConnectionRejectedError

	return errors.As(err, &rejected)
}
