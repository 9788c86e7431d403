package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownNodeType indicates a node type id that is not in the catalog.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrRegistryNotPopulated indicates the catalog was used before anything was
	// registered. This is a programmer error, not a user error.
	ErrRegistryNotPopulated = errors.New("node type registry is not populated")
)

// UnknownTypeError reports the node type that could not be resolved.
type UnknownTypeError struct {
	TypeID string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("node type '%s' not registered", e.TypeID)
}

func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownNodeType
}

// IsUnknownNodeType checks if an error indicates an unregistered node type.
func IsUnknownNodeType(err error) bool {
	return errors.Is(err, ErrUnknownNodeType)
}
