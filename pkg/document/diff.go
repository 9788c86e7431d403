package document

import (
	"bytes"
	"encoding/json"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// structural ignores editor flags, server timestamps and identity. Node data
// is compared by value, so key order and whitespace do not count.
var structural = []cmp.Option{
	cmpopts.IgnoreFields(Document{}, "ID", "Version", "CreatedAt", "UpdatedAt"),
	cmpopts.IgnoreFields(NodeDocument{}, "Selected", "Dragging"),
	cmpopts.IgnoreFields(EdgeDocument{}, "Selected"),
	cmpopts.EquateEmpty(),
	cmp.Transformer("data", decodeRaw),
}

// Diff reports whether two documents differ in name, description, nodes or
// edges.
func Diff(a, b *Document) bool {
	if a == nil || b == nil {
		return a != b
	}

	return !cmp.Equal(a, b, structural...)
}

// Changes describes the structural difference between two documents, or
// returns an empty string when there is none.
func Changes(a, b *Document) string {
	return cmp.Diff(a, b, structural...)
}

func decodeRaw(raw json.RawMessage) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var v any

	err := json.Unmarshal(trimmed, &v)
	if err != nil {
		return string(raw)
	}

	return v
}
