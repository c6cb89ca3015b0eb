package valueobjects

import (
	"fmt"
	"strconv"
	"strings"

	pkgerrors "cognitivediary/pkg/errors"
)

// NodeID identifies a node within a graph. Allocated ids are decimal
// integers; ids loaded from storage may be arbitrary strings.
type NodeID string

// NewNodeID validates a node id
func NewNodeID(value string) (NodeID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", pkgerrors.NewValidation("node id cannot be empty")
	}
	return NodeID(value), nil
}

// String returns the raw id
func (id NodeID) String() string {
	return string(id)
}

// Numeric parses the id as a base-10 integer.
func (id NodeID) Numeric() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NodeIDFromInt formats an allocated sequence number as a NodeID.
func NodeIDFromInt(n int64) NodeID {
	return NodeID(strconv.FormatInt(n, 10))
}

// EdgeID identifies an edge. Ids derived from kind and endpoints double as
// deduplication keys.
type EdgeID string

// NewEdgeID validates an edge id
func NewEdgeID(value string) (EdgeID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", pkgerrors.NewValidation("edge id cannot be empty")
	}
	return EdgeID(value), nil
}

// String returns the raw id
func (id EdgeID) String() string {
	return string(id)
}

// DeriveEdgeID builds the canonical id for an edge of the given prefix.
// User-drawn edges use the compact "e<src>-<tgt>" form of the starter graph.
func DeriveEdgeID(prefix string, source, target NodeID) EdgeID {
	if prefix == "e" {
		return EdgeID(fmt.Sprintf("e%s-%s", source, target))
	}
	return EdgeID(fmt.Sprintf("%s-%s-%s", prefix, source, target))
}
