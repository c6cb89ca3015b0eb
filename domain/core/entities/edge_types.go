package entities

// EdgeKind records how an edge came to exist
type EdgeKind string

const (
	// EdgeKindUserDrawn is a connection made by hand
	EdgeKindUserDrawn EdgeKind = "user"

	// EdgeKindEnrichment links a node to the answer generated for it
	EdgeKindEnrichment EdgeKind = "enrichment"

	// EdgeKindChainEnrichment links a node to the answer generated from its whole chain
	EdgeKindChainEnrichment EdgeKind = "chain_enrichment"
)

// IsValid checks if the edge kind is valid
func (k EdgeKind) IsValid() bool {
	switch k {
	case EdgeKindUserDrawn, EdgeKindEnrichment, EdgeKindChainEnrichment:
		return true
	default:
		return false
	}
}

// String returns the string representation of the edge kind
func (k EdgeKind) String() string {
	return string(k)
}

// IDPrefix is the namespace used when deriving edge ids of this kind
func (k EdgeKind) IDPrefix() string {
	switch k {
	case EdgeKindEnrichment:
		return "llm"
	case EdgeKindChainEnrichment:
		return "chain"
	default:
		return "e"
	}
}
