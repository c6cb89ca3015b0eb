package valueobjects

// StyleOrigin records which component last assigned an edge style, so the
// component can later undo exactly its own changes.
type StyleOrigin string

const (
	StyleOriginDefault        StyleOrigin = ""
	StyleOriginChainHighlight StyleOrigin = "chain-highlight"
)

const (
	DefaultEdgeColor   = "rgb(102, 178, 255)"
	HighlightEdgeColor = "rgb(255, 255, 255)"
)

// EdgeStyle is the visual style of an edge
type EdgeStyle struct {
	Stroke          string
	StrokeWidth     float64
	StrokeDasharray string
	Animated        bool
	Origin          StyleOrigin
}

// DefaultEdgeStyle is the style every edge kind starts with
func DefaultEdgeStyle() EdgeStyle {
	return EdgeStyle{Stroke: DefaultEdgeColor, StrokeWidth: 2}
}

// ChainHighlightStyle marks an edge as part of a traced chain
func ChainHighlightStyle() EdgeStyle {
	return EdgeStyle{
		Stroke:          HighlightEdgeColor,
		StrokeWidth:     4,
		StrokeDasharray: "5,5",
		Animated:        true,
		Origin:          StyleOriginChainHighlight,
	}
}

// IsZero reports whether no style has been assigned
func (s EdgeStyle) IsZero() bool {
	return s == EdgeStyle{}
}
