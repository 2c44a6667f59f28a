package schemas

// -- Correlation Graph Schemas --

// ConfidenceBucket is the coarse confidence class presentation layers use to
// color a satellite node. Confidence strictly above 0.7 is high; everything
// else is medium.
type ConfidenceBucket string

const (
	BucketHigh   ConfidenceBucket = "high"
	BucketMedium ConfidenceBucket = "medium"
)

// BucketFor maps a confidence score to its bucket.
func BucketFor(confidence float64) ConfidenceBucket {
	if confidence > 0.7 {
		return BucketHigh
	}
	return BucketMedium
}

// GraphNode is a renderable node of a correlation graph. X and Y are layout
// coordinates on the unit circle scaled by the builder's radius, with the
// center node at the origin.
type GraphNode struct {
	ID         string           `json:"id"`
	Identifier string           `json:"identifier"`
	Label      string           `json:"label"`
	Type       EntityType       `json:"type"`
	Confidence float64          `json:"confidence"`
	Bucket     ConfidenceBucket `json:"bucket"`
	X          float64          `json:"x"`
	Y          float64          `json:"y"`
}

// GraphEdge connects the center node to one satellite. The core never emits
// satellite-to-satellite edges.
type GraphEdge struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Confidence float64 `json:"confidence"`
}

// CorrelationGraph is the derived, renderable view of an entity profile and
// its related entities. It is computed on demand and never persisted.
type CorrelationGraph struct {
	Center     GraphNode   `json:"center"`
	Satellites []GraphNode `json:"satellites"`
	Edges      []GraphEdge `json:"edges"`
}
