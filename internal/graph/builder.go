// Package graph derives the renderable correlation view of an entity
// profile: one center node, one satellite per related entity, center-to-
// satellite edges only. Building is pure and deterministic; nothing here is
// persisted.
package graph

import (
	"fmt"
	"math"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
)

// Radius is the layout distance from the center node to every satellite, in
// the same abstract units presentation layers scale to their canvas.
const Radius = 120.0

// labelMax bounds node labels for display; longer identifiers are elided.
const labelMax = 15

// Build derives the correlation graph for a profile. Satellite order equals
// the profile's RelatedEntities order; satellite i of n sits at angle 2πi/n
// on the layout circle. A profile with no related entities yields a graph
// with a single node and zero edges.
func Build(p schemas.EntityProfile) schemas.CorrelationGraph {
	g := schemas.CorrelationGraph{
		Center: schemas.GraphNode{
			ID:         p.ID,
			Identifier: p.Identifier,
			Label:      elide(p.Identifier),
			Type:       p.Type,
			Confidence: 1,
			Bucket:     schemas.BucketHigh,
		},
		Satellites: make([]schemas.GraphNode, 0, len(p.RelatedEntities)),
		Edges:      make([]schemas.GraphEdge, 0, len(p.RelatedEntities)),
	}

	n := len(p.RelatedEntities)
	for i, ref := range p.RelatedEntities {
		angle := 2 * math.Pi * float64(i) / float64(n)
		node := schemas.GraphNode{
			ID:         fmt.Sprintf("%s/related/%d", p.ID, i),
			Identifier: ref.Identifier,
			Label:      elide(ref.Identifier),
			Type:       ref.Type,
			Confidence: ref.Confidence,
			Bucket:     schemas.BucketFor(ref.Confidence),
			X:          Radius * math.Cos(angle),
			Y:          Radius * math.Sin(angle),
		}
		g.Satellites = append(g.Satellites, node)
		g.Edges = append(g.Edges, schemas.GraphEdge{
			From:       g.Center.ID,
			To:         node.ID,
			Confidence: ref.Confidence,
		})
	}
	return g
}

// elide truncates on rune boundaries so multibyte identifiers (IDNs,
// non-Latin usernames) never yield an invalid-UTF-8 label.
func elide(s string) string {
	runes := []rune(s)
	if len(runes) <= labelMax {
		return s
	}
	return string(runes[:labelMax]) + "..."
}
