package domain

import (
	"math"

	"github.com/Vovarama1992/grenades/internal/models"
)

// ClusterRadius is the grouping distance in percent of the map image.
const ClusterRadius = 3.0

type Side int

const (
	ThrowPointSide Side = iota
	LandingPointSide
)

func (s Side) String() string {
	if s == LandingPointSide {
		return "landing"
	}
	return "throw"
}

func (s Side) point(t models.GrenadeThrow) models.Point {
	if s == LandingPointSide {
		return t.LandingPoint()
	}
	return t.ThrowPoint()
}

// Cluster is one marker on the map. Position is the position of the throw that
// opened the cluster, not a centroid.
type Cluster struct {
	Position models.Point          `json:"position"`
	Throws   []models.GrenadeThrow `json:"throws"`
}

func distance(a, b models.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// GroupNearbyThrows groups throws whose side points lie within ClusterRadius of
// the throw that opens each group. The pass is greedy and follows input order:
// two throws near a common neighbour but not near each other may land in
// different clusters.
func GroupNearbyThrows(throws []models.GrenadeThrow, side Side) []Cluster {
	clusters := make([]Cluster, 0, len(throws))
	assigned := make([]bool, len(throws))

	for i, current := range throws {
		if assigned[i] {
			continue
		}
		pos := side.point(current)

		var members []models.GrenadeThrow
		for j, other := range throws {
			if assigned[j] {
				continue
			}
			if distance(pos, side.point(other)) <= ClusterRadius {
				members = append(members, other)
				assigned[j] = true
			}
		}

		clusters = append(clusters, Cluster{Position: pos, Throws: members})
	}
	return clusters
}
