// Package layout computes node positions for the topology canvas.
//
// Settle pushes overlapping nodes apart after a drag ends. The arrange
// commands reposition a set of nodes deterministically and are applied
// without a settle pass.
package layout

import (
	"math"

	"netcanvas/internal/domain"
)

// DefaultMinDistance is the separation Settle enforces between node centers
const DefaultMinDistance = 150.0

// SettleStats counts the work done by one settle pass
type SettleStats struct {
	PairsChecked   int `json:"pairsChecked"`
	PairsCorrected int `json:"pairsCorrected"`
}

// SettleResult holds the positions of displaced nodes only
type SettleResult struct {
	Positions map[string]domain.Position `json:"positions"`
	Stats     SettleStats                `json:"stats"`
}

// Moved reports whether the pass displaced any node
func (r SettleResult) Moved() bool {
	return len(r.Positions) > 0
}

// Settle runs one pairwise separation pass over nodes.
//
// Pairs (i, j) with i < j are visited in slice order. A pair closer than
// minDistance is pushed apart along the line joining them, each node taking
// half of the deficit. Later pairs see positions already corrected earlier
// in the same pass. The pass is not repeated, so three or more mutually
// close nodes may remain under-separated.
func Settle(nodes []domain.Node, minDistance float64) SettleResult {
	if minDistance <= 0 {
		minDistance = DefaultMinDistance
	}

	result := SettleResult{Positions: make(map[string]domain.Position)}
	positions := make([]domain.Position, len(nodes))
	for i, n := range nodes {
		positions[i] = n.Position
	}

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			result.Stats.PairsChecked++

			a, b := positions[i], positions[j]
			d := a.DistanceTo(b)
			if d >= minDistance {
				continue
			}

			ux, uy := 1.0, 0.0
			if d > 0 {
				angle := math.Atan2(a.Y-b.Y, a.X-b.X)
				ux, uy = math.Cos(angle), math.Sin(angle)
			}

			push := (minDistance - d) / 2
			positions[i] = a.Add(ux*push, uy*push)
			positions[j] = b.Add(-ux*push, -uy*push)

			result.Positions[nodes[i].ID] = positions[i]
			result.Positions[nodes[j].ID] = positions[j]
			result.Stats.PairsCorrected++
		}
	}

	return result
}
