package layout

import (
	"github.com/samber/lo"

	"netcanvas/internal/domain"
)

// GridConfig controls AutoArrange
type GridConfig struct {
	Columns       int     `yaml:"columns" json:"columns" validate:"gte=1"`
	ColumnSpacing float64 `yaml:"column_spacing" json:"columnSpacing" validate:"gt=0"`
	RowSpacing    float64 `yaml:"row_spacing" json:"rowSpacing" validate:"gt=0"`
	XOffset       float64 `yaml:"x_offset" json:"xOffset"`
	YOffset       float64 `yaml:"y_offset" json:"yOffset"`
}

// DefaultGrid returns the standard four-column grid
func DefaultGrid() GridConfig {
	return GridConfig{
		Columns:       4,
		ColumnSpacing: 250,
		RowSpacing:    200,
		XOffset:       100,
		YOffset:       100,
	}
}

// Cell returns the grid position of the index-th node
func (g GridConfig) Cell(index int) domain.Position {
	columns := g.Columns
	if columns < 1 {
		columns = 1
	}
	row, col := index/columns, index%columns
	return domain.Position{
		X: float64(col)*g.ColumnSpacing + g.XOffset,
		Y: float64(row)*g.RowSpacing + g.YOffset,
	}
}

// AutoArrange places nodes on the grid in slice order
func AutoArrange(nodes []domain.Node, grid GridConfig) map[string]domain.Position {
	positions := make(map[string]domain.Position, len(nodes))
	for i, n := range nodes {
		positions[n.ID] = grid.Cell(i)
	}
	return positions
}

// AlignHorizontally moves every node to the mean y of the set
func AlignHorizontally(nodes []domain.Node) map[string]domain.Position {
	if len(nodes) == 0 {
		return map[string]domain.Position{}
	}
	y := mean(lo.Map(nodes, func(n domain.Node, _ int) float64 { return n.Position.Y }))
	return lo.SliceToMap(nodes, func(n domain.Node) (string, domain.Position) {
		return n.ID, domain.Position{X: n.Position.X, Y: y}
	})
}

// AlignVertically moves every node to the mean x of the set
func AlignVertically(nodes []domain.Node) map[string]domain.Position {
	if len(nodes) == 0 {
		return map[string]domain.Position{}
	}
	x := mean(lo.Map(nodes, func(n domain.Node, _ int) float64 { return n.Position.X }))
	return lo.SliceToMap(nodes, func(n domain.Node) (string, domain.Position) {
		return n.ID, domain.Position{X: x, Y: n.Position.Y}
	})
}

// mean averages vs as a running weighted sum so finite inputs near the
// float64 limits stay finite
func mean(vs []float64) float64 {
	var m float64
	for i, v := range vs {
		n := float64(i + 1)
		m = m*(float64(i)/n) + v/n
	}
	return m
}

// Command names a bulk layout operation
type Command string

// Layout commands
const (
	CommandAutoArrange       Command = "auto-arrange"
	CommandAlignHorizontally Command = "align-horizontal"
	CommandAlignVertically   Command = "align-vertical"
)

// Valid reports whether c is a known command
func (c Command) Valid() bool {
	switch c {
	case CommandAutoArrange, CommandAlignHorizontally, CommandAlignVertically:
		return true
	}
	return false
}

// Apply runs command c over nodes
func (c Command) Apply(nodes []domain.Node, grid GridConfig) map[string]domain.Position {
	switch c {
	case CommandAutoArrange:
		return AutoArrange(nodes, grid)
	case CommandAlignHorizontally:
		return AlignHorizontally(nodes)
	case CommandAlignVertically:
		return AlignVertically(nodes)
	}
	return map[string]domain.Position{}
}
