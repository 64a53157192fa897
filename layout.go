package smartflow

// Layout places newly created nodes. index is the number of nodes already
// stored in the flow.
type Layout interface {
	Place(index int) (x, y float64)
}

// GridLayout fills a grid row by row.
type GridLayout struct {
	Columns   int
	Width     float64
	Height    float64
	Margin    float64
	TopOffset float64
}

// DefaultGridLayout returns a three-column grid sized for 240x120 nodes.
func DefaultGridLayout() GridLayout {
	return GridLayout{Columns: 3, Width: 240, Height: 120, Margin: 24, TopOffset: 110}
}

// Place returns the position of the index-th node, filling rows left to
// right.
func (g GridLayout) Place(index int) (x, y float64) {
	cols := g.Columns
	if cols <= 0 {
		cols = 1
	}
	col, row := index%cols, index/cols
	x = g.Margin + float64(col)*(g.Width+g.Margin*2)
	y = g.TopOffset + float64(row)*(g.Height+g.Margin*2)
	return x, y
}
