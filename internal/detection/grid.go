package detection

import (
	"image"
	"sort"
)

// Ticket geometry. A physical ticket is always 3 rows by 6 columns; the
// segmenter enforces that shape even when detection is incomplete.
const (
	RowsPerTicket = 3
	ColsPerTicket = 6
)

// Clustering tolerances, expressed as fractions of the locally observed
// cell/row size so they hold across photo resolutions.
const (
	// rowCenterRatio: a component joins a row when its vertical center is
	// within this fraction of the row height of the row's center.
	rowCenterRatio = 0.5

	// ticketGapRatio: consecutive rows belong to the same ticket block when
	// the vertical gap between them is below this fraction of the row
	// height. Rows on one ticket (and stacked tickets) almost touch.
	ticketGapRatio = 0.2

	// columnMergeRatio: greedy 1-D clustering of cell x positions merges a
	// position into a column when it lies within this fraction of the
	// average cell width of the column's running mean.
	columnMergeRatio = 0.6

	// columnReuseRatio: a detected cell is reused for a target column when
	// its x is within this fraction of the average width of the column
	// center; otherwise a placeholder is synthesized.
	columnReuseRatio = 0.5

	// columnStepRatio: synthetic columns are spaced this many average cell
	// widths apart (one cell plus the grid line).
	columnStepRatio = 1.05
)

// Row is an ordered run of components sharing a vertical band. Y and H are
// taken from the first component assigned to the band.
type Row struct {
	Y     int
	H     int
	Cells []Component
}

func (r *Row) centerY() float64 { return float64(r.Y) + float64(r.H)/2 }

// Grid is the complete 3×6 cell layout of one ticket, with placeholder
// rectangles synthesized wherever detection was missing.
type Grid [RowsPerTicket][ColsPerTicket]Rect

// Ticket is a candidate physical ticket: exactly three contiguous rows and
// the interpolated grid derived from them.
type Ticket struct {
	Rows [RowsPerTicket]Row
	Grid Grid
}

// Bounds returns the union of the ticket's interpolated cells in source
// coordinates, for preview overlays.
func (t *Ticket) Bounds() image.Rectangle {
	out := t.Grid[0][0].ImageRect()
	for r := 0; r < RowsPerTicket; r++ {
		for c := 0; c < ColsPerTicket; c++ {
			out = out.Union(t.Grid[r][c].ImageRect())
		}
	}
	return out
}

// SegmentTickets clusters detected target squares into tickets.
//
// Components are clustered into horizontal rows, rows are chunked into
// blocks of almost-touching neighbors, and each block is split into
// consecutive groups of exactly three rows (recovering several physically
// touching tickets scanned as one contiguous block). Row groups smaller
// than three are dropped; droppedRows reports how many rows were lost that
// way so callers can surface the condition instead of hiding it.
//
// Every returned ticket carries a fully interpolated 3×6 grid.
func SegmentTickets(components []Component) (tickets []Ticket, droppedRows int) {
	rows := ClusterRows(components)
	if len(rows) == 0 {
		return nil, 0
	}

	flush := func(run []Row) {
		for len(run) >= RowsPerTicket {
			var t Ticket
			copy(t.Rows[:], run[:RowsPerTicket])
			t.Grid = InterpolateGrid(t.Rows)
			tickets = append(tickets, t)
			run = run[RowsPerTicket:]
		}
		droppedRows += len(run)
	}

	runStart := 0
	for i := 1; i < len(rows); i++ {
		prev := rows[i-1]
		gap := float64(rows[i].Y - (prev.Y + prev.H))
		if gap >= ticketGapRatio*float64(prev.H) {
			flush(rows[runStart:i])
			runStart = i
		}
	}
	flush(rows[runStart:])
	return tickets, droppedRows
}

// ClusterRows groups components into vertical bands.
//
// Components are visited top to bottom; each joins the first existing row
// whose center is within rowCenterRatio of the row height, else it starts a
// new row. Cells within a row come out sorted left to right and rows sorted
// top to bottom.
func ClusterRows(components []Component) []Row {
	sorted := make([]Component, len(components))
	copy(sorted, components)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })

	var rows []Row
	for _, c := range sorted {
		cy := float64(c.CenterY())
		placed := false
		for i := range rows {
			tol := rowCenterRatio * float64(rows[i].H)
			if d := cy - rows[i].centerY(); d < tol && d > -tol {
				rows[i].Cells = append(rows[i].Cells, c)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, Row{Y: c.Y, H: c.H, Cells: []Component{c}})
		}
	}

	for i := range rows {
		cells := rows[i].Cells
		sort.Slice(cells, func(a, b int) bool { return cells[a].X < cells[b].X })
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Y < rows[j].Y })
	return rows
}

// InterpolateGrid derives the complete 3×6 cell layout for one ticket.
//
// Cell sizes are pooled across the three rows into averages, cell x
// positions are clustered into candidate column centers, missing columns
// are synthesized at even spacing, and each (row, column) slot either
// reuses a detected cell near the column center or gets a placeholder sized
// from the averages. The result is exactly 3×6 regardless of how sparse
// detection was, and re-running interpolation on its own output reproduces
// the same columns.
func InterpolateGrid(rows [RowsPerTicket]Row) Grid {
	var sumW, sumH, n float64
	for _, row := range rows {
		for _, c := range row.Cells {
			sumW += float64(c.W)
			sumH += float64(c.H)
			n++
		}
	}
	if n == 0 {
		return Grid{}
	}
	avgW := sumW / n
	avgH := sumH / n

	xs := make([]float64, 0, int(n))
	for _, row := range rows {
		for _, c := range row.Cells {
			xs = append(xs, float64(c.X))
		}
	}
	centers := clusterColumns(xs, avgW)

	// Synthesize evenly spaced columns until exactly six exist; truncate
	// splinter clusters beyond the sixth.
	for len(centers) < ColsPerTicket {
		next := avgW
		if len(centers) > 0 {
			next = centers[len(centers)-1] + columnStepRatio*avgW
		}
		centers = append(centers, next)
	}
	centers = centers[:ColsPerTicket]

	var grid Grid
	for r, row := range rows {
		for c, center := range centers {
			if cell, ok := nearestCell(row.Cells, center, columnReuseRatio*avgW); ok {
				grid[r][c] = cell.Rect
				continue
			}
			grid[r][c] = Rect{
				X: int(center + 0.5),
				Y: row.Y,
				W: int(avgW + 0.5),
				H: int(avgH + 0.5),
			}
		}
	}
	return grid
}

// clusterColumns greedily clusters sorted x positions; positions within
// columnMergeRatio×avgW of a cluster's running mean merge into it.
func clusterColumns(xs []float64, avgW float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	sort.Float64s(xs)

	var centers []float64
	var clusterSum float64
	clusterLen := 0
	for _, x := range xs {
		if clusterLen > 0 && x-clusterSum/float64(clusterLen) < columnMergeRatio*avgW {
			clusterSum += x
			clusterLen++
			continue
		}
		if clusterLen > 0 {
			centers = append(centers, clusterSum/float64(clusterLen))
		}
		clusterSum = x
		clusterLen = 1
	}
	centers = append(centers, clusterSum/float64(clusterLen))
	return centers
}

// nearestCell returns the row cell closest to the column center, if any
// lies within the reuse tolerance.
func nearestCell(cells []Component, center, tol float64) (Component, bool) {
	best := -1
	bestDist := tol
	for i, c := range cells {
		d := float64(c.X) - center
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return Component{}, false
	}
	return cells[best], true
}
