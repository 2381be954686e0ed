package mapview

import (
	"math"
	"strings"
	"sync"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Zoom range of the canvas.
const (
	MinZoom = 1
	MaxZoom = 19
)

// A terminal cell covers this many Web Mercator pixels. Cells are about
// twice as tall as they are wide.
const (
	CellWidthPx  = 8
	CellHeightPx = 16
	tileSize     = 256
)

// CellKind classifies what a rendered cell shows.
type CellKind int

// Cell kinds, in increasing draw priority.
const (
	CellEmpty CellKind = iota
	CellLine
	CellMarker
	CellCompleted
	CellPending
)

// Cell is one rendered terminal cell.
type Cell struct {
	Rune rune
	Kind CellKind
}

type canvasLine struct {
	path []types.LatLng
	kind LineKind
}

// Canvas is a Widget that rasterizes the map into terminal cells using the
// Web Mercator projection. It is safe for concurrent use.
type Canvas struct {
	mu      sync.Mutex
	width   int
	height  int
	center  types.LatLng
	zoom    int
	next    Handle
	markers map[Handle]Marker
	lines   map[Handle]canvasLine
	onClick func(types.LatLng)
	// animate records whether the last SetView asked for animation.
	animate bool
}

// NewCanvas returns a width x height cell canvas centred on center.
func NewCanvas(width, height int, center types.LatLng, zoom int) *Canvas {
	return &Canvas{
		width:   max(width, 1),
		height:  max(height, 1),
		center:  center,
		zoom:    clampZoom(zoom),
		markers: map[Handle]Marker{},
		lines:   map[Handle]canvasLine{},
	}
}

func clampZoom(z int) int { return min(max(z, MinZoom), MaxZoom) }

func worldSize(zoom int) float64 { return tileSize * math.Exp2(float64(zoom)) }

// project maps p to world pixel coordinates at zoom.
func project(p types.LatLng, zoom int) (x, y float64) {
	size := worldSize(zoom)
	lat := math.Max(math.Min(p.Lat, 85.05112878), -85.05112878) * math.Pi / 180
	x = (p.Lng + 180) / 360 * size
	y = (1 - math.Log(math.Tan(lat)+1/math.Cos(lat))/math.Pi) / 2 * size
	return x, y
}

// unproject reverses project.
func unproject(x, y float64, zoom int) types.LatLng {
	size := worldSize(zoom)
	lng := x/size*360 - 180
	n := math.Pi - 2*math.Pi*y/size
	lat := 180 / math.Pi * math.Atan(math.Sinh(n))
	return types.LatLng{Lat: lat, Lng: lng}
}

// cellOf returns the cell holding p. The result may lie outside the canvas.
func (c *Canvas) cellOf(p types.LatLng) (col, row int) {
	cx, cy := project(c.center, c.zoom)
	x, y := project(p, c.zoom)
	col = int(math.Floor((x-cx)/CellWidthPx + float64(c.width)/2))
	row = int(math.Floor((y-cy)/CellHeightPx + float64(c.height)/2))
	return col, row
}

// AddMarker implements Widget.
func (c *Canvas) AddMarker(m Marker) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.markers[c.next] = m
	return c.next
}

// RemoveMarker implements Widget.
func (c *Canvas) RemoveMarker(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.markers, h)
}

// AddLine implements Widget.
func (c *Canvas) AddLine(path []types.LatLng, kind LineKind) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.lines[c.next] = canvasLine{path: append([]types.LatLng(nil), path...), kind: kind}
	return c.next
}

// RemoveLine implements Widget.
func (c *Canvas) RemoveLine(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, h)
}

// SetView implements Widget. A terminal redraws in one frame, so animate
// is only recorded.
func (c *Canvas) SetView(p types.LatLng, zoom int, animate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center = p
	c.zoom = clampZoom(zoom)
	c.animate = animate
}

// FitBounds implements Widget. It picks the deepest zoom at which b, plus
// the padding, fits the canvas.
func (c *Canvas) FitBounds(b geo.Bounds, paddingPx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	availW := float64(c.width*CellWidthPx - 2*paddingPx)
	availH := float64(c.height*CellHeightPx - 2*paddingPx)
	zoom := MinZoom
	for z := MaxZoom; z >= MinZoom; z-- {
		x0, y0 := project(types.LatLng{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng}, z)
		x1, y1 := project(types.LatLng{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng}, z)
		if x1-x0 <= availW && y1-y0 <= availH {
			zoom = z
			break
		}
	}
	x0, y0 := project(types.LatLng{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng}, zoom)
	x1, y1 := project(types.LatLng{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng}, zoom)
	c.center = unproject((x0+x1)/2, (y0+y1)/2, zoom)
	c.zoom = zoom
	c.animate = false
}

// OnClick implements Widget.
func (c *Canvas) OnClick(fn func(types.LatLng)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClick = fn
}

// Click reports the coordinate under cell (col, row) to the registered
// handler and returns it. The second result is false outside the canvas.
func (c *Canvas) Click(col, row int) (types.LatLng, bool) {
	c.mu.Lock()
	if col < 0 || row < 0 || col >= c.width || row >= c.height {
		c.mu.Unlock()
		return types.LatLng{}, false
	}
	p := c.unprojectCellLocked(col, row)
	fn := c.onClick
	c.mu.Unlock()

	if fn != nil {
		fn(p)
	}
	return p, true
}

// unprojectCellLocked returns the coordinate at the centre of a cell.
func (c *Canvas) unprojectCellLocked(col, row int) types.LatLng {
	cx, cy := project(c.center, c.zoom)
	x := cx + (float64(col)+0.5-float64(c.width)/2)*CellWidthPx
	y := cy + (float64(row)+0.5-float64(c.height)/2)*CellHeightPx
	return unproject(x, y, c.zoom)
}

// Resize changes the canvas size in cells.
func (c *Canvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = max(width, 1), max(height, 1)
}

// Pan moves the view by whole cells.
func (c *Canvas) Pan(cols, rows int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cx, cy := project(c.center, c.zoom)
	c.center = unproject(cx+float64(cols*CellWidthPx), cy+float64(rows*CellHeightPx), c.zoom)
}

// Zoom changes the zoom level by delta, keeping the centre.
func (c *Canvas) Zoom(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = clampZoom(c.zoom + delta)
}

// View returns the current centre and zoom.
func (c *Canvas) View() (types.LatLng, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.center, c.zoom
}

// Counts returns the number of markers and lines on the canvas.
func (c *Canvas) Counts() (markers, lines int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.markers), len(c.lines)
}

// Cells rasterizes the canvas, row by row.
func (c *Canvas) Cells() [][]Cell {
	c.mu.Lock()
	defer c.mu.Unlock()

	grid := make([][]Cell, c.height)
	for r := range grid {
		grid[r] = make([]Cell, c.width)
		for col := range grid[r] {
			grid[r][col] = Cell{Rune: ' ', Kind: CellEmpty}
		}
	}
	put := func(col, row int, cell Cell) {
		if row < 0 || row >= c.height || col < 0 || col >= c.width {
			return
		}
		if grid[row][col].Kind <= cell.Kind {
			grid[row][col] = cell
		}
	}

	for _, l := range c.lines {
		r := '·'
		if l.kind == LineRouted || l.kind == LineStored {
			r = '•'
		}
		for i := 1; i < len(l.path); i++ {
			c0, r0 := c.cellOf(l.path[i-1])
			c1, r1 := c.cellOf(l.path[i])
			bresenham(c0, r0, c1, r1, func(x, y int) { put(x, y, Cell{Rune: r, Kind: CellLine}) })
		}
	}
	for _, m := range c.markers {
		col, row := c.cellOf(m.Position)
		kind := CellMarker
		switch m.Kind {
		case MarkerCompleted:
			kind = CellCompleted
		case MarkerPending:
			kind = CellPending
		}
		label := []rune(m.Label)
		if len(label) == 0 {
			label = []rune{'o'}
		}
		for i, ch := range label {
			put(col+i, row, Cell{Rune: ch, Kind: kind})
		}
	}
	return grid
}

// Render returns the canvas as plain text, one line per row.
func (c *Canvas) Render() string {
	cells := c.Cells()
	var b strings.Builder
	for i, row := range cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, cell := range row {
			b.WriteRune(cell.Rune)
		}
	}
	return b.String()
}

// bresenham visits every cell on the line from (x0, y0) to (x1, y1).
// Lines longer than maxSteps cells are not drawn.
func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	if dx > maxSteps || -dy > maxSteps {
		return
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

const maxSteps = 1 << 14

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
