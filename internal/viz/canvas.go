package viz

import (
	"strings"

	"github.com/san-kum/hybsim/internal/analysis"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBase = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in sub-pixel coordinates. The canvas is
// Width*2 by Height*4 dots.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Clear resets every cell to the empty pattern.
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Viewport maps world coordinates onto the canvas dot grid.
type Viewport struct {
	MinX, MaxX, MinY, MaxY float64
}

func (v Viewport) project(c *Canvas, x, y float64) (int, int) {
	w := float64(c.Width*2 - 1)
	h := float64(c.Height*4 - 1)
	rx := v.MaxX - v.MinX
	ry := v.MaxY - v.MinY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	px := (x - v.MinX) / rx * w
	py := h - (y-v.MinY)/ry*h
	return int(px + 0.5), int(py + 0.5)
}

// PlotPath connects consecutive points and lifts the pen at every jump, so
// a reset shows as a gap rather than a line.
func (c *Canvas) PlotPath(points []analysis.Point, v Viewport) {
	for i, p := range points {
		x1, y1 := v.project(c, p.X, p.Y)
		if i == 0 || p.Jump {
			c.Set(x1, y1)
			continue
		}
		x0, y0 := v.project(c, points[i-1].X, points[i-1].Y)
		c.DrawLine(x0, y0, x1, y1)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
