package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/hybsim/internal/storage"
)

type Point struct {
	X, Y float64
	// Jump marks the first point after a reset.
	Jump bool
}

// PhasePortrait holds a 2D projection of a hybrid trajectory.
type PhasePortrait struct {
	XIndex, YIndex int
	Points         []Point
}

// NewPhasePortrait projects samples onto extended state indices xIdx and
// yIdx.
func NewPhasePortrait(samples []storage.Sample, xIdx, yIdx int) (*PhasePortrait, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty trajectory")
	}
	n := len(samples[0].X) + 2
	if xIdx < 0 || yIdx < 0 || xIdx >= n || yIdx >= n {
		return nil, fmt.Errorf("index out of range: state has %d extended components", n)
	}

	xs := storage.Column(samples, xIdx)
	ys := storage.Column(samples, yIdx)
	portrait := &PhasePortrait{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, len(samples)),
	}
	for i, s := range samples {
		portrait.Points[i] = Point{X: xs[i], Y: ys[i], Jump: s.Jumped}
	}
	return portrait, nil
}

// Segments splits the portrait into flow arcs. Each jump starts a new arc.
func (p *PhasePortrait) Segments() [][]Point {
	if p == nil || len(p.Points) == 0 {
		return nil
	}
	var segs [][]Point
	start := 0
	for i := 1; i < len(p.Points); i++ {
		if p.Points[i].Jump {
			segs = append(segs, p.Points[start:i])
			start = i
		}
	}
	return append(segs, p.Points[start:])
}

// Bounds returns the extent of the portrait with 10% padding on each side.
func (p *PhasePortrait) Bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX = min(minX, pt.X)
		maxX = max(maxX, pt.X)
		minY = min(minY, pt.Y)
		maxY = max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return minX - rangeX*0.1, maxX + rangeX*0.1, minY - rangeY*0.1, maxY + rangeY*0.1
}

// PhasePortraitToASCII renders flow points as dots and post-jump points as
// crosses.
func PhasePortraitToASCII(portrait *PhasePortrait, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := portrait.Bounds()
	rangeX := maxX - minX
	rangeY := maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	cell := func(x, y float64) (int, int) {
		col := int((x - minX) / rangeX * float64(width-1))
		row := height - 1 - int((y-minY)/rangeY*float64(height-1))
		return row, col
	}

	if minX <= 0 && maxX >= 0 {
		_, col := cell(0, minY)
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row, _ := cell(minX, 0)
		for col := 0; col < width; col++ {
			if canvas[row][col] == '│' {
				canvas[row][col] = '┼'
			} else {
				canvas[row][col] = '─'
			}
		}
	}

	for _, p := range portrait.Points {
		row, col := cell(p.X, p.Y)
		if row < 0 || row >= height || col < 0 || col >= width {
			continue
		}
		switch {
		case p.Jump:
			canvas[row][col] = '×'
		case canvas[row][col] != '×':
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// JumpEvent is a reset found in a trajectory.
type JumpEvent struct {
	T      float64
	J      int
	Before []float64
	After  []float64
}

// JumpEvents lists every reset with the physical state on both sides.
func JumpEvents(samples []storage.Sample) []JumpEvent {
	events := make([]JumpEvent, 0)
	for i := 1; i < len(samples); i++ {
		if !samples[i].Jumped {
			continue
		}
		events = append(events, JumpEvent{
			T:      samples[i].T,
			J:      samples[i].J,
			Before: samples[i-1].X,
			After:  samples[i].X,
		})
	}
	return events
}

// JumpTable formats events as aligned text, one line per jump.
func JumpTable(events []JumpEvent) string {
	if len(events) == 0 {
		return "No jumps recorded\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-4s %-12s %-28s %s\n", "j", "t", "before", "after")
	for _, e := range events {
		fmt.Fprintf(&sb, "%-4d %-12.6g %-28s %s\n", e.J, e.T, formatVec(e.Before), formatVec(e.After))
	}
	return sb.String()
}

func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4g", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
