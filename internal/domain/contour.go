package domain

import "fmt"

// Mask is a binary segmentation mask stored row-major
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates an empty mask
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// MaskFromRuns decodes run-length counts that alternate background and
// foreground, starting with a background run
func MaskFromRuns(width, height int, counts []int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid mask size %dx%d", width, height)
	}
	m := NewMask(width, height)
	pos := 0
	for i, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("negative run length at %d", i)
		}
		if pos+n > len(m.Bits) {
			return nil, fmt.Errorf("runs exceed mask size %dx%d", width, height)
		}
		if i%2 == 1 {
			for j := pos; j < pos+n; j++ {
				m.Bits[j] = true
			}
		}
		pos += n
	}
	return m, nil
}

// At reports whether (x, y) is foreground. Out of range is background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set marks (x, y) as foreground or background
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Bits[y*m.Width+x] = v
}

// Area returns the number of foreground pixels
func (m *Mask) Area() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// clockwise neighbourhood in image coordinates (y grows downwards), starting west
var ring = [8]Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

func ringIndex(d Point) int {
	for i, r := range ring {
		if r == d {
			return i
		}
	}
	return -1
}

// MaskToPolygon extracts the external contour of the largest 8-connected
// foreground region. Other regions and holes are ignored; on equal areas the
// region found first in raster order wins. Straight runs are collapsed to their
// end points. The result may have fewer than MinPolygonVertices vertices.
func MaskToPolygon(m *Mask) []Point {
	if m == nil || m.Width <= 0 || m.Height <= 0 || len(m.Bits) != m.Width*m.Height {
		return nil
	}

	labels, start := largestRegion(m)
	if labels == nil {
		return nil
	}
	label := labels[start.Y*m.Width+start.X]
	inRegion := func(p Point) bool {
		if p.X < 0 || p.Y < 0 || p.X >= m.Width || p.Y >= m.Height {
			return false
		}
		return labels[p.Y*m.Width+p.X] == label
	}

	return simplifyContour(traceBoundary(start, inRegion, 4*len(m.Bits)+8))
}

// largestRegion labels 8-connected regions and returns the labels together with
// the first pixel, in raster order, of the largest region
func largestRegion(m *Mask) ([]int, Point) {
	labels := make([]int, len(m.Bits))
	var (
		next      = 0
		bestArea  = 0
		bestStart Point
		queue     []Point
	)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.Bits[y*m.Width+x] || labels[y*m.Width+x] != 0 {
				continue
			}
			next++
			area := 0
			labels[y*m.Width+x] = next
			queue = append(queue[:0], Point{x, y})
			for len(queue) > 0 {
				p := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				area++
				for _, d := range ring {
					q := Point{p.X + d.X, p.Y + d.Y}
					if !m.At(q.X, q.Y) || labels[q.Y*m.Width+q.X] != 0 {
						continue
					}
					labels[q.Y*m.Width+q.X] = next
					queue = append(queue, q)
				}
			}
			if area > bestArea {
				bestArea = area
				bestStart = Point{x, y}
			}
		}
	}

	if bestArea == 0 {
		return nil, Point{}
	}
	return labels, bestStart
}

// traceBoundary follows the outer boundary clockwise with Moore-neighbour
// tracing. start must be the first region pixel in raster order, so its west
// neighbour is background. Tracing stops when the walk re-enters start in the
// same direction it first left it.
func traceBoundary(start Point, inRegion func(Point) bool, limit int) []Point {
	step := func(p Point, back int) (Point, int, bool) {
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			q := Point{p.X + ring[d].X, p.Y + ring[d].Y}
			if !inRegion(q) {
				continue
			}
			prev := ring[(back+i-1)%8]
			prev = Point{p.X + prev.X - q.X, p.Y + prev.Y - q.Y}
			return q, ringIndex(prev), true
		}
		return Point{}, 0, false
	}

	contour := []Point{start}
	p, back := start, 0
	var firstNext Point
	for iter := 0; iter < limit; iter++ {
		q, nb, ok := step(p, back)
		if !ok {
			// isolated pixel
			break
		}
		if iter == 0 {
			firstNext = q
		} else if p == start && q == firstNext {
			break
		}
		contour = append(contour, q)
		p, back = q, nb
	}

	if n := len(contour); n > 1 && contour[n-1] == start {
		contour = contour[:n-1]
	}
	return contour
}

// simplifyContour drops vertices lying in the middle of a straight run
func simplifyContour(c []Point) []Point {
	n := len(c)
	if n < 3 {
		return c
	}
	out := make([]Point, 0, n)
	for i := range c {
		prev := c[(i-1+n)%n]
		next := c[(i+1)%n]
		d1 := Point{c[i].X - prev.X, c[i].Y - prev.Y}
		d2 := Point{next.X - c[i].X, next.Y - c[i].Y}
		if d1 == d2 {
			continue
		}
		out = append(out, c[i])
	}
	return out
}
