package imgproc

import (
	"github.com/schliweb/docscan/internal/geometry"
)

// compStats carries per-component statistics gathered during labeling.
type compStats struct {
	minX, minY int
	maxX, maxY int
	area       int
}

// FindContours labels the connected components of the nonzero pixels
// (8-connectivity) and traces the outer boundary polygon of each. Only
// external contours are produced; holes are ignored. Collinear runs are
// merged so axis-aligned shapes come back with few vertices.
func FindContours(b *Gray) [][]geometry.Point {
	w, h := b.Width, b.Height
	labels := make([]int, w*h)
	var stats []compStats

	next := 1
	queue := make([]int, 0, 256)
	for idx := range b.Pix {
		if b.Pix[idx] == 0 || labels[idx] != 0 {
			continue
		}
		st := compStats{minX: idx % w, minY: idx / w, maxX: idx % w, maxY: idx / w}
		labels[idx] = next
		queue = append(queue[:0], idx)
		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			cx, cy := cur%w, cur/w
			st.area++
			if cx < st.minX {
				st.minX = cx
			}
			if cy < st.minY {
				st.minY = cy
			}
			if cx > st.maxX {
				st.maxX = cx
			}
			if cy > st.maxY {
				st.maxY = cy
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := cx+dx, cy+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if b.Pix[nidx] != 0 && labels[nidx] == 0 {
						labels[nidx] = next
						queue = append(queue, nidx)
					}
				}
			}
		}
		stats = append(stats, st)
		next++
	}

	contours := make([][]geometry.Point, 0, len(stats))
	for label, st := range stats {
		pts := traceMoore(labels, w, h, label+1, st)
		if len(pts) >= 3 {
			contours = append(contours, pts)
		}
	}
	return contours
}

// mooreOffsets enumerates the 8-neighborhood clockwise starting from west.
var mooreOffsets = [8][2]int{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// traceMoore extracts the outer boundary of the labeled component using
// Moore-neighbor tracing with Jacob's stopping criterion.
func traceMoore(labels []int, w, h, label int, st compStats) []geometry.Point {
	sx, sy := findStartPixel(labels, w, label, st)
	if sx < 0 {
		return nil
	}

	pts := make([]geometry.Point, 0, 64)
	addPoint := func(x, y int) {
		p := geometry.Point{X: float64(x), Y: float64(y)}
		n := len(pts)
		if n >= 2 {
			a, b := pts[n-2], pts[n-1]
			cross := (b.X-a.X)*(p.Y-b.Y) - (b.Y-a.Y)*(p.X-b.X)
			if cross == 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}

	cx, cy := sx, sy
	entry := 0 // arrived from the west
	addPoint(cx, cy)

	maxSteps := 4*w*h + 8
	for rangeIdx := 0; rangeIdx < maxSteps; rangeIdx++ {
		found := false
		// Scan clockwise from the pixel after the entry direction.
		for i := 1; i <= 8; i++ {
			d := (entry + i) % 8
			nx, ny := cx+mooreOffsets[d][0], cy+mooreOffsets[d][1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			if labels[ny*w+nx] == label {
				// Re-enter the new pixel from the direction opposite the
				// last empty neighbor examined.
				entry = (d + 5) % 8
				cx, cy = nx, ny
				found = true
				break
			}
		}
		if !found {
			// Isolated pixel
			break
		}
		if cx == sx && cy == sy {
			break
		}
		addPoint(cx, cy)
	}

	// Drop a duplicated closing point if present.
	if len(pts) >= 2 {
		first, last := pts[0], pts[len(pts)-1]
		if first.X == last.X && first.Y == last.Y {
			pts = pts[:len(pts)-1]
		}
	}
	return pts
}

func findStartPixel(labels []int, w, label int, st compStats) (int, int) {
	for y := st.minY; y <= st.maxY; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if labels[y*w+x] == label {
				return x, y
			}
		}
	}
	return -1, -1
}
