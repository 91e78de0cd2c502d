package geometry

import "math"

// Quad is an ordered quadrilateral approximating a document boundary.
// Canonical corner order is top-left, top-right, bottom-right, bottom-left.
// A Quad is a pure value; transformations return new instances.
type Quad [4]Point

// QuadFromPoints builds a Quad from exactly four points. The second return
// value is false when len(pts) != 4.
func QuadFromPoints(pts []Point) (Quad, bool) {
	if len(pts) != 4 {
		return Quad{}, false
	}
	var q Quad
	copy(q[:], pts)
	return q, true
}

// Points returns the corners as a fresh slice.
func (q Quad) Points() []Point {
	out := make([]Point, 4)
	copy(out, q[:])
	return out
}

// SortCanonical reorders the corners into canonical order. Top-left is the
// corner minimizing x+y, bottom-right maximizes x+y, top-right minimizes
// y-x and bottom-left maximizes y-x. The operation is idempotent.
func (q Quad) SortCanonical() Quad {
	tl, tr, br, bl := q[0], q[0], q[0], q[0]
	for _, p := range q {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.Y-p.X < tr.Y-tr.X {
			tr = p
		}
		if p.Y-p.X > bl.Y-bl.X {
			bl = p
		}
	}
	return Quad{tl, tr, br, bl}
}

// Area returns the enclosed area via the shoelace formula.
func (q Quad) Area() float64 {
	area := 0.0
	for i := 0; i < 4; i++ {
		a := q[i]
		b := q[(i+1)%4]
		area += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(area) / 2.0
}

// MinSide returns the length of the shortest side.
func (q Quad) MinSide() float64 {
	minSide := math.Inf(1)
	for i := 0; i < 4; i++ {
		d := q[i].Dist(q[(i+1)%4])
		if d < minSide {
			minSide = d
		}
	}
	return minSide
}

// AvgWidth returns the mean of the top and bottom side lengths.
func (q Quad) AvgWidth() float64 {
	return (q[0].Dist(q[1]) + q[3].Dist(q[2])) / 2.0
}

// AvgHeight returns the mean of the left and right side lengths.
func (q Quad) AvgHeight() float64 {
	return (q[1].Dist(q[2]) + q[0].Dist(q[3])) / 2.0
}

// Bounds returns the axis-aligned bounding box of the corners.
func (q Quad) Bounds() Box {
	return BoundingBox(q[:])
}

// Offset returns the quad translated by dx, dy.
func (q Quad) Offset(dx, dy float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = p.Offset(dx, dy)
	}
	return out
}

// Scale returns the quad scaled by sx, sy.
func (q Quad) Scale(sx, sy float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = p.Scale(sx, sy)
	}
	return out
}

// Valid reports whether the quad encloses a positive area.
func (q Quad) Valid() bool {
	return q.Area() > 0
}

// IsConvex reports whether the corners form a convex polygon in their
// current order.
func (q Quad) IsConvex() bool {
	sign := 0
	for i := 0; i < 4; i++ {
		a := q[i]
		b := q[(i+1)%4]
		c := q[(i+2)%4]
		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		if cross == 0 {
			continue
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return sign != 0
}

// Lerp blends the quad toward prev per corner: alpha*q + (1-alpha)*prev.
func (q Quad) Lerp(prev Quad, alpha float64) Quad {
	var out Quad
	for i := 0; i < 4; i++ {
		out[i] = Point{
			X: alpha*q[i].X + (1-alpha)*prev[i].X,
			Y: alpha*q[i].Y + (1-alpha)*prev[i].Y,
		}
	}
	return out
}
