package geometry

import "math"

// PolygonArea returns the enclosed area of a closed polygon via the
// shoelace formula.
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	area := 0.0
	for i, a := range pts {
		b := pts[(i+1)%len(pts)]
		area += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(area) / 2.0
}

// PolygonPerimeter returns the closed-polygon perimeter.
func PolygonPerimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	per := 0.0
	for i, a := range pts {
		per += a.Dist(pts[(i+1)%len(pts)])
	}
	return per
}

// SimplifyPolygon reduces the number of points in a polygon using the
// Douglas-Peucker algorithm with the given tolerance epsilon.
// The polygon is treated as closed: after the open-polyline pass the
// remaining vertices are pruned cyclically, so the arbitrary trace start
// point does not survive as a spurious vertex on an otherwise straight edge.
func SimplifyPolygon(pts []Point, epsilon float64) []Point {
	if len(pts) <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}
	open := append([]Point(nil), pts...)
	keep := make([]bool, len(open))
	dpSimplify(open, 0, len(open)-1, epsilon, keep)
	keep[0] = true
	keep[len(open)-1] = true
	out := make([]Point, 0, len(open))
	for i, k := range keep {
		if k {
			out = append(out, open[i])
		}
	}
	return pruneCyclic(out, epsilon)
}

// pruneCyclic removes vertices lying within eps of the chord between their
// cyclic neighbors, repeating until stable.
func pruneCyclic(pts []Point, eps float64) []Point {
	for len(pts) > 3 {
		removed := false
		for i := 0; i < len(pts); i++ {
			prev := pts[(i+len(pts)-1)%len(pts)]
			next := pts[(i+1)%len(pts)]
			if perpendicularDistance(pts[i], prev, next) <= eps {
				pts = append(pts[:i], pts[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			break
		}
	}
	return pts
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a := pts[start]
	b := pts[end]
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		dpSimplify(pts, start, index, eps, keep)
		keep[index] = true
		dpSimplify(pts, index, end, eps, keep)
	}
}

func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return p.Dist(a)
	}
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	den := math.Hypot(vx, vy)
	return num / den
}

// IsConvexPolygon reports whether the polygon is convex, treating
// collinear triples as permitted.
func IsConvexPolygon(pts []Point) bool {
	n := len(pts)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		a := pts[i]
		b := pts[(i+1)%n]
		c := pts[(i+2)%n]
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
