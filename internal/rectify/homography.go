package rectify

import "github.com/schliweb/docscan/internal/geometry"

// computeHomography computes the 3x3 matrix H mapping p[i] -> q[i],
// returned row-major as [9]float64 with h22 fixed to 1.
func computeHomography(p, q [4]geometry.Point) ([9]float64, bool) {
	// Build the 8x8 system A*h = b for the 8 unknowns (h00..h21).
	A := [8][8]float64{}
	b := [8]float64{}
	for i := 0; i < 4; i++ {
		X, Y := p[i].X, p[i].Y
		x, y := q[i].X, q[i].Y
		r := 2 * i
		// x' = (h00 X + h01 Y + h02)/(h20 X + h21 Y + 1)
		A[r][0] = X
		A[r][1] = Y
		A[r][2] = 1
		A[r][6] = -X * x
		A[r][7] = -Y * x
		b[r] = x

		// y' = (h10 X + h11 Y + h12)/(h20 X + h21 Y + 1)
		A[r+1][3] = X
		A[r+1][4] = Y
		A[r+1][5] = 1
		A[r+1][6] = -X * y
		A[r+1][7] = -Y * y
		b[r+1] = y
	}

	h, ok := solve8x8(A, b)
	if !ok {
		return [9]float64{}, false
	}
	return [9]float64{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, true
}

// solve8x8 solves the linear system by Gaussian elimination with partial
// pivoting.
func solve8x8(a [8][8]float64, b [8]float64) ([8]float64, bool) {
	matrix := a
	vector := b

	for col := 0; col < 8; col++ {
		pivot := findPivotRow(matrix, col)
		if pivot == -1 {
			return [8]float64{}, false
		}
		if pivot != col {
			matrix[col], matrix[pivot] = matrix[pivot], matrix[col]
			vector[col], vector[pivot] = vector[pivot], vector[col]
		}
		div := matrix[col][col]
		for c := col; c < 8; c++ {
			matrix[col][c] /= div
		}
		vector[col] /= div
		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			factor := matrix[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c < 8; c++ {
				matrix[r][c] -= factor * matrix[col][c]
			}
			vector[r] -= factor * vector[col]
		}
	}
	return vector, true
}

func findPivotRow(matrix [8][8]float64, col int) int {
	maxAbs := abs(matrix[col][col])
	pivot := col
	for r := col + 1; r < 8; r++ {
		if abs(matrix[r][col]) > maxAbs {
			maxAbs = abs(matrix[r][col])
			pivot = r
		}
	}
	if maxAbs == 0 {
		return -1
	}
	return pivot
}

func applyHomography(h [9]float64, x, y float64) (float64, float64) {
	denom := h[6]*x + h[7]*y + h[8]
	if denom == 0 {
		return -1e9, -1e9
	}
	sx := (h[0]*x + h[1]*y + h[2]) / denom
	sy := (h[3]*x + h[4]*y + h[5]) / denom
	return sx, sy
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
