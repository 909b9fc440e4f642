package poly

// Evaluate computes Sum_{i} coeffs[i] * x^i using Horner's scheme.
// An empty coefficient slice is the zero polynomial. Overflow for large |x|
// or high degree is not guarded against.
func Evaluate(x float64, coeffs []float64) float64 {
	var y float64
	for i := len(coeffs) - 1; i >= 0; i-- {
		y = y*x + coeffs[i]
	}
	return y
}
