package poly

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Genome is a candidate solution: Sum_{i} Genome[i] * x^i.
// Index i holds the coefficient of the degree-i term.
type Genome []float64

// Degree returns the polynomial degree the genome encodes (-1 for an empty genome).
func (g Genome) Degree() int {
	return len(g) - 1
}

// Clone returns an independent copy of the genome.
func (g Genome) Clone() Genome {
	if g == nil {
		return nil
	}
	c := make(Genome, len(g))
	copy(c, g)
	return c
}

// Equal reports whether two genomes hold the same coefficients.
// -0 and +0 compare equal; NaN compares equal to NaN so that Equal agrees with Key.
func (g Genome) Equal(other Genome) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if g[i] != other[i] && !(math.IsNaN(g[i]) && math.IsNaN(other[i])) {
			return false
		}
	}
	return true
}

// Key returns a value key for the genome: two genomes share a key iff Equal.
func (g Genome) Key() string {
	buf := make([]byte, 8*len(g))
	for i, c := range g {
		binary.LittleEndian.PutUint64(buf[8*i:], canonicalBits(c))
	}
	return string(buf)
}

func canonicalBits(f float64) uint64 {
	switch {
	case f == 0:
		return 0 // folds -0 into +0
	case math.IsNaN(f):
		return math.Float64bits(math.NaN())
	default:
		return math.Float64bits(f)
	}
}

// String returns a human-readable representation, lowest degree first.
func (g Genome) String() string {
	if len(g) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, c := range g {
		writeTerm(&b, i, c, func(i int) string {
			switch i {
			case 0:
				return ""
			case 1:
				return "*x"
			default:
				return fmt.Sprintf("*x^%d", i)
			}
		})
	}
	return b.String()
}

// LaTeX returns a LaTeX representation.
func (g Genome) LaTeX() string {
	if len(g) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, c := range g {
		writeTerm(&b, i, c, func(i int) string {
			switch i {
			case 0:
				return ""
			case 1:
				return "x"
			default:
				return fmt.Sprintf("x^{%d}", i)
			}
		})
	}
	return b.String()
}

func writeTerm(b *strings.Builder, i int, c float64, power func(int) string) {
	if i == 0 {
		fmt.Fprintf(b, "%.4f%s", c, power(i))
		return
	}
	if c < 0 {
		fmt.Fprintf(b, " - %.4f%s", -c, power(i))
	} else {
		fmt.Fprintf(b, " + %.4f%s", c, power(i))
	}
}
