package service

import (
	"errors"
	"math"
	"testing"

	"github.com/haruki/vecdex/internal/domain"
)

func vectorNorm(vec []float32) float64 {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	return math.Sqrt(sumSq)
}

func TestNormalizeEqualWidth(t *testing.T) {
	raw := []float32{3, 4}

	out, err := Normalize(raw, 2)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("output width = %d, want 2", len(out))
	}
	// 3-4-5 triangle: unit vector is (0.6, 0.8)
	if math.Abs(float64(out[0])-0.6) > 1e-6 || math.Abs(float64(out[1])-0.8) > 1e-6 {
		t.Errorf("output = %v, want [0.6 0.8]", out)
	}
}

func TestNormalizeUnitNorm(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		target int
	}{
		{"same width", 8, 8},
		{"even reduction", 16, 4},
		{"uneven reduction", 10, 3},
		{"large reduction", 1024, 64},
		{"reduce to one", 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := make([]float32, tt.width)
			for i := range raw {
				raw[i] = float32(i%7) - 2.5
			}

			out, err := Normalize(raw, tt.target)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if len(out) != tt.target {
				t.Fatalf("output width = %d, want %d", len(out), tt.target)
			}
			if norm := vectorNorm(out); math.Abs(norm-1) > 1e-5 {
				t.Errorf("output norm = %f, want 1", norm)
			}
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	raw := make([]float32, 100)
	for i := range raw {
		raw[i] = float32(math.Sin(float64(i)))
	}

	a, err := Normalize(raw, 16)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	b, err := Normalize(raw, 16)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("component %d differs between runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestNormalizeRejectsNarrowerInput(t *testing.T) {
	_, err := Normalize([]float32{1, 2, 3}, 8)
	if !errors.Is(err, domain.ErrUnsupportedReduction) {
		t.Errorf("err = %v, want ErrUnsupportedReduction", err)
	}
}

func TestNormalizeRejectsZeroVector(t *testing.T) {
	_, err := Normalize(make([]float32, 12), 4)
	if !errors.Is(err, domain.ErrDegenerateVector) {
		t.Errorf("err = %v, want ErrDegenerateVector", err)
	}
}

func TestNormalizeRejectsBadDimension(t *testing.T) {
	for _, target := range []int{0, -1, domain.MaxDimension + 1} {
		_, err := Normalize([]float32{1, 2, 3, 4}, target)
		if !errors.Is(err, domain.ErrInvalidDimension) {
			t.Errorf("target %d: err = %v, want ErrInvalidDimension", target, err)
		}
	}
}

func TestReduceByChunksPartitioning(t *testing.T) {
	// 10 components into 3 chunks: sizes 4, 3, 3. A vector that is constant
	// within each chunk reduces to each chunk's value scaled by its energy.
	raw := []float32{2, 2, 2, 2, 5, 5, 5, -1, -1, -1}

	out := reduceByChunks(raw, 3)
	if len(out) != 3 {
		t.Fatalf("output width = %d, want 3", len(out))
	}

	// For a constant chunk of value v and size n: mean=v, norm=|v|*sqrt(n),
	// so the component is v*|v|.
	want := []float64{4, 25, -1}
	for i, w := range want {
		if math.Abs(float64(out[i])-w) > 1e-5 {
			t.Errorf("component %d = %f, want %f", i, out[i], w)
		}
	}
}

func TestNormalizePreservesCosineForScaledInputs(t *testing.T) {
	raw := []float32{1, -2, 3, 4, -5, 6, 7, 8}
	scaled := make([]float32, len(raw))
	for i, v := range raw {
		scaled[i] = v * 10
	}

	a, err := Normalize(raw, 4)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	b, err := Normalize(scaled, 4)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if math.Abs(dot-1) > 1e-5 {
		t.Errorf("cosine between scaled inputs = %f, want 1", dot)
	}
}
