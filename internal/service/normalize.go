package service

import (
	"fmt"
	"math"

	"github.com/haruki/vecdex/internal/domain"
)

// Normalize converts a raw embedding of arbitrary width into a unit-norm
// vector of exactly targetDimension components. The same transformation runs
// at ingestion and at query time; cosine ordering is only meaningful when
// both sides went through it.
//
// Width equal to the target passes straight to L2 normalization. Wider
// vectors are reduced by contiguous weighted chunks (see reduceByChunks).
// Narrower vectors are rejected: upscaling is not defined.
func Normalize(raw []float32, targetDimension int) ([]float32, error) {
	if err := domain.ValidateDimension(targetDimension); err != nil {
		return nil, err
	}
	if len(raw) < targetDimension {
		return nil, fmt.Errorf("%w: raw width %d is narrower than target %d",
			domain.ErrUnsupportedReduction, len(raw), targetDimension)
	}

	vec := raw
	if len(raw) > targetDimension {
		vec = reduceByChunks(raw, targetDimension)
	}
	return l2Normalize(vec)
}

// reduceByChunks partitions the raw vector into target contiguous chunks.
// Chunk sizes differ by at most one; the remainder goes to the first chunks.
// Each output component is the chunk mean scaled by the chunk's RMS energy
// (norm over sqrt of size), which keeps total energy roughly stable across
// provider widths.
func reduceByChunks(raw []float32, target int) []float32 {
	base := len(raw) / target
	remainder := len(raw) % target

	out := make([]float32, target)
	idx := 0
	for i := 0; i < target; i++ {
		size := base
		if i < remainder {
			size++
		}
		chunk := raw[idx : idx+size]
		idx += size

		var sum, sumSq float64
		for _, v := range chunk {
			sum += float64(v)
			sumSq += float64(v) * float64(v)
		}
		mean := sum / float64(size)

		norm := math.Sqrt(sumSq)
		if norm > 0 {
			out[i] = float32(mean * (norm / math.Sqrt(float64(size))))
		} else {
			out[i] = float32(mean)
		}
	}
	return out
}

// l2Normalize scales a vector to unit Euclidean norm.
func l2Normalize(vec []float32) ([]float32, error) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return nil, fmt.Errorf("%w: zero-norm vector cannot be normalized", domain.ErrDegenerateVector)
	}

	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out, nil
}
