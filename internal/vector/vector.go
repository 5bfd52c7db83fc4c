// Package vector implements spec §3 "Embedding" and the vector-sort
// ranking rule's similarity computation. No vector-similarity library
// appears anywhere in the retrieval pack (checked teacher, erigon,
// cuemby-warren, and every other_examples/manifests/*/go.mod), and cosine
// similarity over a fixed-dimension float slice is a handful of arithmetic
// lines — not a concern that would justify a dependency the corpus never
// reaches for (see DESIGN.md).
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Embedding is a fixed-dimension float vector for one (DocumentId,
// embedder-name) pair (spec §3). UserProvided embeddings are supplied by
// the caller and never regenerated by indexing.
type Embedding struct {
	Values       []float32
	UserProvided bool
}

// Encode serializes an embedding as a user-provided flag byte followed by
// big-endian float32 components.
func Encode(e Embedding) []byte {
	out := make([]byte, 1+4*len(e.Values))
	if e.UserProvided {
		out[0] = 1
	}
	for i, v := range e.Values {
		binary.BigEndian.PutUint32(out[1+4*i:], math.Float32bits(v))
	}
	return out
}

// Decode is the inverse of Encode.
func Decode(b []byte) (Embedding, error) {
	if len(b) < 1 || (len(b)-1)%4 != 0 {
		return Embedding{}, fmt.Errorf("vector: malformed embedding payload")
	}
	e := Embedding{UserProvided: b[0] == 1}
	n := (len(b) - 1) / 4
	e.Values = make([]float32, n)
	for i := 0; i < n; i++ {
		e.Values[i] = math.Float32frombits(binary.BigEndian.Uint32(b[1+4*i:]))
	}
	return e, nil
}

// CosineSimilarity returns the cosine similarity of a and b in [-1, 1], or
// 0 if either vector has zero magnitude. Dimension mismatch is a caller
// bug (an embedder's dimension is fixed at settings time); it returns 0
// rather than panicking so a single malformed embedding can't crash a
// whole ranking pass.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
