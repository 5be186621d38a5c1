package router

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
)

// EmbeddingDim is the fixed vector width the semantic router uses
// throughout (spec §4.3 step 1, "D=384").
const EmbeddingDim = 384

// Embed produces a deterministic, reproducible 384-dim embedding of text.
// There is no off-the-shelf embedding model in the example pack; this
// resolves the spec's sibling Open Question (§9) the same way — a
// documented, swappable, deterministic function — by hashing overlapping
// word shingles into a fixed-width bag-of-features vector and L2-normalizing
// it. Two calls with the same text always produce the same vector (spec §8
// property 6, "Router determinism").
func Embed(text string) []float64 {
	vec := make([]float64, EmbeddingDim)
	tokens := tokenize(text)
	for _, tok := range tokens {
		idx, sign := featureHash(tok)
		vec[idx] += sign
	}
	// Bigram shingles carry phrase-level signal a pure bag-of-words misses.
	for i := 0; i+1 < len(tokens); i++ {
		idx, sign := featureHash(tokens[i] + "_" + tokens[i+1])
		vec[idx] += sign
	}
	normalize(vec)
	return vec
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	out := fields[:0:0]
	for _, f := range fields {
		if len(f) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// featureHash maps a token to a (dimension, sign) pair using FNV-1a, the
// standard "feature hashing" trick: the hash modulo EmbeddingDim selects the
// dimension and bit 32 selects the sign, keeping the projection unbiased in
// expectation.
func featureHash(tok string) (int, float64) {
	h := fnv.New64a()
	h.Write([]byte(tok))
	sum := h.Sum64()
	idx := int(sum % uint64(EmbeddingDim))
	sign := 1.0
	if (sum>>32)&1 == 1 {
		sign = -1.0
	}
	return idx, sign
}

func normalize(vec []float64) {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] /= norm
	}
}

// CosineSimilarity returns the cosine similarity of two equal-length
// vectors, 0 if either is the zero vector.
func CosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TriadProfile is one triad's precomputed semantic fingerprint: the mean
// embedding of its description plus its example prompts (spec §4.3 step 1
// "Pre-compute per-triad embeddings from a corpus").
type TriadProfile struct {
	TriadID     string
	Description string
	Examples    []string

	centroid []float64
}

// NewTriadProfile builds a profile and eagerly computes its centroid.
func NewTriadProfile(triadID, description string, examples []string) TriadProfile {
	p := TriadProfile{TriadID: triadID, Description: description, Examples: examples}
	p.centroid = p.computeCentroid()
	return p
}

func (p TriadProfile) computeCentroid() []float64 {
	texts := make([]string, 0, len(p.Examples)+1)
	if p.Description != "" {
		texts = append(texts, p.Description)
	}
	texts = append(texts, p.Examples...)
	if len(texts) == 0 {
		return make([]float64, EmbeddingDim)
	}

	sum := make([]float64, EmbeddingDim)
	for _, t := range texts {
		v := Embed(t)
		for i := range sum {
			sum[i] += v[i]
		}
	}
	for i := range sum {
		sum[i] /= float64(len(texts))
	}
	normalize(sum)
	return sum
}

// Candidate is one triad's score in a semantic ranking.
type Candidate struct {
	TriadID string
	Score   float64
}

// SemanticRoute scores prompt against every profile and returns candidates
// ranked highest-score first (spec §4.3 step 1 "Return ranked list").
func SemanticRoute(prompt string, profiles []TriadProfile) []Candidate {
	v := Embed(prompt)
	candidates := make([]Candidate, 0, len(profiles))
	for _, p := range profiles {
		candidates = append(candidates, Candidate{TriadID: p.TriadID, Score: CosineSimilarity(v, p.centroid)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// ThresholdDecision is the outcome of spec §4.3 step 2: either an immediate
// route, or an escalation to LLM disambiguation carrying the top candidates.
type ThresholdDecision struct {
	Immediate bool
	Top       Candidate
}

// CheckThreshold implements spec §4.3 step 2: route immediately when the
// top score clears confidenceThreshold AND the gap to the runner-up clears
// ambiguityThreshold. Both comparisons are inclusive (spec §8 "Confidence
// threshold exactly met -> route immediately").
func CheckThreshold(candidates []Candidate, confidenceThreshold, ambiguityThreshold float64) ThresholdDecision {
	if len(candidates) == 0 {
		return ThresholdDecision{}
	}
	top := candidates[0]
	if top.Score < confidenceThreshold {
		return ThresholdDecision{Top: top}
	}
	if len(candidates) == 1 {
		return ThresholdDecision{Immediate: true, Top: top}
	}
	second := candidates[1]
	// A small tolerance keeps the inclusive gap check from failing on float
	// rounding (0.70-0.60 evaluates to 0.09999999999999998).
	if top.Score-second.Score < ambiguityThreshold-1e-9 {
		return ThresholdDecision{Top: top}
	}
	return ThresholdDecision{Immediate: true, Top: top}
}
