package fewshot

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/tmc/langchaingo/embeddings"
)

// Selector retrieves the examples most semantically similar to a question.
// The corpus is embedded once at construction and read-only afterwards.
type Selector struct {
	embedder embeddings.Embedder
	examples []Example
	vectors  [][]float32
}

// NewSelector embeds the example questions and builds the index. An
// unreachable embedding backend is a construction error: the SQL path
// cannot run without examples.
func NewSelector(ctx context.Context, embedder embeddings.Embedder, examples []Example) (*Selector, error) {
	questions := make([]string, len(examples))
	for i, ex := range examples {
		questions[i] = ex.Question
	}

	vectors, err := embedder.EmbedDocuments(ctx, questions)
	if err != nil {
		return nil, fmt.Errorf("failed to embed example corpus: %w", err)
	}
	if len(vectors) != len(examples) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d examples",
			len(vectors), len(examples))
	}

	return &Selector{
		embedder: embedder,
		examples: examples,
		vectors:  vectors,
	}, nil
}

// Select returns the k examples closest to the question, most similar
// first. Ties keep corpus order, so repeated calls for the same question
// return the same ordered set.
func (s *Selector) Select(ctx context.Context, question string, k int) ([]Example, error) {
	query, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(s.examples))
	for i, vec := range s.vectors {
		ranked[i] = scored{index: i, score: cosineSimilarity(query, vec)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	selected := make([]Example, 0, k)
	for _, r := range ranked[:k] {
		selected = append(selected, s.examples[r.index])
	}
	return selected, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
