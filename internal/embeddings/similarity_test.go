package embeddings

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected float64
		wantErr  bool
	}{
		{name: "identical vectors", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, expected: 1},
		{name: "orthogonal vectors", a: []float64{1, 0}, b: []float64{0, 1}, expected: 0},
		{name: "opposite vectors", a: []float64{1, 0}, b: []float64{-1, 0}, expected: -1},
		{name: "scaled vectors", a: []float64{1, 2, 3}, b: []float64{2, 4, 6}, expected: 1},
		{name: "different length vectors", a: []float64{1, 2}, b: []float64{1, 2, 3}, wantErr: true},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 2}, wantErr: true},
		{name: "empty vectors", a: []float64{}, b: []float64{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CosineSimilarity(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestKeywordScore(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		title string
		body  string
		want  int
	}{
		{name: "no match", words: []string{"zebra"}, title: "Go", body: "gophers", want: 0},
		{name: "body only", words: []string{"gopher"}, title: "", body: "a gopher and a Gopher", want: 20},
		{name: "title bonus", words: []string{"go"}, title: "Go blog", body: "", want: 60},
		{name: "case insensitive", words: []string{"RUST"}, title: "", body: "rust", want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeywordScore(tt.words, tt.title, tt.body); got != tt.want {
				t.Errorf("KeywordScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	w := Weights{Keyword: 0.3, Semantic: 0.7}

	if got := Combine(40, 0, false, w); got != 40 {
		t.Errorf("keyword only: expected 40, got %f", got)
	}

	// keyword 40 normalizes to 20
	got := Combine(40, SemanticScore(1), true, w)
	want := 0.3*20 + 0.7*100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("hybrid: expected %f, got %f", want, got)
	}

	// keyword normalization caps at 100
	got = Combine(1000, 0, true, w)
	if math.Abs(got-30) > 1e-9 {
		t.Errorf("capped: expected 30, got %f", got)
	}
}
