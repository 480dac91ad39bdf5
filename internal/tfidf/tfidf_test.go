package tfidf

import (
	"math"
	"testing"
)

func TestRank_RelevantDocFirst(t *testing.T) {
	texts := []string{
		"Cats are small felines and cats purr loudly.",
		"Dogs bark at strangers and dogs fetch balls.",
		"The weather today is cloudy with some rain.",
	}

	matches := Rank(texts, "do cats purr", 3)
	if len(matches) != 3 {
		t.Fatalf("Rank() returned %d matches, want 3", len(matches))
	}
	if matches[0].Index != 0 {
		t.Errorf("top match index = %d, want 0 (the cats document)", matches[0].Index)
	}
	if matches[0].Score <= matches[1].Score {
		t.Errorf("top score %f not greater than runner-up %f", matches[0].Score, matches[1].Score)
	}
}

func TestRank_TruncatesToK(t *testing.T) {
	texts := []string{"cats one", "cats two", "cats three", "cats four"}
	matches := Rank(texts, "cats", 2)
	if len(matches) != 2 {
		t.Errorf("Rank() returned %d matches, want 2", len(matches))
	}
}

func TestRank_EmptyCorpus(t *testing.T) {
	if matches := Rank(nil, "anything", 5); matches != nil {
		t.Errorf("Rank() on empty corpus = %v, want nil", matches)
	}
}

func TestVectorize_OutOfVocabularyDropped(t *testing.T) {
	engine := New([]string{"cats purr", "dogs bark"})
	vec := engine.Vectorize("unicorns sparkle")
	if len(vec) != 0 {
		t.Errorf("out-of-vocabulary query vector = %v, want empty", vec)
	}
}

func TestRank_OutOfVocabularyQueryScoresZero(t *testing.T) {
	texts := []string{"cats purr", "dogs bark"}
	matches := Rank(texts, "unicorns sparkle", 2)
	for _, m := range matches {
		if m.Score != 0 {
			t.Errorf("match %d score = %f, want 0 for OOV query", m.Index, m.Score)
		}
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a    map[string]float64
		b    map[string]float64
		want float64
	}{
		{
			name: "identical vectors",
			a:    map[string]float64{"x": 1, "y": 2},
			b:    map[string]float64{"x": 1, "y": 2},
			want: 1,
		},
		{
			name: "orthogonal vectors",
			a:    map[string]float64{"x": 1},
			b:    map[string]float64{"y": 1},
			want: 0,
		},
		{
			name: "empty a",
			a:    map[string]float64{},
			b:    map[string]float64{"x": 1},
			want: 0,
		},
		{
			name: "both empty",
			a:    map[string]float64{},
			b:    map[string]float64{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRank_StableOnTies(t *testing.T) {
	// Identical documents score identically; stable sort keeps corpus order.
	texts := []string{"cats purr", "cats purr", "cats purr"}
	matches := Rank(texts, "cats", 3)
	for i, m := range matches {
		if m.Index != i {
			t.Errorf("position %d has index %d, want %d", i, m.Index, i)
		}
	}
}
