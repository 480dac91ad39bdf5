package ingest

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits on punctuation",
			text: "Hello, World! Go2 rocks.",
			want: []string{"hello", "world", "go2", "rocks"},
		},
		{
			name: "cjk runs kept",
			text: "知识蒸馏 engine",
			want: []string{"知识蒸馏", "engine"},
		},
		{
			name: "no tokens",
			text: "!!! ---",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		k    int
		want []string
	}{
		{
			name: "frequency order",
			text: "cats cats cats dogs dogs birds",
			k:    3,
			want: []string{"cats", "dogs", "birds"},
		},
		{
			name: "ties keep first-seen order",
			text: "zebra apple zebra apple",
			k:    2,
			want: []string{"zebra", "apple"},
		},
		{
			name: "stopwords excluded",
			text: "the the the cats and the dogs",
			k:    5,
			want: []string{"cats", "dogs"},
		},
		{
			name: "truncates to k",
			text: "one1 two2 three3 four4",
			k:    2,
			want: []string{"one1", "two2"},
		},
		{
			name: "zero k",
			text: "cats dogs",
			k:    0,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopKeywords(tt.text, tt.k)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopKeywords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopKeywords_Deterministic(t *testing.T) {
	text := "alpha beta gamma delta alpha beta gamma alpha beta alpha"
	first := TopKeywords(text, 4)
	for i := 0; i < 10; i++ {
		if got := TopKeywords(text, 4); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, want %v", i, got, first)
		}
	}
}
