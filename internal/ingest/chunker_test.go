package ingest

import (
	"reflect"
	"testing"
)

func TestSplitParagraphs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "single paragraph",
			text: "Just one paragraph.",
			want: []string{"Just one paragraph."},
		},
		{
			name: "blank line boundary",
			text: "First paragraph.\n\nSecond paragraph.",
			want: []string{"First paragraph.", "Second paragraph."},
		},
		{
			name: "multiple blank lines collapse",
			text: "First.\n\n\n\nSecond.",
			want: []string{"First.", "Second."},
		},
		{
			name: "crlf normalized",
			text: "First.\r\n\r\nSecond.",
			want: []string{"First.", "Second."},
		},
		{
			name: "whitespace-only fragments dropped",
			text: "First.\n\n   \n\nSecond.",
			want: []string{"First.", "Second."},
		},
		{
			name: "fragments trimmed",
			text: "  First.  \n\n\tSecond.\t",
			want: []string{"First.", "Second."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitParagraphs(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitParagraphs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitParagraphs_Idempotent(t *testing.T) {
	text := "Alpha paragraph one.\n\nBeta paragraph two.\n\nGamma paragraph three."
	chunks := SplitParagraphs(text)
	for _, chunk := range chunks {
		again := SplitParagraphs(chunk)
		if len(again) != 1 || again[0] != chunk {
			t.Errorf("re-chunking %q produced %v, want the chunk itself", chunk, again)
		}
	}
}

func TestFirstSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{
			name: "empty text",
			text: "",
			max:  3,
			want: "",
		},
		{
			name: "zero max",
			text: "Something.",
			max:  0,
			want: "",
		},
		{
			name: "fewer sentences than max",
			text: "One. Two.",
			max:  5,
			want: "One. Two.",
		},
		{
			name: "truncates to max",
			text: "One. Two. Three. Four.",
			max:  2,
			want: "One. Two.",
		},
		{
			name: "mixed terminators",
			text: "Really?! Yes. Fine.",
			max:  2,
			want: "Really?! Yes.",
		},
		{
			name: "cjk terminators",
			text: "第一句。第二句。第三句。",
			max:  2,
			want: "第一句。 第二句。",
		},
		{
			name: "trailing fragment counts",
			text: "Complete. Trailing fragment without period",
			max:  2,
			want: "Complete. Trailing fragment without period",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstSentences(tt.text, tt.max); got != tt.want {
				t.Errorf("FirstSentences() = %q, want %q", got, tt.want)
			}
		})
	}
}
