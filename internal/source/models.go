package source

import "time"

// Type tags the origin format of a source.
type Type string

const (
	TypeText     Type = "text"
	TypeURL      Type = "url"
	TypeMarkdown Type = "markdown"
	TypePDF      Type = "pdf"
	TypeTable    Type = "table"
	TypeSubtitle Type = "subtitle"
)

// Source is an ingested document: its full text plus the chunks derived
// from it. Sources are created at ingestion time and mutated only by
// re-chunking or re-embedding.
type Source struct {
	ID        string            `json:"id"`
	Type      Type              `json:"type"`
	Name      string            `json:"name"`
	URL       string            `json:"url,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	Text      string            `json:"text"`
	Chunks    []Chunk           `json:"chunks"`
	Keywords  []string          `json:"keywords"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Chunk is a retrievable unit of source text, typically one paragraph.
// The text is immutable once created; Vector is attached exactly once per
// embedding generation.
type Chunk struct {
	ID       string    `json:"id"`
	SourceID string    `json:"source_id"`
	Index    int       `json:"index"`
	Text     string    `json:"text"`
	Vector   []float32 `json:"vector,omitempty"`
}

// Embedded reports whether this chunk carries a dense vector.
func (c *Chunk) Embedded() bool {
	return len(c.Vector) > 0
}

// EmbeddingMeta records which provider produced the corpus' vectors and at
// what dimensionality. Vectors from different (provider, dim) pairs must
// never be compared; a mismatch invalidates every stored vector.
type EmbeddingMeta struct {
	Provider string `json:"provider"`
	Dim      int    `json:"dim"`
}

// Matches reports whether the recorded epoch is compatible with the given
// provider identity and dimensionality.
func (m EmbeddingMeta) Matches(provider string, dim int) bool {
	return m.Provider == provider && m.Dim == dim
}

// Citation is a scored snippet of source text offered as evidence for a
// generated answer. Citations are computed per request and never persisted.
type Citation struct {
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`
	Snippet    string `json:"snippet"`
	Score      int    `json:"score"`
}
