package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/source"
)

const sourceKeywordCount = 8

// Request is the payload for ingesting one source.
type Request struct {
	Type    source.Type       `json:"type"`
	Name    string            `json:"name"`
	Content string            `json:"content"`
	URL     string            `json:"url"`
	Meta    map[string]string `json:"meta"`
}

// Pipeline turns raw payloads into chunked, keyword-tagged corpus sources.
// Embedding is not part of ingestion: vectors are backfilled lazily at query
// time, so adding a source never waits on a remote provider.
type Pipeline struct {
	corpus    *source.Store
	flattener *MarkdownFlattener
}

// NewPipeline creates an ingestion pipeline over the given corpus.
func NewPipeline(corpus *source.Store) *Pipeline {
	return &Pipeline{
		corpus:    corpus,
		flattener: NewMarkdownFlattener(),
	}
}

// Ingest validates the request, chunks the text and adds the source to the
// corpus. Re-ingesting identical content under the same type and name
// returns the existing source instead of creating a duplicate.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*source.Source, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Type == "" {
		return nil, fmt.Errorf("source type is required")
	}

	text := req.Content
	title := ""
	if req.Type == source.TypeMarkdown && text != "" {
		text, title = p.flattener.Flatten([]byte(text))
	}
	if text == "" {
		// Remote types arrive without content; the placeholder keeps the
		// source addressable until a fetch fills it in.
		text = "Pending fetch for " + string(req.Type)
		if req.URL != "" {
			text += ": " + req.URL
		}
	}

	if existing := p.findDuplicate(req.Type, req.Name, text); existing != nil {
		logger.InfoContext(ctx, "source already ingested", "source_id", existing.ID, "name", existing.Name)
		return existing, nil
	}

	id := uuid.NewString()
	name := req.Name
	if name == "" {
		name = title
	}
	if name == "" {
		name = id
	}
	meta := req.Meta
	if meta == nil {
		meta = map[string]string{}
	}

	paragraphs := SplitParagraphs(text)
	chunks := make([]source.Chunk, len(paragraphs))
	for i, para := range paragraphs {
		chunks[i] = source.Chunk{
			ID:       uuid.NewString(),
			SourceID: id,
			Index:    i,
			Text:     para,
		}
	}

	now := time.Now().UTC()
	src := &source.Source{
		ID:        id,
		Type:      req.Type,
		Name:      name,
		URL:       req.URL,
		Meta:      meta,
		Text:      text,
		Chunks:    chunks,
		Keywords:  TopKeywords(text, sourceKeywordCount),
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.corpus.Add(src)
	if err := p.corpus.Save(); err != nil {
		return nil, fmt.Errorf("failed to persist corpus: %w", err)
	}

	logger.InfoContext(ctx, "source ingested", "source_id", id, "name", name, "chunks", len(chunks))
	return src, nil
}

func (p *Pipeline) findDuplicate(srcType source.Type, name, text string) *source.Source {
	for _, s := range p.corpus.List() {
		if s.Type == srcType && s.Name == name && s.Text == text {
			return s
		}
	}
	return nil
}
