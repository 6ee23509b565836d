package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"alfredoptarigan/assignment-grader/internal/models"
)

type zipEntry struct {
	name string
	data []byte
}

func buildZip(entries ...zipEntry) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.name)
		if err != nil {
			panic(err)
		}
		if _, err := f.Write(e.data); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// buildDocx produces a minimal WordprocessingML package, one w:p per paragraph.
func buildDocx(paragraphs ...string) []byte {
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		if err := xml.EscapeText(&body, []byte(p)); err != nil {
			panic(err)
		}
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	return buildZip(
		zipEntry{name: "[Content_Types].xml", data: []byte(`<?xml version="1.0"?><Types/>`)},
		zipEntry{name: docxBodyPart, data: body.Bytes()},
	)
}

func docxSubmission(name string, paragraphs ...string) models.RawSubmission {
	return models.RawSubmission{Name: name, Path: name, Data: buildDocx(paragraphs...)}
}

// fakeGenerator answers every prompt through respond and records the prompts.
type fakeGenerator struct {
	respond func(prompt string) (string, error)
	calls   atomic.Int32

	mu      sync.Mutex
	prompts []string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(prompt)
}

func fixedAnswer(answer string) *fakeGenerator {
	return &fakeGenerator{respond: func(string) (string, error) { return answer, nil }}
}

type fakeRubric struct {
	text string
	err  error
}

func (f *fakeRubric) Rubric(context.Context) (string, error) {
	return f.text, f.err
}

type fakeEmbedder struct {
	err   error
	texts []string
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	return []float32{float32(len(text)), 1}, nil
}

type storedChunk struct {
	docType string
	index   int
	text    string
}

// fakeVectorStore keeps chunks in memory and returns them in reverse order on
// search, like a score ranking that disagrees with ingestion order.
type fakeVectorStore struct {
	chunks    []storedChunk
	deleted   []string
	searchErr error
}

func (f *fakeVectorStore) InitCollection(ctx context.Context) error { return nil }

func (f *fakeVectorStore) UpsertChunk(ctx context.Context, docType string, index int, text string, embedding []float32) error {
	f.chunks = append(f.chunks, storedChunk{docType: docType, index: index, text: text})
	return nil
}

func (f *fakeVectorStore) SearchSimilar(ctx context.Context, queryEmbedding []float32, docType string, limit int) ([]SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var results []SearchResult
	for i := len(f.chunks) - 1; i >= 0; i-- {
		c := f.chunks[i]
		if c.docType != docType {
			continue
		}
		results = append(results, SearchResult{Score: 0.9, Text: c.text, DocType: c.docType, Index: int64(c.index)})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func (f *fakeVectorStore) DeleteByDocType(ctx context.Context, docType string) error {
	f.deleted = append(f.deleted, docType)
	kept := f.chunks[:0]
	for _, c := range f.chunks {
		if c.docType != docType {
			kept = append(kept, c)
		}
	}
	f.chunks = kept
	return nil
}

var errServiceDown = errors.New("service unavailable")

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
