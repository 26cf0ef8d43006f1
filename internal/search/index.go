// Package search builds a weighted inverted index over a collection and
// emits it as JSON for a client-side search widget.
package search

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitesmith/internal/collections"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

// FormatVersion identifies the JSON layout.
const FormatVersion = 1

// DefaultFields weighs title highest, then category, then body.
var DefaultFields = map[string]int{"title": 10, "category": 5, "contents": 2}

// Document is the display record of one indexed file.
type Document struct {
	Ref   string `json:"ref"`
	Title string `json:"title"`
}

// Posting is one (document, score) pair of a term.
type Posting struct {
	Doc   int `json:"d"`
	Score int `json:"s"`
}

// Index is the serialized search index.
type Index struct {
	Version   int                  `json:"version"`
	Fields    map[string]int       `json:"fields"`
	Documents []Document           `json:"documents"`
	Terms     map[string][]Posting `json:"terms"`
}

// Hit is a query result.
type Hit struct {
	Document
	Score int
}

// Build indexes files over fields. The "contents" field reads the file
// body as HTML; every other field reads metadata.
func Build(files []*fileset.File, fields map[string]int) *Index {
	idx := &Index{
		Version: FormatVersion,
		Fields:  maps.Clone(fields),
		Terms:   make(map[string][]Posting),
	}
	names := slices.Sorted(maps.Keys(fields))

	for docID, f := range files {
		idx.Documents = append(idx.Documents, Document{Ref: ref(f), Title: f.Meta.String("title")})
		scores := make(map[string]int)
		for _, field := range names {
			for _, term := range Tokenize(fieldText(f, field)) {
				scores[term] += fields[field]
			}
		}
		for term, score := range scores {
			idx.Terms[term] = append(idx.Terms[term], Posting{Doc: docID, Score: score})
		}
	}
	for _, postings := range idx.Terms {
		slices.SortFunc(postings, func(a, b Posting) int {
			return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Doc, b.Doc))
		})
	}
	return idx
}

func ref(f *fileset.File) string {
	if p := f.Meta.String("path"); p != "" {
		return p
	}
	return f.Source
}

func fieldText(f *fileset.File, field string) string {
	if field == "contents" {
		return PlainText(f.Contents)
	}
	if list := f.Meta.Strings(field); len(list) > 0 {
		return strings.Join(list, " ")
	}
	return f.Meta.String(field)
}

// Query returns documents matching every term of q, best first.
func (idx *Index) Query(q string) []Hit {
	terms := Tokenize(q)
	if len(terms) == 0 {
		return nil
	}
	totals := make(map[int]int)
	matched := make(map[int]int)
	for _, term := range terms {
		for _, p := range idx.Terms[term] {
			totals[p.Doc] += p.Score
			matched[p.Doc]++
		}
	}
	var hits []Hit
	for doc, score := range totals {
		if matched[doc] == len(terms) {
			hits = append(hits, Hit{Document: idx.Documents[doc], Score: score})
		}
	}
	slices.SortFunc(hits, func(a, b Hit) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), strings.Compare(a.Ref, b.Ref))
	})
	return hits
}

// Options configure the search stage.
type Options struct {
	Collection string
	Path       string
	Fields     map[string]int
}

// Stage indexes collection opts.Collection and writes the JSON to opts.Path.
func Stage(opts Options) pipeline.Stage {
	fields := opts.Fields
	if fields == nil {
		fields = DefaultFields
	}
	return pipeline.Func("search-index", []string{opts.Collection}, nil, func(_ context.Context, files *fileset.Set, pc *pipeline.Context) error {
		idx := Build(pipeline.MustGet(pc, collections.Key(opts.Collection)), fields)
		data, err := json.Marshal(idx)
		if err != nil {
			return fmt.Errorf("encode search index: %w", err)
		}
		files.Put(opts.Path, fileset.NewFile(data))
		return nil
	})
}
