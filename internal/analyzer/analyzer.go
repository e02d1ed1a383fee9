// Package analyzer names the text analyzers available to entities.
//
// Analyzers are realized as bleve analyzers. The same named analyzer is
// installed in an entity's index mapping and used to segment query text,
// so indexing and querying always normalize terms identically. A custom
// analyzer therefore changes match behavior on both sides at once.
package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	serrors "github.com/searchsync/searchsync/internal/errors"
)

// DefaultName is the process-wide default analyzer. English stemming, so
// a query for "jump" matches an indexed "jumping".
const DefaultName = "english"

// builtin maps friendly analyzer names to bleve analyzer names.
var builtin = map[string]string{
	"english":  en.AnalyzerName,
	"simple":   simple.Name, // letter tokens + lowercase, no stemming
	"standard": standard.Name,
	"keyword":  keyword.Name, // whole value as a single term
}

// BleveName resolves a friendly analyzer name to the bleve analyzer name.
// Empty input resolves to the default.
func BleveName(name string) (string, error) {
	if name == "" {
		name = DefaultName
	}
	bn, ok := builtin[strings.ToLower(name)]
	if !ok {
		return "", serrors.Configuration(
			fmt.Sprintf("unknown analyzer %q (available: %s)", name, strings.Join(Names(), ", ")), nil)
	}
	return bn, nil
}

// Names lists the available analyzer names, sorted.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Tokenize segments text into normalized terms using the named analyzer
// from the given index mapping. This is the query-side counterpart of the
// analysis bleve performs at index time.
func Tokenize(m mapping.IndexMapping, bleveName, text string) ([]string, error) {
	a := m.AnalyzerNamed(bleveName)
	if a == nil {
		return nil, serrors.Configuration(
			fmt.Sprintf("analyzer %q is not registered in the index mapping", bleveName), nil)
	}

	stream := a.Analyze([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, token := range stream {
		terms = append(terms, string(token.Term))
	}
	return terms, nil
}
