package builtin

import (
	"context"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
)

// HighlightMatch marks the query terms found by Filter.
const HighlightMatch = "match"

// LexicalSort orders items by an attribute using locale-aware collation.
// The sort is stable; items lacking the attribute compare as "".
type LexicalSort struct {
	Attr    Attr
	Reverse bool
	Tag     language.Tag // language.Und when zero
}

func (s LexicalSort) Description() string {
	if s.Reverse {
		return "lexical-sort " + s.Attr.String() + " desc"
	}
	return "lexical-sort " + s.Attr.String()
}

func (s LexicalSort) Project(ctx context.Context, params extension.ProjectParams) ([]item.Item, error) {
	// A Collator keeps internal buffers and is not safe for concurrent use.
	c := collate.New(s.Tag)
	keys := make(map[string]string, len(params.Items))
	for _, it := range params.Items {
		keys[it.ID], _ = s.Attr.Lookup(it)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := slices.Clone(params.Items)
	alpha := 1
	if s.Reverse {
		alpha = -1
	}
	slices.SortStableFunc(out, func(a, b item.Item) int {
		return c.CompareString(keys[a.ID], keys[b.ID]) * alpha
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Filter keeps the items whose display text contains every whitespace
// separated term of the query, and decorates the first occurrence of each.
// Matching ignores case unless the query has an upper-case letter.
type Filter struct{}

func (Filter) Description() string { return "filter" }

func (Filter) Project(ctx context.Context, params extension.ProjectParams) ([]item.Item, error) {
	terms := strings.Fields(params.Query)
	if len(terms) == 0 {
		return params.Items, nil
	}
	fold := !strings.ContainsFunc(params.Query, unicode.IsUpper)

	out := make([]item.Item, 0, len(params.Items))
	for i, it := range params.Items {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if decs, ok := matchTerms(it.Display(), terms, fold); ok {
			out = append(out, it.WithDecorations(decs))
		}
	}
	return out, nil
}

func matchTerms(s string, terms []string, fold bool) ([]item.Decoration, bool) {
	decs := make([]item.Decoration, 0, len(terms))
	for _, term := range terms {
		start, length := indexTerm(s, term, fold)
		if start < 0 {
			return nil, false
		}
		decs = append(decs, item.Decoration{Column: start + 1, Length: length, Highlight: HighlightMatch})
	}
	return decs, true
}

// indexTerm returns the byte offset and byte length of the first occurrence
// of term in s. Case folding may change byte lengths, so the length is
// measured in s.
func indexTerm(s, term string, fold bool) (int, int) {
	if !fold {
		return strings.Index(s, term), len(term)
	}
	n := utf8.RuneCountInString(term)
	for i := range s {
		end := i
		for k := 0; k < n && end < len(s); k++ {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
		}
		if strings.EqualFold(s[i:end], term) {
			return i, end - i
		}
	}
	return -1, 0
}
