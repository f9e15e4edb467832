// Package search decides which rows and cells match a free text search term.
package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/models"
)

// Mode selects how cell values are compared with the search term
type Mode string

const (
	// ModeFullText predicts the results of the server full text search
	ModeFullText Mode = "full-text-with-count"
	// ModeCompat uses the substring contains filter of each field type
	ModeCompat Mode = "compat"

	DefaultMode = ModeFullText
)

// RowIDMatch is the pseudo field recorded when the term equals the row id
const RowIDMatch = "row_id"

// ParseMode validates a search mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.TrimSpace(s)) {
	case ModeFullText:
		return ModeFullText, nil
	case ModeCompat:
		return ModeCompat, nil
	default:
		return "", fmt.Errorf("unknown search mode: %q", s)
	}
}

// NormalizeTsvector mirrors the normalization applied to the server side
// search vectors: accents are stripped, text is lowercased, everything that
// is not a letter or a number separates tokens.
func NormalizeTsvector(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = strings.ToLower(stripped)
	tokens := strings.FieldsFunc(stripped, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(tokens, " ")
}

// Matcher tests normalized text for a token starting with the term
type Matcher struct {
	term string
	re   *regexp.Regexp
}

// NewMatcher compiles a matcher for a raw search term
func NewMatcher(term string) *Matcher {
	normalized := NormalizeTsvector(term)
	m := &Matcher{term: normalized}
	if normalized != "" {
		m.re = regexp.MustCompile(`(^|\s+)` + regexp.QuoteMeta(normalized))
	}
	return m
}

// Term returns the normalized term
func (m *Matcher) Term() string {
	return m.term
}

// MatchString reports whether s contains a token starting with the term. A
// term without letters or numbers matches nothing.
func (m *Matcher) MatchString(s string) bool {
	if m.re == nil {
		return false
	}
	return m.re.MatchString(NormalizeTsvector(s))
}

// Result is the outcome of searching a single row
type Result struct {
	Row                models.Row
	MatchSearch        bool
	FieldSearchMatches map[string]struct{}
}

// Matches reports whether the field with the given id matched
func (r Result) Matches(fieldID int64) bool {
	_, ok := r.FieldSearchMatches[strconv.FormatInt(fieldID, 10)]
	return ok
}

// MatchedRowID reports whether the term matched the row id
func (r Result) MatchedRowID() bool {
	_, ok := r.FieldSearchMatches[RowIDMatch]
	return ok
}

// Searcher evaluates one term against many rows
type Searcher struct {
	reg     *fieldtypes.Registry
	fields  []models.Field
	term    string
	mode    Mode
	matcher *Matcher
}

// NewSearcher prepares a search for term over the given fields
func NewSearcher(reg *fieldtypes.Registry, fields []models.Field, term string, mode Mode) *Searcher {
	term = strings.TrimSpace(term)
	s := &Searcher{reg: reg, fields: fields, term: term, mode: mode}
	if mode != ModeCompat {
		s.matcher = NewMatcher(term)
	}
	return s
}

// Row searches a row. overrides replace row values by key without touching
// the row. With hideNonMatching unset every row is reported as matching.
func (s *Searcher) Row(row models.Row, hideNonMatching bool, overrides map[string]any) Result {
	res := Result{Row: row, MatchSearch: true, FieldSearchMatches: map[string]struct{}{}}
	if s.term == "" {
		return res
	}

	if !row.Loading && strconv.FormatInt(row.ID, 10) == s.term {
		res.FieldSearchMatches[RowIDMatch] = struct{}{}
	}

	for _, field := range s.fields {
		ft, ok := s.reg.FieldType(field.Type)
		if !ok {
			continue
		}
		value, _ := row.Value(field.Key(), overrides)
		if s.matchValue(ft, field, value) {
			res.FieldSearchMatches[strconv.FormatInt(field.ID, 10)] = struct{}{}
		}
	}

	res.MatchSearch = !hideNonMatching || len(res.FieldSearchMatches) > 0
	return res
}

func (s *Searcher) matchValue(ft fieldtypes.FieldType, field models.Field, value any) bool {
	if s.mode == ModeCompat {
		return ft.ContainsFilter(value, s.term, field)
	}
	text := ft.ToSearchableString(field, value)
	if text == "" {
		return false
	}
	return s.matcher.MatchString(text)
}

// CalculateSingleRowSearchMatches searches a single row for term
func CalculateSingleRowSearchMatches(row models.Row, term string, hideNonMatching bool, fields []models.Field, reg *fieldtypes.Registry, mode Mode, overrides map[string]any) Result {
	return NewSearcher(reg, fields, term, mode).Row(row, hideNonMatching, overrides)
}
