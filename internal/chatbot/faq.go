package chatbot

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Match is an FAQ paragraph with its similarity to the question.
type Match struct {
	Answer string
	Score  float64
}

// FAQ ranks paragraphs against a question. Implementations must be safe for
// concurrent use.
type FAQ interface {
	Best(question string) (Match, bool)
}

type entry struct {
	text   string
	tokens map[string]struct{}
}

// faqIndex is immutable after construction.
type faqIndex struct {
	entries []entry
}

// minEntryRunes drops headings and one-word fragments.
const minEntryRunes = 20

// LoadFAQ reads a markdown file of blank-line separated paragraphs. Table rows
// become standalone entries.
func LoadFAQ(path string) (FAQ, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewFAQ(bytes.NewReader(b))
}

// NewFAQ builds an index from markdown text.
func NewFAQ(r io.Reader) (FAQ, error) {
	paras, err := paragraphs(r)
	if err != nil {
		return nil, err
	}
	return NewFAQFromStrings(paras), nil
}

// NewFAQFromStrings builds an index from ready-made paragraphs.
func NewFAQFromStrings(paras []string) FAQ {
	idx := &faqIndex{entries: make([]entry, 0, len(paras))}
	for _, p := range paras {
		t := collapseSpaces(strings.TrimSpace(p))
		if utf8.RuneCountInString(t) < minEntryRunes {
			continue
		}
		toks := tokenize(t)
		if len(toks) == 0 {
			continue
		}
		idx.entries = append(idx.entries, entry{text: t, tokens: toks})
	}
	return idx
}

// Best returns the highest Jaccard-scoring entry. Ties go to the shorter
// paragraph, then lexical order, so results are deterministic.
func (i *faqIndex) Best(question string) (Match, bool) {
	q := tokenize(question)
	if len(q) == 0 || len(i.entries) == 0 {
		return Match{}, false
	}

	ranked := make([]Match, 0, 4)
	for _, e := range i.entries {
		over := overlap(q, e.tokens)
		if over == 0 {
			continue
		}
		union := len(q) + len(e.tokens) - over
		ranked = append(ranked, Match{Answer: e.text, Score: float64(over) / float64(union)})
	}
	if len(ranked) == 0 {
		return Match{}, false
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].Score != ranked[b].Score {
			return ranked[a].Score > ranked[b].Score
		}
		la, lb := utf8.RuneCountInString(ranked[a].Answer), utf8.RuneCountInString(ranked[b].Answer)
		if la != lb {
			return la < lb
		}
		return ranked[a].Answer < ranked[b].Answer
	})
	return ranked[0], true
}

var (
	wordRE  = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)
	spaceRE = regexp.MustCompile(`[ \t\r]+`)
)

// fold case-folds s. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

func tokenize(s string) map[string]struct{} {
	words := wordRE.FindAllString(fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stopwords[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "do": {}, "does": {},
	"i": {}, "you": {}, "my": {}, "your": {}, "to": {}, "of": {}, "in": {},
	"and": {}, "or": {}, "for": {}, "can": {}, "how": {}, "what": {}, "on": {},
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func collapseSpaces(s string) string {
	return spaceRE.ReplaceAllString(s, " ")
}

// paragraphs splits markdown on blank lines. Each table row becomes its own
// paragraph with cells joined by spaces; separator rows are dropped.
func paragraphs(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		out []string
		cur []string
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = cur[:0]
		}
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|"):
			flush()
			if row := tableRow(line); row != "" {
				out = append(out, row)
			}
		default:
			cur = append(cur, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

func tableRow(line string) string {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	kept := make([]string, 0, len(cells))
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if strings.Trim(c, ":- ") == "" {
			continue
		}
		kept = append(kept, c)
	}
	return strings.Join(kept, " ")
}
