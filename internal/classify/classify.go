// Package classify groups rhymes that differ only by inflection.
//
// Russian rhymes found across many poems repeat the same word in several
// grammatical forms (мошка, мошки, мошкой). The classifier reduces a rhyme to
// the Snowball stem of its final word so such variants can be listed together.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kljensen/snowball"
)

const language = "russian"

// Classifier derives grouping keys for rhymes.
type Classifier struct {
	// tokenRegex extracts Cyrillic word tokens from a rhyme
	tokenRegex *regexp.Regexp
}

// NewClassifier creates and initializes a new Classifier instance
func NewClassifier() *Classifier {
	return &Classifier{
		tokenRegex: regexp.MustCompile(`[а-яё]+`),
	}
}

// Key returns the stem of the last word of rhyme. A composite rhyme is keyed
// by its final word, the one that actually rhymes. Text without Cyrillic
// letters is returned lower-cased.
func (c *Classifier) Key(rhyme string) string {
	lower := strings.ToLower(strings.TrimSpace(rhyme))

	tokens := c.tokenRegex.FindAllString(lower, -1)
	if len(tokens) == 0 {
		return lower
	}

	last := tokens[len(tokens)-1]
	stemmed, err := snowball.Stem(last, language, true)
	if err != nil {
		// if stemming fails, use the original token
		return last
	}
	return stemmed
}

// Order returns the indices of rhymes sorted so that rhymes sharing a key are
// adjacent. Groups appear in order of their first member and members keep
// their relative order.
func (c *Classifier) Order(rhymes []string) []int {
	first := make(map[string]int, len(rhymes))
	keys := make([]string, len(rhymes))
	for i, r := range rhymes {
		keys[i] = c.Key(r)
		if _, ok := first[keys[i]]; !ok {
			first[keys[i]] = i
		}
	}

	order := make([]int, len(rhymes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return first[keys[order[a]]] < first[keys[order[b]]]
	})
	return order
}
