// Package counter provides the text measures used by rhyme resolution.
//
// Two counting strategies are available behind the Counter interface:
// syllable counting, which counts Cyrillic vowel letters as a crude stand-in
// for syllables, and character counting, which counts Unicode runes.
//
// Usage Example:
//
//	c := counter.NewSyllableCounter()
//	n := c.Count("мама")
//	// n == 2
//
// The syllable model is naive: it is not stress-aware and does not
// attempt real syllabification. Rhyme matching depends on its exact behavior.
package counter

// Counter defines the interface for different text counting strategies.
type Counter interface {
	// Count returns the number of units (syllables or characters) in given text.
	Count(text string) int

	// Name returns a human-readable name for this counting method (for logging)
	Name() string
}

// CountingMethod represents the different available counting strategies.
type CountingMethod int

const (
	// Syllables counts Cyrillic vowel letters (default)
	Syllables CountingMethod = iota
	// Characters counts individual runes including whitespace
	Characters
)

// String returns the string representation of the counting method.
func (cm CountingMethod) String() string {
	switch cm {
	case Syllables:
		return "syllables"
	case Characters:
		return "characters"
	default:
		return "unknown"
	}
}

// NewCounter creates a new Counter instance based on the specified method.
// Unknown methods fall back to syllable counting.
func NewCounter(method CountingMethod) Counter {
	switch method {
	case Characters:
		return NewCharCounter()
	default:
		return NewSyllableCounter()
	}
}
