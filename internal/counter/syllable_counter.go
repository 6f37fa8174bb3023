package counter

import (
	"strings"
	"unicode"
)

// vowels is the fixed set of Russian vowel letters; each occurrence counts as one syllable.
const vowels = "аеоиыуэюяё"

// SyllableCounter approximates syllables by counting Cyrillic vowel letters.
type SyllableCounter struct{}

// NewSyllableCounter creates a new SyllableCounter instance.
func NewSyllableCounter() Counter {
	return &SyllableCounter{}
}

// Count returns the number of vowel letters in text, ignoring case.
func (sc *SyllableCounter) Count(text string) int {
	n := 0
	for _, r := range text {
		if strings.ContainsRune(vowels, unicode.ToLower(r)) {
			n++
		}
	}
	return n
}

// Name returns the name of this counting method for logging and debugging.
func (sc *SyllableCounter) Name() string {
	return "syllables"
}

// CountSyllables is a shorthand for NewSyllableCounter().Count(word).
func CountSyllables(word string) int {
	return (&SyllableCounter{}).Count(word)
}
