// Package speller provides a small dictionary-based spelling corrector for
// OCR output, using Levenshtein distance against a frequency-ordered word
// list.
package speller

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/arbovm/levenshtein"
)

//go:embed dictionary.txt
var embeddedDictionary string

// maxEditDistance is the furthest a dictionary word may be from a token to
// count as a correction candidate.
const maxEditDistance = 2

// Speller corrects tokens against a frequency-ordered dictionary. Earlier
// words are more frequent and win distance ties.
type Speller struct {
	words []string
	known map[string]struct{}
}

// New creates a speller from the word list at path, falling back to the
// embedded dictionary when path is empty. Lines are "word" or "word count";
// only the word column is used, file order is frequency order.
func New(path string) (*Speller, error) {
	var reader *bufio.Scanner
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dictionary %s: %w", path, err)
		}
		defer f.Close()
		reader = bufio.NewScanner(f)
	} else {
		reader = bufio.NewScanner(strings.NewReader(embeddedDictionary))
	}

	s := &Speller{known: make(map[string]struct{})}
	for reader.Scan() {
		fields := strings.Fields(reader.Text())
		if len(fields) == 0 {
			continue
		}
		word := strings.ToLower(fields[0])
		if _, ok := s.known[word]; ok {
			continue
		}
		s.known[word] = struct{}{}
		s.words = append(s.words, word)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	if len(s.words) == 0 {
		return nil, fmt.Errorf("dictionary is empty")
	}
	return s, nil
}

// Correct runs word-by-word correction over text, leaving unknown tokens
// with no close dictionary match untouched.
func (s *Speller) Correct(text string) string {
	tokens := strings.Fields(text)
	for i, token := range tokens {
		tokens[i] = s.correctToken(token)
	}
	return strings.Join(tokens, " ")
}

func (s *Speller) correctToken(token string) string {
	lead, core, trail := splitPunct(token)
	if core == "" || !isAlphabetic(core) {
		return token
	}

	lower := strings.ToLower(core)
	if len([]rune(lower)) <= 2 {
		return token
	}
	if _, ok := s.known[lower]; ok {
		return token
	}

	best, bestDist := "", maxEditDistance+1
	for _, word := range s.words {
		// Cheap length filter before computing the distance.
		if diff := len(word) - len(lower); diff > maxEditDistance || diff < -maxEditDistance {
			continue
		}
		if d := editDistance(lower, word); d < bestDist {
			best, bestDist = word, d
			if d == 1 {
				break
			}
		}
	}
	if best == "" {
		return token
	}
	return lead + transferCase(core, best) + trail
}

// editDistance is Levenshtein distance, except that a single adjacent
// transposition counts as one edit. Swapped letter pairs are the most
// common OCR confusion and plain Levenshtein scores them as two.
func editDistance(a, b string) int {
	if transposedMatch(a, b) {
		return 1
	}
	return levenshtein.Distance(a, b)
}

func transposedMatch(a, b string) bool {
	if len(a) != len(b) || a == b {
		return false
	}
	i := 0
	for i < len(a) && a[i] == b[i] {
		i++
	}
	if i+1 >= len(a) || a[i] != b[i+1] || a[i+1] != b[i] {
		return false
	}
	return a[i+2:] == b[i+2:]
}

// splitPunct separates leading/trailing punctuation from the word core.
func splitPunct(token string) (lead, core, trail string) {
	runes := []rune(token)
	start, end := 0, len(runes)
	for start < end && !unicode.IsLetter(runes[start]) && !unicode.IsNumber(runes[start]) {
		start++
	}
	for end > start && !unicode.IsLetter(runes[end-1]) && !unicode.IsNumber(runes[end-1]) {
		end--
	}
	return string(runes[:start]), string(runes[start:end]), string(runes[end:])
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// transferCase carries the original token's casing onto the correction:
// all-caps stays all-caps, a capitalized first letter stays capitalized.
func transferCase(original, corrected string) string {
	if original == strings.ToUpper(original) && len(original) > 1 {
		return strings.ToUpper(corrected)
	}
	first := []rune(original)[0]
	if unicode.IsUpper(first) {
		r := []rune(corrected)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}
	return corrected
}
