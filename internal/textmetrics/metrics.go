// Package textmetrics computes readability statistics over extracted text.
package textmetrics

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var sentenceSplit = regexp.MustCompile(`[.\n•]+`)

// minSentenceRunes is the trimmed length a segment must exceed to count as a sentence.
const minSentenceRunes = 5

// Metrics holds word and sentence statistics plus the Automated Readability Index.
type Metrics struct {
	WordCount     int     `json:"wordCount"`
	SentenceCount int     `json:"sentenceCount"`
	AvgWordLength float64 `json:"avgWordLength"`
	Readability   float64 `json:"readability"`
}

// Calculate returns metrics for text, or nil when text is empty.
func Calculate(text string) *Metrics {
	if text == "" {
		return nil
	}

	words := strings.Fields(text)
	wordCount := len(words)

	sentenceCount := 0
	for _, seg := range sentenceSplit.Split(text, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(seg)) > minSentenceRunes {
			sentenceCount++
		}
	}
	if sentenceCount == 0 {
		sentenceCount = 1
	}

	chars := 0
	for _, w := range words {
		chars += utf8.RuneCountInString(w)
	}
	avg := 0.0
	if wordCount > 0 {
		avg = float64(chars) / float64(wordCount)
	}

	ari := 4.71*avg + 0.5*(float64(wordCount)/float64(sentenceCount)) - 21.43
	ari = math.Max(1, math.Round(ari*10)/10)

	return &Metrics{
		WordCount:     wordCount,
		SentenceCount: sentenceCount,
		AvgWordLength: avg,
		Readability:   ari,
	}
}

// AvgWordLengthLabel renders the average word length for display, e.g. "4.2 chars".
func (m *Metrics) AvgWordLengthLabel() string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%.1f chars", m.AvgWordLength)
}
