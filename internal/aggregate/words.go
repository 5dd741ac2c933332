package aggregate

import (
	"strings"
	"unicode"

	"hsedash/domain/finding"
)

// DefaultStopwords are Indonesian function words and words too generic to
// describe a finding.
var DefaultStopwords = []string{
	"dan", "di", "yang", "dengan", "ada", "tidak", "pada", "untuk", "ke", "dari",
	"ini", "itu", "atau", "dapat", "sudah", "juga", "karena", "oleh", "namun",
	"sebagai", "serta", "bisa", "akan", "return", "temu", "tindak", "lanjut",
	"kondisi", "temuan", "area", "lokasi", "tempat",
}

// WordFrequencies tokenizes col of every row on whitespace, trims surrounding
// punctuation, drops stopwords case-insensitively, and counts the remaining
// words, most frequent first. Words keep the casing of their first
// occurrence.
func WordFrequencies(rows []finding.Finding, col finding.Column, stopwords []string, n int) []Count {
	stop := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	c := newCounter()
	display := make(map[string]string)
	for _, f := range rows {
		for _, word := range strings.Fields(f.Field(col)) {
			word = strings.TrimFunc(word, func(r rune) bool {
				return unicode.IsPunct(r) || unicode.IsSymbol(r)
			})
			lower := strings.ToLower(word)
			if lower == "" || isPlaceholder(lower) {
				continue
			}
			if _, skip := stop[lower]; skip {
				continue
			}
			if _, ok := display[lower]; !ok {
				display[lower] = word
			}
			c.add(lower, 1)
		}
	}

	out := limit(c.sorted(), n)
	for i := range out {
		out[i].Label = display[out[i].Label]
	}
	return out
}
