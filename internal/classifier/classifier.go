// Package classifier scores resident messages against keyword tables to find an intent,
// a situation and the policies worth citing.
package classifier

import "strings"

// Entry is one label with its keyword phrases.
type Entry struct {
	Label    string
	Keywords []string
}

// Table is an ordered list of entries. Earlier entries win ties.
type Table []Entry

// Result is the winning label and how many of its keywords matched.
type Result struct {
	Label string
	Score int
}

// Matched reports whether any keyword hit.
func (r Result) Matched() bool {
	return r.Score > 0
}

// Score counts, for each entry, the keywords that occur as substrings of the lower-cased
// text and returns the highest scoring entry. A zero Result means nothing matched.
func Score(text string, table Table) Result {
	lowered := strings.ToLower(text)
	var best Result
	if lowered == "" {
		return best
	}
	for _, entry := range table {
		score := 0
		for _, keyword := range entry.Keywords {
			if strings.Contains(lowered, keyword) {
				score++
			}
		}
		// strict comparison keeps the first declared entry on ties
		if score > best.Score {
			best = Result{Label: entry.Label, Score: score}
		}
	}
	return best
}

// DetectIntent returns the best intent label, or IntentGeneral when nothing matched.
func DetectIntent(text string) string {
	result := Score(text, Intents)
	if !result.Matched() {
		return IntentGeneral
	}
	return result.Label
}

// DetectSituation returns the best situation label, or "" when nothing matched.
func DetectSituation(text string) string {
	return Score(text, Situations).Label
}
