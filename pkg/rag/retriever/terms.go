package retriever

import "strings"

// stopwords never make useful graph or boundary lookup keys.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "at": true, "be": true,
	"by": true, "can": true, "do": true, "for": true, "from": true, "how": true,
	"i": true, "in": true, "is": true, "it": true, "may": true, "me": true,
	"my": true, "near": true, "of": true, "on": true, "or": true, "the": true,
	"there": true, "to": true, "what": true, "when": true, "where": true,
	"which": true, "with": true,
}

// ExtractTerms tokenizes a user query into lookup keys for the graph and
// geospatial retrievers. Pure function: lowercases, strips punctuation, drops
// stopwords and short tokens, and adds bigrams of adjacent surviving tokens
// so multi-word names like "botany bay" stay intact.
func ExtractTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	var kept []string
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		kept = append(kept, f)
	}

	terms := make([]string, 0, len(kept)*2)
	seen := make(map[string]bool)
	for i, t := range kept {
		if !seen[t] {
			terms = append(terms, t)
			seen[t] = true
		}
		if i+1 < len(kept) {
			bigram := t + " " + kept[i+1]
			if !seen[bigram] {
				terms = append(terms, bigram)
				seen[bigram] = true
			}
		}
	}
	return terms
}
