package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "empty query",
			query: "",
			want:  nil,
		},
		{
			name:  "stopwords only",
			query: "what is the",
			want:  nil,
		},
		{
			name:  "keeps content words and bigrams",
			query: "bag limit for snapper",
			want:  []string{"bag", "bag limit", "limit", "limit snapper", "snapper"},
		},
		{
			name:  "lowercases and strips punctuation",
			query: "Can I fish in Botany Bay?",
			want:  []string{"fish", "fish botany", "botany", "botany bay", "bay"},
		},
		{
			name:  "drops short tokens",
			query: "no 10 cm fish",
			want:  []string{"fish"},
		},
		{
			name:  "deduplicates repeated terms",
			query: "snapper snapper snapper",
			want:  []string{"snapper", "snapper snapper"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTerms(tt.query)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}
