package retrieval

import "strings"

// stopwords is the closed set of high-frequency English function words
// dropped from every token stream: articles, auxiliaries, prepositions, and
// common pronouns. It is shared by indexing and query-time tokenization; a
// saved BM25 index picks up a change on its next BM25Index.Load, which
// re-tokenizes every stored document.
var stopwords = buildStopwordSet([]string{
	"the", "and", "for", "are", "but", "not", "you", "all", "can", "had",
	"her", "was", "one", "our", "out", "day", "get", "has", "him", "his",
	"how", "man", "new", "now", "old", "see", "two", "way", "who", "boy",
	"did", "its", "let", "put", "say", "she", "too", "use",
	"that", "with", "have", "this", "will", "your", "from", "they", "know",
	"want", "been", "good", "much", "some", "time", "very", "when", "come",
	"here", "just", "like", "long", "make", "many", "over", "such", "take",
	"than", "them", "well", "were", "what",
	"about", "after", "again", "before", "being", "below", "between",
	"could", "doing", "down", "during", "each", "further", "into", "more",
	"most", "once", "only", "other", "same", "should", "their", "there",
	"these", "those", "through", "under", "until", "where", "which",
	"while", "would", "above", "against", "because", "does",
})

func buildStopwordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Tokenize lowercases s, splits on any character outside [a-z0-9], drops
// empty fragments, drops tokens of length <= 2, and drops stopwords. It is
// pure and deterministic: the same tokenizer runs at index time and query
// time, so changing stopwords or the split rule invalidates every BM25
// posting list built under the old rule.
func Tokenize(s string) []string {
	lower := strings.ToLower(s)
	tokens := make([]string, 0, len(lower)/5+1)

	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		tok := b.String()
		b.Reset()
		if len(tok) <= 2 {
			return
		}
		if _, isStop := stopwords[tok]; isStop {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}
