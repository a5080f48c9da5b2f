package retrieval

import (
	"strings"
)

// Intent is the closed set of query intents the router can classify.
type Intent string

const (
	IntentPersonal Intent = "personal"
	IntentMemory   Intent = "memory"
	IntentGeneral  Intent = "general"
	IntentHybrid   Intent = "hybrid"
)

// Depth is how aggressively RAG retrieval should run for a given strategy.
type Depth string

const (
	DepthNone  Depth = "none"
	DepthLight Depth = "light"
	DepthFull  Depth = "full"
)

// Strategy is the retrieval plan derived from an Intent.
type Strategy struct {
	Intent     Intent
	UseRAG     bool
	UseMemory  bool
	Depth      Depth
	MaxResults int
}

// Classification is the router's output: an intent plus confidence.
type Classification struct {
	Intent     Intent
	Confidence float64
}

type intentRule struct {
	intent  Intent
	tokens  map[string]struct{}
	phrases []string
}

var intentRules = []intentRule{
	{
		intent: IntentPersonal,
		tokens: wordSet(
			"my", "i", "me", "mine", "our", "we", "email", "emails", "meeting",
			"meetings", "notes", "note", "calendar", "document", "documents",
			"file", "files", "yesterday", "wrote", "scheduled", "appointment",
			"project", "task", "todo", "reminder",
		),
		phrases: []string{"told me", "sent me", "last week", "last month"},
	},
	{
		intent: IntentMemory,
		tokens: wordSet(
			"favorite", "favourite", "prefer", "preference", "like", "dislike",
			"usually", "always", "never", "habit", "routine",
		),
		phrases: []string{"remember when", "last time i"},
	},
	{
		intent: IntentGeneral,
		tokens: wordSet(
			"explain", "define", "typically", "science", "math", "calculate",
			"code", "programming", "algorithm", "function",
		),
		phrases: []string{"what is", "who is", "how does", "in general"},
	},
	{
		intent: IntentHybrid,
		tokens: wordSet(
			"draft", "compose", "prepare", "suggest", "recommend", "advice",
		),
		phrases: []string{"help me write", "should i", "what should i"},
	},
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// routerSplit lowercases and splits on non-alphanumeric characters without
// the stopword/length filtering Tokenize applies — the router's keyword
// lists deliberately include 1-2 character pronouns ("i", "my").
func routerSplit(s string) []string {
	lower := strings.ToLower(s)
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
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

// Classify deterministically classifies a query into one of the four
// closed intents with a confidence in [0, 0.95]. Pure function: equal
// inputs yield equal outputs.
func Classify(query string) Classification {
	lower := strings.ToLower(query)
	tokenSet := wordSet(routerSplit(query)...)

	counts := make(map[Intent]int, len(intentRules))
	total := 0
	for _, rule := range intentRules {
		count := 0
		for tok := range tokenSet {
			if _, ok := rule.tokens[tok]; ok {
				count++
			}
		}
		// A phrase match counts the same as a single keyword match.
		for _, phrase := range rule.phrases {
			if strings.Contains(lower, phrase) {
				count++
			}
		}
		counts[rule.intent] = count
		total += count
	}

	var best Intent
	bestCount := -1
	// Iterate rules (not the map) for deterministic tie-breaking: the
	// first-declared intent wins ties, matching the contractual ordering
	// personal, memory, general, hybrid.
	for _, rule := range intentRules {
		c := counts[rule.intent]
		if c > bestCount {
			bestCount = c
			best = rule.intent
		}
	}

	if bestCount == 0 {
		return Classification{Intent: IntentHybrid, Confidence: 0.5}
	}

	denom := total
	if denom < 1 {
		denom = 1
	}
	ratio := float64(bestCount) / float64(denom)

	var confidence float64
	if bestCount >= 2 {
		confidence = ratio + 0.3
		if confidence > 0.95 {
			confidence = 0.95
		}
	} else {
		confidence = ratio + 0.2
		if confidence > 0.95 {
			confidence = 0.95
		}
	}

	return Classification{Intent: best, Confidence: confidence}
}

// strategyTable is the contractual intent -> strategy mapping (§4.5).
var strategyTable = map[Intent]Strategy{
	IntentPersonal: {UseRAG: true, UseMemory: true, Depth: DepthFull, MaxResults: 10},
	IntentMemory:   {UseRAG: false, UseMemory: true, Depth: DepthNone, MaxResults: 0},
	IntentGeneral:  {UseRAG: false, UseMemory: false, Depth: DepthNone, MaxResults: 0},
	IntentHybrid:   {UseRAG: true, UseMemory: true, Depth: DepthLight, MaxResults: 3},
}

// StrategyFor returns the default retrieval strategy for an intent.
func StrategyFor(intent Intent) Strategy {
	s := strategyTable[intent]
	s.Intent = intent
	return s
}
