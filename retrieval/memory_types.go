package retrieval

import "time"

// SemanticCategory is the closed set of tags a semantic memory may carry.
type SemanticCategory string

const (
	SemanticPreference  SemanticCategory = "preference"
	SemanticPersonalInfo SemanticCategory = "personal_info"
	SemanticRelationship SemanticCategory = "relationship"
	SemanticOpinion      SemanticCategory = "opinion"
	SemanticBehavior     SemanticCategory = "behavior"
)

// SemanticMemory is a durable fact about the user.
type SemanticMemory struct {
	ID         string
	Fact       string
	Category   SemanticCategory
	Confidence float64
	CreatedAt  time.Time
	LastAccess time.Time
	AccessCount int
	Embedding  []float32
}

// EpisodicMemory records a past user turn and a summary of the response.
// The store is capacity-bounded at 500; oldest evicted first.
type EpisodicMemory struct {
	ID          string
	Query       string
	Summary     string // response summary, <=200 chars
	WasHelpful  *bool
	Context     string
	Timestamp   time.Time
	Embedding   []float32
}

// ProceduralMemory is a trigger -> behavior rule matched by substring.
type ProceduralMemory struct {
	ID           string
	Trigger      string
	Behavior     string
	Examples     []string
	SuccessRate  float64
	CreatedAt    time.Time
}

const episodicCapacity = 500

// consolidationMaxAge is the age beyond which a low-confidence,
// low-access-count semantic memory is eligible for removal (§3, §4.9).
const consolidationMaxAge = 90 * 24 * time.Hour
