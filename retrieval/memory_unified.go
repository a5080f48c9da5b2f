package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// extractionRule maps a lowercase pattern to the semantic category created
// when a user turn contains it (§4.9 step 1, contractual table).
type extractionRule struct {
	pattern  string
	category SemanticCategory
}

var extractionRules = []extractionRule{
	{"i prefer", SemanticPreference},
	{"i like", SemanticPreference},
	{"i don't like", SemanticPreference},
	{"my favorite", SemanticPreference},
	{"i work at", SemanticPersonalInfo},
	{"i am a", SemanticPersonalInfo},
	{"i live in", SemanticPersonalInfo},
	{"i think", SemanticOpinion},
	{"i believe", SemanticOpinion},
	{"i usually", SemanticBehavior},
	{"i always", SemanticBehavior},
}

// UnifiedMemory owns the three memory tiers exclusively: no other component
// mutates semantic, episodic, or procedural state.
type UnifiedMemory struct {
	mu sync.RWMutex

	semantic   []*SemanticMemory
	episodic   []*EpisodicMemory
	procedural []*ProceduralMemory

	embedder Embedder
	dir      string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewUnifiedMemory creates an empty three-tier memory store. dir is the
// directory holding semantic.json/episodic.json/procedural.json; embedder
// may be nil, in which case embedding-based recall simply finds nothing
// (all memories lack embeddings).
func NewUnifiedMemory(dir string, embedder Embedder, logger zerolog.Logger) *UnifiedMemory {
	return &UnifiedMemory{
		embedder: embedder,
		dir:      dir,
		logger:   logger,
		now:      time.Now,
	}
}

// SemanticCount reports how many facts are currently stored.
func (m *UnifiedMemory) SemanticCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.semantic)
}

// EpisodicCount reports how many episodes are currently stored.
func (m *UnifiedMemory) EpisodicCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.episodic)
}

// ProceduralCount reports how many procedural rules are currently stored.
func (m *UnifiedMemory) ProceduralCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.procedural)
}

// MemoryContext is the result of Recall: the facts, episodes, and
// procedures relevant to a query.
type MemoryContext struct {
	Facts      []SemanticMemory
	Episodes   []EpisodicMemory
	Procedures []ProceduralMemory
}

// FormatForPrompt renders the context as the Markdown-ish block described
// in §4.9. Returns "", false when all three lists are empty.
func (c MemoryContext) FormatForPrompt() (string, bool) {
	if len(c.Facts) == 0 && len(c.Episodes) == 0 && len(c.Procedures) == 0 {
		return "", false
	}

	var b strings.Builder
	if len(c.Facts) > 0 {
		b.WriteString("## Known facts about the user:\n")
		for _, f := range c.Facts {
			fmt.Fprintf(&b, "- %s\n", f.Fact)
		}
	}
	if len(c.Episodes) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## Similar past interactions:\n")
		limit := len(c.Episodes)
		if limit > 3 {
			limit = 3
		}
		for _, e := range c.Episodes[:limit] {
			q := e.Query
			if len(q) > 80 {
				q = q[:80]
			}
			line := fmt.Sprintf("- %q", q)
			if e.WasHelpful != nil && *e.WasHelpful {
				line += " (worked well)"
			}
			b.WriteString(line + "\n")
		}
	}
	if len(c.Procedures) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## User preferences for this type of request:\n")
		for _, p := range c.Procedures {
			fmt.Fprintf(&b, "- %s\n", p.Behavior)
		}
	}
	return b.String(), true
}

// Recall embeds the query and scores each memory tier, returning the
// MemoryContext per §4.9. As a side effect, every returned semantic memory
// has its access count incremented and last-access timestamp refreshed.
func (m *UnifiedMemory) Recall(ctx context.Context, query string, maxFacts, maxEpisodes int) (MemoryContext, error) {
	var queryEmbedding []float32
	if m.embedder != nil {
		emb, err := m.embedder.Encode(ctx, query)
		if err == nil {
			queryEmbedding = emb
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	type scoredFact struct {
		mem   *SemanticMemory
		score float64
	}
	var facts []scoredFact
	if queryEmbedding != nil {
		for _, mem := range m.semantic {
			if len(mem.Embedding) == 0 {
				continue
			}
			sim := CosineSimilarity(queryEmbedding, mem.Embedding)
			daysSinceAccess := now.Sub(mem.LastAccess).Hours() / 24
			recency := 0.7 + 0.3*math.Exp(-daysSinceAccess/30)
			score := sim * recency * mem.Confidence
			if score <= 0.5 {
				continue
			}
			facts = append(facts, scoredFact{mem: mem, score: score})
		}
		sort.Slice(facts, func(i, j int) bool { return facts[i].score > facts[j].score })
		if len(facts) > maxFacts {
			facts = facts[:maxFacts]
		}
	}

	resultFacts := make([]SemanticMemory, 0, len(facts))
	for _, sf := range facts {
		sf.mem.AccessCount++
		sf.mem.LastAccess = now
		resultFacts = append(resultFacts, *sf.mem)
	}

	type scoredEpisode struct {
		mem   *EpisodicMemory
		score float64
	}
	var episodes []scoredEpisode
	if queryEmbedding != nil {
		for _, mem := range m.episodic {
			if len(mem.Embedding) == 0 {
				continue
			}
			sim := CosineSimilarity(queryEmbedding, mem.Embedding)
			helpfulBoost := 1.0
			if mem.WasHelpful != nil && *mem.WasHelpful {
				helpfulBoost = 1.2
			}
			score := sim * helpfulBoost
			if score <= 0.6 {
				continue
			}
			episodes = append(episodes, scoredEpisode{mem: mem, score: score})
		}
		sort.Slice(episodes, func(i, j int) bool { return episodes[i].score > episodes[j].score })
		if len(episodes) > maxEpisodes {
			episodes = episodes[:maxEpisodes]
		}
	}
	resultEpisodes := make([]EpisodicMemory, 0, len(episodes))
	for _, se := range episodes {
		resultEpisodes = append(resultEpisodes, *se.mem)
	}

	lowerQuery := strings.ToLower(query)
	queryWords := strings.Fields(lowerQuery)
	var procedures []*ProceduralMemory
	for _, p := range m.procedural {
		trigger := strings.ToLower(p.Trigger)
		matched := strings.Contains(lowerQuery, trigger)
		if !matched {
			for _, tok := range strings.Fields(trigger) {
				for _, qw := range queryWords {
					if strings.Contains(qw, tok) {
						matched = true
						break
					}
				}
				if matched {
					break
				}
			}
		}
		if matched {
			procedures = append(procedures, p)
		}
	}
	sort.Slice(procedures, func(i, j int) bool { return procedures[i].SuccessRate > procedures[j].SuccessRate })
	resultProcedures := make([]ProceduralMemory, 0, len(procedures))
	for _, p := range procedures {
		resultProcedures = append(resultProcedures, *p)
	}

	return MemoryContext{
		Facts:      resultFacts,
		Episodes:   resultEpisodes,
		Procedures: resultProcedures,
	}, nil
}

// ProcessInteraction extracts semantic facts from userQuery, appends an
// episodic memory summarizing the turn, and enforces the episodic capacity
// bound (§4.9).
func (m *UnifiedMemory) ProcessInteraction(ctx context.Context, userQuery, assistantResponse string, wasHelpful *bool) error {
	lower := strings.ToLower(userQuery)

	m.mu.Lock()
	var newFacts []*SemanticMemory
	for _, rule := range extractionRules {
		if !strings.Contains(lower, rule.pattern) {
			continue
		}
		sentence := findSentenceContaining(userQuery, rule.pattern)
		if sentence == "" {
			continue
		}
		fact := stripLeadingI(sentence)
		fact = "The user " + fact
		if len(fact) < 15 || len(fact) > 300 {
			continue
		}
		if m.hasFactText(fact) {
			continue
		}
		newFacts = append(newFacts, &SemanticMemory{
			ID:         uuid.NewString(),
			Fact:       fact,
			Category:   rule.category,
			Confidence: 0.7,
			CreatedAt:  m.now(),
			LastAccess: m.now(),
		})
	}
	for _, f := range newFacts {
		m.semantic = append(m.semantic, f)
	}
	m.mu.Unlock()

	if m.embedder != nil {
		for _, f := range newFacts {
			if emb, err := m.embedder.Encode(ctx, f.Fact); err == nil {
				m.mu.Lock()
				f.Embedding = emb
				m.mu.Unlock()
			}
		}
	}

	summary := assistantResponse
	if len(summary) > 200 {
		summary = summary[:200]
	}
	episode := &EpisodicMemory{
		ID:         uuid.NewString(),
		Query:      userQuery,
		Summary:    summary,
		WasHelpful: wasHelpful,
		Timestamp:  m.now(),
	}
	if m.embedder != nil {
		if emb, err := m.embedder.Encode(ctx, userQuery); err == nil {
			episode.Embedding = emb
		}
	}

	m.mu.Lock()
	m.episodic = append(m.episodic, episode)
	if len(m.episodic) > episodicCapacity {
		m.episodic = m.episodic[len(m.episodic)-episodicCapacity:]
	}
	m.mu.Unlock()

	return m.saveAll()
}

// hasFactText reports whether an existing fact matches text case-insensitively.
// Callers must hold m.mu.
func (m *UnifiedMemory) hasFactText(text string) bool {
	lower := strings.ToLower(text)
	for _, f := range m.semantic {
		if strings.ToLower(f.Fact) == lower {
			return true
		}
	}
	return false
}

func findSentenceContaining(text, pattern string) string {
	sentences := splitSentences(text)
	for _, s := range sentences {
		if strings.Contains(strings.ToLower(s), pattern) {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			out = append(out, b.String())
			b.Reset()
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// stripLeadingI drops a leading "I " (case-insensitive) from s.
func stripLeadingI(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) >= 2 && (trimmed[0] == 'I' || trimmed[0] == 'i') && trimmed[1] == ' ' {
		return trimmed[2:]
	}
	return trimmed
}

// Consolidate drops semantic memories whose last access is older than 90
// days, confidence is below 0.9, and access count is at most 5; then
// deduplicates by lowercased-trimmed fact text.
func (m *UnifiedMemory) Consolidate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	kept := make([]*SemanticMemory, 0, len(m.semantic))
	seen := make(map[string]struct{}, len(m.semantic))
	for _, mem := range m.semantic {
		age := now.Sub(mem.LastAccess)
		if age > consolidationMaxAge && mem.Confidence < 0.9 && mem.AccessCount <= 5 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(mem.Fact))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, mem)
	}
	m.semantic = kept
	return m.saveAllLocked()
}

// --- Persistence -----------------------------------------------------------

func (m *UnifiedMemory) saveAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveAllLocked()
}

func (m *UnifiedMemory) saveAllLocked() error {
	if m.dir == "" {
		return nil
	}
	if err := saveJSONAtomic(filepath.Join(m.dir, "semantic.json"), m.semantic); err != nil {
		m.logger.Warn().Err(err).Msg("failed to save semantic memory")
		return err
	}
	if err := saveJSONAtomic(filepath.Join(m.dir, "episodic.json"), m.episodic); err != nil {
		m.logger.Warn().Err(err).Msg("failed to save episodic memory")
		return err
	}
	if err := saveJSONAtomic(filepath.Join(m.dir, "procedural.json"), m.procedural); err != nil {
		m.logger.Warn().Err(err).Msg("failed to save procedural memory")
		return err
	}
	return nil
}

// Load reads all three memory files; a missing or corrupt file yields an
// empty store for that tier with a logged warning (initialize must not fail).
func (m *UnifiedMemory) Load() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := loadJSON(filepath.Join(m.dir, "semantic.json"), &m.semantic); err != nil {
		m.logger.Warn().Err(err).Msg("semantic memory unreadable, starting empty")
		m.semantic = nil
	}
	if err := loadJSON(filepath.Join(m.dir, "episodic.json"), &m.episodic); err != nil {
		m.logger.Warn().Err(err).Msg("episodic memory unreadable, starting empty")
		m.episodic = nil
	}
	if err := loadJSON(filepath.Join(m.dir, "procedural.json"), &m.procedural); err != nil {
		m.logger.Warn().Err(err).Msg("procedural memory unreadable, starting empty")
		m.procedural = nil
	}
}

func saveJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrIoError, path, err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "mem-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrIoError, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp file: %v", ErrIoError, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", ErrIoError, err)
	}
	return os.Rename(tmpPath, path)
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrIoError, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return nil
}
