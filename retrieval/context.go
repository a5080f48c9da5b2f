package retrieval

import "strings"

// Budget is the token allocation for one assembly pass, derived from a
// total context size S (§4.10).
type Budget struct {
	Total          int
	SystemPrompt   int
	Memory         int
	RAG            int
	Conversation   int
	ResponseReserve int
}

// StandardBudget is the default total context size (8192 tokens).
const StandardBudget = 8192

// LargeBudget is the pre-defined "large" total context size.
const LargeBudget = 32768

// NewBudget derives the per-section budgets for a total size S per the
// formulas in §4.10: system prompt min(1000,S/8), memory min(500,S/16),
// rag min(4000,S/4), conversation min(2000,S/4), response min(2000,S/4).
func NewBudget(total int) Budget {
	return Budget{
		Total:           total,
		SystemPrompt:    minInt(1000, total/8),
		Memory:          minInt(500, total/16),
		RAG:             minInt(4000, total/4),
		Conversation:    minInt(2000, total/4),
		ResponseReserve: minInt(2000, total/4),
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// EstimateTokens approximates token count as max(1, len(text)/4) for
// non-empty text; the empty string counts as 0. This is coarse by design
// (§4.10); the budget leaves slack.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// TruncateToTokens clips text to maxTokens*4 characters. If the cut falls
// after the last period in the clipped prefix, it ends there and appends
// "\n[truncated]"; otherwise it appends "… [truncated]".
func TruncateToTokens(text string, maxTokens int) string {
	limit := maxTokens * 4
	if limit < 0 {
		limit = 0
	}
	if len(text) <= limit {
		return text
	}
	clipped := text[:limit]
	if idx := strings.LastIndexByte(clipped, '.'); idx >= 0 {
		return clipped[:idx+1] + "\n[truncated]"
	}
	return clipped + "… [truncated]"
}

// ConversationTurn is one message in the conversation history.
type ConversationTurn struct {
	Role    string // "user" or "assistant"
	Content string
}

// AssembledContext is the bounded-length context produced by Assemble.
type AssembledContext struct {
	SystemPrompt     string
	MemoryBlock      string
	RAGBlock         string
	Conversation     []ConversationTurn
	EstimatedTokens  int
}

// RAGResultForPrompt is one retrieval result as the assembler formats it.
type RAGResultForPrompt struct {
	Source        string
	Text          string
	EntityContext []string
}

// ContextAssembler packs a system prompt, memory, RAG results, and
// conversation history into a token-budgeted AssembledContext.
type ContextAssembler struct{}

// NewContextAssembler constructs a stateless assembler.
func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{}
}

// Assemble builds an AssembledContext per §4.10 steps 1-5.
func (a *ContextAssembler) Assemble(
	intent Intent,
	systemPrompt string,
	memoryBlock string,
	ragResults []RAGResultForPrompt,
	conversation []ConversationTurn,
	budget Budget,
) AssembledContext {
	result := AssembledContext{SystemPrompt: systemPrompt}
	total := EstimateTokens(systemPrompt)

	if memoryBlock != "" {
		if EstimateTokens(memoryBlock) <= budget.Memory {
			result.MemoryBlock = memoryBlock
		} else {
			result.MemoryBlock = TruncateToTokens(memoryBlock, budget.Memory)
		}
		total += EstimateTokens(result.MemoryBlock)
	}

	ragBudget := ragBudgetFor(intent, budget)
	if len(ragResults) > 0 && ragBudget > 0 {
		result.RAGBlock = buildRAGBlock(ragResults, ragBudget)
		total += EstimateTokens(result.RAGBlock)
	}

	included, convTokens := selectConversation(conversation, budget.Conversation)
	result.Conversation = included
	total += convTokens

	result.EstimatedTokens = total
	return result
}

// ragBudgetFor returns the share of the RAG budget a given intent gets:
// full for personal queries, half for hybrid, none otherwise (§4.10).
func ragBudgetFor(intent Intent, budget Budget) int {
	switch intent {
	case IntentPersonal:
		return budget.RAG
	case IntentHybrid:
		return budget.RAG / 2
	default:
		return 0
	}
}

func buildRAGBlock(results []RAGResultForPrompt, budget int) string {
	var b strings.Builder
	b.WriteString("## Relevant information from your documents:\n\n")
	headerTokens := EstimateTokens(b.String())
	used := headerTokens
	included := 0

	for i, r := range results {
		var entry strings.Builder
		fmtEntry(&entry, i+1, r)
		entryText := entry.String()
		entryTokens := EstimateTokens(entryText)
		if used+entryTokens > budget {
			break
		}
		b.WriteString(entryText)
		used += entryTokens
		included++
	}

	remainder := len(results) - included
	if remainder > 0 {
		fmt3 := "\n[... " + itoaSimple(remainder) + " more results truncated for brevity]"
		b.WriteString(fmt3)
	}
	return b.String()
}

func fmtEntry(b *strings.Builder, index int, r RAGResultForPrompt) {
	b.WriteString("[")
	b.WriteString(itoaSimple(index))
	b.WriteString("] Source: ")
	b.WriteString(r.Source)
	b.WriteString("\n")
	if len(r.EntityContext) > 0 {
		b.WriteString("Related entities: ")
		b.WriteString(strings.Join(r.EntityContext, ", "))
		b.WriteString("\n")
	}
	b.WriteString(r.Text)
	b.WriteString("\n\n")
}

func itoaSimple(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// selectConversation includes turns newest-to-oldest, each costing
// tokens(content)+10 for role overhead, stopping before the next turn would
// exceed budget, then reverses the included slice to oldest->newest.
func selectConversation(conversation []ConversationTurn, budget int) ([]ConversationTurn, int) {
	var included []ConversationTurn
	used := 0
	for i := len(conversation) - 1; i >= 0; i-- {
		turn := conversation[i]
		cost := EstimateTokens(turn.Content) + 10
		if used+cost > budget {
			break
		}
		included = append(included, turn)
		used += cost
	}
	for i, j := 0, len(included)-1; i < j; i, j = i+1, j-1 {
		included[i], included[j] = included[j], included[i]
	}
	return included, used
}

// Optimize evicts content from c until it fits within budget.Total -
// budget.ResponseReserve, in order: drop oldest conversation turn (keep
// >=2), halve the RAG block (if >500 tokens), halve the memory block (if
// >200 tokens), recomputing after each cut (§4.10 eviction policy).
func (a *ContextAssembler) Optimize(c *AssembledContext, budget Budget) {
	limit := budget.Total - budget.ResponseReserve

	recompute := func() {
		total := EstimateTokens(c.SystemPrompt)
		total += EstimateTokens(c.MemoryBlock)
		total += EstimateTokens(c.RAGBlock)
		for _, t := range c.Conversation {
			total += EstimateTokens(t.Content) + 10
		}
		c.EstimatedTokens = total
	}
	recompute()

	for c.EstimatedTokens > limit {
		if len(c.Conversation) > 2 {
			c.Conversation = c.Conversation[1:]
			recompute()
			continue
		}
		if EstimateTokens(c.RAGBlock) > 500 {
			c.RAGBlock = halveText(c.RAGBlock)
			recompute()
			continue
		}
		if EstimateTokens(c.MemoryBlock) > 200 {
			c.MemoryBlock = halveText(c.MemoryBlock)
			recompute()
			continue
		}
		break
	}
}

func halveText(s string) string {
	if len(s) == 0 {
		return s
	}
	return s[:len(s)/2]
}
