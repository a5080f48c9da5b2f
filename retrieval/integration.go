package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// promptPreamble is the fixed instruction block prepended to every
// assembled context (§6). Its wording is load-bearing: the downstream LLM
// is instructed to emit citation markers based on it verbatim.
const promptPreamble = `Below is information that may or may not be relevant to my request.

When multiple sources provide correct, but conflicting information, ALWAYS use sources from files, not websites.

If your response uses information from provided sources, your response MUST be directly followed with a single exhaustive LIST OF FILEPATHS AND URLS of ALL referenced sources, in the format [{"url": "/path/to/file.pdf"}, {"url": "https://website.com"}]

If no sources were provided or used, DO NOT mention sources in your response.`

// TemporarySource is a caller-supplied document attached to this turn only
// (never ingested into the brain), rendered as its own prompt section.
type TemporarySource struct {
	Source string
	Text   string
}

// Config gates the optional subsystems BrainIntegration composes, matching
// the recognized runtime-toggleable options (§6).
type Config struct {
	UseUnifiedBrain    bool
	UseQueryRouting    bool
	UseHybridSearch    bool
	HybridVectorWeight float64
	UseMemory          bool
	ChunkSize          int
	GraphRAGEnabled    bool
}

// BrainIntegration is the top-level entry point: it wires the router,
// memory recall, retrieval, optional web search, and context assembly into
// one augmented prompt per turn.
type BrainIntegration struct {
	Brain     *KnowledgeBrain
	Memory    *UnifiedMemory
	WebSearch WebSearch
	Assembler *ContextAssembler
	Config    Config
	Budget    Budget
	Logger    zerolog.Logger
	Tracer    trace.Tracer
}

// NewBrainIntegration wires the given collaborators. webSearch and memory
// may be nil to disable those subsystems regardless of Config. tracer may
// be nil, in which case spans are no-ops (the default noop.Tracer).
func NewBrainIntegration(brain *KnowledgeBrain, memory *UnifiedMemory, webSearch WebSearch, cfg Config, budget Budget, logger zerolog.Logger, tracer trace.Tracer) *BrainIntegration {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("retrieval")
	}
	return &BrainIntegration{
		Brain:     brain,
		Memory:    memory,
		WebSearch: webSearch,
		Assembler: NewContextAssembler(),
		Config:    cfg,
		Budget:    budget,
		Logger:    logger,
		Tracer:    tracer,
	}
}

// ProcessMessage classifies the query, recalls memory, retrieves RAG
// results, optionally performs a web search, and assembles the final
// augmented prompt text. source_count reflects how many distinct context
// items (RAG chunks + web results + temporary sources, plus one for a
// recalled-memory block) were included; 0 means no context was added.
func (b *BrainIntegration) ProcessMessage(ctx context.Context, query string, useWebSearch bool, temporarySources []TemporarySource) (string, int) {
	ctx, span := b.Tracer.Start(ctx, "BrainIntegration.ProcessMessage")
	defer span.End()

	if !b.Config.UseUnifiedBrain {
		return query, 0
	}

	intent := IntentPersonal
	if b.Config.UseQueryRouting {
		_, routeSpan := b.Tracer.Start(ctx, "route")
		intent = Classify(query).Intent
		routeSpan.End()
	}
	strategy := StrategyFor(intent)

	var memoryBlock string
	if b.Config.UseMemory && strategy.UseMemory && b.Memory != nil {
		recallCtx, recallSpan := b.Tracer.Start(ctx, "recall")
		memCtx, err := b.Memory.Recall(recallCtx, query, 5, 3)
		recallSpan.End()
		if err != nil {
			b.Logger.Warn().Err(err).Msg("memory recall failed, continuing without it")
		} else if formatted, ok := memCtx.FormatForPrompt(); ok {
			memoryBlock = formatted
		}
	}

	var ragResults []RetrievalResult
	if strategy.UseRAG && b.Brain != nil {
		retrieveCtx, retrieveSpan := b.Tracer.Start(ctx, "retrieve")
		results, err := b.Brain.Retrieve(retrieveCtx, query, strategy.MaxResults, nil)
		retrieveSpan.End()
		if err != nil {
			b.Logger.Warn().Err(err).Msg("retrieval failed, continuing without RAG context")
		} else {
			ragResults = results
		}
	}

	var webResults []WebResult
	if useWebSearch && b.WebSearch != nil && (intent == IntentPersonal || intent == IntentHybrid) {
		count := 2
		if intent == IntentHybrid {
			count = 3
		}
		webCtx, webSpan := b.Tracer.Start(ctx, "web_search")
		results, err := b.WebSearch.Search(webCtx, query, count)
		webSpan.End()
		if err != nil {
			b.Logger.Warn().Err(err).Msg("web search failed, continuing without it")
		} else {
			webResults = results
		}
	}

	ragPrompt := make([]RAGResultForPrompt, len(ragResults))
	for i, r := range ragResults {
		ragPrompt[i] = RAGResultForPrompt{Source: r.Source, Text: r.Text, EntityContext: r.EntityContext}
	}

	_, assembleSpan := b.Tracer.Start(ctx, "assemble")
	assembled := b.Assembler.Assemble(intent, "", memoryBlock, ragPrompt, nil, b.Budget)
	b.Assembler.Optimize(&assembled, b.Budget)
	assembleSpan.End()

	webBlock := formatWebBlock(webResults)
	tempBlock := formatTempBlock(temporarySources)
	sourceCount := len(ragResults) + len(webResults) + len(temporarySources)
	if strings.TrimSpace(assembled.MemoryBlock) != "" {
		sourceCount++
	}

	if strings.TrimSpace(assembled.MemoryBlock) == "" && strings.TrimSpace(assembled.RAGBlock) == "" &&
		strings.TrimSpace(webBlock) == "" && strings.TrimSpace(tempBlock) == "" {
		return query, 0
	}

	contextBlock := joinSections(promptPreamble, assembled.MemoryBlock, assembled.RAGBlock, webBlock, tempBlock)
	return query + "\n\n" + contextBlock + "\n", sourceCount
}

// ProcessInteraction records the turn in memory after a reply has been
// produced. Its success or failure never affects the returned prompt.
func (b *BrainIntegration) ProcessInteraction(ctx context.Context, query, response string, wasHelpful *bool) {
	if !b.Config.UseMemory || b.Memory == nil {
		return
	}
	if err := b.Memory.ProcessInteraction(ctx, query, response, wasHelpful); err != nil {
		b.Logger.Warn().Err(err).Msg("failed to persist interaction to memory")
	}
}

func formatWebBlock(results []WebResult) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Web search results:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] Source: %s\n%s\n\n", i+1, r.Source, r.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTempBlock(sources []TemporarySource) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Temporary files:\n\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "[%d] Source: %s\n%s\n\n", i+1, s.Source, s.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// joinSections concatenates the preamble plus every non-empty optional
// section, separated by a "---" line; empty sections and their separators
// are omitted (§6).
func joinSections(preamble string, sections ...string) string {
	parts := []string{preamble}
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}
