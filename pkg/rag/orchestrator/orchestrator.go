package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fishquery-be/internal/constant"
	"fishquery-be/internal/entity"
	"fishquery-be/internal/pkg/logger"
	"fishquery-be/internal/repository/unitofwork"
	"fishquery-be/pkg/embedding"
	"fishquery-be/pkg/llm"
	"fishquery-be/pkg/rag/fusion"
	"fishquery-be/pkg/rag/history"
	"fishquery-be/pkg/rag/prompt"
	"fishquery-be/pkg/rag/retriever"

	"github.com/google/uuid"
)

// State is the lifecycle position of one query turn.
type State string

const (
	StateReceived        State = "received"
	StateEmbedding       State = "embedding"
	StateRetrieving      State = "retrieving"
	StateFusing          State = "fusing"
	StateContextAssembly State = "context_assembly"
	StateGenerating      State = "generating"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)

// Event types delivered on the turn stream. The stream always terminates with
// done or error, never a bare close.
const (
	EventChunk = "chunk"
	EventDone  = "done"
	EventError = "error"
)

type Event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	// Seq is set on the done event: the sequence of the persisted answer.
	Seq int `json:"seq,omitempty"`
	// Augmented is false when the turn ran without retrieval context.
	Augmented bool `json:"augmented,omitempty"`
	// Unreranked marks a context ordered without the rerank model.
	Unreranked bool `json:"unreranked,omitempty"`
}

// VectorSearcher searches by query embedding.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]retriever.Candidate, error)
}

// TermSearcher searches by extracted query terms.
type TermSearcher interface {
	Search(ctx context.Context, terms []string, topK int) ([]retriever.Candidate, error)
}

type Config struct {
	TopK             int
	EmbedTaskType    string
	RetrieverTimeout time.Duration // per-retriever bound
	FanoutTimeout    time.Duration // overall bound, >= RetrieverTimeout
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = 10
	}
	if c.RetrieverTimeout <= 0 {
		c.RetrieverTimeout = 3 * time.Second
	}
	if c.FanoutTimeout < c.RetrieverTimeout {
		c.FanoutTimeout = c.RetrieverTimeout
	}
	return c
}

// Orchestrator runs one retrieval-augmented turn: embed, fan out, fuse,
// assemble, generate, persist. All collaborators are injected and long-lived;
// the orchestrator itself holds no per-conversation state and is safe for
// concurrent requests.
type Orchestrator struct {
	embedder      embedding.EmbeddingProvider
	vector        VectorSearcher
	graph         TermSearcher
	geo           TermSearcher
	fuser         *fusion.Fuser
	historyLoader *history.Loader
	llmProvider   llm.LLMProvider
	uowFactory    unitofwork.RepositoryFactory
	logger        logger.ILogger
	cfg           Config
}

func New(
	embedder embedding.EmbeddingProvider,
	vector VectorSearcher,
	graph TermSearcher,
	geo TermSearcher,
	fuser *fusion.Fuser,
	historyLoader *history.Loader,
	llmProvider llm.LLMProvider,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		embedder:      embedder,
		vector:        vector,
		graph:         graph,
		geo:           geo,
		fuser:         fuser,
		historyLoader: historyLoader,
		llmProvider:   llmProvider,
		uowFactory:    uowFactory,
		logger:        log,
		cfg:           cfg.withDefaults(),
	}
}

// Execute runs the full turn for a query in an existing conversation and
// streams events to the returned channel. The channel is closed after a
// terminal done or error event. Cancelling ctx aborts upstream calls; a
// cancelled turn persists the user's query but never the answer.
func (o *Orchestrator) Execute(ctx context.Context, conversationId uuid.UUID, query string) (<-chan Event, error) {
	// The user's own message is durable before generation begins, whatever
	// happens to the answer.
	if err := o.appendMessage(ctx, conversationId, constant.ChatMessageRoleUser, query); err != nil {
		return nil, err
	}

	events := make(chan Event)
	go o.run(ctx, conversationId, query, events)
	return events, nil
}

func (o *Orchestrator) run(ctx context.Context, conversationId uuid.UUID, query string, events chan<- Event) {
	defer close(events)

	state := StateReceived
	turn := map[string]interface{}{"conversation_id": conversationId.String()}

	// Received -> Embedding
	state = StateEmbedding
	augmented := true
	var queryVector []float32

	embedRes, err := o.embedder.Generate(ctx, query, o.cfg.EmbedTaskType)
	if err != nil {
		// Retrieval augmentation degrades to plain generation.
		augmented = false
		o.logger.Warn("orchestrator", "embedding failed, generating without retrieval", mergeDetails(turn, map[string]interface{}{
			"error": err.Error(),
		}))
	} else {
		queryVector = embedRes.Embedding.Values
	}

	var fused *fusion.Context
	if augmented {
		// Embedding -> Retrieving
		state = StateRetrieving
		candidates := o.fanOut(ctx, query, queryVector)

		// Retrieving -> Fusing
		state = StateFusing
		fused = o.fuser.Fuse(ctx, query, candidates)
	} else {
		fused = &fusion.Context{}
	}

	// Fusing -> ContextAssembly
	state = StateContextAssembly
	turns, err := o.historyLoader.LoadConversationHistory(ctx, conversationId)
	if err != nil {
		// Degraded: answer without prior turns rather than failing the turn.
		o.logger.Warn("orchestrator", "history load failed", mergeDetails(turn, map[string]interface{}{
			"error": err.Error(),
		}))
		turns = nil
	}
	// The current query was persisted before this load; the builder appends
	// it itself, so drop it from the tail of the history.
	if n := len(turns); n > 0 && turns[n-1].Role == constant.ChatMessageRoleUser && turns[n-1].Content == query {
		turns = turns[:n-1]
	}
	messages := prompt.NewBuilder(fused, query, turns).Build()

	// ContextAssembly -> Generating
	state = StateGenerating
	chunks, err := o.llmProvider.ChatStream(ctx, messages)
	if err != nil {
		// Failure before the first chunk is the one hard per-turn error.
		state = StateFailed
		o.logger.Error("orchestrator", "generation unavailable", mergeDetails(turn, map[string]interface{}{
			"error": err.Error(),
			"state": string(state),
		}))
		o.emit(ctx, events, Event{Type: EventError, Content: "answer generation is unavailable, please retry"})
		return
	}

	var answer strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			// Mid-stream failure: explicit error marker, partial answer is
			// discarded, never persisted.
			state = StateFailed
			o.logger.Error("orchestrator", "generation interrupted mid-stream", mergeDetails(turn, map[string]interface{}{
				"error":   chunk.Err.Error(),
				"partial": answer.Len(),
			}))
			o.emit(ctx, events, Event{Type: EventError, Content: "answer was interrupted, please retry"})
			return
		}
		answer.WriteString(chunk.Content)
		if !o.emit(ctx, events, Event{Type: EventChunk, Content: chunk.Content}) {
			// Client gone: clean termination, no answer persisted.
			return
		}
	}

	if ctx.Err() != nil {
		return
	}

	// Generating -> Completed: the answer becomes durable exactly once.
	seq, err := o.appendAnswer(ctx, conversationId, answer.String())
	if err != nil {
		state = StateFailed
		o.logger.Error("orchestrator", "failed to persist answer", mergeDetails(turn, map[string]interface{}{
			"error": err.Error(),
		}))
		o.emit(ctx, events, Event{Type: EventError, Content: "answer could not be saved, please retry"})
		return
	}

	state = StateCompleted
	o.logger.Info("orchestrator", "turn completed", mergeDetails(turn, map[string]interface{}{
		"state":      string(state),
		"augmented":  augmented,
		"unreranked": fused.Unreranked,
		"context":    len(fused.Items),
		"seq":        seq,
	}))
	o.emit(ctx, events, Event{
		Type:       EventDone,
		Seq:        seq,
		Augmented:  augmented,
		Unreranked: fused.Unreranked,
	})
}

// fanOut launches the three retrievers concurrently and waits for all of them
// to settle. A failed or slow retriever contributes an empty candidate set;
// nothing blocks past the fan-out bound.
func (o *Orchestrator) fanOut(ctx context.Context, query string, queryVector []float32) []retriever.Candidate {
	fanCtx, cancel := context.WithTimeout(ctx, o.cfg.FanoutTimeout)
	defer cancel()

	terms := retriever.ExtractTerms(query)

	results := make([][]retriever.Candidate, 3)
	var wg sync.WaitGroup

	search := func(slot int, source string, fn func(context.Context) ([]retriever.Candidate, error)) {
		defer wg.Done()
		retrCtx, retrCancel := context.WithTimeout(fanCtx, o.cfg.RetrieverTimeout)
		defer retrCancel()

		candidates, err := fn(retrCtx)
		if err != nil {
			// A cancelled caller is not a retriever failure.
			if !errors.Is(err, context.Canceled) {
				o.logger.Warn("orchestrator", "retriever failed", map[string]interface{}{
					"source": source,
					"error":  err.Error(),
				})
			}
			return
		}
		results[slot] = candidates
	}

	wg.Add(3)
	go search(0, constant.CandidateSourceVector, func(c context.Context) ([]retriever.Candidate, error) {
		return o.vector.Search(c, queryVector, o.cfg.TopK)
	})
	go search(1, constant.CandidateSourceGraph, func(c context.Context) ([]retriever.Candidate, error) {
		return o.graph.Search(c, terms, o.cfg.TopK)
	})
	go search(2, constant.CandidateSourceGeo, func(c context.Context) ([]retriever.Candidate, error) {
		return o.geo.Search(c, terms, o.cfg.TopK)
	})
	wg.Wait()

	var all []retriever.Candidate
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// appendSeqRetries bounds how often a write may chase a fresher sequence
// slot when concurrent turns on the same conversation race for it.
const appendSeqRetries = 3

func (o *Orchestrator) appendMessage(ctx context.Context, conversationId uuid.UUID, role, content string) error {
	_, err := o.appendWithSeq(ctx, conversationId, role, content)
	return err
}

func (o *Orchestrator) appendAnswer(ctx context.Context, conversationId uuid.UUID, content string) (int, error) {
	return o.appendWithSeq(ctx, conversationId, constant.ChatMessageRoleAssistant, content)
}

// appendWithSeq claims the next free sequence slot and persists the message
// into it. A concurrent turn can win the slot between NextSeq and Append, in
// which case the conflict surfaces as inserted=false and the write retries on
// a fresh slot. The returned seq is always the one actually stored.
func (o *Orchestrator) appendWithSeq(ctx context.Context, conversationId uuid.UUID, role, content string) (int, error) {
	uow := o.uowFactory.NewUnitOfWork(ctx)
	repo := uow.MessageRepository()

	for attempt := 0; attempt < appendSeqRetries; attempt++ {
		seq, err := repo.NextSeq(ctx, conversationId)
		if err != nil {
			return 0, err
		}
		inserted, err := repo.Append(ctx, &entity.Message{
			Id:             uuid.New(),
			ConversationId: conversationId,
			Role:           role,
			Content:        content,
			Seq:            seq,
		})
		if err != nil {
			return 0, err
		}
		if inserted {
			return seq, nil
		}
	}
	return 0, fmt.Errorf("conversation %s: sequence contention persisted after %d attempts", conversationId, appendSeqRetries)
}

// emit delivers an event unless the consumer is gone. Reports false when the
// context is cancelled.
func (o *Orchestrator) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func mergeDetails(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
