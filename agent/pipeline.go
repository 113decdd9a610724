package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nholmst/ragent/ai"
	"github.com/nholmst/ragent/core"
	"github.com/nholmst/ragent/search"
	"github.com/nholmst/ragent/storage"
)

const (
	defaultTopK      = 5
	defaultThreshold = 0.7
	defaultPersona   = "Peter"
	defaultUserId    = "anonymous"

	// generationApology replaces the answer when the generation stage fails.
	generationApology = "I apologize, but I encountered an error while generating a response. Please try again."

	// runApology replaces the answer when the whole run fails to produce one.
	runApology = "I apologize, but I encountered an error processing your request."
)

// Pipeline executes the staged retrieval-augmented answer flow:
// analyze the query, retrieve context or skip, plan, then generate.
// Every stage is individually guarded; a stage failure degrades the
// answer instead of failing the run.
type Pipeline struct {
	engine      *search.Engine
	generator   ai.Generator
	checkpoints storage.CheckpointRepository
	topK        int
	threshold   float32
	persona     string
	monitor     Monitor
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithTopK sets the retrieval result limit.
// Default is 5.
func WithTopK(topK int) Option {
	return func(p *Pipeline) error {
		if topK <= 0 {
			return ErrInvalidTopK
		}
		p.topK = topK
		return nil
	}
}

// WithThreshold sets the retrieval similarity threshold.
// Default is 0.7.
func WithThreshold(threshold float32) Option {
	return func(p *Pipeline) error {
		if threshold < 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		p.threshold = threshold
		return nil
	}
}

// WithPersona sets the name the assistant answers as.
// Default is "Peter".
func WithPersona(persona string) Option {
	return func(p *Pipeline) error {
		if persona != "" {
			p.persona = persona
		}
		return nil
	}
}

// WithMonitor sets a monitor receiving stage callbacks.
// Default is a no-op monitor.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new agent pipeline.
// The checkpoint repository is optional; without it conversations are
// stateless.
func NewPipeline(
	engine *search.Engine,
	checkpoints storage.CheckpointRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if engine == nil {
		return nil, ErrSearchEngineRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		engine:      engine,
		generator:   provider.Generator(),
		checkpoints: checkpoints,
		topK:        defaultTopK,
		threshold:   defaultThreshold,
		persona:     defaultPersona,
		monitor:     &noopMonitor{},
		logger:      slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Result is the caller-facing outcome of one pipeline invocation.
// Err is diagnostic: a non-empty value does not mean the run failed to
// produce a response.
type Result struct {
	Response         string
	ConversationId   string
	RetrievedContext []*core.SearchResult
	Err              string
	State            *core.AgentState
}

// Run executes the full pipeline for one query. It never returns an
// error: stage faults are recorded in the result's Err field and the
// response is degraded to an apology at worst.
func (p *Pipeline) Run(ctx context.Context, query, conversationId, userId string, additionalContext map[string]string) *Result {
	if conversationId == "" {
		conversationId = uuid.NewString()
	}
	if userId == "" {
		userId = defaultUserId
	}

	state := &core.AgentState{
		Messages:          []core.Message{},
		Query:             query,
		RetrievedContext:  []*core.SearchResult{},
		ConversationId:    conversationId,
		UserId:            userId,
		Stages:            make(map[string]core.StageStatus),
		AdditionalContext: additionalContext,
	}

	// Restore conversation history
	if p.checkpoints != nil {
		checkpoint, err := p.checkpoints.LoadCheckpoint(ctx, conversationId)
		if err != nil {
			p.logger.Warn("failed to load conversation checkpoint", "conversationId", conversationId, "err", err)
		} else if checkpoint != nil {
			state.Messages = checkpoint.Messages
		}
	}

	p.monitor.Start(query)

	p.runStage(ctx, state, core.StageAnalyzeQuery, p.analyzeQuery)

	// Exactly one of retrieve/skip runs, determined by the analysis
	if state.ShouldRetrieve {
		p.runStage(ctx, state, core.StageRetrieveContext, p.retrieveContext)
	} else {
		p.runStage(ctx, state, core.StageSkipRetrieval, p.skipRetrieval)
	}

	p.runStage(ctx, state, core.StagePlanResponse, p.planResponse)
	p.runStage(ctx, state, core.StageGenerateResponse, p.generateResponse)

	p.monitor.Finish(state)

	if state.FinalResponse == "" {
		state.FinalResponse = runApology
	}

	// Persist conversation history; failure is diagnostic only
	if p.checkpoints != nil {
		checkpoint := &core.Checkpoint{
			ConversationId: conversationId,
			Messages:       state.Messages,
		}
		if err := p.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
			p.logger.Warn("failed to save conversation checkpoint", "conversationId", conversationId, "err", err)
		}
	}

	p.logger.Info("pipeline run completed",
		"query", preview(query),
		"conversationId", conversationId,
		"retrievedDocs", len(state.RetrievedContext),
		"hasError", state.Err != "")

	return &Result{
		Response:         state.FinalResponse,
		ConversationId:   conversationId,
		RetrievedContext: state.RetrievedContext,
		Err:              state.Err,
		State:            state,
	}
}

// runStage executes one guarded stage and merges its update into state.
func (p *Pipeline) runStage(ctx context.Context, state *core.AgentState, stage string, fn func(context.Context, *core.AgentState) *core.StateUpdate) {
	p.monitor.BeforeStage(stage)
	update := p.guardStage(ctx, state, stage, fn)
	update.Apply(state, stage)
	p.monitor.AfterStage(stage, update)
}

// guardStage converts a stage panic into a recorded error so no fault
// escapes the pipeline boundary.
func (p *Pipeline) guardStage(ctx context.Context, state *core.AgentState, stage string, fn func(context.Context, *core.AgentState) *core.StateUpdate) (update *core.StateUpdate) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("stage panicked", "stage", stage, "panic", r)
			update = &core.StateUpdate{Err: fmt.Sprintf("stage %s panicked: %v", stage, r)}
		}
	}()

	update = fn(ctx, state)
	if update == nil {
		update = &core.StateUpdate{}
	}
	return update
}
