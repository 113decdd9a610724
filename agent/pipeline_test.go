package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nholmst/ragent/ai/mock"
	"github.com/nholmst/ragent/core"
	"github.com/nholmst/ragent/search"
	"github.com/nholmst/ragent/storage"
	"github.com/nholmst/ragent/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stageRecorder records the order of stage callbacks for assertions.
type stageRecorder struct {
	started  bool
	finished bool
	stages   []string
}

func (r *stageRecorder) Start(_ string)                           { r.started = true }
func (r *stageRecorder) BeforeStage(stage string)                 { r.stages = append(r.stages, stage) }
func (r *stageRecorder) AfterStage(_ string, _ *core.StateUpdate) {}
func (r *stageRecorder) Finish(_ *core.AgentState)                { r.finished = true }

type testEnv struct {
	pipeline    *Pipeline
	embedder    *mock.MockEmbedder
	generator   *mock.MockGenerator
	docs        storage.DocumentRepository
	checkpoints storage.CheckpointRepository
	recorder    *stageRecorder
}

// isAnalyze/isGenerate discriminate generation calls by their
// instruction payloads.
func isAnalyze(systemPrompt string) bool  { return strings.Contains(systemPrompt, `"yes" or "no"`) }
func isGenerate(systemPrompt string) bool { return strings.Contains(systemPrompt, "FIRST PERSON") }

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	docRepo, checkpointRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		docRepo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	generator := mock.NewMockGenerator()
	provider := mock.NewMockProviderWithServices(embedder, generator)

	engine, err := search.NewEngine(docRepo, provider)
	require.NoError(t, err)

	recorder := &stageRecorder{}
	opts = append([]Option{WithMonitor(recorder)}, opts...)

	pipeline, err := NewPipeline(engine, checkpointRepo, provider, opts...)
	require.NoError(t, err)

	return &testEnv{
		pipeline:    pipeline,
		embedder:    embedder,
		generator:   generator,
		docs:        docRepo,
		checkpoints: checkpointRepo,
		recorder:    recorder,
	}
}

func (e *testEnv) seedDocument(t *testing.T, id, text string) {
	t.Helper()
	doc := &core.Document{
		Id: id,
		Fields: map[string]any{
			core.FieldText:      text,
			core.FieldEmbedding: []float32{1, 0},
		},
	}
	require.NoError(t, e.docs.PutDocument(context.Background(), doc))
}

func TestNewPipeline(t *testing.T) {
	env := newTestEnv(t)
	provider := mock.NewMockProvider()

	t.Run("nil engine", func(t *testing.T) {
		_, err := NewPipeline(nil, env.checkpoints, provider)
		assert.Equal(t, ErrSearchEngineRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(env.pipeline.engine, env.checkpoints, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})

	t.Run("nil checkpoint repository is allowed", func(t *testing.T) {
		p, err := NewPipeline(env.pipeline.engine, nil, provider)
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("invalid top-k", func(t *testing.T) {
		_, err := NewPipeline(env.pipeline.engine, env.checkpoints, provider, WithTopK(0))
		assert.ErrorIs(t, err, ErrInvalidTopK)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := NewPipeline(env.pipeline.engine, env.checkpoints, provider, WithThreshold(1.5))
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})

	t.Run("defaults", func(t *testing.T) {
		p, err := NewPipeline(env.pipeline.engine, env.checkpoints, provider)
		require.NoError(t, err)
		assert.Equal(t, defaultTopK, p.topK)
		assert.Equal(t, float32(defaultThreshold), p.threshold)
		assert.Equal(t, defaultPersona, p.persona)
	})
}

func TestRun_RetrieveBranch(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", "I have ten years of Go experience.")

	env.generator.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		switch {
		case isAnalyze(systemPrompt):
			return "yes", nil
		case isGenerate(systemPrompt):
			return "I have ten years of experience.", nil
		default:
			return "mention the experience", nil
		}
	}

	result := env.pipeline.Run(context.Background(), "What's your experience?", "conv-1", "user-1", nil)

	assert.Equal(t, "I have ten years of experience.", result.Response)
	assert.Equal(t, "conv-1", result.ConversationId)
	assert.Empty(t, result.Err)
	require.Len(t, result.RetrievedContext, 1)
	assert.Equal(t, "doc-1", result.RetrievedContext[0].Id)

	state := result.State
	assert.True(t, state.ShouldRetrieve)
	assert.True(t, state.RetrievalComplete)
	assert.True(t, state.StageOK(core.StageAnalyzeQuery))
	assert.True(t, state.StageOK(core.StageRetrieveContext))
	assert.True(t, state.StageOK(core.StagePlanResponse))
	assert.True(t, state.StageOK(core.StageGenerateResponse))

	// Message log records the stage trail and the final exchange
	contents := make([]string, len(state.Messages))
	for i, msg := range state.Messages {
		contents[i] = msg.Content
	}
	assert.Contains(t, contents, "Query analysis: retrieve")
	assert.Contains(t, contents, "Retrieved 1 relevant documents from knowledge base")
	assert.Contains(t, contents, "What's your experience?")
	assert.Contains(t, contents, "I have ten years of experience.")

	assert.Equal(t, []string{
		core.StageAnalyzeQuery,
		core.StageRetrieveContext,
		core.StagePlanResponse,
		core.StageGenerateResponse,
	}, env.recorder.stages)
	assert.True(t, env.recorder.started)
	assert.True(t, env.recorder.finished)
}

func TestRun_SkipBranch(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", "irrelevant")

	env.generator.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		if isAnalyze(systemPrompt) {
			return "no", nil
		}
		return "Hello there!", nil
	}

	result := env.pipeline.Run(context.Background(), "hello", "conv-1", "", nil)

	assert.Equal(t, "Hello there!", result.Response)
	assert.Empty(t, result.Err)
	assert.Empty(t, result.RetrievedContext)

	state := result.State
	assert.False(t, state.ShouldRetrieve)
	assert.True(t, state.RetrievalComplete)
	assert.NotNil(t, state.RetrievedContext)
	assert.True(t, state.StageOK(core.StageSkipRetrieval))

	_, ranRetrieve := state.Stages[core.StageRetrieveContext]
	assert.False(t, ranRetrieve)

	contents := make([]string, len(state.Messages))
	for i, msg := range state.Messages {
		contents[i] = msg.Content
	}
	assert.Contains(t, contents, "Query analysis: direct answer")
	assert.Contains(t, contents, "Skipping retrieval - answering directly")
}

func TestRun_BranchExclusivity(t *testing.T) {
	for _, verdict := range []string{"yes", "no"} {
		t.Run("analysis answers "+verdict, func(t *testing.T) {
			env := newTestEnv(t)
			env.generator.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
				if isAnalyze(systemPrompt) {
					return verdict, nil
				}
				return "answer", nil
			}

			env.pipeline.Run(context.Background(), "query", "conv-1", "", nil)

			retrieves, skips := 0, 0
			for _, stage := range env.recorder.stages {
				switch stage {
				case core.StageRetrieveContext:
					retrieves++
				case core.StageSkipRetrieval:
					skips++
				}
			}
			assert.Equal(t, 1, retrieves+skips)
		})
	}
}

func TestRun_EmbeddingFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedDocument(t, "doc-1", "content")

	env.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	env.generator.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		if isAnalyze(systemPrompt) {
			return "yes", nil
		}
		return "degraded answer", nil
	}

	result := env.pipeline.Run(context.Background(), "What's your experience?", "conv-1", "", nil)

	// The run still completes with a response
	assert.Equal(t, "degraded answer", result.Response)
	assert.Contains(t, result.Err, "embedding service down")
	assert.Empty(t, result.RetrievedContext)

	state := result.State
	assert.True(t, state.RetrievalComplete)
	assert.False(t, state.StageOK(core.StageRetrieveContext))
	assert.True(t, state.StageOK(core.StageGenerateResponse))
}

func TestRun_AnalyzeFailure(t *testing.T) {
	env := newTestEnv(t)

	env.generator.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		if isAnalyze(systemPrompt) {
			return "", errors.New("analysis unavailable")
		}
		return "best-effort answer", nil
	}

	result := env.pipeline.Run(context.Background(), "query", "conv-1", "", nil)

	// Later stages still run on the default (skip) branch
	assert.Equal(t, "best-effort answer", result.Response)
	assert.Contains(t, result.Err, "analysis unavailable")

	state := result.State
	assert.False(t, state.StageOK(core.StageAnalyzeQuery))
	assert.True(t, state.StageOK(core.StageSkipRetrieval))
	assert.True(t, state.StageOK(core.StagePlanResponse))
	assert.True(t, state.StageOK(core.StageGenerateResponse))
}

func TestRun_GenerateFailure(t *testing.T) {
	env := newTestEnv(t)

	env.generator.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		if isGenerate(systemPrompt) {
			return "", errors.New("generation unavailable")
		}
		if isAnalyze(systemPrompt) {
			return "no", nil
		}
		return "plan", nil
	}

	result := env.pipeline.Run(context.Background(), "query", "conv-1", "", nil)

	assert.Equal(t, generationApology, result.Response)
	assert.Contains(t, result.Err, "generation unavailable")
}

func TestRun_StagePanic(t *testing.T) {
	env := newTestEnv(t)

	env.generator.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		if isGenerate(systemPrompt) {
			panic("boom")
		}
		if isAnalyze(systemPrompt) {
			return "no", nil
		}
		return "plan", nil
	}

	result := env.pipeline.Run(context.Background(), "query", "conv-1", "", nil)

	// The panic is contained and the caller still gets a response
	assert.Equal(t, runApology, result.Response)
	assert.Contains(t, result.Err, "boom")
}

func TestRun_AssignsConversationId(t *testing.T) {
	env := newTestEnv(t)

	result := env.pipeline.Run(context.Background(), "hello", "", "", nil)
	assert.NotEmpty(t, result.ConversationId)
}

func TestRun_ConversationMemory(t *testing.T) {
	env := newTestEnv(t)

	env.generator.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		if isAnalyze(systemPrompt) {
			return "no", nil
		}
		return "answer", nil
	}

	ctx := context.Background()
	first := env.pipeline.Run(ctx, "first question", "conv-1", "", nil)
	firstLen := len(first.State.Messages)
	require.Greater(t, firstLen, 0)

	// A saved checkpoint exists for the conversation
	checkpoint, err := env.checkpoints.LoadCheckpoint(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Len(t, checkpoint.Messages, firstLen)

	// The second run starts from the persisted history
	second := env.pipeline.Run(ctx, "second question", "conv-1", "", nil)
	assert.Greater(t, len(second.State.Messages), firstLen)

	// Unrelated conversations are unaffected
	other, err := env.checkpoints.LoadCheckpoint(ctx, "conv-2")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestRun_PersonaInPrompts(t *testing.T) {
	env := newTestEnv(t, WithPersona("Astrid"))

	env.pipeline.Run(context.Background(), "who are you?", "conv-1", "", nil)

	var sawPersona bool
	for _, pair := range env.generator.Prompts {
		if strings.Contains(pair[0], "Astrid") {
			sawPersona = true
		}
	}
	assert.True(t, sawPersona)
}
