package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/nholmst/ragent/core"
)

// analyzeQuery classifies the query to decide whether retrieval is needed.
// The model answers a strict yes/no protocol; anything other than "yes"
// resolves to a direct answer. On generation failure the stage records the
// error and returns no decision, leaving ShouldRetrieve at its prior value.
func (p *Pipeline) analyzeQuery(ctx context.Context, state *core.AgentState) *core.StateUpdate {
	response, err := p.generator.Generate(ctx, analyzeSystemPrompt(p.persona), analyzeUserPrompt(state.Query))
	if err != nil {
		p.logger.Error("query analysis failed", "err", err)
		return &core.StateUpdate{Err: err.Error()}
	}

	shouldRetrieve := strings.ToLower(strings.TrimSpace(response)) == "yes"

	p.logger.Info("query analyzed",
		"query", preview(state.Query),
		"shouldRetrieve", shouldRetrieve)

	decision := "direct answer"
	if shouldRetrieve {
		decision = "retrieve"
	}

	return &core.StateUpdate{
		ShouldRetrieve: &shouldRetrieve,
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: "Query analysis: " + decision},
		},
	}
}

// retrieveContext searches the knowledge base for documents relevant to
// the query. Retrieval failure degrades to an empty context rather than
// halting the pipeline; RetrievalComplete is set either way.
func (p *Pipeline) retrieveContext(ctx context.Context, state *core.AgentState) *core.StateUpdate {
	complete := true

	results, err := p.engine.Search(ctx, state.Query, p.topK, p.threshold)
	if err != nil {
		p.logger.Error("context retrieval failed", "err", err)
		return &core.StateUpdate{
			Err:               err.Error(),
			RetrievalComplete: &complete,
			RetrievedContext:  []*core.SearchResult{},
		}
	}

	p.logger.Info("context retrieved",
		"query", preview(state.Query),
		"resultsCount", len(results))

	return &core.StateUpdate{
		RetrievedContext:  results,
		RetrievalComplete: &complete,
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: fmt.Sprintf("Retrieved %d relevant documents from knowledge base", len(results))},
		},
	}
}

// skipRetrieval is the no-op branch for queries that don't need the
// knowledge base. It mirrors the retrieve path's postcondition so
// downstream stages see a uniform state.
func (p *Pipeline) skipRetrieval(ctx context.Context, state *core.AgentState) *core.StateUpdate {
	complete := true
	return &core.StateUpdate{
		RetrievalComplete: &complete,
		RetrievedContext:  []*core.SearchResult{},
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: "Skipping retrieval - answering directly"},
		},
	}
}

// planResponse drafts a short plan for answering the query from the
// retrieved context. The plan is an intermediate artifact consumed only
// by the generation stage.
func (p *Pipeline) planResponse(ctx context.Context, state *core.AgentState) *core.StateUpdate {
	plan, err := p.generator.Generate(ctx, planSystemPrompt, planUserPrompt(state.Query, state.RetrievedContext))
	if err != nil {
		p.logger.Error("response planning failed", "err", err)
		return &core.StateUpdate{Err: err.Error()}
	}

	p.logger.Info("response planned",
		"query", preview(state.Query),
		"planLength", len(plan))

	return &core.StateUpdate{
		ResponsePlan: &plan,
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: "Response plan created: " + planPreview(plan) + "..."},
		},
	}
}

// generateResponse produces the final persona answer and appends the
// user/assistant exchange to the conversation history. On failure the
// stage substitutes a fixed apology so the invocation still yields a
// response.
func (p *Pipeline) generateResponse(ctx context.Context, state *core.AgentState) *core.StateUpdate {
	response, err := p.generator.Generate(ctx,
		generateSystemPrompt(p.persona),
		generateUserPrompt(state.Query, state.RetrievedContext, state.ResponsePlan))
	if err != nil {
		p.logger.Error("response generation failed", "err", err)
		apology := generationApology
		return &core.StateUpdate{
			Err:           err.Error(),
			FinalResponse: &apology,
		}
	}

	p.logger.Info("response generated",
		"query", preview(state.Query),
		"responseLength", len(response))

	return &core.StateUpdate{
		FinalResponse: &response,
		Messages: []core.Message{
			{Role: core.RoleUser, Content: state.Query},
			{Role: core.RoleAssistant, Content: response},
		},
	}
}

// preview truncates a query for logging.
func preview(query string) string {
	return truncate(query, 100)
}
