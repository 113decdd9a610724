package core

import (
	"testing"
)

func boolPtr(v bool) *bool       { return &v }
func strPtr(v string) *string    { return &v }

func TestStateUpdate_Apply(t *testing.T) {
	t.Run("messages are appended, not replaced", func(t *testing.T) {
		state := &AgentState{
			Messages: []Message{{Role: RoleUser, Content: "first"}},
		}
		update := &StateUpdate{
			Messages: []Message{{Role: RoleSystem, Content: "second"}},
		}
		update.Apply(state, StageAnalyzeQuery)

		if len(state.Messages) != 2 {
			t.Fatalf("len(Messages) = %d, want 2", len(state.Messages))
		}
		if state.Messages[0].Content != "first" || state.Messages[1].Content != "second" {
			t.Errorf("message order not preserved: %+v", state.Messages)
		}
	})

	t.Run("nil fields leave state unchanged", func(t *testing.T) {
		state := &AgentState{
			ShouldRetrieve: true,
			ResponsePlan:   "keep me",
		}
		(&StateUpdate{}).Apply(state, StagePlanResponse)

		if !state.ShouldRetrieve {
			t.Error("ShouldRetrieve was reset by an empty update")
		}
		if state.ResponsePlan != "keep me" {
			t.Error("ResponsePlan was reset by an empty update")
		}
	})

	t.Run("empty retrieved context still replaces", func(t *testing.T) {
		state := &AgentState{
			RetrievedContext: []*SearchResult{{Id: "stale"}},
		}
		update := &StateUpdate{
			RetrievedContext:  []*SearchResult{},
			RetrievalComplete: boolPtr(true),
		}
		update.Apply(state, StageSkipRetrieval)

		if len(state.RetrievedContext) != 0 {
			t.Errorf("RetrievedContext = %v, want empty", state.RetrievedContext)
		}
		if !state.RetrievalComplete {
			t.Error("RetrievalComplete not set")
		}
	})

	t.Run("first error wins", func(t *testing.T) {
		state := &AgentState{}
		(&StateUpdate{Err: "analyze failed"}).Apply(state, StageAnalyzeQuery)
		(&StateUpdate{Err: "plan failed"}).Apply(state, StagePlanResponse)

		if state.Err != "analyze failed" {
			t.Errorf("Err = %q, want first error", state.Err)
		}
		if state.Stages[StagePlanResponse].Err != "plan failed" {
			t.Error("later stage error lost from stage status")
		}
	})

	t.Run("stage status tags", func(t *testing.T) {
		state := &AgentState{}
		(&StateUpdate{ShouldRetrieve: boolPtr(true)}).Apply(state, StageAnalyzeQuery)
		(&StateUpdate{Err: "boom"}).Apply(state, StageRetrieveContext)

		if !state.StageOK(StageAnalyzeQuery) {
			t.Error("StageOK(analyze_query) = false, want true")
		}
		if state.StageOK(StageRetrieveContext) {
			t.Error("StageOK(retrieve_context) = true, want false")
		}
		if state.StageOK(StagePlanResponse) {
			t.Error("StageOK reports success for a stage that never ran")
		}
	})

	t.Run("scalar overwrites", func(t *testing.T) {
		state := &AgentState{}
		update := &StateUpdate{
			ResponsePlan:  strPtr("the plan"),
			FinalResponse: strPtr("the answer"),
		}
		update.Apply(state, StageGenerateResponse)

		if state.ResponsePlan != "the plan" || state.FinalResponse != "the answer" {
			t.Errorf("scalar fields not applied: %+v", state)
		}
	})
}
