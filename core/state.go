package core

// Stage names for the agent pipeline.
const (
	StageAnalyzeQuery     = "analyze_query"
	StageRetrieveContext  = "retrieve_context"
	StageSkipRetrieval    = "skip_retrieval"
	StagePlanResponse     = "plan_response"
	StageGenerateResponse = "generate_response"
)

// StageStatus records the outcome of a single pipeline stage.
type StageStatus struct {
	OK  bool
	Err string
}

// AgentState is the mutable record threaded through one pipeline
// invocation. It is exclusively owned by that invocation; stages receive
// the current state and return a StateUpdate which is merged into it.
type AgentState struct {
	Messages          []Message       // Append-only conversation history
	Query             string          // Immutable input
	RetrievedContext  []*SearchResult // Empty until the retrieval stage runs
	ShouldRetrieve    bool
	RetrievalComplete bool
	ResponsePlan      string
	FinalResponse     string
	ConversationId    string
	UserId            string
	Err               string                 // First stage error; does not halt execution
	Stages            map[string]StageStatus // Per-stage success/failure tags
	AdditionalContext map[string]string      // Caller-supplied, read-only to the pipeline
}

// StageOK reports whether the named stage ran and succeeded.
func (s *AgentState) StageOK(stage string) bool {
	status, ran := s.Stages[stage]
	return ran && status.OK
}

// StateUpdate is the partial update produced by a single pipeline stage.
// Messages are appended to the state, never replaced. Pointer fields and
// non-nil slices overwrite the corresponding state field; nil means
// "leave unchanged".
type StateUpdate struct {
	Messages          []Message
	RetrievedContext  []*SearchResult // Non-nil replaces, including an empty slice
	ShouldRetrieve    *bool
	RetrievalComplete *bool
	ResponsePlan      *string
	FinalResponse     *string
	Err               string
}

// Apply merges the update into the state and records the stage outcome.
// Only the first error is kept on the state; later stage errors remain
// visible through the per-stage status tags.
func (u *StateUpdate) Apply(state *AgentState, stage string) {
	state.Messages = append(state.Messages, u.Messages...)
	if u.RetrievedContext != nil {
		state.RetrievedContext = u.RetrievedContext
	}
	if u.ShouldRetrieve != nil {
		state.ShouldRetrieve = *u.ShouldRetrieve
	}
	if u.RetrievalComplete != nil {
		state.RetrievalComplete = *u.RetrievalComplete
	}
	if u.ResponsePlan != nil {
		state.ResponsePlan = *u.ResponsePlan
	}
	if u.FinalResponse != nil {
		state.FinalResponse = *u.FinalResponse
	}
	if u.Err != "" && state.Err == "" {
		state.Err = u.Err
	}
	if state.Stages == nil {
		state.Stages = make(map[string]StageStatus)
	}
	state.Stages[stage] = StageStatus{OK: u.Err == "", Err: u.Err}
}
