package agent

import "github.com/nholmst/ragent/core"

// Monitor provides hooks to observe a pipeline invocation.
// Implement this interface to track stage execution and outcomes.
type Monitor interface {
	Start(query string)
	BeforeStage(stage string)
	AfterStage(stage string, update *core.StateUpdate)
	Finish(state *core.AgentState)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) BeforeStage(_ string)                       {}
func (n *noopMonitor) AfterStage(_ string, _ *core.StateUpdate)   {}
func (n *noopMonitor) Finish(_ *core.AgentState)                  {}
