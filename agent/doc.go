// Copyright 2025 Nils Holmstrom
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package agent implements the staged retrieval-augmented answer pipeline.
//
// A run is a strict DAG of stages:
//
//	analyze_query → (retrieve_context | skip_retrieval) → plan_response → generate_response
//
// The analysis stage decides via a yes/no generation call whether the
// query needs the knowledge base; exactly one of the retrieve/skip
// branches executes. Each stage returns a partial state update that is
// merged into the per-invocation AgentState, and each stage is guarded
// so that faults are recorded into the state rather than raised: a run
// always completes and always yields a response, degraded to an apology
// at worst.
//
// Conversation history is restored from and persisted to a checkpoint
// store keyed by conversation id, when one is configured.
package agent
