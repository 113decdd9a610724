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


// Package openai provides ai.Embedder and ai.Generator implementations
// backed by OpenAI-compatible HTTP APIs.
//
// The implementations work with any service exposing the OpenAI wire
// format, including OpenAI itself, Ollama, LocalAI, and vLLM. Clients are
// constructed from an ai.Config; no retry or timeout policy is applied
// here, callers control cancellation via context.
package openai
