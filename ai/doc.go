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


// Package ai defines the interfaces for AI services used throughout ragent.
//
// The package provides two service abstractions:
//   - Embedder: text embedding generation for semantic search
//   - Generator: natural-language generation for query analysis, response
//     planning, and answer generation
//
// AIProvider aggregates both services behind one handle so callers can be
// constructed with a single collaborator. Concrete implementations live in
// subpackages: openai (OpenAI-compatible APIs) and mock (test doubles).
package ai
