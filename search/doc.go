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


// Package search provides semantic similarity search over the knowledge base.
//
// The Engine type implements exhaustive cosine-similarity search:
// the query is embedded once, every stored document is scanned within a
// single read transaction, and documents scoring at or above the
// threshold are ranked by similarity. Tied scores are ordered by
// document id so that result rankings are deterministic across runs.
//
// Documents expose their vectors through alias field resolution (see
// core.VectorFields), so collections written with differing field names
// remain searchable.
package search
