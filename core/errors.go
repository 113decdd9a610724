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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidMessage indicates a Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrEmptyText indicates the text content is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyId indicates a required identifier is empty.
	ErrEmptyId = errors.New("id cannot be empty")

	// ErrInvalidRole indicates an unrecognized message role.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrUnsupportedFieldValue indicates a document field holds a value of
	// a type the storage layer cannot represent.
	ErrUnsupportedFieldValue = errors.New("unsupported field value type")
)
