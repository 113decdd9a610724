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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Id must not be empty (assigned before storage)
//   - Field values must be representable by the storage layer
//
// NOT validated:
//   - Vector presence (documents without vectors are legal, they are just
//     excluded from search)
//   - Text presence (search substitutes a placeholder)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyId)
	}

	for name, value := range doc.Fields {
		if !IsSupportedFieldValue(value) {
			return fmt.Errorf("%w: %w: field %q holds %T",
				ErrInvalidDocument, ErrUnsupportedFieldValue, name, value)
		}
	}

	return nil
}

// IsSupportedFieldValue reports whether a field value can round-trip
// through the storage layer's serialization.
func IsSupportedFieldValue(value any) bool {
	switch value.(type) {
	case string, []float32, float64, bool, int64:
		return true
	default:
		return false
	}
}

// ValidateMessage validates a conversation Message.
//
// Validation rules:
//   - Role must be one of user, assistant, system
//   - Content must not be empty
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if err := ValidateRole(msg.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if msg.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyText)
	}

	return nil
}

// ValidateRole validates that a message role has a recognized value.
func ValidateRole(role string) error {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
}
