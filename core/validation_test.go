package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				Id: "doc-1",
				Fields: map[string]any{
					"text":      "some content",
					"embedding": []float32{0.1, 0.2},
				},
			},
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty id",
			doc:     &Document{Fields: map[string]any{"text": "x"}},
			wantErr: ErrEmptyId,
		},
		{
			name: "unsupported field value",
			doc: &Document{
				Id:     "doc-2",
				Fields: map[string]any{"weird": struct{}{}},
			},
			wantErr: ErrUnsupportedFieldValue,
		},
		{
			name: "scalar field values are allowed",
			doc: &Document{
				Id: "doc-3",
				Fields: map[string]any{
					"text":  "x",
					"score": float64(0.5),
					"flag":  true,
					"count": int64(3),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		msg     *Message
		wantErr error
	}{
		{name: "valid user message", msg: &Message{Role: RoleUser, Content: "hi"}},
		{name: "valid assistant message", msg: &Message{Role: RoleAssistant, Content: "hello"}},
		{name: "valid system message", msg: &Message{Role: RoleSystem, Content: "note"}},
		{name: "nil message", msg: nil, wantErr: ErrInvalidMessage},
		{name: "unknown role", msg: &Message{Role: "bot", Content: "x"}, wantErr: ErrInvalidRole},
		{name: "empty content", msg: &Message{Role: RoleUser}, wantErr: ErrEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.msg)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateMessage() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMessage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
