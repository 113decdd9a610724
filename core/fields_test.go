package core

import (
	"testing"
)

func TestVector_AliasPriority(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   []float32
		found  bool
	}{
		{
			name:   "primary name",
			fields: map[string]any{"embedding": []float32{1, 2}},
			want:   []float32{1, 2},
			found:  true,
		},
		{
			name:   "second alias",
			fields: map[string]any{"embeddings": []float32{3, 4}},
			want:   []float32{3, 4},
			found:  true,
		},
		{
			name:   "third alias",
			fields: map[string]any{"vector": []float32{5, 6}},
			want:   []float32{5, 6},
			found:  true,
		},
		{
			name: "primary wins over alias",
			fields: map[string]any{
				"vector":    []float32{9, 9},
				"embedding": []float32{1, 1},
			},
			want:  []float32{1, 1},
			found: true,
		},
		{
			name:   "no recognized field",
			fields: map[string]any{"vec": []float32{1}},
			found:  false,
		},
		{
			name:   "empty vector excluded",
			fields: map[string]any{"embedding": []float32{}},
			found:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{Id: "d1", Fields: tt.fields}
			got, ok := doc.Vector()
			if ok != tt.found {
				t.Fatalf("Vector() found = %v, want %v", ok, tt.found)
			}
			if !tt.found {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Vector() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Vector() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestText_AliasPriority(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   string
	}{
		{
			name:   "primary name",
			fields: map[string]any{"text": "hello"},
			want:   "hello",
		},
		{
			name:   "content alias",
			fields: map[string]any{"content": "from content"},
			want:   "from content",
		},
		{
			name:   "chunk alias",
			fields: map[string]any{"chunk": "from chunk"},
			want:   "from chunk",
		},
		{
			name:   "document alias",
			fields: map[string]any{"document": "from document"},
			want:   "from document",
		},
		{
			name:   "no recognized field falls back to placeholder",
			fields: map[string]any{"body": "ignored"},
			want:   PlaceholderText,
		},
		{
			name:   "empty text falls back to placeholder",
			fields: map[string]any{"text": ""},
			want:   PlaceholderText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{Id: "d1", Fields: tt.fields}
			if got := doc.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFieldList_ResolveTypeMismatch(t *testing.T) {
	// A value of the wrong type under an accepted name does not resolve.
	fields := map[string]any{"embedding": "not a vector"}
	if _, ok := VectorFields.Resolve(fields); ok {
		t.Error("Resolve() accepted a mistyped value")
	}
}
