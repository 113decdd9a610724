package core

// Canonical field names used by the write path. Search additionally accepts
// the alternate aliases below so documents written by other tooling are
// still found.
const (
	FieldText      = "text"
	FieldEmbedding = "embedding"
)

// PlaceholderText is substituted for documents that carry no recognized
// text field.
const PlaceholderText = "[no text content]"

// FieldList is an ordered list of accepted field names for one logical
// field, primary name first. Resolution happens in one place so schema
// drift is a single configuration change.
type FieldList[T any] []string

// VectorFields lists the accepted embedding field names.
var VectorFields = FieldList[[]float32]{"embedding", "embeddings", "vector"}

// TextFields lists the accepted text field names.
var TextFields = FieldList[string]{"text", "content", "chunk", "document"}

// Resolve returns the value stored under the first accepted name that is
// present with the expected type.
func (l FieldList[T]) Resolve(fields map[string]any) (T, bool) {
	for _, name := range l {
		if raw, present := fields[name]; present {
			if v, ok := raw.(T); ok {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}

// Vector returns the document's embedding vector. Documents without a
// recognized, non-empty vector field report false and are excluded from
// search.
func (d *Document) Vector() ([]float32, bool) {
	v, ok := VectorFields.Resolve(d.Fields)
	if !ok || len(v) == 0 {
		return nil, false
	}
	return v, true
}

// Text returns the document's display text, or PlaceholderText when no
// recognized text field is present.
func (d *Document) Text() string {
	t, ok := TextFields.Resolve(d.Fields)
	if !ok || t == "" {
		return PlaceholderText
	}
	return t
}
