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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/nholmst/ragent/core"
)

// Hand-written MUS serializers. The open field map needs a type-tagged
// encoding, so the serializers compose mus-go primitives directly instead
// of relying on generated code.

// Field value type tags. Unsupported values are encoded as tagAbsent and
// dropped on decode; core.ValidateDocument rejects them before storage.
const (
	tagAbsent uint64 = iota
	tagString
	tagVector
	tagFloat64
	tagBool
	tagInt64
)

// MarshalString serializes a string to bytes. Used for index values.
func MarshalString(v string) []byte {
	buf := make([]byte, ord.String.Size(v))
	ord.String.Marshal(v, buf)
	return buf
}

// UnmarshalString deserializes a string from bytes.
func UnmarshalString(data []byte) (string, error) {
	v, _, err := ord.String.Unmarshal(data)
	return v, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, sizeDocument(doc))
	marshalDocument(doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := unmarshalDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return doc, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	buf := make([]byte, sizeCheckpoint(checkpoint))
	marshalCheckpoint(checkpoint, buf)
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	checkpoint, _, err := unmarshalCheckpoint(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return checkpoint, nil
}

// Document

func sizeDocument(doc *core.Document) (size int) {
	size = ord.String.Size(doc.Id)
	size += sizeFieldMap(doc.Fields)
	size += sizeStringMap(doc.Metadata)
	size += sizeTime(doc.CreatedAt)
	size += sizeTime(doc.UpdatedAt)
	return size
}

func marshalDocument(doc *core.Document, bs []byte) (n int) {
	n = ord.String.Marshal(doc.Id, bs)
	n += marshalFieldMap(doc.Fields, bs[n:])
	n += marshalStringMap(doc.Metadata, bs[n:])
	n += marshalTime(doc.CreatedAt, bs[n:])
	n += marshalTime(doc.UpdatedAt, bs[n:])
	return n
}

func unmarshalDocument(bs []byte) (*core.Document, int, error) {
	doc := &core.Document{}
	var (
		n, n1 int
		err   error
	)
	doc.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	doc.Fields, n1, err = unmarshalFieldMap(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	doc.Metadata, n1, err = unmarshalStringMap(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	doc.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	doc.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	return doc, n, nil
}

// Checkpoint

func sizeCheckpoint(checkpoint *core.Checkpoint) (size int) {
	size = ord.String.Size(checkpoint.ConversationId)
	size += varint.Uint64.Size(uint64(len(checkpoint.Messages)))
	for _, msg := range checkpoint.Messages {
		size += ord.String.Size(msg.Role)
		size += ord.String.Size(msg.Content)
	}
	size += sizeTime(checkpoint.UpdatedAt)
	return size
}

func marshalCheckpoint(checkpoint *core.Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(checkpoint.ConversationId, bs)
	n += varint.Uint64.Marshal(uint64(len(checkpoint.Messages)), bs[n:])
	for _, msg := range checkpoint.Messages {
		n += ord.String.Marshal(msg.Role, bs[n:])
		n += ord.String.Marshal(msg.Content, bs[n:])
	}
	n += marshalTime(checkpoint.UpdatedAt, bs[n:])
	return n
}

func unmarshalCheckpoint(bs []byte) (*core.Checkpoint, int, error) {
	checkpoint := &core.Checkpoint{}
	var (
		n, n1 int
		err   error
	)
	checkpoint.ConversationId, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	var count uint64
	count, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	if count > 0 {
		checkpoint.Messages = make([]core.Message, 0, count)
	}
	for i := uint64(0); i < count; i++ {
		var msg core.Message
		msg.Role, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		msg.Content, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		checkpoint.Messages = append(checkpoint.Messages, msg)
	}
	checkpoint.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	return checkpoint, n, nil
}

// Open field map

func sizeFieldMap(fields map[string]any) (size int) {
	size = varint.Uint64.Size(uint64(len(fields)))
	for name, value := range fields {
		size += ord.String.Size(name)
		size += sizeFieldValue(value)
	}
	return size
}

func marshalFieldMap(fields map[string]any, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(fields)), bs)
	for name, value := range fields {
		n += ord.String.Marshal(name, bs[n:])
		n += marshalFieldValue(value, bs[n:])
	}
	return n
}

func unmarshalFieldMap(bs []byte) (map[string]any, int, error) {
	count, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	fields := make(map[string]any, count)
	for i := uint64(0); i < count; i++ {
		var (
			name  string
			value any
			n1    int
		)
		name, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		value, n1, err = unmarshalFieldValue(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		if value != nil {
			fields[name] = value
		}
	}
	return fields, n, nil
}

func sizeFieldValue(value any) (size int) {
	switch v := value.(type) {
	case string:
		size = varint.Uint64.Size(tagString) + ord.String.Size(v)
	case []float32:
		size = varint.Uint64.Size(tagVector) + varint.Uint64.Size(uint64(len(v)))
		for _, f := range v {
			size += varint.Float32.Size(f)
		}
	case float64:
		size = varint.Uint64.Size(tagFloat64) + varint.Float64.Size(v)
	case bool:
		size = varint.Uint64.Size(tagBool) + ord.Bool.Size(v)
	case int64:
		size = varint.Uint64.Size(tagInt64) + varint.Int64.Size(v)
	default:
		size = varint.Uint64.Size(tagAbsent)
	}
	return size
}

func marshalFieldValue(value any, bs []byte) (n int) {
	switch v := value.(type) {
	case string:
		n = varint.Uint64.Marshal(tagString, bs)
		n += ord.String.Marshal(v, bs[n:])
	case []float32:
		n = varint.Uint64.Marshal(tagVector, bs)
		n += varint.Uint64.Marshal(uint64(len(v)), bs[n:])
		for _, f := range v {
			n += varint.Float32.Marshal(f, bs[n:])
		}
	case float64:
		n = varint.Uint64.Marshal(tagFloat64, bs)
		n += varint.Float64.Marshal(v, bs[n:])
	case bool:
		n = varint.Uint64.Marshal(tagBool, bs)
		n += ord.Bool.Marshal(v, bs[n:])
	case int64:
		n = varint.Uint64.Marshal(tagInt64, bs)
		n += varint.Int64.Marshal(v, bs[n:])
	default:
		n = varint.Uint64.Marshal(tagAbsent, bs)
	}
	return n
}

func unmarshalFieldValue(bs []byte) (any, int, error) {
	tag, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	var n1 int
	switch tag {
	case tagAbsent:
		return nil, n, nil
	case tagString:
		var v string
		v, n1, err = ord.String.Unmarshal(bs[n:])
		return v, n + n1, err
	case tagVector:
		var count uint64
		count, n1, err = varint.Uint64.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v := make([]float32, count)
		for i := uint64(0); i < count; i++ {
			v[i], n1, err = varint.Float32.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return nil, n, err
			}
		}
		return v, n, nil
	case tagFloat64:
		var v float64
		v, n1, err = varint.Float64.Unmarshal(bs[n:])
		return v, n + n1, err
	case tagBool:
		var v bool
		v, n1, err = ord.Bool.Unmarshal(bs[n:])
		return v, n + n1, err
	case tagInt64:
		var v int64
		v, n1, err = varint.Int64.Unmarshal(bs[n:])
		return v, n + n1, err
	default:
		return nil, n, fmt.Errorf("unknown field value tag %d", tag)
	}
}

// String map

func sizeStringMap(m map[string]string) (size int) {
	size = varint.Uint64.Size(uint64(len(m)))
	for k, v := range m {
		size += ord.String.Size(k)
		size += ord.String.Size(v)
	}
	return size
}

func marshalStringMap(m map[string]string, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(m)), bs)
	for k, v := range m {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}

func unmarshalStringMap(bs []byte) (map[string]string, int, error) {
	count, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	m := make(map[string]string, count)
	for i := uint64(0); i < count; i++ {
		var k, v string
		var n1 int
		k, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		m[k] = v
	}
	return m, n, nil
}

// Time, encoded as Unix microseconds.

func sizeTime(t time.Time) int {
	return varint.Int64.Size(timeToMicro(t))
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(timeToMicro(t), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if micro == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}
