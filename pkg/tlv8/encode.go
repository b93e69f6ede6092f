package tlv8

import "bytes"

// Item is one logical (tag, value) pair, after chunk reassembly.
type Item struct {
	Tag   Tag
	Value []byte
}

// Encode serializes items in the given order. Each value is split into
// max(1, ceil(len/255)) records sharing the item's tag; a zero-length value
// still produces one empty record.
//
// Two adjacent items with the same tag are indistinguishable on the wire from
// one longer item. Callers that need to send them separately must put a
// TagSeparator item between them.
func Encode(items []Item) []byte {
	size := 0
	for _, it := range items {
		size += encodedSize(len(it.Value))
	}

	out := make([]byte, 0, size)
	for _, it := range items {
		out = appendItem(out, it.Tag, it.Value)
	}
	return out
}

// ChunkCount returns the number of wire records a value of length n needs.
func ChunkCount(n int) int {
	if n == 0 {
		return 1
	}
	return (n + MaxChunkSize - 1) / MaxChunkSize
}

func encodedSize(n int) int {
	return ChunkCount(n)*2 + n
}

func appendItem(out []byte, tag Tag, value []byte) []byte {
	if len(value) == 0 {
		return append(out, byte(tag), 0)
	}
	for len(value) > 0 {
		n := len(value)
		if n > MaxChunkSize {
			n = MaxChunkSize
		}
		out = append(out, byte(tag), byte(n))
		out = append(out, value[:n]...)
		value = value[n:]
	}
	return out
}

// Builder accumulates items for a single message.
//
// Usage:
//
//	var b tlv8.Builder
//	b.AddByte(tlv8.TagState, 1)
//	b.AddBytes(tlv8.TagPublicKey, pub)
//	body := b.Bytes()
type Builder struct {
	items []Item
}

// AddByte appends a single-byte item.
func (b *Builder) AddByte(tag Tag, v byte) *Builder {
	return b.AddBytes(tag, []byte{v})
}

// AddBytes appends an item. The value is copied.
func (b *Builder) AddBytes(tag Tag, v []byte) *Builder {
	b.items = append(b.items, Item{Tag: tag, Value: bytes.Clone(v)})
	return b
}

// AddString appends an item holding the UTF-8 bytes of s.
func (b *Builder) AddString(tag Tag, s string) *Builder {
	b.items = append(b.items, Item{Tag: tag, Value: []byte(s)})
	return b
}

// Items returns the accumulated items.
func (b *Builder) Items() Items {
	return b.items
}

// Bytes encodes the accumulated items.
func (b *Builder) Bytes() []byte {
	return Encode(b.items)
}
