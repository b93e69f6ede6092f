package tlv8

import "fmt"

// Decode parses wire bytes into logical items.
//
// Records are consumed sequentially. Input that ends inside a record header,
// or right after a header declaring a non-empty value, fails with
// ErrTruncated; a header declaring more bytes than the partial value present
// fails with ErrLengthOverrun.
//
// A record whose tag equals the tag of the
// immediately preceding record is appended to that item; any other record
// starts a new item, even if its tag appeared earlier in the input.
func Decode(data []byte) (Items, error) {
	var items Items
	off := 0
	for off < len(data) {
		if len(data)-off < 2 {
			return nil, &DecodeError{Offset: off, Tag: Tag(data[off]), Err: ErrTruncated}
		}
		tag := Tag(data[off])
		if !tag.IsValid() {
			return nil, &DecodeError{Offset: off, Tag: tag, Err: ErrInvalidTag}
		}
		n := int(data[off+1])
		if remaining := len(data) - off - 2; n > remaining {
			// A header with nothing after it is a cut-off record; a header
			// followed by too few bytes lies about its length.
			if remaining == 0 {
				return nil, &DecodeError{Offset: off, Tag: tag, Err: ErrTruncated}
			}
			return nil, &DecodeError{Offset: off, Tag: tag, Err: ErrLengthOverrun}
		}
		value := data[off+2 : off+2+n]

		if last := len(items) - 1; last >= 0 && items[last].Tag == tag {
			items[last].Value = append(items[last].Value, value...)
		} else {
			items = append(items, Item{Tag: tag, Value: append([]byte{}, value...)})
		}
		off += 2 + n
	}
	return items, nil
}

// Items is an ordered list of decoded items.
type Items []Item

// Lookup returns the value of the first item with the given tag.
func (it Items) Lookup(tag Tag) ([]byte, bool) {
	for _, item := range it {
		if item.Tag == tag {
			return item.Value, true
		}
	}
	return nil, false
}

// Has reports whether an item with the given tag is present.
func (it Items) Has(tag Tag) bool {
	_, ok := it.Lookup(tag)
	return ok
}

// Byte returns the single-byte value of tag.
// Returns ErrNotFound if absent and ErrInvalidLength if the value is not one byte.
func (it Items) Byte(tag Tag) (byte, error) {
	v, ok := it.Lookup(tag)
	if !ok {
		return 0, ErrNotFound
	}
	if len(v) != 1 {
		return 0, ErrInvalidLength
	}
	return v[0], nil
}

// Unique checks that no tag other than TagSeparator occurs in more than one
// logical item. Decode never merges non-contiguous records, so a peer that
// interleaves tags produces repeated items that the pairing layer cannot
// attribute to a single field.
func Unique(items Items) error {
	seen := make(map[Tag]struct{}, len(items))
	for _, it := range items {
		if it.Tag == TagSeparator {
			continue
		}
		if _, dup := seen[it.Tag]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTag, it.Tag)
		}
		seen[it.Tag] = struct{}{}
	}
	return nil
}
