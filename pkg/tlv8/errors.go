package tlv8

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when fewer than two bytes remain where a record
	// header is expected.
	ErrTruncated = errors.New("tlv8: truncated record")

	// ErrInvalidTag is returned when a record carries an unknown tag.
	ErrInvalidTag = errors.New("tlv8: invalid tag")

	// ErrLengthOverrun is returned when a record declares more value bytes
	// than remain in the buffer.
	ErrLengthOverrun = errors.New("tlv8: length exceeds remaining input")

	// ErrDuplicateTag is returned by Unique when a tag occurs in more than one
	// logical item.
	ErrDuplicateTag = errors.New("tlv8: tag repeated in non-contiguous records")

	// ErrNotFound is returned when a requested tag is absent.
	ErrNotFound = errors.New("tlv8: tag not found")

	// ErrInvalidLength is returned when an item value has an unexpected size.
	ErrInvalidLength = errors.New("tlv8: invalid value length")
)

// DecodeError reports where in the input decoding failed.
type DecodeError struct {
	// Offset is the byte offset of the record header that failed.
	Offset int
	// Tag is the tag of the failing record, when it could be read.
	Tag Tag
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at offset %d (tag %s)", e.Err, e.Offset, e.Tag)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
