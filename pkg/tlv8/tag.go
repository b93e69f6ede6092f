// Package tlv8 implements the TLV8 encoding used by HAP pairing messages.
//
// Each record on the wire is a one-byte tag, a one-byte length (0-255) and
// that many value bytes. Values longer than 255 bytes are split into
// consecutive records carrying the same tag; a decoder reassembles them by
// concatenating contiguous same-tag records.
//
//	+-----+-----+-----------------+-----+-----+-----------+
//	| tag | 255 | 255 value bytes | tag |  n  | n bytes   |
//	+-----+-----+-----------------+-----+-----+-----------+
//
// Only the tags HAP Pair-Setup uses are accepted; anything else is rejected
// by Decode with ErrInvalidTag.
package tlv8

import "fmt"

// Tag identifies the meaning of a TLV8 item.
type Tag uint8

// Tag values from the HAP pairing TLV table.
const (
	TagMethod        Tag = 0x00
	TagIdentifier    Tag = 0x01
	TagSalt          Tag = 0x02
	TagPublicKey     Tag = 0x03
	TagProof         Tag = 0x04
	TagEncryptedData Tag = 0x05
	TagState         Tag = 0x06
	TagError         Tag = 0x07
	TagRetryDelay    Tag = 0x08
	TagCertificate   Tag = 0x09
	TagSignature     Tag = 0x0A
	TagPermissions   Tag = 0x0B
	TagFragmentData  Tag = 0x0C
	TagFragmentLast  Tag = 0x0D
	TagFlags         Tag = 0x13
	TagSeparator     Tag = 0xFF
)

// MaxChunkSize is the largest value a single wire record can carry.
const MaxChunkSize = 255

// String returns the tag name.
func (t Tag) String() string {
	switch t {
	case TagMethod:
		return "Method"
	case TagIdentifier:
		return "Identifier"
	case TagSalt:
		return "Salt"
	case TagPublicKey:
		return "PublicKey"
	case TagProof:
		return "Proof"
	case TagEncryptedData:
		return "EncryptedData"
	case TagState:
		return "State"
	case TagError:
		return "Error"
	case TagRetryDelay:
		return "RetryDelay"
	case TagCertificate:
		return "Certificate"
	case TagSignature:
		return "Signature"
	case TagPermissions:
		return "Permissions"
	case TagFragmentData:
		return "FragmentData"
	case TagFragmentLast:
		return "FragmentLast"
	case TagFlags:
		return "Flags"
	case TagSeparator:
		return "Separator"
	default:
		return fmt.Sprintf("Tag(0x%02X)", uint8(t))
	}
}

// IsValid returns true if t is one of the known pairing tags.
func (t Tag) IsValid() bool {
	switch {
	case t <= TagFragmentLast:
		return true
	case t == TagFlags, t == TagSeparator:
		return true
	default:
		return false
	}
}
