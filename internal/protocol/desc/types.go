package desc

import (
	"fmt"
	"strings"
)

// TypeTag is a four-character code stored big-endian in a uint32.
type TypeTag uint32

// Descriptor type tags.
const (
	TypeNull            TypeTag = 0x6e756c6c // 'null'
	TypeUInt32          TypeTag = 0x6d61676e // 'magn'
	TypeSInt32          TypeTag = 0x6c6f6e67 // 'long'
	TypeBoolean         TypeTag = 0x626f6f6c // 'bool'
	TypeType            TypeTag = 0x74797065 // 'type'
	TypeEnumerated      TypeTag = 0x656e756d // 'enum'
	TypeUTF8Text        TypeTag = 0x75746638 // 'utf8'
	TypeData            TypeTag = 0x74647461 // 'tdta'
	TypeList            TypeTag = 0x6c697374 // 'list'
	TypeRecord          TypeTag = 0x7265636f // 'reco'
	TypeObjectSpecifier TypeTag = 0x6f626a20 // 'obj '
	TypeWildCard        TypeTag = 0x2a2a2a2a // '****'
)

// Object specifier record keys.
const (
	KeyDesiredClass TypeTag = 0x77616e74 // 'want'
	KeyKeyForm      TypeTag = 0x666f726d // 'form'
	KeyKeyData      TypeTag = 0x73656c64 // 'seld'
	KeyContainer    TypeTag = 0x66726f6d // 'from'
)

// KeyForm selects how an object specifier's key data is interpreted.
type KeyForm TypeTag

const (
	FormIndexed          KeyForm = 0x696e6478 // 'indx'
	FormNamed            KeyForm = 0x6e616d65 // 'name'
	FormProperty         KeyForm = 0x70726f70 // 'prop'
	FormAbsolutePosition KeyForm = 0x6162736f // 'abso'
)

// Ordinals used as key data with FormAbsolutePosition.
const (
	OrdinalFirst TypeTag = 0x66697273 // 'firs'
	OrdinalAll   TypeTag = 0x616c6c20 // 'all '
)

// Valid reports whether f is one of the recognized key forms.
func (f KeyForm) Valid() bool {
	switch f {
	case FormIndexed, FormNamed, FormProperty, FormAbsolutePosition:
		return true
	default:
		return false
	}
}

func (f KeyForm) String() string {
	return TypeTag(f).String()
}

// ParseTag converts a four-character string into a TypeTag.
func ParseTag(s string) (TypeTag, error) {
	s = strings.Trim(s, "'")
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: tag %q must be four bytes", ErrEncoding, s)
	}
	return TypeTag(uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])), nil
}

func (t TypeTag) String() string {
	b := [4]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(t))
		}
	}
	return "'" + string(b[:]) + "'"
}

// composite reports whether tag is reserved for a composite descriptor.
func composite(tag TypeTag) bool {
	switch tag {
	case TypeNull, TypeList, TypeRecord, TypeObjectSpecifier:
		return true
	default:
		return false
	}
}
