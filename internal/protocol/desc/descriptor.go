package desc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Kind classifies a descriptor by the shape of its payload.
type Kind uint8

const (
	KindNull Kind = iota
	KindUInt32
	KindBytes
	KindList
	KindRecord
	KindObjectSpecifier
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindUInt32:
		return "uint32"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	case KindObjectSpecifier:
		return "object_specifier"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Descriptor is an immutable typed value. The zero Descriptor is Null.
type Descriptor struct {
	tag   TypeTag
	data  []byte
	items []Descriptor
	keys  []TypeTag
}

// Field is one key/value pair of a record descriptor.
type Field struct {
	Key   TypeTag
	Value Descriptor
}

// Specifier is the decoded form of an object specifier descriptor.
type Specifier struct {
	Class     TypeTag
	Form      KeyForm
	Key       Descriptor
	Container Descriptor
}

// Null returns the null descriptor, which also marks the application root
// when used as a specifier container.
func Null() Descriptor {
	return Descriptor{}
}

// NewUInt32 encodes v as a 4-byte big-endian unsigned integer.
func NewUInt32(v uint32) Descriptor {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return Descriptor{tag: TypeUInt32, data: buf}
}

// NewSInt32 encodes v as a 4-byte big-endian signed integer.
func NewSInt32(v int32) Descriptor {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(v))
	return Descriptor{tag: TypeSInt32, data: buf}
}

// NewBool encodes v as a single byte.
func NewBool(v bool) Descriptor {
	b := byte(0)
	if v {
		b = 1
	}
	return Descriptor{tag: TypeBoolean, data: []byte{b}}
}

// NewType wraps a type tag as a 'type' descriptor.
func NewType(t TypeTag) Descriptor {
	return Descriptor{tag: TypeType, data: putTag(t)}
}

// NewEnum wraps a tag as an 'enum' descriptor.
func NewEnum(t TypeTag) Descriptor {
	return Descriptor{tag: TypeEnumerated, data: putTag(t)}
}

// NewText encodes s as UTF-8 text.
func NewText(s string) Descriptor {
	return Descriptor{tag: TypeUTF8Text, data: []byte(s)}
}

// NewBytes copies b into a descriptor tagged tag.
func NewBytes(b []byte, tag TypeTag) (Descriptor, error) {
	if len(b) == 0 {
		return Descriptor{}, fmt.Errorf("%w: empty payload for %s", ErrEncoding, tag)
	}
	if tag == 0 || composite(tag) {
		return Descriptor{}, fmt.Errorf("%w: tag %s cannot carry raw bytes", ErrEncoding, tag)
	}
	buf := make([]byte, len(b))
	copy(buf, b)
	return Descriptor{tag: tag, data: buf}, nil
}

// NewList builds an ordered list descriptor.
func NewList(items ...Descriptor) Descriptor {
	out := make([]Descriptor, len(items))
	copy(out, items)
	return Descriptor{tag: TypeList, items: out}
}

// NewRecord builds a keyed record. A repeated key keeps its first position and
// takes the last value.
func NewRecord(fields ...Field) Descriptor {
	return newRecord(TypeRecord, fields)
}

// NewObjectSpecifier builds the four-field specifier record addressing the
// element of class found by key (interpreted per form) inside container. A
// Null container means the application root.
func NewObjectSpecifier(class TypeTag, key Descriptor, form KeyForm, container Descriptor) (Descriptor, error) {
	if !form.Valid() {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrInvalidKeyForm, form)
	}
	switch container.Kind() {
	case KindNull, KindObjectSpecifier:
	default:
		return Descriptor{}, fmt.Errorf("%w: container must be null or object specifier, got %s", ErrTypeMismatch, container.Tag())
	}
	return newRecord(TypeObjectSpecifier, []Field{
		{Key: KeyDesiredClass, Value: NewType(class)},
		{Key: KeyKeyForm, Value: NewEnum(TypeTag(form))},
		{Key: KeyKeyData, Value: key},
		{Key: KeyContainer, Value: container},
	}), nil
}

func newRecord(tag TypeTag, fields []Field) Descriptor {
	d := Descriptor{
		tag:   tag,
		keys:  make([]TypeTag, 0, len(fields)),
		items: make([]Descriptor, 0, len(fields)),
	}
	for _, f := range fields {
		if i := d.indexOf(f.Key); i >= 0 {
			d.items[i] = f.Value
			continue
		}
		d.keys = append(d.keys, f.Key)
		d.items = append(d.items, f.Value)
	}
	return d
}

// Tag returns the descriptor type tag.
func (d Descriptor) Tag() TypeTag {
	if d.tag == 0 {
		return TypeNull
	}
	return d.tag
}

// Kind classifies the descriptor.
func (d Descriptor) Kind() Kind {
	switch d.Tag() {
	case TypeNull:
		return KindNull
	case TypeUInt32:
		return KindUInt32
	case TypeList:
		return KindList
	case TypeRecord:
		return KindRecord
	case TypeObjectSpecifier:
		return KindObjectSpecifier
	default:
		return KindBytes
	}
}

func (d Descriptor) IsNull() bool {
	return d.Kind() == KindNull
}

// Bytes returns a copy of a scalar payload. Composite descriptors return nil.
func (d Descriptor) Bytes() []byte {
	if d.isComposite() || len(d.data) == 0 {
		return nil
	}
	buf := make([]byte, len(d.data))
	copy(buf, d.data)
	return buf
}

// UInt32 decodes an 'magn' descriptor.
func (d Descriptor) UInt32() (uint32, error) {
	if err := d.expect(TypeUInt32, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(d.data), nil
}

// SInt32 decodes a 'long' descriptor.
func (d Descriptor) SInt32() (int32, error) {
	if err := d.expect(TypeSInt32, 4); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(d.data)), nil
}

func (d Descriptor) Bool() (bool, error) {
	if err := d.expect(TypeBoolean, 1); err != nil {
		return false, err
	}
	switch d.data[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: bool value %d", ErrInvalidLength, d.data[0])
	}
}

// TypeValue decodes a 'type' descriptor.
func (d Descriptor) TypeValue() (TypeTag, error) {
	if err := d.expect(TypeType, 4); err != nil {
		return 0, err
	}
	return TypeTag(binary.BigEndian.Uint32(d.data)), nil
}

// EnumValue decodes an 'enum' descriptor.
func (d Descriptor) EnumValue() (TypeTag, error) {
	if err := d.expect(TypeEnumerated, 4); err != nil {
		return 0, err
	}
	return TypeTag(binary.BigEndian.Uint32(d.data)), nil
}

func (d Descriptor) Text() (string, error) {
	if d.Tag() != TypeUTF8Text {
		return "", fmt.Errorf("%w: got %s want %s", ErrTypeMismatch, d.Tag(), TypeUTF8Text)
	}
	return string(d.data), nil
}

// Len returns the number of list items or record fields.
func (d Descriptor) Len() int {
	if !d.isComposite() {
		return 0
	}
	return len(d.items)
}

// Items returns the elements of a list descriptor.
func (d Descriptor) Items() ([]Descriptor, error) {
	if d.Kind() != KindList {
		return nil, fmt.Errorf("%w: got %s want %s", ErrTypeMismatch, d.Tag(), TypeList)
	}
	out := make([]Descriptor, len(d.items))
	copy(out, d.items)
	return out, nil
}

// Fields returns the key/value pairs of a record or object specifier in order.
func (d Descriptor) Fields() []Field {
	if len(d.keys) == 0 {
		return nil
	}
	out := make([]Field, len(d.keys))
	for i, key := range d.keys {
		out[i] = Field{Key: key, Value: d.items[i]}
	}
	return out
}

// Get looks up key in a record or object specifier.
func (d Descriptor) Get(key TypeTag) (Descriptor, bool) {
	i := d.indexOf(key)
	if i < 0 {
		return Descriptor{}, false
	}
	return d.items[i], true
}

// ObjectSpecifier decodes the four specifier fields, validating each tag.
func (d Descriptor) ObjectSpecifier() (Specifier, error) {
	if d.Kind() != KindObjectSpecifier {
		return Specifier{}, fmt.Errorf("%w: got %s want %s", ErrTypeMismatch, d.Tag(), TypeObjectSpecifier)
	}
	want, err := d.required(KeyDesiredClass)
	if err != nil {
		return Specifier{}, err
	}
	class, err := want.TypeValue()
	if err != nil {
		return Specifier{}, err
	}
	formDesc, err := d.required(KeyKeyForm)
	if err != nil {
		return Specifier{}, err
	}
	formTag, err := formDesc.EnumValue()
	if err != nil {
		return Specifier{}, err
	}
	form := KeyForm(formTag)
	if !form.Valid() {
		return Specifier{}, fmt.Errorf("%w: %s", ErrInvalidKeyForm, form)
	}
	key, err := d.required(KeyKeyData)
	if err != nil {
		return Specifier{}, err
	}
	container, err := d.required(KeyContainer)
	if err != nil {
		return Specifier{}, err
	}
	switch container.Kind() {
	case KindNull, KindObjectSpecifier:
	default:
		return Specifier{}, fmt.Errorf("%w: container %s", ErrTypeMismatch, container.Tag())
	}
	return Specifier{Class: class, Form: form, Key: key, Container: container}, nil
}

// Equal reports structural equality.
func Equal(a, b Descriptor) bool {
	if a.Tag() != b.Tag() {
		return false
	}
	if !bytes.Equal(a.data, b.data) {
		return false
	}
	if len(a.items) != len(b.items) || len(a.keys) != len(b.keys) {
		return false
	}
	for i := range a.keys {
		if a.keys[i] != b.keys[i] {
			return false
		}
	}
	for i := range a.items {
		if !Equal(a.items[i], b.items[i]) {
			return false
		}
	}
	return true
}

func (d Descriptor) required(key TypeTag) (Descriptor, error) {
	v, ok := d.Get(key)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, nil
}

func (d Descriptor) expect(tag TypeTag, size int) error {
	if d.Tag() != tag {
		return fmt.Errorf("%w: got %s want %s", ErrTypeMismatch, d.Tag(), tag)
	}
	if len(d.data) != size {
		return fmt.Errorf("%w: %s payload %d bytes", ErrInvalidLength, tag, len(d.data))
	}
	return nil
}

func (d Descriptor) indexOf(key TypeTag) int {
	for i, k := range d.keys {
		if k == key {
			return i
		}
	}
	return -1
}

func (d Descriptor) isComposite() bool {
	switch d.Kind() {
	case KindList, KindRecord, KindObjectSpecifier:
		return true
	default:
		return false
	}
}

func putTag(t TypeTag) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(t))
	return buf
}
