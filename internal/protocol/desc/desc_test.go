package desc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/danmuck/tabletctl/internal/testutil/testlog"
)

func TestUInt32RoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, v := range []uint32{0, 1, 42, 0x01020304, math.MaxUint32} {
		d := NewUInt32(v)
		if d.Tag() != TypeUInt32 || d.Kind() != KindUInt32 {
			t.Fatalf("unexpected tag=%s kind=%s", d.Tag(), d.Kind())
		}
		got, err := d.UInt32()
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip got=%d want=%d", got, v)
		}

		wire, err := Marshal(d)
		if err != nil {
			t.Fatalf("marshal %d: %v", v, err)
		}
		back, err := Unmarshal(wire)
		if err != nil {
			t.Fatalf("unmarshal %d: %v", v, err)
		}
		if got, _ := back.UInt32(); got != v {
			t.Fatalf("wire round trip got=%d want=%d", got, v)
		}
	}
}

func TestUInt32RejectsOtherTags(t *testing.T) {
	testlog.Start(t)
	if _, err := NewSInt32(7).UInt32(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := Null().UInt32(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for null, got %v", err)
	}
	if _, err := NewText("7").UInt32(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for text, got %v", err)
	}
}

func TestUInt32RejectsShortPayload(t *testing.T) {
	testlog.Start(t)
	wire := []byte{0x6d, 0x61, 0x67, 0x6e, 0, 0, 0, 2, 0xAA, 0xBB}
	d, err := Unmarshal(wire)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := d.UInt32(); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestNewBytesCopiesAndValidates(t *testing.T) {
	testlog.Start(t)
	src := []byte{0x01, 0x02, 0x03}
	d, err := NewBytes(src, TypeData)
	if err != nil {
		t.Fatalf("new bytes: %v", err)
	}
	src[0] = 0xFF
	if got := d.Bytes(); !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("payload aliased caller buffer: %x", got)
	}
	out := d.Bytes()
	out[1] = 0xEE
	if got := d.Bytes(); got[1] != 0x02 {
		t.Fatalf("accessor leaked internal buffer")
	}

	if _, err := NewBytes(nil, TypeData); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding for nil, got %v", err)
	}
	if _, err := NewBytes([]byte{}, TypeData); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding for empty, got %v", err)
	}
	if _, err := NewBytes([]byte{1}, TypeList); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding for composite tag, got %v", err)
	}
}

func TestObjectSpecifierFields(t *testing.T) {
	testlog.Start(t)
	const class TypeTag = 0x57746162 // 'Wtab'
	root, err := NewObjectSpecifier(0x63617070, NewEnum(OrdinalFirst), FormAbsolutePosition, Null())
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	obj, err := NewObjectSpecifier(class, NewUInt32(3), FormIndexed, root)
	if err != nil {
		t.Fatalf("specifier: %v", err)
	}
	if obj.Kind() != KindObjectSpecifier || obj.Len() != 4 {
		t.Fatalf("unexpected specifier shape: %s", obj)
	}
	got, err := obj.ObjectSpecifier()
	if err != nil {
		t.Fatalf("decode specifier: %v", err)
	}
	if got.Class != class || got.Form != FormIndexed {
		t.Fatalf("unexpected specifier fields: %+v", got)
	}
	if idx, _ := got.Key.UInt32(); idx != 3 {
		t.Fatalf("key data got=%d want=3", idx)
	}
	if !Equal(got.Container, root) {
		t.Fatalf("container mismatch: %s", got.Container)
	}
}

func TestObjectSpecifierDefaultsToNullContainer(t *testing.T) {
	testlog.Start(t)
	var omitted Descriptor
	obj, err := NewObjectSpecifier(0x63617070, NewEnum(OrdinalFirst), FormAbsolutePosition, omitted)
	if err != nil {
		t.Fatalf("specifier: %v", err)
	}
	got, err := obj.ObjectSpecifier()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Container.IsNull() {
		t.Fatalf("expected null container, got %s", got.Container)
	}
}

func TestObjectSpecifierRejectsUnknownForm(t *testing.T) {
	testlog.Start(t)
	_, err := NewObjectSpecifier(0x57746162, NewUInt32(1), KeyForm(0x74657374), Null())
	if !errors.Is(err, ErrInvalidKeyForm) {
		t.Fatalf("expected ErrInvalidKeyForm, got %v", err)
	}
}

func TestObjectSpecifierRejectsScalarContainer(t *testing.T) {
	testlog.Start(t)
	_, err := NewObjectSpecifier(0x57746162, NewUInt32(1), FormIndexed, NewUInt32(9))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestRecordLastValueWins(t *testing.T) {
	testlog.Start(t)
	const k1, k2 TypeTag = 0x2d2d2d2d, 0x72747970
	rec := NewRecord(
		Field{Key: k1, Value: NewUInt32(1)},
		Field{Key: k2, Value: NewType(TypeUInt32)},
		Field{Key: k1, Value: NewUInt32(2)},
	)
	if rec.Len() != 2 {
		t.Fatalf("expected 2 fields, got %d", rec.Len())
	}
	fields := rec.Fields()
	if fields[0].Key != k1 || fields[1].Key != k2 {
		t.Fatalf("field order changed: %+v", fields)
	}
	v, ok := rec.Get(k1)
	if !ok {
		t.Fatalf("missing key")
	}
	if got, _ := v.UInt32(); got != 2 {
		t.Fatalf("expected last value, got %d", got)
	}
}

func TestMarshalRoundTripNested(t *testing.T) {
	testlog.Start(t)
	data, err := NewBytes([]byte{0xDE, 0xAD}, TypeData)
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	obj, err := NewObjectSpecifier(0x57637478, NewUInt32(77), FormNamed, Null())
	if err != nil {
		t.Fatalf("specifier: %v", err)
	}
	in := NewRecord(
		Field{Key: 0x2d2d2d2d, Value: obj},
		Field{Key: 0x64617461, Value: data},
		Field{Key: 0x6c697374, Value: NewList(NewBool(true), NewText("pen"), NewSInt32(-1728), Null())},
	)
	wire, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := Unmarshal(wire)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !Equal(in, out) {
		t.Fatalf("round trip mismatch:\n in=%s\nout=%s", in, out)
	}
	again, err := Marshal(out)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if !bytes.Equal(wire, again) {
		t.Fatalf("re-encoding is not stable")
	}
}

func TestUnmarshalMalformedIsDeterministic(t *testing.T) {
	testlog.Start(t)
	if _, err := Unmarshal([]byte{1, 2, 3}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}

	// 'tdta' claiming 5 bytes with only 2 present
	short := []byte{0x74, 0x64, 0x74, 0x61, 0, 0, 0, 5, 'a', 'b'}
	if _, err := Unmarshal(short); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}

	// list claiming a million items in a 4 byte payload
	huge := []byte{0x6c, 0x69, 0x73, 0x74, 0, 0, 0, 4, 0, 0x0F, 0x42, 0x40}
	if _, err := Unmarshal(huge); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}

	nullWithPayload := []byte{0x6e, 0x75, 0x6c, 0x6c, 0, 0, 0, 1, 0}
	if _, err := Unmarshal(nullWithPayload); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}

	wire, _ := Marshal(NewUInt32(1))
	if _, err := Unmarshal(append(wire, 0)); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength for trailing bytes, got %v", err)
	}
}

func TestUnmarshalRejectsDuplicateKeys(t *testing.T) {
	testlog.Start(t)
	field, _ := Marshal(NewUInt32(1))
	payload := binary.BigEndian.AppendUint32(nil, 2)
	for i := 0; i < 2; i++ {
		payload = binary.BigEndian.AppendUint32(payload, 0x2d2d2d2d)
		payload = append(payload, field...)
	}
	wire := binary.BigEndian.AppendUint32(nil, uint32(TypeRecord))
	wire = binary.BigEndian.AppendUint32(wire, uint32(len(payload)))
	wire = append(wire, payload...)
	if _, err := Unmarshal(wire); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestUnmarshalRejectsDeepNesting(t *testing.T) {
	testlog.Start(t)
	d := Null()
	for i := 0; i <= MaxDepth+1; i++ {
		d = NewList(d)
	}
	wire, err := Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Unmarshal(wire); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
}

func TestParseTagAndString(t *testing.T) {
	testlog.Start(t)
	tag, err := ParseTag("'magn'")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tag != TypeUInt32 {
		t.Fatalf("got %s want %s", tag, TypeUInt32)
	}
	if got := TypeObjectSpecifier.String(); got != "'obj '" {
		t.Fatalf("unexpected string %q", got)
	}
	if got := TypeTag(1).String(); got != "0x00000001" {
		t.Fatalf("unexpected string %q", got)
	}
	if _, err := ParseTag("toolong"); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestStringRendersSpecifier(t *testing.T) {
	testlog.Start(t)
	obj, _ := NewObjectSpecifier(0x57746162, NewUInt32(1), FormIndexed, Null())
	want := "'obj '{'want':type('Wtab'), 'form':enum('indx'), 'seld':1, 'from':null()}"
	if got := obj.String(); got != want {
		t.Fatalf("render got=%s want=%s", got, want)
	}
}
