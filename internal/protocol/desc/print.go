package desc

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders d in a compact debug form used by logs, e.g.
// 'obj '{'want':type('Wtab'), 'form':enum('indx'), 'seld':1, 'from':null()}.
func (d Descriptor) String() string {
	var b strings.Builder
	d.print(&b)
	return b.String()
}

func (d Descriptor) print(b *strings.Builder) {
	switch d.Kind() {
	case KindNull:
		b.WriteString("null()")
		return
	case KindList:
		b.WriteByte('[')
		for i, item := range d.items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.print(b)
		}
		b.WriteByte(']')
		return
	case KindRecord, KindObjectSpecifier:
		if d.Kind() == KindObjectSpecifier {
			b.WriteString(TypeObjectSpecifier.String())
		}
		b.WriteByte('{')
		for i, key := range d.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(key.String())
			b.WriteByte(':')
			d.items[i].print(b)
		}
		b.WriteByte('}')
		return
	}

	switch d.Tag() {
	case TypeUInt32:
		if v, err := d.UInt32(); err == nil {
			b.WriteString(strconv.FormatUint(uint64(v), 10))
			return
		}
	case TypeSInt32:
		if v, err := d.SInt32(); err == nil {
			b.WriteString(strconv.FormatInt(int64(v), 10))
			return
		}
	case TypeBoolean:
		if v, err := d.Bool(); err == nil {
			b.WriteString(strconv.FormatBool(v))
			return
		}
	case TypeType:
		if v, err := d.TypeValue(); err == nil {
			fmt.Fprintf(b, "type(%s)", v)
			return
		}
	case TypeEnumerated:
		if v, err := d.EnumValue(); err == nil {
			fmt.Fprintf(b, "enum(%s)", v)
			return
		}
	case TypeUTF8Text:
		b.WriteString(strconv.Quote(string(d.data)))
		return
	}
	fmt.Fprintf(b, "%s($%x$)", d.Tag(), d.data)
}
