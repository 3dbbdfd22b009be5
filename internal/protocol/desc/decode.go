package desc

import (
	"encoding/binary"
	"fmt"
)

// MaxDepth bounds composite nesting accepted by Unmarshal.
const MaxDepth = 64

// Unmarshal decodes exactly one descriptor from b.
func Unmarshal(b []byte) (Descriptor, error) {
	d, n, err := decodeAt(b, 0)
	if err != nil {
		return Descriptor{}, err
	}
	if n != len(b) {
		return Descriptor{}, fmt.Errorf("%w: %d trailing bytes", ErrInvalidLength, len(b)-n)
	}
	return d, nil
}

func decodeAt(b []byte, depth int) (Descriptor, int, error) {
	if depth > MaxDepth {
		return Descriptor{}, 0, ErrTooDeep
	}
	if len(b) < HeaderLen {
		return Descriptor{}, 0, ErrTruncated
	}
	tag := TypeTag(binary.BigEndian.Uint32(b[0:4]))
	length := binary.BigEndian.Uint32(b[4:8])
	if uint64(length) > uint64(len(b)-HeaderLen) {
		return Descriptor{}, 0, ErrTruncated
	}
	payload := b[HeaderLen : HeaderLen+int(length)]
	total := HeaderLen + int(length)

	switch tag {
	case 0:
		return Descriptor{}, 0, fmt.Errorf("%w: zero tag", ErrEncoding)
	case TypeNull:
		if length != 0 {
			return Descriptor{}, 0, fmt.Errorf("%w: null with %d byte payload", ErrInvalidLength, length)
		}
		return Descriptor{}, total, nil
	case TypeList:
		items, err := decodeList(payload, depth)
		if err != nil {
			return Descriptor{}, 0, err
		}
		return Descriptor{tag: TypeList, items: items}, total, nil
	case TypeRecord, TypeObjectSpecifier:
		keys, items, err := decodeRecord(payload, depth)
		if err != nil {
			return Descriptor{}, 0, err
		}
		return Descriptor{tag: tag, keys: keys, items: items}, total, nil
	default:
		data := make([]byte, length)
		copy(data, payload)
		return Descriptor{tag: tag, data: data}, total, nil
	}
}

func decodeList(payload []byte, depth int) ([]Descriptor, error) {
	count, rest, err := readCount(payload, HeaderLen)
	if err != nil {
		return nil, err
	}
	items := make([]Descriptor, 0, count)
	for i := 0; i < count; i++ {
		item, n, err := decodeAt(rest, depth+1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: list has %d trailing bytes", ErrInvalidLength, len(rest))
	}
	return items, nil
}

func decodeRecord(payload []byte, depth int) ([]TypeTag, []Descriptor, error) {
	count, rest, err := readCount(payload, 4+HeaderLen)
	if err != nil {
		return nil, nil, err
	}
	keys := make([]TypeTag, 0, count)
	items := make([]Descriptor, 0, count)
	for i := 0; i < count; i++ {
		if len(rest) < 4 {
			return nil, nil, ErrTruncated
		}
		key := TypeTag(binary.BigEndian.Uint32(rest[0:4]))
		for _, seen := range keys {
			if seen == key {
				return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
			}
		}
		item, n, err := decodeAt(rest[4:], depth+1)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		items = append(items, item)
		rest = rest[4+n:]
	}
	if len(rest) != 0 {
		return nil, nil, fmt.Errorf("%w: record has %d trailing bytes", ErrInvalidLength, len(rest))
	}
	return keys, items, nil
}

// readCount reads a composite element count and rejects counts that cannot fit
// in the remaining payload at minElem bytes per element.
func readCount(payload []byte, minElem int) (int, []byte, error) {
	if len(payload) < 4 {
		return 0, nil, ErrTruncated
	}
	count := binary.BigEndian.Uint32(payload[0:4])
	rest := payload[4:]
	if uint64(count)*uint64(minElem) > uint64(len(rest)) {
		return 0, nil, fmt.Errorf("%w: count %d exceeds payload", ErrInvalidLength, count)
	}
	return int(count), rest, nil
}
