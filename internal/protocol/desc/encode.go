package desc

import (
	"encoding/binary"
	"fmt"
)

// HeaderLen is the size of the tag and length prefix on every encoded descriptor.
const HeaderLen = 4 + 4

// Marshal encodes d as tag(4) | length(4) | payload, big-endian. List payloads
// are count(4) followed by items; record payloads are count(4) followed by
// key(4) | descriptor pairs.
func Marshal(d Descriptor) ([]byte, error) {
	return appendDescriptor(make([]byte, 0, HeaderLen+len(d.data)), d)
}

func appendDescriptor(buf []byte, d Descriptor) ([]byte, error) {
	start := len(buf)
	buf = binary.BigEndian.AppendUint32(buf, uint32(d.Tag()))
	buf = binary.BigEndian.AppendUint32(buf, 0)

	var err error
	switch d.Kind() {
	case KindNull:
	case KindList:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(d.items)))
		for _, item := range d.items {
			if buf, err = appendDescriptor(buf, item); err != nil {
				return nil, err
			}
		}
	case KindRecord, KindObjectSpecifier:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(d.keys)))
		for i, key := range d.keys {
			buf = binary.BigEndian.AppendUint32(buf, uint32(key))
			if buf, err = appendDescriptor(buf, d.items[i]); err != nil {
				return nil, err
			}
		}
	default:
		buf = append(buf, d.data...)
	}

	payloadLen := len(buf) - start - HeaderLen
	if uint64(payloadLen) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("%w: payload %d bytes", ErrInvalidLength, payloadLen)
	}
	binary.BigEndian.PutUint32(buf[start+4:start+8], uint32(payloadLen))
	return buf, nil
}
