package routing

import (
	"fmt"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
)

// Walk visits each specifier from leaf to root. It stops at the null container
// or after MaxChain hops.
func Walk(rt desc.Descriptor, fn func(hop int, s desc.Specifier) error) error {
	cur := rt
	for hop := 0; !cur.IsNull(); hop++ {
		if hop >= MaxChain {
			return fmt.Errorf("%w: more than %d hops", ErrChainTooLong, MaxChain)
		}
		s, err := cur.ObjectSpecifier()
		if err != nil {
			return err
		}
		if err := fn(hop, s); err != nil {
			return err
		}
		cur = s.Container
	}
	return nil
}

// Chain returns the specifiers of rt ordered leaf first.
func Chain(rt desc.Descriptor) ([]desc.Specifier, error) {
	out := make([]desc.Specifier, 0, 4)
	err := Walk(rt, func(_ int, s desc.Specifier) error {
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Path renders the chain root first, e.g. "capp/Wctx[4097]/Wbtn[2]/Wfnc[1]".
func Path(rt desc.Descriptor) (string, error) {
	chain, err := Chain(rt)
	if err != nil {
		return "", err
	}
	path := ""
	for i := len(chain) - 1; i >= 0; i-- {
		s := chain[i]
		seg := trimTag(s.Class)
		if v, err := s.Key.UInt32(); err == nil {
			seg = fmt.Sprintf("%s[%d]", seg, v)
		} else if v, err := s.Key.TypeValue(); err == nil {
			seg = fmt.Sprintf("%s[%s]", seg, trimTag(v))
		} else if v, err := s.Key.EnumValue(); err == nil && v == desc.OrdinalAll {
			seg += "[*]"
		}
		if path != "" {
			path += "/"
		}
		path += seg
	}
	return path, nil
}

func trimTag(t desc.TypeTag) string {
	s := t.String()
	if len(s) == 6 && s[0] == '\'' {
		return s[1:5]
	}
	return s
}
