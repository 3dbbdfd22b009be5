package schema

import (
	"fmt"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
)

// Object classes of the driver hierarchy.
const (
	ClassApplication desc.TypeTag = 0x63617070 // 'capp'
	ClassTablet      desc.TypeTag = 0x57746162 // 'Wtab'
	ClassTransducer  desc.TypeTag = 0x5774726e // 'Wtrn'
	ClassContext     desc.TypeTag = 0x57637478 // 'Wctx'
	ClassFunction    desc.TypeTag = 0x57666e63 // 'Wfnc'
	ClassProperty    desc.TypeTag = 0x70726f70 // 'prop'

	ClassButton     desc.TypeTag = 0x5762746e // 'Wbtn'
	ClassWheel      desc.TypeTag = 0x5777686c // 'Wwhl'
	ClassSlider     desc.TypeTag = 0x57736c64 // 'Wsld'
	ClassModeToggle desc.TypeTag = 0x576d6f64 // 'Wmod'
)

// Attributes.
const (
	PropCount    desc.TypeTag = 0x57636e74 // 'Wcnt'
	PropName     desc.TypeTag = 0x706e616d // 'pnam'
	PropModel    desc.TypeTag = 0x576d646c // 'Wmdl'
	PropPressure desc.TypeTag = 0x57707273 // 'Wprs'
	PropOverride desc.TypeTag = 0x57707278 // 'Wprx'
)

// ContextType selects the flavor of context the driver creates.
type ContextType uint32

const (
	ContextTypeBlank ContextType = iota
	ContextTypeDefault
)

func (t ContextType) Valid() bool {
	return t == ContextTypeBlank || t == ContextTypeDefault
}

func (t ContextType) String() string {
	switch t {
	case ContextTypeBlank:
		return "blank"
	case ContextTypeDefault:
		return "default"
	default:
		return fmt.Sprintf("context_type(%d)", uint32(t))
	}
}

// Error numbers carried in a reply's 'errn' parameter.
const (
	CodeNoError         int32 = 0
	CodeWrongDataType   int32 = -1703
	CodeEventNotHandled int32 = -1708
	CodeNoSuchObject    int32 = -1728
	CodeNotModifiable   int32 = -10003
	CodeInvalidContext  int32 = -10100
)
