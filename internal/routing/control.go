package routing

import (
	"fmt"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
)

// ControlType is the closed set of physical control kinds on a tablet.
type ControlType uint32

const (
	ControlButton ControlType = iota
	ControlWheel
	ControlSlider
	ControlModeToggle
)

var controlClasses = map[ControlType]desc.TypeTag{
	ControlButton:     schema.ClassButton,
	ControlWheel:      schema.ClassWheel,
	ControlSlider:     schema.ClassSlider,
	ControlModeToggle: schema.ClassModeToggle,
}

// ControlTypes lists every defined control type in declaration order.
func ControlTypes() []ControlType {
	return []ControlType{ControlButton, ControlWheel, ControlSlider, ControlModeToggle}
}

// DescTypeFromControlType maps a control type to its object class tag.
func DescTypeFromControlType(ct ControlType) (desc.TypeTag, error) {
	class, ok := controlClasses[ct]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownControlType, uint32(ct))
	}
	return class, nil
}

// ControlTypeFromDescType is the inverse of DescTypeFromControlType.
func ControlTypeFromDescType(class desc.TypeTag) (ControlType, bool) {
	for ct, tag := range controlClasses {
		if tag == class {
			return ct, true
		}
	}
	return 0, false
}

// ParseControlType accepts the names printed by String.
func ParseControlType(s string) (ControlType, error) {
	for _, ct := range ControlTypes() {
		if ct.String() == s {
			return ct, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownControlType, s)
}

func (ct ControlType) String() string {
	switch ct {
	case ControlButton:
		return "button"
	case ControlWheel:
		return "wheel"
	case ControlSlider:
		return "slider"
	case ControlModeToggle:
		return "mode_toggle"
	default:
		return fmt.Sprintf("control_type(%d)", uint32(ct))
	}
}
