package routing

import (
	"errors"
	"fmt"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
)

// InvalidIndex is the reserved index value. Indices are 1-based.
const InvalidIndex uint32 = 0

// MaxChain bounds the container hops Walk follows before giving up.
const MaxChain = 16

var (
	ErrInvalidIndex       = errors.New("routing: invalid index")
	ErrInvalidContext     = errors.New("routing: invalid context")
	ErrUnknownControlType = errors.New("routing: unknown control type")
	ErrChainTooLong       = errors.New("routing: container chain too long")
)

// Driver returns the root specifier: the application itself, contained by the
// null root.
func Driver() desc.Descriptor {
	root, err := desc.NewObjectSpecifier(
		schema.ClassApplication,
		desc.NewEnum(desc.OrdinalFirst),
		desc.FormAbsolutePosition,
		desc.Null(),
	)
	if err != nil {
		panic(fmt.Sprintf("routing: driver root: %v", err))
	}
	return root
}

func Tablet(index uint32) (desc.Descriptor, error) {
	if err := checkIndex("tablet", index); err != nil {
		return desc.Descriptor{}, err
	}
	return indexed(schema.ClassTablet, index, Driver())
}

func Transducer(tablet, transducer uint32) (desc.Descriptor, error) {
	if err := checkIndex("transducer", transducer); err != nil {
		return desc.Descriptor{}, err
	}
	container, err := Tablet(tablet)
	if err != nil {
		return desc.Descriptor{}, err
	}
	return indexed(schema.ClassTransducer, transducer, container)
}

// Context addresses a context by its opaque handle.
func Context(handle uint32) (desc.Descriptor, error) {
	if handle == 0 {
		return desc.Descriptor{}, fmt.Errorf("%w: handle 0", ErrInvalidContext)
	}
	return desc.NewObjectSpecifier(schema.ClassContext, desc.NewUInt32(handle), desc.FormNamed, Driver())
}

func Control(handle, control uint32, ct ControlType) (desc.Descriptor, error) {
	class, err := DescTypeFromControlType(ct)
	if err != nil {
		return desc.Descriptor{}, err
	}
	if err := checkIndex("control", control); err != nil {
		return desc.Descriptor{}, err
	}
	container, err := Context(handle)
	if err != nil {
		return desc.Descriptor{}, err
	}
	return indexed(class, control, container)
}

func Function(handle, control uint32, ct ControlType, function uint32) (desc.Descriptor, error) {
	if err := checkIndex("function", function); err != nil {
		return desc.Descriptor{}, err
	}
	container, err := Control(handle, control, ct)
	if err != nil {
		return desc.Descriptor{}, err
	}
	return indexed(schema.ClassFunction, function, container)
}

// Every addresses all elements of class inside container. Count queries use it.
func Every(class desc.TypeTag, container desc.Descriptor) (desc.Descriptor, error) {
	return desc.NewObjectSpecifier(class, desc.NewEnum(desc.OrdinalAll), desc.FormAbsolutePosition, container)
}

// Property addresses attribute attr of the entity container routes to.
func Property(attr desc.TypeTag, container desc.Descriptor) (desc.Descriptor, error) {
	return desc.NewObjectSpecifier(schema.ClassProperty, desc.NewType(attr), desc.FormProperty, container)
}

func checkIndex(kind string, index uint32) error {
	if index == InvalidIndex {
		return fmt.Errorf("%w: %s index %d (indices are 1-based)", ErrInvalidIndex, kind, index)
	}
	return nil
}

func indexed(class desc.TypeTag, index uint32, container desc.Descriptor) (desc.Descriptor, error) {
	return desc.NewObjectSpecifier(class, desc.NewUInt32(index), desc.FormIndexed, container)
}
