package driversim

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/protocol/schema"
	"github.com/danmuck/tabletctl/internal/routing"
)

// replyError carries the 'errn' code the handler answers with.
type replyError struct {
	code int32
	msg  string
}

func (e *replyError) Error() string {
	return fmt.Sprintf("driversim: errn %d: %s", e.code, e.msg)
}

func fail(code int32, format string, args ...any) *replyError {
	return &replyError{code: code, msg: fmt.Sprintf(format, args...)}
}

type attribute struct {
	value    desc.Descriptor
	writable bool
}

type node struct {
	class    desc.TypeTag
	attrs    map[desc.TypeTag]*attribute
	children map[desc.TypeTag][]*node
}

func newNode(class desc.TypeTag, name string, writableName bool) *node {
	return &node{
		class:    class,
		attrs:    map[desc.TypeTag]*attribute{schema.PropName: {value: desc.NewText(name), writable: writableName}},
		children: make(map[desc.TypeTag][]*node),
	}
}

func (n *node) name() string {
	a, ok := n.attrs[schema.PropName]
	if !ok {
		return ""
	}
	s, _ := a.value.Text()
	return s
}

type contextEntry struct {
	tablet uint32
	kind   schema.ContextType
	node   *node
}

// maxResent bounds the resend history kept for /state.
const maxResent = 64

// Model is the simulated driver state. It is safe for concurrent use.
type Model struct {
	mu         sync.Mutex
	cfg        Config
	app        *node
	contexts   map[uint32]*contextEntry
	nextHandle uint32
	resent     []desc.TypeTag
}

func NewModel(cfg Config) *Model {
	cfg = cfg.withDefaults()
	app := newNode(schema.ClassApplication, "Tablet Driver", false)
	for _, ts := range cfg.Tablets {
		tablet := newNode(schema.ClassTablet, ts.Name, false)
		tablet.attrs[schema.PropModel] = &attribute{value: desc.NewText(ts.Model)}
		for _, name := range ts.Transducers {
			tr := newNode(schema.ClassTransducer, name, false)
			tr.attrs[schema.PropPressure] = &attribute{value: desc.NewUInt32(1024), writable: true}
			tablet.children[schema.ClassTransducer] = append(tablet.children[schema.ClassTransducer], tr)
		}
		app.children[schema.ClassTablet] = append(app.children[schema.ClassTablet], tablet)
	}
	return &Model{
		cfg:        cfg,
		app:        app,
		contexts:   make(map[uint32]*contextEntry),
		nextHandle: cfg.FirstHandle,
	}
}

// selection is what a specifier chain resolved to: one entity, every child
// of a class, and optionally a property of either.
type selection struct {
	node  *node
	every desc.TypeTag
	attr  desc.TypeTag
}

func (m *Model) resolve(rt desc.Descriptor) (selection, *replyError) {
	chain, err := routing.Chain(rt)
	if err != nil {
		return selection{}, fail(schema.CodeWrongDataType, "bad specifier: %v", err)
	}
	if len(chain) == 0 {
		return selection{}, fail(schema.CodeNoSuchObject, "empty specifier")
	}
	root := chain[len(chain)-1]
	if root.Class != schema.ClassApplication {
		return selection{}, fail(schema.CodeNoSuchObject, "root class %s", root.Class)
	}
	sel := selection{node: m.app}
	for i := len(chain) - 2; i >= 0; i-- {
		s := chain[i]
		if sel.attr != 0 {
			return selection{}, fail(schema.CodeNoSuchObject, "property %s has no elements", sel.attr)
		}
		if sel.every != 0 && s.Form != desc.FormProperty {
			return selection{}, fail(schema.CodeNoSuchObject, "cannot descend into every %s", sel.every)
		}
		next, rerr := m.step(sel, s)
		if rerr != nil {
			return selection{}, rerr
		}
		sel = next
	}
	return sel, nil
}

func (m *Model) step(sel selection, s desc.Specifier) (selection, *replyError) {
	switch s.Form {
	case desc.FormProperty:
		attr, err := s.Key.TypeValue()
		if err != nil || s.Class != schema.ClassProperty {
			return selection{}, fail(schema.CodeWrongDataType, "bad property key %s", s.Key)
		}
		sel.attr = attr
		return sel, nil

	case desc.FormAbsolutePosition:
		ord, err := s.Key.EnumValue()
		if err != nil {
			return selection{}, fail(schema.CodeWrongDataType, "bad ordinal %s", s.Key)
		}
		switch ord {
		case desc.OrdinalAll:
			sel.every = s.Class
			return sel, nil
		case desc.OrdinalFirst:
			return m.child(sel, s.Class, 1)
		default:
			return selection{}, fail(schema.CodeNoSuchObject, "ordinal %s", ord)
		}

	case desc.FormIndexed:
		index, err := s.Key.UInt32()
		if err != nil {
			return selection{}, fail(schema.CodeWrongDataType, "bad index %s", s.Key)
		}
		return m.child(sel, s.Class, index)

	case desc.FormNamed:
		if s.Class == schema.ClassContext && sel.node == m.app {
			handle, err := s.Key.UInt32()
			if err != nil {
				return selection{}, fail(schema.CodeWrongDataType, "bad context handle %s", s.Key)
			}
			entry, ok := m.contexts[handle]
			if !ok {
				return selection{}, fail(schema.CodeInvalidContext, "no context %d", handle)
			}
			return selection{node: entry.node}, nil
		}
		name, err := s.Key.Text()
		if err != nil {
			return selection{}, fail(schema.CodeWrongDataType, "bad name %s", s.Key)
		}
		for _, kid := range sel.node.children[s.Class] {
			if kid.name() == name {
				return selection{node: kid}, nil
			}
		}
		return selection{}, fail(schema.CodeNoSuchObject, "no %s named %q", s.Class, name)

	default:
		return selection{}, fail(schema.CodeWrongDataType, "key form %s", s.Form)
	}
}

func (m *Model) child(sel selection, class desc.TypeTag, index uint32) (selection, *replyError) {
	kids := sel.node.children[class]
	if index == routing.InvalidIndex || int(index) > len(kids) {
		return selection{}, fail(schema.CodeNoSuchObject, "%s index %d of %d", class, index, len(kids))
	}
	return selection{node: kids[index-1]}, nil
}

// GetData reads the property rt selects and coerces it to want.
func (m *Model) GetData(rt desc.Descriptor, want desc.TypeTag) (desc.Descriptor, *replyError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sel, rerr := m.resolve(rt)
	if rerr != nil {
		return desc.Descriptor{}, rerr
	}
	var value desc.Descriptor
	switch {
	case sel.attr == 0:
		return desc.Descriptor{}, fail(schema.CodeWrongDataType, "getd needs a property")
	case sel.every != 0:
		if sel.attr != schema.PropCount {
			return desc.Descriptor{}, fail(schema.CodeNoSuchObject, "every %s has no %s", sel.every, sel.attr)
		}
		value = desc.NewUInt32(uint32(len(sel.node.children[sel.every])))
	default:
		a, ok := sel.node.attrs[sel.attr]
		if !ok {
			return desc.Descriptor{}, fail(schema.CodeNoSuchObject, "%s has no %s", sel.node.class, sel.attr)
		}
		value = a.value
	}
	if want != desc.TypeWildCard && want != value.Tag() {
		return desc.Descriptor{}, fail(schema.CodeWrongDataType, "have %s want %s", value.Tag(), want)
	}
	return value, nil
}

// SetData replaces the property rt selects. The value must keep its tag.
func (m *Model) SetData(rt desc.Descriptor, value desc.Descriptor) *replyError {
	m.mu.Lock()
	defer m.mu.Unlock()

	sel, rerr := m.resolve(rt)
	if rerr != nil {
		return rerr
	}
	if sel.attr == 0 || sel.every != 0 {
		return fail(schema.CodeNotModifiable, "setd needs a single property")
	}
	a, ok := sel.node.attrs[sel.attr]
	if !ok {
		return fail(schema.CodeNoSuchObject, "%s has no %s", sel.node.class, sel.attr)
	}
	if !a.writable {
		return fail(schema.CodeNotModifiable, "%s of %s is read-only", sel.attr, sel.node.class)
	}
	if value.Tag() != a.value.Tag() {
		return fail(schema.CodeWrongDataType, "have %s want %s", value.Tag(), a.value.Tag())
	}
	a.value = value
	return nil
}

// CreateContext adds a context to the tablet insh selects and returns its
// handle.
func (m *Model) CreateContext(class desc.TypeTag, insh desc.Descriptor, kind schema.ContextType) (uint32, *replyError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if class != schema.ClassContext {
		return 0, fail(schema.CodeEventNotHandled, "cannot create %s", class)
	}
	if !kind.Valid() {
		return 0, fail(schema.CodeWrongDataType, "context type %d", uint32(kind))
	}
	sel, rerr := m.resolve(insh)
	if rerr != nil {
		return 0, rerr
	}
	if sel.attr != 0 || sel.every != 0 || sel.node.class != schema.ClassTablet {
		return 0, fail(schema.CodeNoSuchObject, "contexts are created on a tablet")
	}
	tablet := uint32(0)
	for i, t := range m.app.children[schema.ClassTablet] {
		if t == sel.node {
			tablet = uint32(i + 1)
		}
	}

	handle, ok := m.allocHandle()
	if !ok {
		return 0, fail(schema.CodeNotModifiable, "no free context handles")
	}
	ctxNode := newNode(schema.ClassContext, fmt.Sprintf("context %d", handle), true)
	if kind == schema.ContextTypeDefault {
		for _, ct := range routing.ControlTypes() {
			class, _ := routing.DescTypeFromControlType(ct)
			for i := uint32(1); i <= m.cfg.DefaultControls[ct]; i++ {
				control := newNode(class, fmt.Sprintf("%s %d", ct, i), true)
				for f := uint32(1); f <= m.cfg.FunctionsPerControl; f++ {
					fn := newNode(schema.ClassFunction, fmt.Sprintf("function %d", f), true)
					fn.attrs[schema.PropOverride] = &attribute{value: desc.NewBool(false), writable: true}
					control.children[schema.ClassFunction] = append(control.children[schema.ClassFunction], fn)
				}
				ctxNode.children[class] = append(ctxNode.children[class], control)
			}
		}
	}
	m.contexts[handle] = &contextEntry{tablet: tablet, kind: kind, node: ctxNode}
	return handle, nil
}

// allocHandle returns the next handle that is non-zero and not held by a
// live context.
func (m *Model) allocHandle() (uint32, bool) {
	if uint64(len(m.contexts)) >= math.MaxUint32 {
		return 0, false
	}
	for {
		handle := m.nextHandle
		m.nextHandle++
		if handle == 0 {
			continue
		}
		if _, taken := m.contexts[handle]; !taken {
			return handle, true
		}
	}
}

// DeleteContext removes the context rt selects.
func (m *Model) DeleteContext(rt desc.Descriptor) *replyError {
	m.mu.Lock()
	defer m.mu.Unlock()

	sel, rerr := m.resolve(rt)
	if rerr != nil {
		return rerr
	}
	if sel.attr != 0 || sel.every != 0 || sel.node.class != schema.ClassContext {
		return fail(schema.CodeNotModifiable, "only contexts can be deleted")
	}
	for handle, entry := range m.contexts {
		if entry.node == sel.node {
			delete(m.contexts, handle)
			return nil
		}
	}
	return fail(schema.CodeInvalidContext, "context already deleted")
}

func (m *Model) RecordResend(eventType desc.TypeTag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resent = append(m.resent, eventType)
	if over := len(m.resent) - maxResent; over > 0 {
		m.resent = append(m.resent[:0], m.resent[over:]...)
	}
}

// State is a JSON view of the model.
type State struct {
	BundleID string         `json:"bundle_id"`
	Tablets  []TabletState  `json:"tablets"`
	Contexts []ContextState `json:"contexts"`
	Resent   []string       `json:"resent"`
}

type TabletState struct {
	Index       uint32   `json:"index"`
	Name        string   `json:"name"`
	Transducers []string `json:"transducers"`
}

type ContextState struct {
	Handle   uint32            `json:"handle"`
	Tablet   uint32            `json:"tablet"`
	Type     string            `json:"type"`
	Controls map[string]uint32 `json:"controls"`
}

func (m *Model) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := State{BundleID: m.cfg.BundleID, Tablets: []TabletState{}, Contexts: []ContextState{}, Resent: []string{}}
	for i, t := range m.app.children[schema.ClassTablet] {
		ts := TabletState{Index: uint32(i + 1), Name: t.name(), Transducers: []string{}}
		for _, tr := range t.children[schema.ClassTransducer] {
			ts.Transducers = append(ts.Transducers, tr.name())
		}
		st.Tablets = append(st.Tablets, ts)
	}
	for handle, entry := range m.contexts {
		cs := ContextState{Handle: handle, Tablet: entry.tablet, Type: entry.kind.String(), Controls: map[string]uint32{}}
		for _, ct := range routing.ControlTypes() {
			class, _ := routing.DescTypeFromControlType(ct)
			if n := len(entry.node.children[class]); n > 0 {
				cs.Controls[ct.String()] = uint32(n)
			}
		}
		st.Contexts = append(st.Contexts, cs)
	}
	sort.Slice(st.Contexts, func(i, j int) bool { return st.Contexts[i].Handle < st.Contexts[j].Handle })
	for _, ev := range m.resent {
		st.Resent = append(st.Resent, ev.String())
	}
	return st
}
