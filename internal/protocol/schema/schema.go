package schema

import (
	"fmt"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/rs/zerolog/log"
)

// Event classes and ids.
const (
	ClassCore  desc.TypeTag = 0x636f7265 // 'core'
	ClassWacom desc.TypeTag = 0x5761636d // 'Wacm'

	EventGetData desc.TypeTag = 0x67657464 // 'getd'
	EventSetData desc.TypeTag = 0x73657464 // 'setd'
	EventCreate  desc.TypeTag = 0x6372656c // 'crel'
	EventDelete  desc.TypeTag = 0x64656c6f // 'delo'
	EventResend  desc.TypeTag = 0x52736e64 // 'Rsnd'
)

// Event parameter keys.
const (
	KeyDirectObject  desc.TypeTag = 0x2d2d2d2d // '----'
	KeyRequestedType desc.TypeTag = 0x72747970 // 'rtyp'
	KeyData          desc.TypeTag = 0x64617461 // 'data'
	KeyObjectClass   desc.TypeTag = 0x6b6f636c // 'kocl'
	KeyInsertHere    desc.TypeTag = 0x696e7368 // 'insh'
	KeyContextType   desc.TypeTag = 0x57637474 // 'Wctt'
	KeyEventType     desc.TypeTag = 0x57657674 // 'Wevt'
	KeyAddress       desc.TypeTag = 0x61646472 // 'addr'
	KeyErrorNumber   desc.TypeTag = 0x6572726e // 'errn'
	KeyErrorString   desc.TypeTag = 0x65727273 // 'errs'
)

// Event identifies one event by class and id.
type Event struct {
	Class desc.TypeTag
	ID    desc.TypeTag
}

func (e Event) String() string {
	return e.Class.String() + "/" + e.ID.String()
}

var (
	GetData = Event{Class: ClassCore, ID: EventGetData}
	SetData = Event{Class: ClassCore, ID: EventSetData}
	Create  = Event{Class: ClassCore, ID: EventCreate}
	Delete  = Event{Class: ClassCore, ID: EventDelete}
	Resend  = Event{Class: ClassWacom, ID: EventResend}
)

// Requirement names a parameter an event must carry. A zero Type accepts any
// descriptor tag.
type Requirement struct {
	Key  desc.TypeTag
	Type desc.TypeTag
}

type ValidationError struct {
	Event  Event
	Key    desc.TypeTag
	Reason string
}

func (e ValidationError) Error() string {
	if e.Key == 0 {
		return fmt.Sprintf("schema: event=%s: %s", e.Event, e.Reason)
	}
	return fmt.Sprintf("schema: event=%s key=%s: %s", e.Event, e.Key, e.Reason)
}

var requirements = map[Event][]Requirement{
	GetData: {
		{KeyDirectObject, desc.TypeObjectSpecifier},
		{KeyRequestedType, desc.TypeType},
	},
	SetData: {
		{KeyDirectObject, desc.TypeObjectSpecifier},
		{KeyData, 0},
	},
	Create: {
		{KeyObjectClass, desc.TypeType},
		{KeyInsertHere, desc.TypeObjectSpecifier},
		{KeyContextType, desc.TypeUInt32},
	},
	Delete: {
		{KeyDirectObject, desc.TypeObjectSpecifier},
	},
	Resend: {
		{KeyDirectObject, desc.TypeObjectSpecifier},
		{KeyEventType, desc.TypeType},
	},
}

// Known reports whether ev is in the event catalogue.
func Known(ev Event) bool {
	_, ok := requirements[ev]
	return ok
}

// Validate enforces required parameters and their tags for an event.
// Unknown parameters are ignored.
func Validate(ev Event, params desc.Descriptor) error {
	log.Debug().Str("event", ev.String()).Int("params", params.Len()).Msg("schema.Validate")
	if params.Kind() != desc.KindRecord {
		return ValidationError{Event: ev, Reason: "parameters must be a record"}
	}
	reqs, ok := requirements[ev]
	if !ok {
		log.Error().Str("event", ev.String()).Msg("schema.Validate unknown event")
		return ValidationError{Event: ev, Reason: "unknown event"}
	}
	for _, req := range reqs {
		v, found := params.Get(req.Key)
		if !found {
			log.Error().Str("event", ev.String()).Str("key", req.Key.String()).Msg("schema.Validate missing parameter")
			return ValidationError{Event: ev, Key: req.Key, Reason: "missing required parameter"}
		}
		if req.Type != 0 && v.Tag() != req.Type {
			log.Error().
				Str("event", ev.String()).
				Str("key", req.Key.String()).
				Str("got", v.Tag().String()).
				Str("want", req.Type.String()).
				Msg("schema.Validate type mismatch")
			return ValidationError{Event: ev, Key: req.Key, Reason: "type mismatch"}
		}
	}
	return nil
}
