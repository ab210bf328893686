package telemetry

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// Envelope wraps an encoded event with its type information.
type Envelope struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Board    string `protobuf:"bytes,2,opt,name=board,proto3" json:"board,omitempty"`
	Sequence uint32 `protobuf:"varint,3,opt,name=sequence,proto3" json:"sequence,omitempty"`
	TimeUs   int64  `protobuf:"varint,4,opt,name=time_us,json=timeUs,proto3" json:"time_us,omitempty"`
	Message  []byte `protobuf:"bytes,5,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Envelope) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Envelope) Reset() { *m = Envelope{} }

// String implements proto.Message.
func (m *Envelope) String() string { return proto.CompactTextString(m) }

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// Wrap encodes ev into an Envelope.
func Wrap(ev Event) (*Envelope, error) {
	data, err := proto.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &Envelope{TypeId: ev.TypeID(), Message: data}, nil
}

// Decode decodes the wrapped event.
func (m *Envelope) Decode() (Event, error) {
	evType, ok := EventTypes[m.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: m.TypeId}
	}
	ev := evType.NewEvent()
	if err := proto.Unmarshal(m.Message, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Encode encodes the Envelope to bytes.
func (m *Envelope) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeEnvelope decodes bytes into an Envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
