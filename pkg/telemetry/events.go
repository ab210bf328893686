package telemetry

import (
	"github.com/golang/protobuf/proto"
)

// Event is a message which can be published.
type Event interface {
	proto.Message
	TypeID() uint32
	// NewEvent creates an empty event of the same type.
	NewEvent() Event
}

// TypeIDs
const (
	GroupAccess   uint32 = 0x00010000
	GroupTransfer uint32 = 0x00020000
	GroupIRQ      uint32 = 0x00030000

	AccessRequestedTypeID   uint32 = GroupAccess | 0x0001
	AccessGrantedTypeID     uint32 = GroupAccess | 0x0002
	AccessReleasedTypeID    uint32 = GroupAccess | 0x0003
	TransferStartedTypeID   uint32 = GroupTransfer | 0x0001
	TransferCompletedTypeID uint32 = GroupTransfer | 0x0002
	SpuriousInterruptTypeID uint32 = GroupIRQ | 0x0001
)

// EventTypes maps type IDs to events.
var EventTypes = map[uint32]Event{
	AccessRequestedTypeID:   (*AccessRequested)(nil),
	AccessGrantedTypeID:     (*AccessGranted)(nil),
	AccessReleasedTypeID:    (*AccessReleased)(nil),
	TransferStartedTypeID:   (*TransferStarted)(nil),
	TransferCompletedTypeID: (*TransferCompleted)(nil),
	SpuriousInterruptTypeID: (*SpuriousInterrupt)(nil),
}

// AccessRequested is sent when a task asks for the shared value.
type AccessRequested struct {
	Task   string `protobuf:"bytes,1,opt,name=task,proto3" json:"task,omitempty"`
	Ticket uint32 `protobuf:"varint,2,opt,name=ticket,proto3" json:"ticket,omitempty"`
	Queued bool   `protobuf:"varint,3,opt,name=queued,proto3" json:"queued,omitempty"`
}

// NewEvent implements Event.
func (m *AccessRequested) NewEvent() Event { return &AccessRequested{} }

// TypeID implements Event.
func (m *AccessRequested) TypeID() uint32 { return AccessRequestedTypeID }

// ProtoMessage implements proto.Message.
func (m *AccessRequested) ProtoMessage() {}

// Reset implements proto.Message.
func (m *AccessRequested) Reset() { *m = AccessRequested{} }

// String implements proto.Message.
func (m *AccessRequested) String() string { return proto.CompactTextString(m) }

// AccessGranted is sent when a task obtains the shared value.
type AccessGranted struct {
	Task   string `protobuf:"bytes,1,opt,name=task,proto3" json:"task,omitempty"`
	Ticket uint32 `protobuf:"varint,2,opt,name=ticket,proto3" json:"ticket,omitempty"`
	Value  uint32 `protobuf:"varint,3,opt,name=value,proto3" json:"value,omitempty"`
}

// NewEvent implements Event.
func (m *AccessGranted) NewEvent() Event { return &AccessGranted{} }

// TypeID implements Event.
func (m *AccessGranted) TypeID() uint32 { return AccessGrantedTypeID }

// ProtoMessage implements proto.Message.
func (m *AccessGranted) ProtoMessage() {}

// Reset implements proto.Message.
func (m *AccessGranted) Reset() { *m = AccessGranted{} }

// String implements proto.Message.
func (m *AccessGranted) String() string { return proto.CompactTextString(m) }

// AccessReleased is sent when a task gives the shared value up.
type AccessReleased struct {
	Task   string `protobuf:"bytes,1,opt,name=task,proto3" json:"task,omitempty"`
	Ticket uint32 `protobuf:"varint,2,opt,name=ticket,proto3" json:"ticket,omitempty"`
	Value  uint32 `protobuf:"varint,3,opt,name=value,proto3" json:"value,omitempty"`
}

// NewEvent implements Event.
func (m *AccessReleased) NewEvent() Event { return &AccessReleased{} }

// TypeID implements Event.
func (m *AccessReleased) TypeID() uint32 { return AccessReleasedTypeID }

// ProtoMessage implements proto.Message.
func (m *AccessReleased) ProtoMessage() {}

// Reset implements proto.Message.
func (m *AccessReleased) Reset() { *m = AccessReleased{} }

// String implements proto.Message.
func (m *AccessReleased) String() string { return proto.CompactTextString(m) }

// TransferStarted is sent when a DMA transfer begins.
type TransferStarted struct {
	Task   string `protobuf:"bytes,1,opt,name=task,proto3" json:"task,omitempty"`
	Length uint32 `protobuf:"varint,2,opt,name=length,proto3" json:"length,omitempty"`
}

// NewEvent implements Event.
func (m *TransferStarted) NewEvent() Event { return &TransferStarted{} }

// TypeID implements Event.
func (m *TransferStarted) TypeID() uint32 { return TransferStartedTypeID }

// ProtoMessage implements proto.Message.
func (m *TransferStarted) ProtoMessage() {}

// Reset implements proto.Message.
func (m *TransferStarted) Reset() { *m = TransferStarted{} }

// String implements proto.Message.
func (m *TransferStarted) String() string { return proto.CompactTextString(m) }

// TransferCompleted is sent when a DMA transfer handed its buffer back.
type TransferCompleted struct {
	Task     string `protobuf:"bytes,1,opt,name=task,proto3" json:"task,omitempty"`
	Length   uint32 `protobuf:"varint,2,opt,name=length,proto3" json:"length,omitempty"`
	Data     []byte `protobuf:"bytes,3,opt,name=data,proto3" json:"data,omitempty"`
	Duration int64  `protobuf:"varint,4,opt,name=duration,proto3" json:"duration,omitempty"`
}

// NewEvent implements Event.
func (m *TransferCompleted) NewEvent() Event { return &TransferCompleted{} }

// TypeID implements Event.
func (m *TransferCompleted) TypeID() uint32 { return TransferCompletedTypeID }

// ProtoMessage implements proto.Message.
func (m *TransferCompleted) ProtoMessage() {}

// Reset implements proto.Message.
func (m *TransferCompleted) Reset() { *m = TransferCompleted{} }

// String implements proto.Message.
func (m *TransferCompleted) String() string { return proto.CompactTextString(m) }

// SpuriousInterrupt reports interrupts which found nothing to resume.
type SpuriousInterrupt struct {
	Vector uint32 `protobuf:"varint,1,opt,name=vector,proto3" json:"vector,omitempty"`
	Count  uint64 `protobuf:"varint,2,opt,name=count,proto3" json:"count,omitempty"`
}

// NewEvent implements Event.
func (m *SpuriousInterrupt) NewEvent() Event { return &SpuriousInterrupt{} }

// TypeID implements Event.
func (m *SpuriousInterrupt) TypeID() uint32 { return SpuriousInterruptTypeID }

// ProtoMessage implements proto.Message.
func (m *SpuriousInterrupt) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SpuriousInterrupt) Reset() { *m = SpuriousInterrupt{} }

// String implements proto.Message.
func (m *SpuriousInterrupt) String() string { return proto.CompactTextString(m) }
