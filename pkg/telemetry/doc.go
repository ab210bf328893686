// Package telemetry reports what the primitives do: access requests and
// grants, transfers, spurious interrupts.
//
// Events are protobuf encoded and wrapped in an Envelope carrying the type
// ID, the board and a sequence number. Envelopes are written as packets
// through a PacketWriter, see the mqtt, stream and websocket subpackages.
package telemetry
