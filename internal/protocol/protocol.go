// Package protocol implements the focuser firmware wire protocol.
//
// The controller exposes a single BLE service with three characteristics:
// a command channel (write), a telemetry channel (read/notify) and a
// configuration channel (read). All multi-byte values are little-endian,
// matching the native integer representation of the firmware MCU.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Focuser BLE Service and Characteristic UUIDs
const (
	ServiceUUID   = "8f0e0001-6e2f-4f9b-a4c1-92d7b3f0aa31"
	CommandUUID   = "8f0e0002-6e2f-4f9b-a4c1-92d7b3f0aa31" // Write
	TelemetryUUID = "8f0e0003-6e2f-4f9b-a4c1-92d7b3f0aa31" // Read/Notify
	ConfigUUID    = "8f0e0004-6e2f-4f9b-a4c1-92d7b3f0aa31" // Read
)

// Opcode identifies a firmware command. The values are a fixed protocol
// contract shared with the controller firmware; do not renumber.
type Opcode int32

const (
	OpStop        Opcode = 0x10 // halt the motor immediately
	OpInit        Opcode = 0x11 // re-run the firmware init sequence
	OpSetPosition Opcode = 0x12 // overwrite the current position counter
	OpGetPosition Opcode = 0x13 // push the position counter on telemetry
	OpMove        Opcode = 0x14 // move by a signed number of micro-steps
	OpSampleRead  Opcode = 0x15 // push one accelerometer sample
	OpSampleStart Opcode = 0x16 // start streaming accelerometer samples
	OpSampleStop  Opcode = 0x17 // stop streaming accelerometer samples
)

// String returns the firmware mnemonic for the opcode.
func (op Opcode) String() string {
	switch op {
	case OpStop:
		return "STOP"
	case OpInit:
		return "INIT"
	case OpSetPosition:
		return "SET_POSITION"
	case OpGetPosition:
		return "GET_POSITION"
	case OpMove:
		return "MOVE"
	case OpSampleRead:
		return "SAMPLE_READ"
	case OpSampleStart:
		return "SAMPLE_START"
	case OpSampleStop:
		return "SAMPLE_STOP"
	default:
		return fmt.Sprintf("unknown_0x%02X", int32(op))
	}
}

// Wire sizes of the fixed-layout records.
const (
	CommandSize = 8  // two int32: opcode, value
	SampleSize  = 12 // three float32: x, y, z
	Int32Size   = 4
)

// ErrShortPayload is returned when a received buffer is smaller than the
// record it is supposed to carry. Callers drop the update and keep the
// previous value; a short read is never fatal.
var ErrShortPayload = errors.New("protocol: payload too short")

// Sample is one accelerometer reading from the telemetry characteristic.
type Sample struct {
	X, Y, Z float32
}

// EncodeCommand packs an opcode/value pair into the 8-byte command record
// written to the command characteristic.
func EncodeCommand(op Opcode, value int32) []byte {
	buf := make([]byte, CommandSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(op))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(value))
	return buf
}

// DecodeSample decodes a 12-byte telemetry record into a Sample.
func DecodeSample(buf []byte) (Sample, error) {
	if len(buf) < SampleSize {
		return Sample{}, fmt.Errorf("%w: sample needs %d bytes, got %d", ErrShortPayload, SampleSize, len(buf))
	}
	return Sample{
		X: math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
	}, nil
}

// DecodeInt32 decodes a single little-endian int32, used for scalar
// characteristics such as the micro-step jumper setting.
func DecodeInt32(buf []byte) (int32, error) {
	if len(buf) < Int32Size {
		return 0, fmt.Errorf("%w: int32 needs %d bytes, got %d", ErrShortPayload, Int32Size, len(buf))
	}
	return int32(binary.LittleEndian.Uint32(buf[0:4])), nil
}
