package breath

import (
	"encoding/binary"
	"fmt"
)

// RecordSize is the size in bytes of a telemetry record.
//
// The record is the wire contract with the receiving device. It holds six
// little-endian uint16 values, in order: position, position amplitude,
// velocity, velocity amplitude, direction and speed.
const RecordSize = 12

// AppendBinary appends the telemetry record of f to b.
func (f Features) AppendBinary(b []byte) ([]byte, error) {
	for _, v := range [...]uint16{
		f.Position,
		f.PositionAmplitude,
		f.Velocity,
		f.VelocityAmplitude,
		uint16(f.Direction),
		f.Speed,
	} {
		b = binary.LittleEndian.AppendUint16(b, v)
	}
	return b, nil
}

// MarshalBinary encodes the telemetry record of f.
func (f Features) MarshalBinary() ([]byte, error) {
	return f.AppendBinary(make([]byte, 0, RecordSize))
}

// UnmarshalBinary decodes a telemetry record into f. Fields that are not part
// of the record are left untouched. Bytes beyond RecordSize are ignored.
func (f *Features) UnmarshalBinary(b []byte) error {
	if len(b) < RecordSize {
		return fmt.Errorf("breath: could not decode %d bytes: %w", len(b), ErrShortRecord)
	}
	f.Position = binary.LittleEndian.Uint16(b[0:])
	f.PositionAmplitude = binary.LittleEndian.Uint16(b[2:])
	f.Velocity = binary.LittleEndian.Uint16(b[4:])
	f.VelocityAmplitude = binary.LittleEndian.Uint16(b[6:])
	f.Direction = Direction(binary.LittleEndian.Uint16(b[8:]))
	f.Speed = binary.LittleEndian.Uint16(b[10:])
	return nil
}
