package binary

import "encoding/binary"

// Endianness represents byte order for multi-byte values.
type Endianness int

const (
	// BigEndian uses big-endian byte order.
	// Used by: PNG chunks, JPEG segments, Motorola-order TIFF.
	BigEndian Endianness = iota

	// LittleEndian uses little-endian byte order.
	// Used by: GIF, BMP, ICO, Intel-order TIFF.
	LittleEndian
)

// ByteOrder returns the encoding/binary order for e.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ReadBE reads a numeric value of type T at the given offset using big-endian byte order.
//
// Example:
//
//	length, err := binary.ReadBE[uint32](sr, offset, "PNG chunk length")
func ReadBE[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, BigEndian)
}

// ReadEndian reads a numeric value of type T at the given offset with specified byte order.
//
// This is the low-level function used by Read and ReadBE.
// Most code should use the convenience wrappers instead.
func ReadEndian[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string, endian Endianness) (T, error) {
	var zero T
	buf := make([]byte, sizeOf[T]())
	if err := sr.ReadAt(buf, off, what); err != nil {
		return zero, err
	}
	return decode[T](buf, endian.ByteOrder()), nil
}

func sizeOf[T uint8 | uint16 | uint32 | uint64]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

func decode[T uint8 | uint16 | uint32 | uint64](buf []byte, order binary.ByteOrder) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(buf[0])
	case uint16:
		return T(order.Uint16(buf))
	case uint32:
		return T(order.Uint32(buf))
	default:
		return T(order.Uint64(buf))
	}
}

func encode[T uint8 | uint16 | uint32 | uint64](val T, order binary.ByteOrder) []byte {
	buf := make([]byte, sizeOf[T]())
	switch len(buf) {
	case 1:
		buf[0] = byte(val)
	case 2:
		order.PutUint16(buf, uint16(val))
	case 4:
		order.PutUint32(buf, uint32(val))
	default:
		order.PutUint64(buf, uint64(val))
	}
	return buf
}
