package h5out

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/robert-malhotra/h5out/internal/message"
)

// Element constrains dataset and attribute values to the numeric kinds
// the output layer supports: 32/64-bit floats and 32/64-bit signed and
// unsigned integers (int and uint store as their 64-bit forms). Any
// other element type is rejected at compile time.
type Element interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~int | ~uint32 | ~uint64 | ~uint
}

// Kind identifies an on-disk storage type.
type Kind int

const (
	// Native stores values as their in-memory element kind.
	Native Kind = iota
	Float32
	Float64
	Int32
	Int64
	Uint32
	Uint64
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Native:
		return "native"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	}
	return "unknown"
}

// kindOf returns the storage kind matching T's in-memory representation.
func kindOf[T Element]() Kind {
	var v T
	switch reflect.TypeOf(v).Kind() {
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	case reflect.Int32:
		return Int32
	case reflect.Int64, reflect.Int:
		return Int64
	case reflect.Uint32:
		return Uint32
	default: // Uint64, Uint
		return Uint64
	}
}

// resolve replaces Native with T's own kind.
func resolve[T Element](k Kind) Kind {
	if k == Native {
		return kindOf[T]()
	}
	return k
}

// size returns the element size in bytes.
func (k Kind) size() int {
	switch k {
	case Float32, Int32, Uint32:
		return 4
	default:
		return 8
	}
}

// datatype returns the HDF5 datatype for the kind. Native must be
// resolved first.
func (k Kind) datatype() *message.Datatype {
	switch k {
	case Float32:
		return message.NewFloatDatatype(4, message.OrderLE)
	case Float64:
		return message.NewFloatDatatype(8, message.OrderLE)
	case Int32:
		return message.NewFixedPointDatatype(4, true, message.OrderLE)
	case Int64:
		return message.NewFixedPointDatatype(8, true, message.OrderLE)
	case Uint32:
		return message.NewFixedPointDatatype(4, false, message.OrderLE)
	case Uint64:
		return message.NewFixedPointDatatype(8, false, message.OrderLE)
	}
	return nil
}

// encodeBuffer lays data out in the kind's little-endian on-disk form,
// converting element values when the storage kind differs from T.
func encodeBuffer[T Element](data []T, k Kind) []byte {
	buf := make([]byte, len(data)*k.size())

	switch k {
	case Float32:
		for i, v := range data {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
		}
	case Float64:
		for i, v := range data {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(float64(v)))
		}
	case Int32:
		for i, v := range data {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(int32(v)))
		}
	case Int64:
		for i, v := range data {
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(int64(v)))
		}
	case Uint32:
		for i, v := range data {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
		}
	case Uint64:
		for i, v := range data {
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
		}
	}

	return buf
}
