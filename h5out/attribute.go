package h5out

import (
	"go.uber.org/zap"
)

// WriteAttribute writes a scalar numeric attribute on an existing
// object. parentName is the absolute path of a group or dataset
// already created in this file ("/" for the root group). The value is
// stored as its in-memory kind.
func WriteAttribute[T Element](f *OutputFile, parentName, attrName string, value T) {
	f.setAttribute(parentName, attrName, nativeValue(value))
}

// WriteStringAttribute writes a scalar string attribute on an existing
// object, stored as fixed-length null-terminated text.
func (o *OutputFile) WriteStringAttribute(parentName, attrName, value string) {
	o.setAttribute(parentName, attrName, value)
}

func (o *OutputFile) setAttribute(parentName, attrName string, value interface{}) {
	file := o.mustFile("write attribute", parentName+"/"+attrName)

	if err := file.SetAttribute(parentName, attrName, value); err != nil {
		o.fatal("writing attribute",
			zap.String("file", file.Path()),
			zap.String("parent", parentName),
			zap.String("attribute", attrName),
			zap.Error(err))
	}
}

// nativeValue converts a possibly named element type to the plain Go
// type matching its storage kind, so the encoder sees a concrete
// builtin.
func nativeValue[T Element](v T) interface{} {
	switch kindOf[T]() {
	case Float32:
		return float32(v)
	case Float64:
		return float64(v)
	case Int32:
		return int32(v)
	case Int64:
		return int64(v)
	case Uint32:
		return uint32(v)
	default:
		return uint64(v)
	}
}
