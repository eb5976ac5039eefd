package message

import (
	"fmt"

	"github.com/robert-malhotra/h5out/internal/binary"
)

// NewDeflatePipeline creates a filter pipeline message containing a
// single DEFLATE filter at the given compression level.
// Uses version 2 format for modern compatibility.
func NewDeflatePipeline(level int) *FilterPipeline {
	return &FilterPipeline{
		Version: 2,
		Filters: []FilterInfo{
			{
				ID:         FilterDeflate,
				Flags:      0,
				ClientData: []uint32{uint32(level)},
			},
		},
	}
}

// Serialize writes the FilterPipeline message to the writer.
// Only version 2 pipelines can be serialized; v1 exists for reading
// files produced by older libraries.
func (m *FilterPipeline) Serialize(w *binary.Writer) error {
	if m.Version != 2 {
		return fmt.Errorf("can only serialize v2 filter pipelines, got v%d", m.Version)
	}
	if len(m.Filters) > 32 {
		return fmt.Errorf("too many filters: %d", len(m.Filters))
	}

	if err := w.WriteUint8(m.Version); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(len(m.Filters))); err != nil {
		return err
	}

	for _, f := range m.Filters {
		if err := w.WriteUint16(f.ID); err != nil {
			return err
		}

		// Name length field only present for custom filters (ID >= 256)
		if f.ID >= 256 {
			if err := w.WriteUint16(uint16(len(f.Name))); err != nil {
				return err
			}
		}

		if err := w.WriteUint16(f.Flags); err != nil {
			return err
		}
		if err := w.WriteUint16(uint16(len(f.ClientData))); err != nil {
			return err
		}

		if f.ID >= 256 && len(f.Name) > 0 {
			if err := w.WriteBytes([]byte(f.Name)); err != nil {
				return err
			}
		}

		for _, cd := range f.ClientData {
			if err := w.WriteUint32(cd); err != nil {
				return err
			}
		}
	}

	return nil
}

// SerializedSize returns the size in bytes when serialized.
func (m *FilterPipeline) SerializedSize(w *binary.Writer) int {
	// version(1) + nfilters(1)
	size := 2
	for _, f := range m.Filters {
		// ID(2) + flags(2) + numCD(2)
		size += 6
		if f.ID >= 256 {
			size += 2 + len(f.Name)
		}
		size += 4 * len(f.ClientData)
	}
	return size
}
