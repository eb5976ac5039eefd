package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5out/internal/binary"
	"github.com/robert-malhotra/h5out/internal/filter"
)

// ChunkWriter handles writing chunked dataset data and indices.
// When a filter pipeline is set, each chunk is encoded before it is
// written and the index records per-chunk stored sizes and filter masks.
type ChunkWriter struct {
	w           *binary.Writer
	chunkDims   []uint32
	elementSize uint32
	pipeline    *filter.Pipeline
	allocator   func(size int64) uint64
}

// ChunkRecord records one chunk as stored on disk.
type ChunkRecord struct {
	Addr       uint64
	StoredSize uint32
	FilterMask uint32 // 0 = all filters applied
}

// NewChunkWriter creates a new chunk writer.
func NewChunkWriter(w *binary.Writer, chunkDims []uint32, elementSize uint32, allocator func(size int64) uint64) *ChunkWriter {
	return &ChunkWriter{
		w:           w,
		chunkDims:   chunkDims,
		elementSize: elementSize,
		allocator:   allocator,
	}
}

// SetPipeline sets the filter pipeline applied to each chunk on write.
func (cw *ChunkWriter) SetPipeline(p *filter.Pipeline) {
	if p != nil && !p.Empty() {
		cw.pipeline = p
	}
}

// Filtered returns true if chunks are encoded through a filter pipeline.
func (cw *ChunkWriter) Filtered() bool {
	return cw.pipeline != nil
}

// ChunkSize returns the size in bytes of one (unencoded) chunk.
func (cw *ChunkWriter) ChunkSize() uint64 {
	size := uint64(cw.elementSize)
	for _, dim := range cw.chunkDims {
		size *= uint64(dim)
	}
	return size
}

// WriteSingleChunk writes the entire data as a single unfiltered chunk
// and returns the chunk address. Used when the dataset fits one chunk.
func (cw *ChunkWriter) WriteSingleChunk(data []byte) (uint64, error) {
	addr := cw.allocator(int64(len(data)))

	w := cw.w.At(int64(addr))
	if err := w.WriteBytes(data); err != nil {
		return 0, err
	}

	return addr, nil
}

// WriteChunks encodes and writes each chunk, returning the on-disk records
// in the same order as the input chunks.
func (cw *ChunkWriter) WriteChunks(chunks [][]byte) ([]ChunkRecord, error) {
	written := make([]ChunkRecord, len(chunks))

	for i, chunk := range chunks {
		stored := chunk
		if cw.pipeline != nil {
			encoded, err := cw.pipeline.Encode(chunk)
			if err != nil {
				return nil, fmt.Errorf("encoding chunk %d: %w", i, err)
			}
			stored = encoded
		}

		addr := cw.allocator(int64(len(stored)))
		w := cw.w.At(int64(addr))
		if err := w.WriteBytes(stored); err != nil {
			return nil, fmt.Errorf("writing chunk %d: %w", i, err)
		}

		written[i] = ChunkRecord{
			Addr:       addr,
			StoredSize: uint32(len(stored)),
			FilterMask: 0,
		}
	}

	return written, nil
}

// entrySize returns the fixed array element entry size.
// Unfiltered entries hold only the chunk address. Filtered entries hold
// address + stored size (4 bytes, little-endian) + filter mask (4 bytes).
func (cw *ChunkWriter) entrySize() int {
	if cw.pipeline == nil {
		return cw.w.OffsetSize()
	}
	return cw.w.OffsetSize() + 4 + 4
}

// WriteFixedArrayIndex writes a fixed array chunk index over the given
// chunk records (in linear chunk order) and returns the header address.
func (cw *ChunkWriter) WriteFixedArrayIndex(chunks []ChunkRecord) (uint64, error) {
	numChunks := len(chunks)
	if numChunks == 0 {
		return 0, nil
	}

	entrySize := cw.entrySize()
	offsetSize := cw.w.OffsetSize()
	lengthSize := cw.w.LengthSize()

	clientID := uint8(0) // non-filtered chunks
	if cw.pipeline != nil {
		clientID = 1 // filtered chunks
	}

	// Page bits - small arrays fit one page
	pageBits := uint8(10)
	if numChunks > 1024 {
		pageBits = 12
	}

	// Header size: signature(4) + version(1) + clientID(1) + entrySize(1) + pageBits(1) +
	//              maxEntries(lengthSize) + dataBlockAddr(offsetSize) + checksum(4)
	headerSize := 4 + 1 + 1 + 1 + 1 + lengthSize + offsetSize + 4
	headerAddr := cw.allocator(int64(headerSize))

	// Data block size: signature(4) + version(1) + clientID(1) + headerAddr(offsetSize) +
	//                  entries(numChunks * entrySize) + checksum(4)
	dataBlockSize := 4 + 1 + 1 + offsetSize + numChunks*entrySize + 4
	dataBlockAddr := cw.allocator(int64(dataBlockSize))

	// Build FADB (data block) in memory to compute the checksum
	fadbData := make([]byte, dataBlockSize)
	idx := 0

	copy(fadbData[idx:], []byte("FADB"))
	idx += 4

	fadbData[idx] = 0 // version
	idx++
	fadbData[idx] = clientID
	idx++

	putUint64LE(fadbData[idx:], headerAddr, offsetSize)
	idx += offsetSize

	for _, c := range chunks {
		putUint64LE(fadbData[idx:], c.Addr, offsetSize)
		idx += offsetSize
		if cw.pipeline != nil {
			putUint32LE(fadbData[idx:], c.StoredSize)
			idx += 4
			putUint32LE(fadbData[idx:], c.FilterMask)
			idx += 4
		}
	}

	fadbChecksum := binary.Lookup3Checksum(fadbData[:idx])
	putUint32LE(fadbData[idx:], fadbChecksum)

	w := cw.w.At(int64(dataBlockAddr))
	if err := w.WriteBytes(fadbData); err != nil {
		return 0, err
	}

	// Build FAHD (header) in memory to compute the checksum
	fahdData := make([]byte, headerSize)
	idx = 0

	copy(fahdData[idx:], []byte("FAHD"))
	idx += 4

	fahdData[idx] = 0 // version
	idx++
	fahdData[idx] = clientID
	idx++
	fahdData[idx] = uint8(entrySize)
	idx++
	fahdData[idx] = pageBits
	idx++

	putUint64LE(fahdData[idx:], uint64(numChunks), lengthSize)
	idx += lengthSize

	putUint64LE(fahdData[idx:], dataBlockAddr, offsetSize)
	idx += offsetSize

	fahdChecksum := binary.Lookup3Checksum(fahdData[:idx])
	putUint32LE(fahdData[idx:], fahdChecksum)

	hw := cw.w.At(int64(headerAddr))
	if err := hw.WriteBytes(fahdData); err != nil {
		return 0, err
	}

	return headerAddr, nil
}

// Helper functions for building byte arrays
func putUint64LE(b []byte, v uint64, size int) {
	for i := 0; i < size; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// SplitIntoChunks splits a contiguous row-major buffer into full-size
// chunks in linear chunk order (last dimension varies fastest). Edge
// chunks that extend past the dataset bounds are zero padded so every
// chunk buffer is exactly the chunk byte size.
func SplitIntoChunks(data []byte, dataDims []uint64, chunkDims []uint32, elementSize uint32) [][]byte {
	ndims := len(dataDims)

	numChunksPerDim := make([]uint64, ndims)
	totalChunks := uint64(1)
	for d, dataDim := range dataDims {
		numChunksPerDim[d] = (dataDim + uint64(chunkDims[d]) - 1) / uint64(chunkDims[d])
		totalChunks *= numChunksPerDim[d]
	}

	chunkBytes := uint64(elementSize)
	for _, cd := range chunkDims {
		chunkBytes *= uint64(cd)
	}

	// Row-major strides in bytes for source and chunk buffers
	dataStrides := make([]uint64, ndims)
	chunkStrides := make([]uint64, ndims)
	dataStrides[ndims-1] = uint64(elementSize)
	chunkStrides[ndims-1] = uint64(elementSize)
	for d := ndims - 2; d >= 0; d-- {
		dataStrides[d] = dataStrides[d+1] * dataDims[d+1]
		chunkStrides[d] = chunkStrides[d+1] * uint64(chunkDims[d+1])
	}

	chunks := make([][]byte, 0, totalChunks)

	for linear := uint64(0); linear < totalChunks; linear++ {
		// Chunk origin in dataset coordinates, last dimension fastest
		origin := make([]uint64, ndims)
		remaining := linear
		for d := ndims - 1; d >= 0; d-- {
			origin[d] = (remaining % numChunksPerDim[d]) * uint64(chunkDims[d])
			remaining /= numChunksPerDim[d]
		}

		// Extent of valid data within this chunk (clipped at dataset edges)
		valid := make([]uint64, ndims)
		for d := 0; d < ndims; d++ {
			valid[d] = uint64(chunkDims[d])
			if origin[d]+valid[d] > dataDims[d] {
				valid[d] = dataDims[d] - origin[d]
			}
		}

		chunk := make([]byte, chunkBytes)
		gatherChunk(chunk, data, origin, valid, dataStrides, chunkStrides, 0, 0, 0, ndims)
		chunks = append(chunks, chunk)
	}

	return chunks
}

// gatherChunk copies the valid region of one chunk out of the source
// buffer, recursing over dimensions and copying innermost rows whole.
// This is the write-side inverse of the read-side chunk reassembly.
func gatherChunk(
	chunk, data []byte,
	origin, valid []uint64,
	dataStrides, chunkStrides []uint64,
	dataIdx, chunkIdx uint64,
	dim, ndims int,
) {
	if dim == ndims-1 {
		rowBytes := valid[dim] * dataStrides[dim]
		srcIdx := dataIdx + origin[dim]*dataStrides[dim]
		if srcIdx+rowBytes <= uint64(len(data)) && chunkIdx+rowBytes <= uint64(len(chunk)) {
			copy(chunk[chunkIdx:chunkIdx+rowBytes], data[srcIdx:srcIdx+rowBytes])
		}
		return
	}

	for i := uint64(0); i < valid[dim]; i++ {
		gatherChunk(
			chunk, data,
			origin, valid,
			dataStrides, chunkStrides,
			dataIdx+(origin[dim]+i)*dataStrides[dim],
			chunkIdx+i*chunkStrides[dim],
			dim+1, ndims,
		)
	}
}
