package h5out

import (
	"go.uber.org/zap"

	"github.com/robert-malhotra/h5out/hdf5"
)

// WriteOption configures a single dataset write.
type WriteOption func(*writeOptions)

type writeOptions struct {
	storage Kind
}

// WithStorage overrides the on-disk storage type for one dataset
// write. The default is the in-memory element kind.
func WithStorage(k Kind) WriteOption {
	return func(o *writeOptions) {
		o.storage = k
	}
}

// WriteDataset writes data as a rank-1 dataset at the given name
// (an absolute path; the parent group must already exist).
func WriteDataset[T Element](f *OutputFile, name string, data []T, opts ...WriteOption) {
	WriteDatasetND(f, name, []uint64{uint64(len(data))}, data, opts...)
}

// WriteDatasetND writes a rank-N dataset from a contiguous row-major
// buffer holding exactly product(extents) elements. Datasets where
// every extent is nonzero and at least one exceeds ChunkSize are
// stored chunked with deflate compression; everything else is stored
// contiguous and uncompressed. The dataset is written whole in one
// call and any failure is fatal.
func WriteDatasetND[T Element](f *OutputFile, name string, extents []uint64, data []T, opts ...WriteOption) {
	file := f.mustFile("write dataset", name)

	options := writeOptions{storage: Native}
	for _, opt := range opts {
		opt(&options)
	}

	if len(extents) == 0 {
		f.fatal("dataset rank must be at least 1",
			zap.String("file", file.Path()),
			zap.String("dataset", name))
	}

	total := uint64(1)
	for _, e := range extents {
		total *= e
	}
	if total != uint64(len(data)) {
		f.fatal("buffer length does not match extents",
			zap.String("file", file.Path()),
			zap.String("dataset", name),
			zap.Uint64s("extents", extents),
			zap.Int("elements", len(data)))
	}

	kind := resolve[T](options.storage)
	raw := encodeBuffer(data, kind)

	var dsOpts []hdf5.DatasetOption
	if chunks, ok := chunkExtents(extents); ok {
		dsOpts = append(dsOpts,
			hdf5.WithChunks(chunks...),
			hdf5.WithCompression(DeflateLevel))
	}

	if _, err := file.CreateDatasetAt(name, kind.datatype(), extents, raw, dsOpts...); err != nil {
		f.fatal("creating dataset",
			zap.String("file", file.Path()),
			zap.String("dataset", name),
			zap.Error(err))
	}
}

// chunkExtents decides whether a dataset with the given extents is
// chunked and returns the per-dimension chunk extents. Chunking applies
// only when every extent is nonzero and at least one exceeds ChunkSize;
// each chunk extent is min(ChunkSize, extent).
func chunkExtents(extents []uint64) ([]uint64, bool) {
	nonzero := true
	large := false
	for _, e := range extents {
		if e == 0 {
			nonzero = false
		}
		if e > ChunkSize {
			large = true
		}
	}
	if !nonzero || !large {
		return nil, false
	}

	chunks := make([]uint64, len(extents))
	for i, e := range extents {
		if e > ChunkSize {
			chunks[i] = ChunkSize
		} else {
			chunks[i] = e
		}
	}
	return chunks, true
}
