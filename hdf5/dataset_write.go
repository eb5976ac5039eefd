package hdf5

import (
	"fmt"
	"path"
	"reflect"

	"github.com/robert-malhotra/h5out/internal/dtype"
	"github.com/robert-malhotra/h5out/internal/filter"
	"github.com/robert-malhotra/h5out/internal/layout"
	"github.com/robert-malhotra/h5out/internal/message"
	"github.com/robert-malhotra/h5out/internal/object"
)

// CreateDataset creates a new dataset with the given name, inferring
// dimensions and datatype from the provided Go value.
func (g *Group) CreateDataset(name string, data interface{}, opts ...DatasetOption) (*Dataset, error) {
	dataVal := reflect.ValueOf(data)
	if dataVal.Kind() == reflect.Ptr {
		dataVal = dataVal.Elem()
	}

	dims, elemType, err := inferDimensionsAndType(dataVal)
	if err != nil {
		return nil, fmt.Errorf("inferring dimensions: %w", err)
	}

	datatype, err := dtype.GoTypeToDatatype(elemType)
	if err != nil {
		return nil, fmt.Errorf("creating datatype: %w", err)
	}

	rawData, err := dtype.Encode(datatype, data)
	if err != nil {
		return nil, fmt.Errorf("encoding data: %w", err)
	}

	return g.CreateDatasetRaw(name, datatype, dims, rawData, opts...)
}

// CreateDatasetRaw creates a new dataset from explicit dimensions and a
// contiguous row-major buffer already encoded for the given datatype.
// The buffer must hold exactly product(dims) elements. The dataset is
// written whole; chunking and compression are controlled by options.
func (g *Group) CreateDatasetRaw(name string, dt *message.Datatype, dims []uint64, rawData []byte, opts ...DatasetOption) (*Dataset, error) {
	if !g.file.writable {
		return nil, fmt.Errorf("file is not writable")
	}
	if name == "" {
		return nil, fmt.Errorf("dataset name cannot be empty")
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("dataset rank must be at least 1")
	}

	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}

	newPath := path.Join(g.path, name)
	if g.path == "/" {
		newPath = "/" + name
	}
	if _, exists := g.file.datasets[newPath]; exists {
		return nil, fmt.Errorf("object already exists: %s", newPath)
	}
	if _, exists := g.file.groups[newPath]; exists {
		return nil, fmt.Errorf("object already exists: %s", newPath)
	}

	numElements := uint64(1)
	for _, d := range dims {
		numElements *= d
	}
	if uint64(len(rawData)) != numElements*uint64(dt.Size) {
		return nil, fmt.Errorf("buffer size mismatch for %s: have %d bytes, want %d elements of %d bytes",
			newPath, len(rawData), numElements, dt.Size)
	}

	if options.compressionLvl > 0 && options.chunks == nil {
		return nil, fmt.Errorf("compression requires a chunked layout")
	}
	if options.chunks != nil && len(options.chunks) != len(dims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(options.chunks), len(dims))
	}

	dataspace := message.NewDataspace(dims, options.maxDims)

	var dataLayout *message.DataLayout
	var pipelineMsg *message.FilterPipeline

	if options.chunks != nil {
		chunkDims := make([]uint32, len(options.chunks))
		for i, c := range options.chunks {
			chunkDims[i] = uint32(c)
		}

		cw := layout.NewChunkWriter(g.file.writer, chunkDims, dt.Size, g.file.allocate)

		if options.compressionLvl > 0 {
			pipelineMsg = message.NewDeflatePipeline(options.compressionLvl)
			pipeline, err := filter.NewPipeline(pipelineMsg)
			if err != nil {
				return nil, fmt.Errorf("building filter pipeline: %w", err)
			}
			cw.SetPipeline(pipeline)
		}

		if !cw.Filtered() && uint64(len(rawData)) <= cw.ChunkSize() {
			// Whole dataset fits one unfiltered chunk - use the
			// Implicit index, where the address points at the data.
			chunkAddr, err := cw.WriteSingleChunk(rawData)
			if err != nil {
				return nil, fmt.Errorf("writing chunk: %w", err)
			}
			dataLayout = message.NewChunkedLayout(chunkDims, dt.Size, message.ChunkIndexImplicit)
			dataLayout.ChunkIndexAddr = chunkAddr
		} else {
			chunks := layout.SplitIntoChunks(rawData, dims, chunkDims, dt.Size)
			records, err := cw.WriteChunks(chunks)
			if err != nil {
				return nil, fmt.Errorf("writing chunks: %w", err)
			}

			indexAddr, err := cw.WriteFixedArrayIndex(records)
			if err != nil {
				return nil, fmt.Errorf("writing chunk index: %w", err)
			}

			dataLayout = message.NewChunkedLayout(chunkDims, dt.Size, message.ChunkIndexFixedArray)
			dataLayout.ChunkIndexAddr = indexAddr
		}
	} else {
		// Contiguous layout, written in one shot
		dataAddr := g.file.allocate(int64(len(rawData)))
		w := g.file.writer.At(int64(dataAddr))
		if err := w.WriteBytes(rawData); err != nil {
			return nil, fmt.Errorf("writing data: %w", err)
		}
		dataLayout = message.NewContiguousLayout(dataAddr, uint64(len(rawData)))
	}

	ds := &Dataset{
		file:      g.file,
		path:      newPath,
		dataspace: dataspace,
		datatype:  dt,
		layoutMsg: dataLayout,
		pipeline:  pipelineMsg,
	}

	// Attributes supplied at creation time
	for _, attr := range options.attributes {
		attrMsg, err := createAttributeMessage(attr.name, attr.value)
		if err != nil {
			return nil, fmt.Errorf("creating attribute %q: %w", attr.name, err)
		}
		ds.attrs = append(ds.attrs, attrMsg)
	}

	// Write the dataset object header
	messages := object.NewDatasetHeader(dataspace, dt, pipelineMsg, dataLayout, ds.attrs)
	headerSize := object.HeaderSize(g.file.writer, messages)
	datasetAddr := g.file.allocate(int64(headerSize))

	hw := g.file.writer.At(int64(datasetAddr))
	if _, err := object.WriteHeader(hw, messages); err != nil {
		return nil, fmt.Errorf("writing dataset header: %w", err)
	}
	ds.addr = datasetAddr

	// Hard-link the dataset into the parent group
	if err := g.addLink(message.NewHardLink(name, datasetAddr)); err != nil {
		return nil, fmt.Errorf("adding link to parent: %w", err)
	}

	g.file.datasets[newPath] = ds

	return ds, nil
}

// CreateDatasetAt creates a dataset at an absolute path. The parent
// group must already exist; this call never creates intermediate groups.
func (f *File) CreateDatasetAt(dsPath string, dt *message.Datatype, dims []uint64, rawData []byte, opts ...DatasetOption) (*Dataset, error) {
	if !f.writable {
		return nil, fmt.Errorf("file is not writable")
	}

	p := dsPath
	if len(p) == 0 || p[0] != '/' {
		p = "/" + p
	}

	parentPath := path.Dir(p)
	g, ok := f.groups[parentPath]
	if !ok {
		return nil, fmt.Errorf("parent group not found: %s", parentPath)
	}

	return g.CreateDatasetRaw(path.Base(p), dt, dims, rawData, opts...)
}

// addAttribute appends an attribute message to this dataset and
// rewrites its header. An existing attribute with the same name is
// replaced.
func (ds *Dataset) addAttribute(attr *message.Attribute) error {
	if !ds.file.writable {
		return fmt.Errorf("file is not writable")
	}
	if ds.addr == 0 {
		return fmt.Errorf("dataset %s was not created in this session", ds.path)
	}

	replaced := false
	for i, existing := range ds.attrs {
		if existing.Name == attr.Name {
			ds.attrs[i] = attr
			replaced = true
			break
		}
	}
	if !replaced {
		ds.attrs = append(ds.attrs, attr)
	}

	return ds.rewriteHeader()
}

// rewriteHeader writes a fresh dataset object header carrying the
// current attribute set and repoints the parent group's link at it.
func (ds *Dataset) rewriteHeader() error {
	messages := object.NewDatasetHeader(ds.dataspace, ds.datatype, ds.pipeline, ds.layoutMsg, ds.attrs)

	headerSize := object.HeaderSize(ds.file.writer, messages)
	newAddr := ds.file.allocate(int64(headerSize))

	w := ds.file.writer.At(int64(newAddr))
	if _, err := object.WriteHeader(w, messages); err != nil {
		return err
	}

	oldAddr := ds.addr
	ds.addr = newAddr

	return ds.file.repointLink(ds.path, oldAddr, newAddr)
}

// inferDimensionsAndType infers the dimensions and element type from a Go value.
func inferDimensionsAndType(val reflect.Value) ([]uint64, reflect.Type, error) {
	var dims []uint64
	current := val

	// Traverse nested slices/arrays to find dimensions
	for {
		switch current.Kind() {
		case reflect.Slice, reflect.Array:
			dims = append(dims, uint64(current.Len()))
			if current.Len() == 0 {
				// Empty slice - get element type from type
				return dims, current.Type().Elem(), nil
			}
			current = current.Index(0)
		default:
			// Reached the element type
			if len(dims) == 0 {
				// Scalar value
				dims = []uint64{1}
			}
			return dims, current.Type(), nil
		}
	}
}
