// Package heap implements the HDF5 global heap, which stores
// variable-length data such as variable-length string values.
//
// The [GlobalHeap] (signature "GCOL") stores variable-length data that may be
// shared across multiple objects, such as variable-length string values and
// variable-length sequence data. Global heap collections contain numbered
// objects that can be referenced by a (collection address, object index) pair.
//
// Global heap structure:
//   - Collection header with total size
//   - Numbered objects with reference counts
//   - Objects are padded to 8-byte boundaries
//
// Usage:
//
//	heap, err := heap.ReadGlobalHeap(reader, collectionAddress)
//	data, err := heap.GetObject(objectIndex)
//	str, err := heap.GetString(objectIndex)
//
// # Global Heap ID
//
// Variable-length data fields in datasets store a [GlobalHeapID] which
// contains the collection address and object index needed to retrieve
// the actual data:
//
//	heapID, err := heap.ParseGlobalHeapID(rawBytes, offsetSize)
//	heap, err := heap.ReadGlobalHeap(reader, heapID.CollectionAddress)
//	value, err := heap.GetObject(uint16(heapID.ObjectIndex))
//
// # Key Types
//
//   - [GlobalHeap]: Global heap collection for variable-length data
//   - [GlobalHeapID]: Reference to an object in a global heap
package heap
