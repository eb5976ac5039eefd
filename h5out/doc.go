// Package h5out writes simulation output to HDF5 files.
//
// An OutputFile owns a single file handle and exposes typed dataset
// and scalar attribute writes for the numeric kinds simulation codes
// emit. Datasets are written whole in one call; arrays with any extent
// above 8192 are stored chunked and deflate-compressed automatically.
//
// Every failure is terminal. The writer reports the failing file,
// dataset, or attribute and terminates the process, optionally asking
// a cooperating multi-process job to shut down first. Callers never
// receive an error value; there is no recoverable path.
package h5out
