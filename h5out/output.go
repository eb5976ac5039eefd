package h5out

import (
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5out/hdf5"
)

const (
	// ChunkSize is the chunk extent threshold and cap, in elements.
	// A dataset is chunked when every extent is nonzero and at least
	// one exceeds this value; each chunk extent is capped at it.
	ChunkSize = 8192

	// DeflateLevel is the compression level applied to chunked datasets.
	DeflateLevel = 6
)

// JobAborter asks all cooperating processes of a multi-process job to
// terminate. It is invoked before the local abort so that one process's
// I/O failure does not leave siblings hung in a collective operation.
type JobAborter interface {
	AbortJob(code int)
}

// Option configures an OutputFile.
type Option func(*OutputFile)

// WithLogger sets the logger used to report fatal errors.
func WithLogger(log *zap.Logger) Option {
	return func(o *OutputFile) {
		o.log = log
	}
}

// WithJobAborter sets the collaborator notified before the process
// terminates on a fatal error.
func WithJobAborter(a JobAborter) Option {
	return func(o *OutputFile) {
		o.jobAborter = a
	}
}

// WithAbortFunc replaces the process-abort primitive. The function
// must not return; the default is os.Exit.
func WithAbortFunc(abort func(code int)) Option {
	return func(o *OutputFile) {
		o.abort = abort
	}
}

// fileHandle is the unit of ownership for the open file. It is held
// behind a pointer so the finalizer installed by New can release a
// handle that was never explicitly closed.
type fileHandle struct {
	f *hdf5.File
}

// OutputFile writes datasets and attributes to one HDF5 file. It holds
// at most one open handle at a time and must not be shared across
// goroutines.
type OutputFile struct {
	handle     *fileHandle
	log        *zap.Logger
	abort      func(code int)
	jobAborter JobAborter
	cleanup    runtime.Cleanup
}

// New returns an OutputFile with no file open. A cleanup is installed
// so a handle still open when the OutputFile becomes unreachable is
// released exactly once.
func New(opts ...Option) *OutputFile {
	o := &OutputFile{
		handle: &fileHandle{},
		log:    defaultLogger(),
		abort:  func(code int) { os.Exit(code) },
	}
	for _, opt := range opts {
		opt(o)
	}
	o.cleanup = runtime.AddCleanup(o, releaseHandle, o.handle)
	return o
}

func releaseHandle(h *fileHandle) {
	if h.f != nil {
		h.f.Close()
		h.f = nil
	}
}

func defaultLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return zap.Must(cfg.Build())
}

// Create creates a new output file at filename, truncating any
// existing file there. Fatal if a file is already open or the create
// fails.
func (o *OutputFile) Create(filename string) {
	if o.handle.f != nil {
		o.fatal("create with a file already open",
			zap.String("open", o.handle.f.Path()),
			zap.String("requested", filename))
	}

	f, err := hdf5.Create(filename)
	if err != nil {
		o.fatal("creating output file",
			zap.String("file", filename),
			zap.Error(err))
	}
	o.handle.f = f
}

// Close closes the output file. Fatal if no file is open.
func (o *OutputFile) Close() {
	if o.handle.f == nil {
		o.fatal("close with no file open")
	}

	filename := o.handle.f.Path()
	if err := o.handle.f.Close(); err != nil {
		o.handle.f = nil
		o.fatal("closing output file",
			zap.String("file", filename),
			zap.Error(err))
	}
	o.handle.f = nil
}

// IsOpen returns true if a file is currently open.
func (o *OutputFile) IsOpen() bool {
	return o.handle.f != nil
}

// Filename returns the path of the open file, or "" when closed.
func (o *OutputFile) Filename() string {
	if o.handle.f == nil {
		return ""
	}
	return o.handle.f.Path()
}

// CreateGroup creates a group at the given absolute path inside the
// open file. The parent group must already exist.
func (o *OutputFile) CreateGroup(name string) {
	file := o.mustFile("create group", name)

	p := name
	if len(p) == 0 || p[0] != '/' {
		p = "/" + p
	}

	if _, err := file.CreateGroupAt(p); err != nil {
		o.fatal("creating group",
			zap.String("file", file.Path()),
			zap.String("group", p),
			zap.Error(err))
	}
}

// mustFile returns the open engine file, or reports a fatal error
// naming the operation and target.
func (o *OutputFile) mustFile(op, target string) *hdf5.File {
	if o.handle.f == nil {
		o.fatal(op+" with no file open", zap.String("name", target))
	}
	return o.handle.f
}

// fatal reports the failure, signals the job aborter when configured,
// and terminates via the abort primitive. It never returns.
func (o *OutputFile) fatal(msg string, fields ...zap.Field) {
	o.log.Error(msg, fields...)
	_ = o.log.Sync()

	if o.jobAborter != nil {
		o.jobAborter.AbortJob(1)
	}
	o.abort(1)

	// The abort primitive must not return.
	panic("h5out: abort function returned: " + msg)
}
