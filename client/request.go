package client

import "time"

// Content encodings accepted by the service for File.Content.
const (
	EncodingUTF8   = "utf8"
	EncodingBase64 = "base64"
	EncodingHex    = "hex"
)

// File is one source file of a submission. The first file of a submission
// is the program's entry point.
type File struct {
	Name     string `json:"name,omitempty"`
	Content  string `json:"content"`
	Encoding string `json:"encoding,omitempty"`
}

// Request is the body of an execute call.
type Request struct {
	Language           string   `json:"language"`
	Version            string   `json:"version"`
	Files              []File   `json:"files"`
	Stdin              string   `json:"stdin,omitempty"`
	Args               []string `json:"args,omitempty"`
	CompileTimeout     int64    `json:"compile_timeout,omitempty"` // milliseconds
	RunTimeout         int64    `json:"run_timeout,omitempty"`     // milliseconds
	CompileMemoryLimit int64    `json:"compile_memory_limit,omitempty"`
	RunMemoryLimit     int64    `json:"run_memory_limit,omitempty"`
}

// ExecuteOption sets an optional field of a Request.
type ExecuteOption func(*Request)

// NewRequest assembles a Request. Files are kept in the given order and
// are not validated; an empty list is sent as an empty list.
func NewRequest(language, version string, files []File, opts ...ExecuteOption) Request {
	req := Request{
		Language: language,
		Version:  version,
		Files:    make([]File, len(files)),
	}
	copy(req.Files, files)

	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// WithStdin sets the text passed to the program on stdin.
func WithStdin(stdin string) ExecuteOption {
	return func(r *Request) {
		r.Stdin = stdin
	}
}

// WithArgs sets the program's command-line arguments.
func WithArgs(args ...string) ExecuteOption {
	return func(r *Request) {
		r.Args = args
	}
}

// WithRunTimeout caps the run stage's wall time. The service applies its
// own default (3s on the public instance) when unset.
func WithRunTimeout(d time.Duration) ExecuteOption {
	return func(r *Request) {
		r.RunTimeout = d.Milliseconds()
	}
}

// WithCompileTimeout caps the compile stage's wall time.
func WithCompileTimeout(d time.Duration) ExecuteOption {
	return func(r *Request) {
		r.CompileTimeout = d.Milliseconds()
	}
}

// WithRunMemoryLimit caps the run stage's memory in bytes.
func WithRunMemoryLimit(bytes int64) ExecuteOption {
	return func(r *Request) {
		r.RunMemoryLimit = bytes
	}
}

// WithCompileMemoryLimit caps the compile stage's memory in bytes.
func WithCompileMemoryLimit(bytes int64) ExecuteOption {
	return func(r *Request) {
		r.CompileMemoryLimit = bytes
	}
}
