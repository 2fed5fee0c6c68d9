package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Result is the outcome of a successful execution exchange. A non-zero
// ExitCode or a Signal is still a Result, not an error.
type Result struct {
	Language string
	Version  string
	ExitCode uint8
	Output   string // stdout and stderr interleaved
	Stdout   string
	Stderr   string
	Signal   string // empty unless the program was killed
	Compile  *Stage // nil for interpreted languages
}

// Success reports whether the program exited 0 without a signal.
func (r Result) Success() bool {
	return r.ExitCode == 0 && r.Signal == ""
}

// Stage is the outcome of a compile step.
type Stage struct {
	ExitCode uint8
	Output   string
	Stdout   string
	Stderr   string
	Signal   string
}

type stageReply struct {
	Code   *uint8  `json:"code"`
	Output *string `json:"output"`
	Stdout *string `json:"stdout"`
	Stderr string  `json:"stderr"`
	Signal *string `json:"signal"`
}

func (s *stageReply) complete() bool {
	return s != nil && s.Output != nil && s.Stdout != nil
}

func (s *stageReply) stage() Stage {
	st := Stage{
		Output: *s.Output,
		Stdout: *s.Stdout,
		Stderr: s.Stderr,
	}
	// code is null when the program was killed; the signal carries the cause.
	if s.Code != nil {
		st.ExitCode = *s.Code
	}
	if s.Signal != nil {
		st.Signal = *s.Signal
	}
	return st
}

type executeReply struct {
	Language *string     `json:"language"`
	Version  *string     `json:"version"`
	Run      *stageReply `json:"run"`
	Compile  *stageReply `json:"compile"`
}

func (r *executeReply) complete() bool {
	return r.Language != nil && r.Version != nil && r.Run.complete()
}

func (r *executeReply) result() Result {
	run := r.Run.stage()
	res := Result{
		Language: *r.Language,
		Version:  *r.Version,
		ExitCode: run.ExitCode,
		Output:   run.Output,
		Stdout:   run.Stdout,
		Stderr:   run.Stderr,
		Signal:   run.Signal,
	}
	if r.Compile.complete() {
		compile := r.Compile.stage()
		res.Compile = &compile
	}
	return res
}

type errorReply struct {
	Message *string `json:"message"`
}

var (
	errUnknownShape     = errors.New("response matches neither result nor error shape")
	errUnexpectedStatus = errors.New("unexpected status")
)

func errorMessage(body []byte) (string, bool) {
	var e errorReply
	if err := json.Unmarshal(body, &e); err != nil || e.Message == nil {
		return "", false
	}
	return *e.Message, true
}

// decodeExecute decodes the execute reply. The wire format does not say
// which of its two shapes a body has, so the result shape is tried first
// and the {"message": ...} error shape second. A body carrying both is a
// result.
func decodeExecute(r reply) (Result, error) {
	var wire executeReply
	if err := json.Unmarshal(r.body, &wire); err == nil && wire.complete() {
		return wire.result(), nil
	}
	if msg, ok := errorMessage(r.body); ok {
		return Result{}, &ServiceError{StatusCode: r.status, Message: msg}
	}
	if !r.ok() {
		return Result{}, errUnexpectedStatus
	}
	return Result{}, errUnknownShape
}

// decodeReply decodes a listing or package reply into out. Unlike the
// execute reply, none of these success shapes has a message field, so the
// error shape is checked first.
func decodeReply(r reply, out any) error {
	if msg, ok := errorMessage(r.body); ok {
		return &ServiceError{StatusCode: r.status, Message: msg}
	}
	if !r.ok() {
		return errUnexpectedStatus
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// wrapDecodeError keeps a *ServiceError as is and reports everything else
// as a transport failure.
func wrapDecodeError(op, rawURL string, r reply, err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return &TransportError{Op: op, URL: rawURL, StatusCode: r.status, Err: err}
}
