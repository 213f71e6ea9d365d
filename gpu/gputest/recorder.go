// Package gputest provides a gpu.Context that records calls for tests.
package gputest

import (
	"fmt"
	"sync"

	"github.com/edaniels/mediatex/gpu"
)

// A Call is a single recorded context call.
type Call struct {
	Op      string
	Target  uint32
	Unit    uint32
	Texture gpu.Texture
	Pname   uint32
	Param   int32
	Level   int32
	Width   int32
	Height  int32
	Format  uint32
	Type    uint32
	Bytes   int
}

func (c Call) String() string {
	switch c.Op {
	case "ActiveTexture":
		return fmt.Sprintf("ActiveTexture(%#x)", c.Unit)
	case "BindTexture":
		return fmt.Sprintf("BindTexture(%#x, %d)", c.Target, c.Texture)
	case "TexImage2D":
		return fmt.Sprintf("TexImage2D(%#x, %d, %dx%d, %#x, %#x, %d bytes)",
			c.Target, c.Level, c.Width, c.Height, c.Format, c.Type, c.Bytes)
	case "TexParameteri":
		return fmt.Sprintf("TexParameteri(%#x, %#x, %#x)", c.Target, c.Pname, c.Param)
	default:
		return c.Op
	}
}

// Recorder records every call made to it.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns the recorded calls formatted with Call.String.
func (r *Recorder) Ops() []string {
	calls := r.Calls()
	ops := make([]string, 0, len(calls))
	for _, c := range calls {
		ops = append(ops, c.String())
	}
	return ops
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

// ActiveTexture implements gpu.Context.
func (r *Recorder) ActiveTexture(unit uint32) {
	r.record(Call{Op: "ActiveTexture", Unit: unit})
}

// BindTexture implements gpu.Context.
func (r *Recorder) BindTexture(target uint32, tex gpu.Texture) {
	r.record(Call{Op: "BindTexture", Target: target, Texture: tex})
}

// TexImage2D implements gpu.Context.
func (r *Recorder) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	r.record(Call{
		Op:     "TexImage2D",
		Target: target,
		Level:  level,
		Param:  internalFormat,
		Width:  width,
		Height: height,
		Format: format,
		Type:   xtype,
		Bytes:  len(pixels),
	})
}

// TexParameteri implements gpu.Context.
func (r *Recorder) TexParameteri(target, pname uint32, param int32) {
	r.record(Call{Op: "TexParameteri", Target: target, Pname: pname, Param: param})
}
