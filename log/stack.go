// log/stack.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// StackFrame is one caller in the callstack attached to log records.
type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

const (
	maxCallstackDepth = 16
	modulePath        = "github.com/mmp/scopesim/"
)

// Callstack returns the callers of the function that is logging, reusing
// fr's storage when it is large enough. Frames stop at main.main and at
// the Go runtime.
func Callstack(fr []StackFrame) []StackFrame {
	var pcs [maxCallstackDepth]uintptr
	// Skip runtime.Callers, Callstack and the Logger method.
	n := runtime.Callers(3, pcs[:])

	fr = fr[:0]
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function == "" || strings.HasPrefix(frame.Function, "runtime.") {
			break
		}
		fr = append(fr, makeStackFrame(frame))
		if !more || frame.Function == "main.main" {
			break
		}
	}
	return fr
}

func makeStackFrame(frame runtime.Frame) StackFrame {
	fn := strings.TrimPrefix(frame.Function, modulePath)
	return StackFrame{
		File:     filepath.Base(frame.File),
		Line:     frame.Line,
		Function: strings.TrimPrefix(fn, "main."),
	}
}

func (f StackFrame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line) + ":" + f.Function
}
