package errors

import (
	"path/filepath"
	"runtime"
)

// runtime.Callers, captureStack, 생성 함수(New/Wrap 등)를 건너뛰어 실제 호출 지점부터 기록합니다.
const defaultCallerSkip = 3

const maxStackFrames = 5

// StackFrame 에러 생성 시점의 호출 스택 한 프레임입니다.
type StackFrame struct {
	File     string
	Line     int
	Function string
}

func captureStack(skip int) []StackFrame {
	pc := make([]uintptr, maxStackFrames)
	n := runtime.Callers(skip, pc)
	if n == 0 {
		return nil
	}

	frames := make([]StackFrame, 0, n)
	it := runtime.CallersFrames(pc[:n])
	for {
		frame, more := it.Next()
		frames = append(frames, StackFrame{
			File:     filepath.Base(frame.File),
			Line:     frame.Line,
			Function: frame.Function,
		})
		if !more {
			break
		}
	}

	return frames
}
