package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// hook 로그 레벨에 따라 엔트리를 여러 Writer로 분배합니다.
//
//   - main:     INFO ~ PANIC
//   - critical: ERROR ~ PANIC (main에도 함께 기록)
//   - verbose:  DEBUG, TRACE (main에는 기록하지 않음)
//   - console:  모든 레벨
type hook struct {
	mainWriter     io.Writer
	criticalWriter io.Writer
	verboseWriter  io.Writer
	consoleWriter  io.Writer

	formatter Formatter

	mu     sync.RWMutex
	closed bool
}

func (h *hook) Levels() []Level {
	return AllLevels
}

func (h *hook) Fire(entry *Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil
	}

	msg, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	var firstErr error
	write := func(w io.Writer, name string) {
		if w == nil {
			return
		}
		if _, err := w.Write(msg); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-FAILURE] %s 로그 쓰기 실패: %v\n", name, err)
		}
	}

	write(h.consoleWriter, "console")

	if entry.Level <= ErrorLevel {
		write(h.criticalWriter, "critical")
	}
	if entry.Level >= DebugLevel {
		write(h.verboseWriter, "verbose")
		return firstErr
	}

	write(h.mainWriter, "main")

	return firstErr
}

// Close 이후의 모든 Fire 호출은 무시됩니다.
func (h *hook) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}
