// Package errors 애플리케이션 전역에서 사용하는 분류형 에러를 제공합니다.
//
// 모든 에러는 ErrorType으로 분류되며 원인 에러(cause)와 생성 시점의 호출 스택을 함께 보관합니다.
// 표준 errors 패키지와 이름이 겹치므로 apperrors 별칭으로 import 하여 사용합니다.
package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// AppError 종류, 메시지, 원인, 호출 스택을 담는 에러입니다.
type AppError struct {
	errType ErrorType
	message string
	cause   error
	stack   []StackFrame
}

func (e *AppError) Type() ErrorType     { return e.errType }
func (e *AppError) Message() string     { return e.message }
func (e *AppError) Stack() []StackFrame { return e.stack }
func (e *AppError) Unwrap() error       { return e.cause }

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.errType, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.errType, e.message)
}

// Format "%+v"로 출력하면 가장 안쪽 AppError의 스택과 원인 체인을 함께 출력합니다.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "[%s] %s", e.errType, e.message)

			var inner *AppError
			if (e.cause == nil || !errors.As(e.cause, &inner)) && len(e.stack) > 0 {
				fmt.Fprint(s, "\nStack trace:")
				for _, f := range e.stack {
					name := f.Function
					if idx := strings.LastIndex(name, "/"); idx != -1 {
						name = name[idx+1:]
					}
					fmt.Fprintf(s, "\n\t%s:%d %s", f.File, f.Line, name)
				}
			}

			if e.cause != nil {
				fmt.Fprint(s, "\nCaused by:\n")
				if f, ok := e.cause.(fmt.Formatter); ok {
					f.Format(s, verb)
				} else {
					fmt.Fprintf(s, "\t%v", e.cause)
				}
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

func New(errType ErrorType, message string) error {
	return &AppError{errType: errType, message: message, stack: captureStack(defaultCallerSkip)}
}

func Newf(errType ErrorType, format string, args ...any) error {
	return &AppError{errType: errType, message: fmt.Sprintf(format, args...), stack: captureStack(defaultCallerSkip)}
}

// Wrap err가 nil이면 nil을 반환합니다.
func Wrap(err error, errType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{errType: errType, message: message, cause: err, stack: captureStack(defaultCallerSkip)}
}

func Wrapf(err error, errType ErrorType, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &AppError{errType: errType, message: fmt.Sprintf(format, args...), cause: err, stack: captureStack(defaultCallerSkip)}
}

// Is 에러 체인 중 하나라도 errType 종류의 AppError이면 true를 반환합니다.
func Is(err error, errType ErrorType) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.errType == errType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// RootCause 체인의 가장 안쪽 에러를 반환합니다.
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}

// UnderlyingType 체인에서 가장 안쪽에 있는 AppError의 종류를 반환합니다. AppError가 없으면 Unknown입니다.
func UnderlyingType(err error) ErrorType {
	t := Unknown
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			t = appErr.errType
		}
		err = errors.Unwrap(err)
	}
	return t
}
