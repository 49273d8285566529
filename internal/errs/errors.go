/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package errs

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Error extends the standard error with a numeric code and a parent
// chain, so a low-level syscall failure can be wrapped once and
// re-classified by each layer that re-raises it.
type Error interface {
	error

	Code() CodeError
	IsCode(code CodeError) bool
	HasCode(code CodeError) bool

	Parents() []Error
	HasParent() bool

	Unwrap() error
}

type ers struct {
	code    CodeError
	message string
	parent  []Error
	cause   error
}

func (e *ers) Code() CodeError { return e.code }

func (e *ers) IsCode(code CodeError) bool { return e.code == code }

func (e *ers) HasCode(code CodeError) bool {
	if e.IsCode(code) {
		return true
	}
	for _, p := range e.parent {
		if p.HasCode(code) {
			return true
		}
	}
	return false
}

func (e *ers) Parents() []Error { return e.parent }

func (e *ers) HasParent() bool { return len(e.parent) > 0 }

func (e *ers) Unwrap() error { return e.cause }

func (e *ers) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%d] %s: %s", e.code, e.message, e.cause.Error())
	}
	return fmt.Sprintf("[%d] %s", e.code, e.message)
}

// New builds an Error with the given code, message and optional parent
// errors. Any parent that is not already an Error is wrapped with
// pkg/errors so its cause chain and call-site are preserved.
func New(code CodeError, message string, parent ...error) Error {
	e := &ers{code: code, message: message}

	for _, p := range parent {
		if p == nil {
			continue
		}
		if pe, ok := p.(Error); ok {
			e.parent = append(e.parent, pe)
			continue
		}
		e.cause = pkgerrors.WithStack(p)
	}

	return e
}

// Wrap lifts a plain error into this hierarchy under the given code,
// preserving it as the immediate cause.
func Wrap(code CodeError, message string, cause error) Error {
	if cause == nil {
		return nil
	}
	return &ers{code: code, message: message, cause: pkgerrors.WithStack(cause)}
}

// Is reports whether err carries this package's Error interface.
func Is(err error) bool {
	var e Error
	return errors.As(err, &e)
}

// Has reports whether err, or any of its parents, carries the given code.
func Has(err error, code CodeError) bool {
	var e Error
	if !errors.As(err, &e) {
		return false
	}
	return e.HasCode(code)
}
