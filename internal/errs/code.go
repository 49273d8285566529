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

// Package errs provides a small error hierarchy with numeric codes, one
// minimum code block per package, and parent-chain wrapping on top of
// github.com/pkg/errors.
package errs

import "strconv"

// CodeError is a numeric error classification, similar in spirit to an
// HTTP status code but scoped to this binary's own packages.
type CodeError uint16

const (
	// UnknownError is used when no specific code applies.
	UnknownError CodeError = 0
	UnknownMessage         = "unknown error"
)

// Minimum code block per package, mirroring the teacher's modules.go
// numbering convention so every package owns a disjoint range.
const (
	MinPkgConfig     CodeError = 100
	MinPkgSupervisor CodeError = 200
	MinPkgWorker     CodeError = 300
	MinPkgParser     CodeError = 400
	MinPkgRewrite    CodeError = 500
	MinPkgRequest    CodeError = 600
	MinPkgLogx       CodeError = 700
	MinPkgConstrain  CodeError = 800
)

func (c CodeError) Uint16() uint16 { return uint16(c) }

func (c CodeError) Int() int { return int(c) }

func (c CodeError) String() string { return strconv.Itoa(c.Int()) }

// Error builds a new Error value carrying this code, the given message
// and optional parent errors.
func (c CodeError) Error(msg string, parent ...error) Error {
	return New(c, msg, parent...)
}
