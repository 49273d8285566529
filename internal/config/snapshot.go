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

// Package config holds the immutable Snapshot handed down from the
// supervisor to every listener-worker subprocess. It replaces the
// original's mmap'ed, mprotect(PROT_READ)-frozen struct server_cfg:
// a Go value is built once, JSON-encoded across the re-exec boundary,
// and never mutated again.
package config

import (
	"encoding/json"
	"io"
)

// Snapshot is the frozen configuration every worker process decodes
// once at startup. Field names mirror main.c's populate_cfg options.
type Snapshot struct {
	// DocumentRoot is the directory served as the document root; the
	// supervisor chdir/chroots into it before spawning workers.
	DocumentRoot string `json:"document_root"`

	// Port is the TCP port bound on both IPv4 and IPv6.
	Port uint16 `json:"port"`

	// LogFile is the path appended to for request/operational logging.
	// Empty disables file logging; stdout logging always happens.
	LogFile string `json:"log_file"`

	// ForceColor forces ANSI color codes on log output even when
	// stdout is not a terminal (useful under a supervised process
	// manager that itself interprets color codes).
	ForceColor bool `json:"force_color"`

	// FollowSymlink mirrors the original's -f flag: when false, a
	// document root path whose final component is a symlink is
	// rejected. Symlinks in earlier components are always resolved.
	FollowSymlink bool `json:"follow_symlink"`

	// StrictUTF8 gates the request URI decoder's UTF-8 validator
	// between strict (reject overlong encodings) and legacy-compatible
	// (accept them, matching the original C validator's known quirk).
	StrictUTF8 bool `json:"strict_utf8"`
}

// Encode writes the snapshot as JSON to w, for transfer across an
// inherited pipe fd to a re-exec'd worker process.
func (s Snapshot) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(s)
}

// Decode reads a snapshot previously written by Encode.
func Decode(r io.Reader) (Snapshot, error) {
	var s Snapshot
	err := json.NewDecoder(r).Decode(&s)
	return s, err
}
