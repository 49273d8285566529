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

// Package ipc carries the single 4-byte "quit" message the supervisor
// sends a listener worker to ask it to stop accepting, over a
// socketpair(2) pair of file descriptors inherited across exec.
package ipc

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Message is the literal 4-byte ASCII frame the original IPCSEND macro
// writes. It is never anything else: the protocol has exactly one
// message.
const Message = "quit"

// NewPair creates a socketpair, returning both ends as *os.File so one
// can be kept by the supervisor and the other handed to a re-exec'd
// worker via exec.Cmd.ExtraFiles.
func NewPair() (supervisorEnd *os.File, workerEnd *os.File, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("ipc: socketpair: %w", err)
	}
	return os.NewFile(uintptr(fds[0]), "mekdotlu-ipc-supervisor"),
		os.NewFile(uintptr(fds[1]), "mekdotlu-ipc-worker"),
		nil
}

// SendQuit writes the quit frame exactly once. The original macro
// checks the write's return value purely for logging; a short write
// here is treated as an error since the frame is only 4 bytes.
func SendQuit(w io.Writer) error {
	n, err := w.Write([]byte(Message))
	if err != nil {
		return fmt.Errorf("ipc: send quit: %w", err)
	}
	if n != len(Message) {
		return fmt.Errorf("ipc: send quit: short write (%d of %d bytes)", n, len(Message))
	}
	return nil
}

// WaitQuit blocks until it has read a full quit frame from r,
// tolerating it arriving in more than one fragment the way worker.c's
// MSGCHK loop does for a stream socket.
func WaitQuit(r io.Reader) error {
	buf := make([]byte, len(Message))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("ipc: wait quit: %w", err)
	}
	if string(buf) != Message {
		return fmt.Errorf("ipc: wait quit: unexpected frame %q", buf)
	}
	return nil
}
