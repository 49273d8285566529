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

// Package worker is the listener-worker process body: it accepts
// connections off an inherited listening socket and hands each one to
// a bounded pool of goroutines, mirroring worker.c's event loop minus
// its libevent machinery (net.Listener.Accept plus goroutines do the
// same job without a separate reactor).
package worker

import (
	"net"
	"sync"
	"time"

	"github.com/nabbar/mekdotlu/internal/httpd"
	"github.com/nabbar/mekdotlu/internal/ipc"
	"github.com/nabbar/mekdotlu/internal/logx"
)

// maxConcurrent bounds how many connections are served at once,
// mirroring the original's fixed-size libevent connection pool.
const maxConcurrent = 8

// Worker owns one listening socket and serves connections from it
// until told to quit.
type Worker struct {
	Listener net.Listener
	Handler  *httpd.Handler
	Log      *logx.Logger

	// Quit, when non-nil, is read once the IPC "quit" frame arrives
	// from the supervisor; the worker then stops accepting new
	// connections and waits for the in-flight ones to finish.
	Quit net.Conn
}

// Run accepts connections until the listener is closed or a quit
// frame arrives, dispatching each to a goroutine from a bounded pool,
// and returns once every in-flight connection has finished.
func (w *Worker) Run() error {
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	if w.Quit != nil {
		go func() {
			if err := ipc.WaitQuit(w.Quit); err != nil {
				w.Log.Warning("worker: ipc wait: %s", err)
			}
			w.Log.Reg("worker: quit requested, closing listener")
			_ = w.Listener.Close()
		}()
	}

	for {
		conn, err := w.Listener.Accept()
		accepted := time.Now()
		if err != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					w.Log.Err("worker: recovered panic serving connection: %v", r)
				}
			}()
			w.Handler.ServeConn(conn, accepted)
		}()
	}

	wg.Wait()
	return nil
}
