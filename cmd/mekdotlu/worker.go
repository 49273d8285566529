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

package main

import (
	"fmt"
	"net"
	"os"

	"github.com/nabbar/mekdotlu/internal/config"
	"github.com/nabbar/mekdotlu/internal/httpd"
	"github.com/nabbar/mekdotlu/internal/logx"
	"github.com/nabbar/mekdotlu/internal/worker"
)

// fd 3, 4 and 5 are the three descriptors the supervisor hands down
// via exec.Cmd.ExtraFiles, in the fixed order it assembles them:
// the listening socket, the worker's end of the IPC quit socketpair,
// and the read end of the config pipe.
const (
	fdListener = 3
	fdQuit     = 4
	fdConfig   = 5
)

// runWorker reconstructs the listening socket, IPC pipe and config
// snapshot this process inherited from the supervisor, then serves
// connections until told to quit.
func runWorker(family string) error {
	cfgFile := os.NewFile(fdConfig, "mekdotlu-config")
	if cfgFile == nil {
		return fmt.Errorf("worker(%s): missing config fd", family)
	}
	snap, err := config.Decode(cfgFile)
	if err != nil {
		return fmt.Errorf("worker(%s): decode config: %w", family, err)
	}
	_ = cfgFile.Close()

	listenerFile := os.NewFile(fdListener, "mekdotlu-listener")
	if listenerFile == nil {
		return fmt.Errorf("worker(%s): missing listener fd", family)
	}
	ln, err := net.FileListener(listenerFile)
	if err != nil {
		return fmt.Errorf("worker(%s): reconstruct listener: %w", family, err)
	}
	_ = listenerFile.Close()

	quitFile := os.NewFile(fdQuit, "mekdotlu-quit")
	var quitConn net.Conn
	if quitFile != nil {
		quitConn, err = net.FileConn(quitFile)
		if err != nil {
			return fmt.Errorf("worker(%s): reconstruct ipc conn: %w", family, err)
		}
		_ = quitFile.Close()
	}

	log := logx.New(logx.WithFile(snap.LogFile), logx.WithForceColor(snap.ForceColor))
	defer log.Close()

	log.Reg("worker(%s): serving on %s", family, ln.Addr())

	w := &worker.Worker{
		Listener: ln,
		Handler: &httpd.Handler{
			DocumentRoot: snap.DocumentRoot,
			StrictUTF8:   snap.StrictUTF8,
			Log:          log,
		},
		Log:  log,
		Quit: quitConn,
	}

	return w.Run()
}
