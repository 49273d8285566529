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

// Package supervisor is the long-lived parent process: it binds both
// listening sockets, re-execs one listener-worker subprocess per
// socket, relays signals into a clean IPC shutdown, and respawns a
// worker that exits cleanly (one that exits non-zero or by signal is
// not revived). It mirrors server.c's fork/exec-free
// process model (the original forks; this re-execs, since a forked Go
// process cannot safely run only a slice of the runtime).
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/nabbar/mekdotlu/internal/config"
	"github.com/nabbar/mekdotlu/internal/errs"
	"github.com/nabbar/mekdotlu/internal/ipc"
	"github.com/nabbar/mekdotlu/internal/logx"
	"github.com/nabbar/mekdotlu/internal/netutil"
)

// WorkerModeEnv is set in a re-exec'd child's environment so its own
// main() knows to run the listener-worker body instead of the
// supervisor.
const WorkerModeEnv = "MEKDOTLU_WORKER_FAMILY"

// outcome classifies how a worker subprocess ended, driving whether
// the supervisor respawns it.
type outcome int

const (
	outcomeClean outcome = iota
	outcomeBroken
	outcomeSignaled
)

func classify(err error) (outcome, string) {
	if err == nil {
		return outcomeClean, ""
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return outcomeSignaled, status.Signal().String()
			}
			return outcomeBroken, fmt.Sprintf("exit status %d", status.ExitStatus())
		}
	}
	return outcomeBroken, err.Error()
}

func asExitError(err error, target **exec.ExitError) bool {
	if e, ok := err.(*exec.ExitError); ok {
		*target = e
		return true
	}
	return false
}

// child is one supervised listener-worker subprocess.
type child struct {
	family netutil.Family
	cmd    *exec.Cmd
	quit   *os.File // supervisor's end of the IPC pair; write-only use
}

// Supervisor owns the bound sockets and the worker subprocesses
// serving them.
type Supervisor struct {
	Snapshot config.Snapshot
	Log      *logx.Logger

	mu       sync.Mutex
	children []*child
	wg       sync.WaitGroup
	quitting atomic.Bool
}

// Run binds both address families, spawns a worker per family, and
// blocks until ctx is cancelled or every worker has exited, relaying
// SIGINT/SIGTERM/SIGQUIT into a clean IPC shutdown. One family failing
// to bind (e.g. IPv6 disabled on the host) is tolerated; Run only
// fails if neither family comes up.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	var bound int
	var lastErr error
	for _, fam := range []netutil.Family{netutil.IPv4, netutil.IPv6} {
		if err := s.spawn(fam); err != nil {
			s.Log.Warning("supervisor: worker(%s) failed to bind: %s", fam, err)
			lastErr = err
			continue
		}
		bound++
	}

	if bound == 0 {
		s.shutdown()
		return errs.Wrap(errs.MinPkgSupervisor, "spawn", lastErr)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		s.Log.Reg("supervisor: signal received, shutting down")
		s.shutdown()
		<-done
	case <-done:
	}

	return nil
}

// spawn binds the socket for fam and execs a listener-worker to serve
// it, keeping the child's process handle and IPC pipe for later.
func (s *Supervisor) spawn(fam netutil.Family) error {
	listenerFd, err := netutil.Bind(fam, s.Snapshot.Port)
	if err != nil {
		return err
	}

	supervisorEnd, workerEnd, err := ipc.NewPair()
	if err != nil {
		return err
	}

	cfgR, cfgW, err := os.Pipe()
	if err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe)
	cmd.Env = append(os.Environ(), WorkerModeEnv+"="+fam.String())
	cmd.ExtraFiles = []*os.File{listenerFd, workerEnd, cfgR}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("supervisor: start worker(%s): %w", fam, err)
	}

	if err := s.Snapshot.Encode(cfgW); err != nil {
		return fmt.Errorf("supervisor: encode config for worker(%s): %w", fam, err)
	}
	_ = cfgW.Close()
	_ = cfgR.Close()
	_ = listenerFd.Close()
	_ = workerEnd.Close()

	s.Log.Ok("supervisor: worker(%s) started, pid %d", fam, cmd.Process.Pid)

	c := &child{family: fam, cmd: cmd, quit: supervisorEnd}
	s.mu.Lock()
	s.children = append(s.children, c)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.supervise(c)
	}()

	return nil
}

// supervise waits for one child. A worker that exits clean (status 0)
// is refilled unless a shutdown is in progress; a worker that exits
// broken or by signal is not revived, so a genuinely failing worker
// cannot crash-loop the supervisor.
func (s *Supervisor) supervise(c *child) {
	err := c.cmd.Wait()
	out, detail := classify(err)
	switch out {
	case outcomeClean:
		s.Log.Reg("supervisor: worker(%s) exited", c.family)
	case outcomeBroken:
		s.Log.Err("supervisor: worker(%s) exited abnormally: %s", c.family, detail)
		return
	case outcomeSignaled:
		s.Log.Err("supervisor: worker(%s) killed by signal: %s", c.family, detail)
		return
	}

	if s.quitting.Load() {
		return
	}

	s.Log.Warning("supervisor: respawning worker(%s)", c.family)
	if err := s.spawn(c.family); err != nil {
		s.Log.Err("supervisor: respawn worker(%s) failed: %s", c.family, err)
	}
}

// shutdown asks every worker to stop accepting new connections over
// its IPC pipe and suppresses further respawns.
func (s *Supervisor) shutdown() {
	s.quitting.Store(true)

	s.mu.Lock()
	children := append([]*child(nil), s.children...)
	s.mu.Unlock()

	for _, c := range children {
		if err := ipc.SendQuit(c.quit); err != nil {
			s.Log.Warning("supervisor: worker(%s) quit signal: %s", c.family, err)
		}
	}
}
