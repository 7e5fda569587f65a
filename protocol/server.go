// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

var ErrServerStopped = errors.New("Server stopped")

// Serves one accepted connection. The server closes it afterwards.
type Handler interface {
	Serve(p *Protocol) (Outcome, error)
}

type HandlerFunc func(p *Protocol) (Outcome, error)

func (f HandlerFunc) Serve(p *Protocol) (Outcome, error) {
	return f(p)
}

// Accepts connections and hands each of them to a one-shot worker.
// At most maxWorkers connections are served at once, the next ones wait
// in the accept loop.
type Server struct {
	addr    string
	handler Handler

	ln       net.Listener
	running  atomic.Bool
	slots    chan struct{}
	stopCh   chan struct{}
	loopDone chan struct{}
	workers  sync.WaitGroup
}

func NewServer(addr string, handler Handler, maxWorkers int) *Server {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	s := &Server{
		addr:     addr,
		handler:  handler,
		slots:    make(chan struct{}, maxWorkers),
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	s.running.Store(true)
	return s
}

// Lets a restarted server bind while old connections are in TIME_WAIT.
func reuseControl(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		if serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); serr != nil {
			return
		}
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return serr
}

// Binds the address and starts the accept loop.
func (s *Server) Start() error {
	if err := s.checkStartable(); err != nil {
		return err
	}
	lc := net.ListenConfig{Control: reuseControl}
	ln, err := lc.Listen(context.Background(), "tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) checkStartable() error {
	if !s.IsRunning() {
		return ErrServerStopped
	}
	if s.ln != nil {
		return errors.New("Server already started")
	}
	return nil
}

// Starts the accept loop on a listener bound by the caller. The server owns
// ln afterwards and closes it on Stop.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.checkStartable(); err != nil {
		ln.Close()
		return err
	}
	s.ln = ln
	glog.Infof("[%v] Listening", ln.Addr())
	go s.acceptLoop()
	return nil
}

// True from NewServer until Stop.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// Bound address, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Bounds of the pause after a failed Accept, e.g. when out of file descriptors.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

func (s *Server) acceptLoop() {
	defer close(s.loopDone)
	var delay time.Duration
	for s.IsRunning() {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.IsRunning() || errors.Is(err, net.ErrClosed) {
				break
			}
			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}
			glog.Warningf("[%v] Accept failed: %v; retrying in %v", s.ln.Addr(), err, delay)
			select {
			case <-time.After(delay):
			case <-s.stopCh:
			}
			continue
		}
		delay = 0
		if !s.IsRunning() {
			conn.Close()
			break
		}
		glog.V(1).Infof("[%v] Connection accepted: %v <=> %v", s.ln.Addr(), conn.LocalAddr(), conn.RemoteAddr())

		select {
		case s.slots <- struct{}{}:
		case <-s.stopCh:
			conn.Close()
			continue
		}
		s.workers.Add(1)
		go s.serve(conn)
	}
	glog.Infof("[%v] Stop listening", s.ln.Addr())
}

func (s *Server) serve(conn net.Conn) {
	defer s.workers.Done()
	defer func() { <-s.slots }()

	p := New(conn)
	defer p.Close()
	outcome, err := s.handler.Serve(p)
	switch {
	case err != nil:
		glog.Errorf("[%v] %v", conn.RemoteAddr(), err)
	case outcome.IsAborted():
		glog.Warningf("[%v] Request %v", conn.RemoteAddr(), outcome)
	default:
		glog.V(1).Infof("[%v] Request %v", conn.RemoteAddr(), outcome)
	}
}

// Stops accepting connections. Workers already serving a connection are
// left running, see Wait.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.stopCh)
	if s.ln == nil {
		return nil
	}
	// Unblocks the pending Accept.
	if c, err := net.DialTimeout("tcp", s.ln.Addr().String(), time.Second); err == nil {
		c.Close()
	}
	err := s.ln.Close()
	<-s.loopDone
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

// Waits for the workers in flight.
func (s *Server) Wait() {
	s.workers.Wait()
}
