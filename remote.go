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

// Execution of simulations requested by ELMO clients.
package goelmo

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"github.com/google/goelmo/protocol"
)

// Serves one simulation request per connection:
//
//	client                      server
//	{"input": ...}        ->
//	                      <-    OK | NO
//	binary                ->
//	                      <-    OK
//	                      <-    result
//
// The request and the binary are received in memory. The tool works on fixed
// paths, so only the simulations themselves are run one at a time.
type RemoteExecutor struct {
	tool SimulatorInterface
	mu   sync.Mutex
}

func NewRemoteExecutor(tool SimulatorInterface) *RemoteExecutor {
	return &RemoteExecutor{tool: tool}
}

// Optional flags of a request, true unless set to false.
func wants(req protocol.Message, key string) bool {
	v, ok := req[key].(bool)
	return !ok || v
}

func (e *RemoteExecutor) Serve(p *protocol.Protocol) (protocol.Outcome, error) {
	var req protocol.Message
	ok, err := p.GetData(&req)
	if err != nil {
		return protocol.Completed, fmt.Errorf("Failed reading request: %v", err)
	}
	if !ok || req == nil {
		return p.Refuse("malformed request"), nil
	}
	input, ok := req["input"].(string)
	if !ok {
		return p.Refuse("request without input"), nil
	}
	if err = p.SendAck(); err != nil {
		return protocol.Completed, err
	}
	binary, err := p.GetFile()
	if err != nil {
		return protocol.Completed, fmt.Errorf("Failed reading binary: %v", err)
	}
	if err = p.SendAck(); err != nil {
		return protocol.Completed, err
	}

	glog.Infof("[%v] Simulation accepted", p.Conn().RemoteAddr())
	res := e.execute(input, binary, req)
	if res.Failed() {
		glog.Warningf("[%v] Simulation failed: %s", p.Conn().RemoteAddr(), res.Error)
	} else {
		glog.Infof("[%v] Simulation finished: %d traces, %d instructions",
			p.Conn().RemoteAddr(), res.NbTraces, res.NbInstructions)
	}

	if err = p.SendData(res); err != nil {
		return protocol.Completed, fmt.Errorf("Failed sending results: %v", err)
	}
	glog.V(1).Infof("[%v] Results sent", p.Conn().RemoteAddr())
	return protocol.Completed, nil
}

// Runs one simulation on the tool. Only this part holds the lock, the
// exchanges with the client are done outside of it.
func (e *RemoteExecutor) execute(input string, binary []byte, req protocol.Message) *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.tool.WriteInput(input); err != nil {
		return &Result{Error: err.Error()}
	}
	path, err := e.tool.WriteBinary(binary)
	if err != nil {
		return &Result{Error: err.Error()}
	}
	res, err := e.tool.Execute(context.Background(), path)
	if err != nil {
		return &Result{Error: err.Error()}
	}
	if !res.Failed() {
		e.load(res, req)
	}
	return res
}

// Fills the payloads of res. Errors are reported in res.
func (e *RemoteExecutor) load(res *Result, req protocol.Message) {
	var err error
	if res.Results, err = e.tool.ReadTraces(res.NbTraces); err != nil {
		res.Error = err.Error()
		return
	}
	if wants(req, "asmtrace") {
		if res.AsmTrace, err = e.tool.ReadAsmTrace(); err != nil {
			res.Error = err.Error()
			return
		}
	}
	if wants(req, "printdata") {
		if res.PrintedData, err = e.tool.ReadPrintedData(); err != nil {
			res.Error = err.Error()
		}
	}
}

// Starts an ELMO server on the configured address.
func StartExecutor(conf *Config, tool SimulatorInterface) (*protocol.Server, error) {
	srv := protocol.NewServer(conf.Addr(), NewRemoteExecutor(tool), conf.MaxWorkers)
	if err := srv.Start(); err != nil {
		return nil, fmt.Errorf("Failed to start the ELMO server on %s: %v", conf.Addr(), err)
	}
	return srv, nil
}

// Runs an ELMO server until ctx is done, then waits for the simulations in
// flight.
func LaunchExecutor(ctx context.Context, conf *Config, tool SimulatorInterface) error {
	srv, err := StartExecutor(conf, tool)
	if err != nil {
		return err
	}
	<-ctx.Done()
	err = srv.Stop()
	srv.Wait()
	return err
}
