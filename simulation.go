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

// Simulation of a leaking binary on a set of challenges.
package goelmo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/golang/glog"
	"github.com/google/goelmo/protocol"
	"github.com/google/goelmo/util"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotExecuted = errors.New("Simulation has not been executed")
	ErrRefused     = errors.New("NACK received: The request has been refused!")
	ErrConnection  = errors.New("The connection refused. Has the ELMO server been switched on?")
)

type Simulation struct {
	reg        *Registration
	tool       SimulatorInterface
	countBits  int
	challenges []Challenge

	isExecuted    bool
	hasBeenOnline bool
	nbTraces      int

	// Lazily loaded outputs of the last run.
	results       [][]float64
	resultsLoaded bool
	asmTrace      []string
	asmLoaded     bool
	printedData   []int64
	printedLoaded bool
}

func NewSimulation(reg *Registration, tool SimulatorInterface, conf *Config) *Simulation {
	return &Simulation{reg: reg, tool: tool, countBits: conf.ChallengeCountBits}
}

func (s *Simulation) Registration() *Registration {
	return s.reg
}

// Forgets the last run.
func (s *Simulation) Reset() {
	s.isExecuted = false
	s.hasBeenOnline = false
	s.nbTraces = 0
	s.results, s.resultsLoaded = nil, false
	s.asmTrace, s.asmLoaded = nil, false
	s.printedData, s.printedLoaded = nil, false
}

func (s *Simulation) SetChallenges(challenges []Challenge) {
	s.Reset()
	s.challenges = challenges
}

func (s *Simulation) Challenges() []Challenge {
	return s.challenges
}

func (s *Simulation) NumChallenges() int {
	return len(s.challenges)
}

// Writes the content of the input file: the number of challenges, then each
// challenge. Nothing is written without challenges.
func (s *Simulation) SetInput(w io.Writer) error {
	if len(s.challenges) == 0 {
		return nil
	}
	n := int64(len(s.challenges))
	if s.countBits < 63 && n >= int64(1)<<uint(s.countBits) {
		return fmt.Errorf("Too many challenges: %d does not fit on %d bits", n, s.countBits)
	}
	if err := util.Write(w, n, s.countBits); err != nil {
		return err
	}
	for i, c := range s.challenges {
		if err := s.reg.Project.SerializeChallenge(w, c); err != nil {
			return fmt.Errorf("Challenge %d: %w", i, err)
		}
	}
	return nil
}

func (s *Simulation) input() (string, error) {
	var b strings.Builder
	if err := s.SetInput(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Runs the local ELMO tool.
// A failure of the tool itself is reported in Result.Error.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	s.Reset()
	input, err := s.input()
	if err != nil {
		return nil, err
	}
	if err = s.tool.WriteInput(input); err != nil {
		return nil, err
	}

	binary := s.reg.BinaryPath()
	if util.IsIntelHex(binary) {
		data, err := util.LoadBinary(binary)
		if err != nil {
			return nil, err
		}
		if binary, err = s.tool.WriteBinary(data); err != nil {
			return nil, err
		}
	}

	glog.Infof("Simulating %s on %d challenges", s.reg.Name, len(s.challenges))
	res, err := s.tool.Execute(ctx, binary)
	if err != nil {
		return nil, err
	}
	s.isExecuted = true
	s.nbTraces = res.NbTraces
	if res.Failed() {
		glog.Warningf("Simulation of %s failed: %s", s.reg.Name, res.Error)
	}
	return res, nil
}

func connectionError(err error) error {
	return fmt.Errorf("%w (%v)", ErrConnection, err)
}

// Runs the simulation on an ELMO server.
// All the outputs are transferred back, so accessors work as after a local run.
func (s *Simulation) RunOnline(ctx context.Context, addr string) (*Result, error) {
	s.Reset()
	input, err := s.input()
	if err != nil {
		return nil, err
	}
	binary, err := util.LoadBinary(s.reg.BinaryPath())
	if err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrBinaryNotFound, err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, connectionError(err)
	}
	p := protocol.New(conn)
	defer p.Close()
	stop := context.AfterFunc(ctx, func() { p.Close() })
	defer stop()

	if err = p.SendData(protocol.Message{"input": input}); err != nil {
		return nil, connectionError(err)
	}
	if ok, err := p.GetAck(); err != nil {
		return nil, connectionError(err)
	} else if !ok {
		return nil, ErrRefused
	}
	if err = p.SendBytes(binary); err != nil {
		return nil, connectionError(err)
	}
	if ok, err := p.GetAck(); err != nil {
		return nil, connectionError(err)
	} else if !ok {
		return nil, fmt.Errorf("%w (binary file)", ErrRefused)
	}
	glog.Infof("Simulation of %s accepted by %s", s.reg.Name, addr)

	var res Result
	ok, err := p.GetData(&res)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, connectionError(err)
	}
	if !ok {
		return nil, fmt.Errorf("Malformed response from %s", addr)
	}

	s.isExecuted = true
	s.hasBeenOnline = true
	s.nbTraces = res.NbTraces
	if res.Failed() {
		glog.Warningf("Simulation of %s failed: %s", s.reg.Name, res.Error)
	}
	// Outputs of an online run never come from the local tool.
	s.results, s.resultsLoaded = res.Results, true
	if s.results == nil {
		s.results = [][]float64{}
	}
	s.asmTrace, s.asmLoaded = asmLines(res.AsmTrace), true
	s.printedData, s.printedLoaded = res.PrintedData, true
	if s.printedData == nil {
		s.printedData = []int64{}
	}
	return res.Summary(), nil
}

func (s *Simulation) NumTraces() (int, error) {
	if !s.isExecuted {
		return 0, ErrNotExecuted
	}
	return s.nbTraces, nil
}

// Trace files of the last local run.
func (s *Simulation) ResultsFilenames() ([]string, error) {
	if !s.isExecuted {
		return nil, ErrNotExecuted
	}
	if s.hasBeenOnline {
		return nil, errors.New("The traces of an online simulation are not stored locally")
	}
	return s.tool.TraceFilenames(s.nbTraces)
}

func (s *Simulation) Results() ([][]float64, error) {
	if !s.isExecuted {
		return nil, ErrNotExecuted
	}
	if !s.resultsLoaded {
		results, err := s.tool.ReadTraces(s.nbTraces)
		if err != nil {
			return nil, err
		}
		s.results, s.resultsLoaded = results, true
	}
	return s.results, nil
}

// Selects samples of every trace in a #traces by len(indexes) matrix.
// A nil indexes selects all samples.
func (s *Simulation) Traces(indexes []int) (*mat.Dense, error) {
	results, err := s.Results()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.New("No trace in the simulation results")
	}
	length := len(results[0])
	if indexes == nil {
		indexes = make([]int, length)
		for i := range indexes {
			indexes[i] = i
		}
	}
	if len(indexes) == 0 || length == 0 {
		return nil, errors.New("Empty selection of samples")
	}
	m := mat.NewDense(len(results), len(indexes), nil)
	for i, trace := range results {
		for j, k := range indexes {
			if k < 0 || k >= len(trace) {
				return nil, fmt.Errorf("Sample %d out of range in trace %d (length %d)", k, i, len(trace))
			}
			m.Set(i, j, trace[k])
		}
	}
	return m, nil
}

// Lines of the assembly trace of the first challenge.
func (s *Simulation) AsmTrace() ([]string, error) {
	if !s.isExecuted {
		return nil, ErrNotExecuted
	}
	if !s.asmLoaded {
		raw, err := s.tool.ReadAsmTrace()
		if err != nil {
			return nil, err
		}
		s.asmTrace, s.asmLoaded = asmLines(raw), true
	}
	return s.asmTrace, nil
}

func asmLines(raw string) []string {
	raw = strings.TrimSuffix(raw, "\n")
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, "\n")
}

// Positions in the assembly trace of the instructions verifying cond.
func (s *Simulation) IndexesOf(cond func(string) bool) ([]int, error) {
	lines, err := s.AsmTrace()
	if err != nil {
		return nil, err
	}
	indexes := []int{}
	for i, l := range lines {
		if cond(l) {
			indexes = append(indexes, i)
		}
	}
	return indexes, nil
}

func (s *Simulation) PrintedData() ([]int64, error) {
	if !s.isExecuted {
		return nil, ErrNotExecuted
	}
	if !s.printedLoaded {
		data, err := s.tool.ReadPrintedData()
		if err != nil {
			return nil, err
		}
		s.printedData, s.printedLoaded = data, true
	}
	return s.printedData, nil
}

// Splits the printed data evenly between the traces.
func (s *Simulation) PrintedDataPerTrace() ([][]int64, error) {
	data, err := s.PrintedData()
	if err != nil {
		return nil, err
	}
	if s.nbTraces == 0 {
		return [][]int64{}, nil
	}
	if len(data)%s.nbTraces != 0 {
		return nil, fmt.Errorf("%d printed values cannot be split between %d traces", len(data), s.nbTraces)
	}
	per := len(data) / s.nbTraces
	res := make([][]int64, s.nbTraces)
	for i := range res {
		res[i] = data[i*per : (i+1)*per]
	}
	return res, nil
}

// Gathers the traces and the printed data of the last run.
func (s *Simulation) Capture() (Capture, error) {
	results, err := s.Results()
	if err != nil {
		return nil, err
	}
	printed, err := s.PrintedDataPerTrace()
	if err != nil {
		return nil, err
	}
	capture := make(Capture, len(results))
	for i, trace := range results {
		capture[i] = Trace{PowerMeasurements: trace}
		if i < len(printed) && len(printed[i]) > 0 {
			capture[i].PrintedData = printed[i]
		}
	}
	return capture, nil
}
