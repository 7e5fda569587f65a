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

// Local installation of the ELMO tool. Implements SimulatorInterface.
package goelmo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/text/encoding/charmap"
)

var (
	ErrBinaryNotFound = errors.New("Binary not found. Did you compile your project?")
	ErrToolNotFound   = errors.New("Installation Error: the executable of the ELMO tool is not found")
)

//go:generate mockgen -destination=mocks/simulator.go -package=mocks github.com/google/goelmo SimulatorInterface
type SimulatorInterface interface {
	// Replaces the input file of the tool.
	WriteInput(input string) error
	// Stores a leaking binary next to the tool. Returns its path.
	WriteBinary(data []byte) (string, error)
	// Runs the tool on a leaking binary.
	Execute(ctx context.Context, binaryPath string) (*Result, error)
	// Outputs of the last execution.
	TraceFilenames(nbTraces int) ([]string, error)
	ReadTraces(nbTraces int) ([][]float64, error)
	ReadAsmTrace() (string, error)
	ReadPrintedData() ([]int64, error)
}

const (
	traceMarker      = "TRACE NO"
	remoteBinaryName = "project.bin"
)

var nbInstructionsPattern = regexp.MustCompile(`^\s*instructions/cy..es\s+(\d+)\s*$`)

// All paths are fixed, so a Tool runs one simulation at a time.
type Tool struct {
	dir        string
	executable string
	inputFile  string
	outputDir  string
}

func NewTool(conf *Config) *Tool {
	return &Tool{conf.ToolDir, conf.Executable, conf.InputFile, conf.OutputDir}
}

func (t *Tool) Dir() string {
	return t.dir
}

func (t *Tool) InputFilename() string {
	return filepath.Join(t.dir, t.inputFile)
}

func (t *Tool) OutputDir() string {
	return filepath.Join(t.dir, t.outputDir)
}

// Traces are numbered from 1.
func (t *Tool) TraceFilename(i int) string {
	return filepath.Join(t.OutputDir(), "traces", fmt.Sprintf("trace%05d.trc", i))
}

func (t *Tool) AsmTraceFilename() string {
	return filepath.Join(t.OutputDir(), "asmoutput", "asmtrace00001.txt")
}

func (t *Tool) PrintedDataFilename() string {
	return filepath.Join(t.OutputDir(), "printdata.txt")
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

func (t *Tool) WriteInput(input string) error {
	if err := os.WriteFile(t.InputFilename(), []byte(input), 0644); err != nil {
		return fmt.Errorf("Failed to write input file: %v", err)
	}
	return nil
}

func (t *Tool) WriteBinary(data []byte) (string, error) {
	path, err := filepath.Abs(filepath.Join(t.dir, remoteBinaryName))
	if err != nil {
		return "", err
	}
	if err = os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("Failed to write binary: %v", err)
	}
	return path, nil
}

// Output of the tool is latin-1.
func decodeOutput(b []byte) string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// Runs the tool and follows the generation of the traces.
// Missing binary or executable are reported before anything is launched.
func (t *Tool) Execute(ctx context.Context, binaryPath string) (*Result, error) {
	if !isFile(binaryPath) {
		return nil, fmt.Errorf("%w (%s)", ErrBinaryNotFound, binaryPath)
	}
	if !isFile(filepath.Join(t.dir, t.executable)) {
		return nil, fmt.Errorf("%w (%s)", ErrToolNotFound, filepath.Join(t.dir, t.executable))
	}
	binaryPath, err := filepath.Abs(binaryPath)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "./"+t.executable, binaryPath)
	cmd.Dir = t.dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("StdoutPipe failed: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("StderrPipe failed: %v", err)
	}
	glog.V(1).Infof("Launching %s %s", cmd.Path, binaryPath)
	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("Failed to launch the ELMO tool: %v", err)
	}

	var output, errOutput []byte
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rd := bufio.NewReader(stdout)
		numTrace := 0
		for {
			line, err := rd.ReadBytes('\n')
			output = append(output, line...)
			if strings.Contains(string(line), traceMarker) {
				numTrace++
				glog.V(1).Infof("Generated trace %d", numTrace)
			}
			if err != nil {
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		errOutput, _ = io.ReadAll(stderr)
	}()
	wg.Wait()
	waitErr := cmd.Wait()

	res := &Result{
		Output: decodeOutput(output),
		Error:  decodeOutput(errOutput),
	}
	if res.Error == "" && waitErr != nil {
		res.Error = waitErr.Error()
	}
	res.NbTraces = strings.Count(res.Output, traceMarker)
	for _, line := range strings.Split(res.Output, "\n") {
		if m := nbInstructionsPattern.FindStringSubmatch(line); m != nil {
			res.NbInstructions, _ = strconv.Atoi(m[1])
		}
	}
	return res, nil
}

func (t *Tool) TraceFilenames(nbTraces int) ([]string, error) {
	var filenames []string
	for i := 1; i <= nbTraces; i++ {
		f := t.TraceFilename(i)
		if !isFile(f) {
			return nil, fmt.Errorf("Trace file %s not found", f)
		}
		filenames = append(filenames, f)
	}
	return filenames, nil
}

// Reads one value per non-empty line.
func readLines(filename string, parse func(string) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err = parse(line); err != nil {
			return fmt.Errorf("%s: %v", filename, err)
		}
	}
	return sc.Err()
}

func (t *Tool) ReadTraces(nbTraces int) ([][]float64, error) {
	filenames, err := t.TraceFilenames(nbTraces)
	if err != nil {
		return nil, err
	}
	results := make([][]float64, 0, nbTraces)
	for _, f := range filenames {
		var trace []float64
		err = readLines(f, func(line string) error {
			v, err := strconv.ParseFloat(line, 64)
			trace = append(trace, v)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("Failed reading trace: %v", err)
		}
		results = append(results, trace)
	}
	return results, nil
}

func (t *Tool) ReadAsmTrace() (string, error) {
	b, err := os.ReadFile(t.AsmTraceFilename())
	if err != nil {
		return "", fmt.Errorf("Failed reading ASM trace: %v", err)
	}
	return string(b), nil
}

func (t *Tool) ReadPrintedData() ([]int64, error) {
	data := []int64{}
	err := readLines(t.PrintedDataFilename(), func(line string) error {
		v, err := strconv.ParseInt(line, 16, 64)
		data = append(data, v)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Failed reading printed data: %v", err)
	}
	return data, nil
}
