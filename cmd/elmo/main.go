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

// Command line of the ELMO tooling.
//
// $ elmo -logtostderr create-simulation
// $ elmo -logtostderr run-server 0.0.0.0 5000
// $ elmo -logtostderr run -project KyberNTTSimulation -test -output captures/kyber.json.gz
// $ elmo -logtostderr correlate -input captures/kyber.json.gz -index 0
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/goelmo"
	_ "github.com/google/goelmo/projects/kyberntt"

	"github.com/golang/glog"
)

var (
	configFlag     = flag.String("config", "", "TOML configuration file")
	toolDirFlag    = flag.String("tool_dir", "", "Directory of the ELMO tool (overrides the configuration)")
	maxWorkersFlag = flag.Int("max_workers", 0, "Maximum number of simulations served at once (overrides the configuration)")
)

const usage = `Usage: elmo [flags] <command> [arguments]

Commands:
  create-simulation       create a new simulation project interactively
  run-server [host] [port] run an ELMO server
  run                     run a simulation project
  leakage                 compute the power of instruction points
  correlate               correlate a capture with printed values
  view                    serve a directory of captures over HTTP
`

func init() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
}

func loadConfig() (*goelmo.Config, error) {
	conf := goelmo.DefaultConfig()
	if *configFlag != "" {
		var err error
		if conf, err = goelmo.LoadConfig(*configFlag); err != nil {
			return nil, err
		}
	}
	if *toolDirFlag != "" {
		conf.ToolDir = *toolDirFlag
	}
	if *maxWorkersFlag > 0 {
		conf.MaxWorkers = *maxWorkersFlag
	}
	return conf, nil
}

// Cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	defer glog.Flush()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	conf, err := loadConfig()
	if err != nil {
		glog.Fatal(err)
	}

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "create-simulation":
		err = createSimulation(conf, os.Stdin, os.Stdout)
	case "run-server":
		err = runServer(conf, args)
	case "run":
		err = run(conf, args)
	case "leakage":
		err = leakage(conf, args)
	case "correlate":
		err = correlate(args)
	case "view":
		err = view(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		glog.Fatal(err)
	}
}

// Asks question until the answer is accepted by valid.
func prompt(in *bufio.Scanner, out io.Writer, question, hint string, valid func(string) bool) (string, error) {
	for {
		fmt.Fprintf(out, " - %s ", question)
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		answer := in.Text()
		if valid(answer) {
			return answer, nil
		}
		fmt.Fprintf(out, "   > Illegal characters detected! %s\n", hint)
	}
}

func createSimulation(conf *goelmo.Config, stdin io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Creation of a new simulation project...")
	in := bufio.NewScanner(stdin)
	classname, err := prompt(in, out, "What is the project classname?",
		`Please enter a name with only the following characters: a-z, A-Z, 0-9 and "_".`,
		goelmo.ValidClassname)
	if err != nil {
		return err
	}
	repository, err := prompt(in, out, "What is the project repository?",
		`Please enter a name with only the following characters: a-z, A-Z, 0-9, ".", "-", "_" and "/".`,
		goelmo.ValidRepository)
	if err != nil {
		return err
	}

	path, err := goelmo.CreateSimulation(conf, repository, classname)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nCreation complete!\n")
	fmt.Fprintf(out, " - Project repository: %s\n", path)
	fmt.Fprintf(out, " - Project manifest of %q: %s/%s\n", classname, path, goelmo.ManifestName)
	fmt.Fprintf(out, " - Linker script: %s/project.ld\n", path)
	fmt.Fprintf(out, "\nPlease compile the project with the present Makefile before using it!\n")
	return nil
}

func runServer(conf *goelmo.Config, args []string) error {
	if len(args) >= 1 {
		conf.Host = args[0]
	}
	if len(args) >= 2 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("Invalid port %q: %v", args[1], err)
		}
		conf.Port = port
	}
	ctx, cancel := signalContext()
	defer cancel()
	return goelmo.LaunchExecutor(ctx, conf, goelmo.NewTool(conf))
}
