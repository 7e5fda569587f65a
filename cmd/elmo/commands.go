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

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/goelmo"
	"github.com/google/goelmo/viewer"

	"github.com/golang/glog"
)

func loadChallenges(reg *goelmo.Registration, filename string, random int, test bool) ([]goelmo.Challenge, error) {
	if filename != "" {
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("Error opening challenges file: %v", err)
		}
		defer f.Close()
		return goelmo.LoadChallengesIo(f)
	}
	gen, ok := reg.Project.(goelmo.ChallengeGenerator)
	if !ok {
		return nil, fmt.Errorf("Project %s does not generate challenges, use -challenges", reg.Name)
	}
	if test {
		return gen.TestChallenges(), nil
	}
	return gen.RandomChallenges(random), nil
}

func run(conf *goelmo.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	project := fs.String("project", "", "Simulation project, may be empty if only one is found")
	repository := fs.String("repository", ".", "Directory searched for project manifests")
	online := fs.String("online", "", "Address of an ELMO server, the local tool is used if empty")
	challengesFile := fs.String("challenges", "", "JSON file of challenges")
	random := fs.Int("random", 5, "Number of random challenges")
	test := fs.Bool("test", false, "Use the test challenges of the project")
	output := fs.String("output", "", "Capture output file")
	fs.Parse(args)

	reg, err := goelmo.GetSimulation(*project, *repository)
	if err != nil {
		return err
	}
	challenges, err := loadChallenges(reg, *challengesFile, *random, *test)
	if err != nil {
		return err
	}
	sim := goelmo.NewSimulation(reg, goelmo.NewTool(conf), conf)
	sim.SetChallenges(challenges)

	ctx, cancel := signalContext()
	defer cancel()
	var res *goelmo.Result
	if *online != "" {
		res, err = sim.RunOnline(ctx, *online)
	} else {
		res, err = sim.Run(ctx)
	}
	if err != nil {
		return err
	}
	if res.Failed() {
		return fmt.Errorf("Simulation failed: %s", res.Error)
	}
	glog.Infof("Simulation of %s: %d traces, %d instructions", reg.Name, res.NbTraces, res.NbInstructions)

	if *output == "" {
		return nil
	}
	capture, err := sim.Capture()
	if err != nil {
		return err
	}
	if err = capture.Save(*output); err != nil {
		return err
	}
	glog.Infof("Saved %d traces to %s", len(capture), *output)
	return nil
}

func leakage(conf *goelmo.Config, args []string) error {
	fs := flag.NewFlagSet("leakage", flag.ExitOnError)
	input := fs.String("input", "", "CSV file of points")
	output := fs.String("output", "", "CSV output file, stdout if empty")
	coeffs := fs.String("coefficients", conf.CoefficientsPath(), "Coefficients of the power model")
	fs.Parse(args)

	if *input == "" {
		return errors.New("Missing -input")
	}
	engine, err := goelmo.LoadEngine(*coeffs)
	if err != nil {
		return err
	}
	f, err := os.Open(*input)
	if err != nil {
		return fmt.Errorf("Error opening points file: %v", err)
	}
	points, err := goelmo.ReadPointsCsv(f)
	f.Close()
	if err != nil {
		return err
	}
	engine.AddPoints(points...)
	if err = engine.Run(); err != nil {
		return err
	}
	glog.Infof("Computed the power of %d points", engine.NumPoints())

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("Error creating output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	return goelmo.WritePowerCsv(out, engine.Power())
}

func correlate(args []string) error {
	fs := flag.NewFlagSet("correlate", flag.ExitOnError)
	input := fs.String("input", "", "Capture input file")
	index := fs.Int("index", -1, "Index of the printed value, all of them if negative")
	fs.Parse(args)

	capture, err := goelmo.LoadCapture(*input)
	if err != nil {
		return err
	}
	if len(capture) == 0 {
		return errors.New("Empty capture")
	}
	glog.Infof("Loaded capture with %d traces / %d samples per trace", len(capture), capture.NumSamples())

	indexes := []int{*index}
	if *index < 0 {
		indexes = make([]int, len(capture[0].PrintedData))
		for i := range indexes {
			indexes[i] = i
		}
	}
	peaks := make([]goelmo.Peak, len(indexes))
	errs := make([]error, len(indexes))
	var wg sync.WaitGroup
	wg.Add(len(indexes))
	for k, idx := range indexes {
		go func(k, idx int) {
			defer wg.Done()
			corr, err := goelmo.Correlation(capture, goelmo.HammingWeightModel(idx))
			if err != nil {
				errs[k] = err
				return
			}
			peaks[k] = goelmo.BestCorrelation(corr)
		}(k, idx)
	}
	wg.Wait()

	for k, idx := range indexes {
		if errs[k] != nil {
			return errs[k]
		}
		fmt.Printf("Printed value %d: %v\n", idx, peaks[k])
	}
	return nil
}

func view(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	dir := fs.String("dir", "captures", "Input captures directory to display")
	port := fs.Int("port", 8080, "Server HTTP port number")
	fs.Parse(args)

	srv := viewer.NewServer(*dir, viewer.DefaultWaitTimeout)
	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	glog.Infof("Serving captures of %s on port %d", *dir, *port)
	err := srv.Start(fmt.Sprintf(":%d", *port))
	if ctx.Err() != nil {
		return nil
	}
	return err
}
