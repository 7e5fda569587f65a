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

package goelmo

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/golang/glog"
)

var ErrProjectExists = errors.New("Error, a project with this repository already exists!")

//go:embed templates
var templates embed.FS

var (
	classnamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	repositoryPattern = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)
)

// Support files of the ELMO tool copied in every project, relative to the
// tool directory, with their name in the project.
var toolFiles = [][2]string{
	{"Examples/elmoasmfunctions.o", "elmoasmfunctions.o"},
	{"Examples/elmoasmfunctions.s", "elmoasmfunctions.s"},
	{"Examples/elmoasmfunctionsdef.h", "elmoasmfunctionsdef.h"},
	{"Examples/DPATraces/MBedAES/vector.o", "vector.o"},
	{"Examples/DPATraces/MBedAES/MBedAES.ld", "project.ld"},
}

var templateFiles = []string{
	"elmoasmfunctionsdef-extension.h",
	"Makefile",
	"project.c",
}

func ValidClassname(classname string) bool {
	return classnamePattern.MatchString(classname)
}

func ValidRepository(repository string) bool {
	return repositoryPattern.MatchString(repository)
}

func copyFile(src, dst string, open func(string) (io.ReadCloser, error)) error {
	in, err := open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func openFile(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func openTemplate(name string) (io.ReadCloser, error) {
	return templates.Open(name)
}

// Creates the directory of a new simulation project, ready to be compiled.
// A relative repository is created under the projects directory.
// Returns the absolute path of the project.
func CreateSimulation(conf *Config, repository, classname string) (string, error) {
	if !ValidClassname(classname) {
		return "", fmt.Errorf("Invalid project name %q", classname)
	}
	if !filepath.IsAbs(repository) {
		repository = filepath.Join(conf.ProjectsDir, repository)
	}
	if _, err := os.Stat(repository); err == nil {
		return "", fmt.Errorf("%w (%s)", ErrProjectExists, repository)
	}
	if err := os.MkdirAll(repository, 0755); err != nil {
		return "", err
	}
	if err := populate(conf, repository, classname); err != nil {
		os.RemoveAll(repository)
		return "", err
	}
	glog.Infof("Created project %s in %s", classname, repository)
	return filepath.Abs(repository)
}

func populate(conf *Config, dir, classname string) error {
	for _, f := range toolFiles {
		if err := copyFile(filepath.Join(conf.ToolDir, f[0]), filepath.Join(dir, f[1]), openFile); err != nil {
			return fmt.Errorf("Failed copying ELMO support file: %v", err)
		}
	}
	for _, f := range templateFiles {
		if err := copyFile("templates/"+f, filepath.Join(dir, f), openTemplate); err != nil {
			return fmt.Errorf("Failed copying template: %v", err)
		}
	}

	tmpl, err := template.ParseFS(templates, "templates/project.toml.tmpl")
	if err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(dir, ManifestName))
	if err != nil {
		return err
	}
	m := ManifestProject{Name: classname, Binary: "project.bin", ValueBits: DefaultValueBits}
	if err = tmpl.Execute(out, m); err != nil {
		out.Close()
		return fmt.Errorf("Failed writing manifest: %v", err)
	}
	return out.Close()
}
