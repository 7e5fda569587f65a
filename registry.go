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

// Registry of simulation projects.
// Projects are either registered statically by their package, or discovered
// from project.toml manifests found under a directory.
package goelmo

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/golang/glog"
)

var (
	ErrSimulationNotFound = errors.New("Simulation not found")
	ErrTooManySimulations = errors.New("Too many simulations")
)

type Registration struct {
	Name      string
	Directory string
	Project   Project
}

// Absolute path of the leaking binary.
func (r *Registration) BinaryPath() string {
	p := r.Project.BinaryPath()
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.Directory, p)
}

type Registry struct {
	mu       sync.RWMutex
	projects map[string]*Registration
}

func NewRegistry() *Registry {
	return &Registry{projects: map[string]*Registration{}}
}

// Adds a project. The first project registered under a name wins.
func (r *Registry) Register(name, dir string, p Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.projects[name]; ok {
		return fmt.Errorf("Many simulations with the same name %q, %s ignored (kept %s)",
			name, dir, prev.Directory)
	}
	r.projects[name] = &Registration{name, dir, p}
	return nil
}

// Returns the registrations verifying criteria, sorted by name.
func (r *Registry) Search(criteria func(*Registration) bool) []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []*Registration
	for _, reg := range r.projects {
		if criteria == nil || criteria(reg) {
			res = append(res, reg)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Returns the project registered as name. An empty name selects the only
// registered project.
func (r *Registry) Get(name string) (*Registration, error) {
	name = strings.TrimSpace(name)
	var criteria func(*Registration) bool
	if name != "" {
		criteria = func(reg *Registration) bool { return reg.Name == name }
	}
	res := r.Search(criteria)
	switch {
	case len(res) == 1:
		return res[0], nil
	case len(res) == 0:
		return nil, fmt.Errorf("%w: %q", ErrSimulationNotFound, name)
	default:
		return nil, fmt.Errorf("%w: %d candidates", ErrTooManySimulations, len(res))
	}
}

// Adds the projects of other that are not registered in r yet.
func (r *Registry) Merge(other *Registry) {
	for _, reg := range other.Search(nil) {
		if err := r.Register(reg.Name, reg.Directory, reg.Project); err != nil {
			glog.V(1).Infof("Merge: %v", err)
		}
	}
}

var defaultRegistry = NewRegistry()

// Registers a project in the default registry. Called from the init function of
// project packages.
func Register(name, dir string, p Project) {
	if err := defaultRegistry.Register(name, dir, p); err != nil {
		glog.Warning(err)
	}
}

func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Returns the projects found under repository, followed by the statically
// registered ones.
func SearchSimulations(repository string) (*Registry, error) {
	r := NewRegistry()
	if err := r.ScanDirectory(repository); err != nil {
		return nil, err
	}
	r.Merge(defaultRegistry)
	return r, nil
}

func GetSimulation(classname, repository string) (*Registration, error) {
	r, err := SearchSimulations(repository)
	if err != nil {
		return nil, err
	}
	return r.Get(classname)
}
