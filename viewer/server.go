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

// HTTP API over a directory of simulated captures.
//
//	GET /captures[?wait=false]     names of the captures, long-polls for changes
//	GET /data/:capture             metadata of every trace
//	GET /data/:capture/:trace      power measurements of one trace
//	GET /data/:capture/corr/:index correlation with the Hamming weight of a printed value
package viewer

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/goelmo"
	"github.com/google/goelmo/util"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/labstack/echo"
)

const (
	capExt = ".json.gz"

	DefaultWaitTimeout = 5 * time.Minute
)

type TraceMetadata struct {
	Id          int     `json:"Id"`
	PrintedData []int64 `json:"PrintedData"`
	NumSamples  int     `json:"NumSamples"`
}

type Server struct {
	dir         string
	waitTimeout time.Duration
	broker      *util.Broker
	watcher     *fsnotify.Watcher
	e           *echo.Echo
}

func NewServer(dir string, waitTimeout time.Duration) *Server {
	s := &Server{
		dir:         dir,
		waitTimeout: waitTimeout,
		broker:      util.NewBroker(),
		e:           echo.New(),
	}
	s.e.HideBanner = true
	s.e.GET("/captures", s.listCaptures)
	s.e.GET("/data/:capture", s.traceMetadata)
	s.e.GET("/data/:capture/:trace", s.powerMeasurements)
	s.e.GET("/data/:capture/corr/:index", s.correlation)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Starts watching the captures directory.
func (s *Server) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("NewWatcher failed: %v", err)
	}
	if err = watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watcher.Add failed: %v", err)
	}
	s.watcher = watcher
	go s.broker.Start()
	go s.watchDirectoryChanges()
	return nil
}

// Publishes the names of the changed captures.
func (s *Server) watchDirectoryChanges() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			glog.V(1).Infof("Watcher event: %v", event)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 &&
				strings.HasSuffix(event.Name, capExt) {
				s.broker.Publish(strings.TrimSuffix(filepath.Base(event.Name), capExt))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			glog.Warningf("Watcher error: %v", err)
		}
	}
}

func (s *Server) Start(addr string) error {
	if err := s.Watch(); err != nil {
		return err
	}
	return s.e.Start(addr)
}

func (s *Server) Close() error {
	if s.watcher != nil {
		s.watcher.Close()
		s.broker.Stop()
	}
	return s.e.Close()
}

// Blocks until a capture changes, the client leaves or the timeout expires.
func (s *Server) waitForCaptures(c echo.Context) {
	if s.watcher == nil {
		return
	}
	timedOut := time.NewTimer(s.waitTimeout)
	defer timedOut.Stop()
	dirChanged := s.broker.Subscribe()
	defer s.broker.Unsubscribe(dirChanged)

	select {
	case <-timedOut.C:
		glog.V(1).Infof("Timed out")
	case <-c.Request().Context().Done():
		glog.V(1).Infof("Client disconnected")
	case name := <-dirChanged:
		glog.V(1).Infof("Capture %s changed", name)
	}
}

func (s *Server) captures() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*"+capExt))
	if err != nil {
		return nil, err
	}
	for i, f := range files {
		files[i] = strings.TrimSuffix(filepath.Base(f), capExt)
	}
	return files, nil
}

func (s *Server) loadCapture(name string) (goelmo.Capture, error) {
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("Invalid capture name %q", name)
	}
	return goelmo.LoadCapture(filepath.Join(s.dir, name+capExt))
}

func (s *Server) listCaptures(c echo.Context) error {
	if c.QueryParam("wait") != "false" {
		s.waitForCaptures(c)
	}
	files, err := s.captures()
	if err != nil {
		glog.Errorf("Glob failed: %v", err)
		return err
	}
	return c.JSON(http.StatusOK, files)
}

func (s *Server) traceMetadata(c echo.Context) error {
	capture, err := s.loadCapture(c.Param("capture"))
	if err != nil {
		glog.Errorf("Error loading capture file: %v", err)
		return c.String(http.StatusNotFound, "Invalid capture")
	}
	metadata := []TraceMetadata{}
	for i, t := range capture {
		metadata = append(metadata, TraceMetadata{i, t.PrintedData, len(t.PowerMeasurements)})
	}
	return c.JSON(http.StatusOK, metadata)
}

func (s *Server) powerMeasurements(c echo.Context) error {
	capture, err := s.loadCapture(c.Param("capture"))
	if err != nil {
		glog.Errorf("Error loading capture file: %v", err)
		return c.String(http.StatusNotFound, "Invalid capture")
	}
	trace, err := strconv.Atoi(c.Param("trace"))
	if err != nil || trace < 0 || trace >= len(capture) {
		return c.String(http.StatusBadRequest, "Invalid trace")
	}
	return c.JSON(http.StatusOK, capture[trace].PowerMeasurements)
}

func (s *Server) correlation(c echo.Context) error {
	capture, err := s.loadCapture(c.Param("capture"))
	if err != nil {
		glog.Errorf("Error loading capture file: %v", err)
		return c.String(http.StatusNotFound, "Invalid capture")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid index")
	}
	corr, err := goelmo.Correlation(capture, goelmo.HammingWeightModel(index))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, corr)
}
