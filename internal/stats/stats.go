/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package stats

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/segmentio/stats/v4"
	"github.com/segmentio/stats/v4/procstats"
	"github.com/segmentio/stats/v4/prometheus"
	"github.com/singer-go/target-stitch/internal/version"
	"github.com/singer-go/target-stitch/spi/config"
	"golang.org/x/net/context"
)

// Timing modes mirror the phases of a batch delivery.
const (
	ModeSerializing = "serializing"
	ModePostToGate  = "post_to_gate"
	ModePostToS3    = "post_to_s3"
	ModePostToSpool = "post_to_spool"
)

// Service collects operation timings and optionally exposes them on a
// Prometheus endpoint. Disabled by default: a stdin driven batch loader
// rarely lives long enough for scraping, but long running syncs do.
type Service struct {
	statsEnabled bool
	handler      *prometheus.Handler
	engine       *stats.Engine
	server       *http.Server
	collector    interface{ Close() error }
}

var (
	sharedService *Service
	sharedOnce    sync.Once
)

// SharedStatsService returns the process wide stats service, creating it
// on first use. Sinks and the runner observe into the same engine.
func SharedStatsService(
	c *config.Config,
) *Service {

	sharedOnce.Do(func() {
		sharedService = NewStatsService(c)
	})
	return sharedService
}

func NewStatsService(
	c *config.Config,
) *Service {

	statsHandler := &prometheus.Handler{
		TrimPrefix: version.BinName,
	}

	statsEnabled := config.GetOrDefault(c, config.PropertyStatsEnabled, false)
	runtimeStatsEnabled := config.GetOrDefault(c, config.PropertyRuntimeStatsEnabled, false)

	engine := stats.NewEngine(version.BinName, statsHandler)

	service := &Service{
		statsEnabled: statsEnabled,
		handler:      statsHandler,
		engine:       engine,
	}

	if statsEnabled {
		if runtimeStatsEnabled {
			runtimeMetrics := procstats.NewGoMetricsWith(engine)
			service.collector = procstats.StartCollector(runtimeMetrics)
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", statsHandler.ServeHTTP)
		service.server = &http.Server{
			Addr:    ":8081",
			Handler: mux,
		}
	}
	return service
}

func (s *Service) Start() error {
	if s.statsEnabled {
		go func() {
			err := s.server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				panic(err)
			}
		}()
	}
	return nil
}

func (s *Service) Stop() error {
	if s.collector != nil {
		s.collector.Close()
	}
	if s.statsEnabled {
		s.engine.Flush()
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// ObserveMode records the duration of one delivery phase.
func (s *Service) ObserveMode(
	mode string, elapsed time.Duration,
) {

	s.engine.Observe("timings", elapsed.Seconds(), stats.Tag{Name: "mode", Value: mode})
}

// Time runs the given function and records its duration under the mode.
func (s *Service) Time(
	mode string, fn func() error,
) error {

	start := time.Now()
	err := fn()
	s.ObserveMode(mode, time.Since(start))
	return err
}
