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

package internal

import (
	"io"

	"github.com/singer-go/target-stitch/internal/emitting"
	"github.com/singer-go/target-stitch/internal/pipeline"
	"github.com/singer-go/target-stitch/internal/stats"
	"github.com/singer-go/target-stitch/internal/supporting/logging"
	"github.com/singer-go/target-stitch/internal/transforming"
	"github.com/singer-go/target-stitch/spi/config"
	"github.com/singer-go/target-stitch/spi/schema"
	"github.com/singer-go/target-stitch/spi/sink"
)

// Persister wires the pipeline to a sink and the state emitter and runs
// one sync: read all messages from the input, then emit any state value
// still pending after the terminal flush.
type Persister struct {
	config       *config.Config
	logger       *logging.Logger
	registry     *schema.Registry
	pipeline     *pipeline.Pipeline
	statsService *stats.Service
}

func NewPersister(
	c *config.Config,
) (*Persister, error) {

	logger, err := logging.NewLogger("Persister")
	if err != nil {
		return nil, err
	}

	registry := schema.NewSchemaRegistry()
	transformer := transforming.NewTransformer(registry)

	p, err := pipeline.NewPipeline(c, registry, transformer)
	if err != nil {
		return nil, err
	}

	return &Persister{
		config:       c,
		logger:       logger,
		registry:     registry,
		pipeline:     p,
		statsService: stats.SharedStatsService(c),
	}, nil
}

func (p *Persister) Run(
	input io.Reader, output io.Writer,
) error {

	emitter, err := emitting.NewStateEmitter(output)
	if err != nil {
		return err
	}

	sinkType := config.GetOrDefault(p.config, config.PropertySink, config.Stitch)
	s, err := sink.NewSink(sinkType, p.config, emitter.OnFlushed)
	if err != nil {
		return err
	}

	if err := p.statsService.Start(); err != nil {
		return err
	}
	defer p.statsService.Stop()

	if err := s.Start(); err != nil {
		return err
	}

	// The sink is scoped to the run: the terminal flush inside Stop
	// happens on the error path as well, so records accepted before a
	// failure are still delivered and their states acknowledged.
	finalState, runErr := p.pipeline.ProcessLines(input, s)
	stopErr := s.Stop()

	if runErr != nil {
		return runErr
	}
	if stopErr != nil {
		return stopErr
	}

	// A state with no record after it was never attached to an
	// operation, there is nothing in flight to acknowledge against, so
	// it is emitted directly after the terminal flush.
	if !finalState.Null() {
		p.logger.Debugf("Emitting final state %s", string(finalState))
		return emitter.Emit(finalState)
	}
	return nil
}
