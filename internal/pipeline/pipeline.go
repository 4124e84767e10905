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

package pipeline

import (
	"bufio"
	"io"

	"github.com/go-errors/errors"
	"github.com/singer-go/target-stitch/internal/supporting/logging"
	"github.com/singer-go/target-stitch/internal/transforming"
	"github.com/singer-go/target-stitch/spi/config"
	"github.com/singer-go/target-stitch/spi/encoding"
	"github.com/singer-go/target-stitch/spi/schema"
	"github.com/singer-go/target-stitch/spi/singer"
	"github.com/singer-go/target-stitch/spi/sink"
)

// maxLineSize bounds a single input line. Records can be large but a
// single message is still capped by the downstream request size limit.
const maxLineSize = 20 * 1024 * 1024

// Pipeline consumes the message stream strictly in arrival order and
// drives registry updates, record transformation, and sink pushes. It
// owns the single pending state slot: at most one state value is pending
// between a STATE message and the next RECORD, a later STATE before any
// RECORD overwrites it. Any error is fatal, there is no skip-and-continue
// because that would silently drop data the state protocol promises was
// durably written.
type Pipeline struct {
	registry     *schema.Registry
	transformer  *transforming.Transformer
	parser       *singer.Parser
	decoder      *encoding.JsonDecoder
	logger       *logging.Logger
	pendingState singer.State
}

func NewPipeline(
	c *config.Config, registry *schema.Registry, transformer *transforming.Transformer,
) (*Pipeline, error) {

	logger, err := logging.NewLogger("Pipeline")
	if err != nil {
		return nil, err
	}

	decoder := encoding.NewJsonDecoderWithConfig(c)
	return &Pipeline{
		registry:    registry,
		transformer: transformer,
		parser:      singer.NewParser(decoder),
		decoder:     decoder,
		logger:      logger,
	}, nil
}

// ProcessLines reads one JSON message per line until the input is
// exhausted and returns the final unflushed state, if any. The caller
// owns the terminal sink flush and the emission of the returned state.
func (p *Pipeline) ProcessLines(
	input io.Reader, s sink.Sink,
) (singer.State, error) {

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineSize)

	for scanner.Scan() {
		if err := p.processLine(scanner.Bytes(), s); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return p.pendingState, nil
}

func (p *Pipeline) processLine(
	line []byte, s sink.Sink,
) error {

	message, err := p.parser.Parse(line)
	if err != nil {
		return err
	}

	switch message.Type {
	case singer.MessageTypeSchema:
		streamSchema := &schema.Schema{}
		if err := p.decoder.Unmarshal(message.Schema, streamSchema); err != nil {
			return &singer.ParseError{Line: string(line), Cause: err}
		}
		p.registry.Update(message.Stream, streamSchema)

	case singer.MessageTypeRecord:
		record := make(map[string]any)
		if err := p.decoder.Unmarshal(message.Record, &record); err != nil {
			return &singer.ParseError{Line: string(line), Cause: err}
		}

		transformed, err := p.transformer.Transform(message.Stream, record)
		if err != nil {
			return err
		}

		operation := BuildUpsert(message.Stream, transformed, p.registry)
		if err := s.Push(operation, p.pendingState); err != nil {
			return err
		}

		// Ownership of the pending state transferred to the sink.
		p.pendingState = nil

	case singer.MessageTypeState:
		p.logger.Debugf("Setting state to %s", string(message.Value))
		if state := singer.State(message.Value); state.Null() {
			p.pendingState = nil
		} else {
			p.pendingState = state
		}
	}
	return nil
}
