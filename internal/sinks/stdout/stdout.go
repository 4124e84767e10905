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

package stdout

import (
	"github.com/singer-go/target-stitch/internal/supporting/logging"
	spiconfig "github.com/singer-go/target-stitch/spi/config"
	"github.com/singer-go/target-stitch/spi/singer"
	"github.com/singer-go/target-stitch/spi/sink"
)

func init() {
	sink.RegisterSink(spiconfig.Stdout, newStdoutSink)
}

// stdoutSink is the dry run client: nothing is persisted downstream, but
// the batching and callback discipline matches the real sink so state
// emission behaves identically.
type stdoutSink struct {
	logger         *logging.Logger
	callback       sink.FlushCallback
	maxRecords     int
	bufferedStates []singer.State
}

func newStdoutSink(
	c *spiconfig.Config, callback sink.FlushCallback,
) (sink.Sink, error) {

	logger, err := logging.NewLogger("StdoutSink")
	if err != nil {
		return nil, err
	}

	return &stdoutSink{
		logger:     logger,
		callback:   callback,
		maxRecords: spiconfig.GetOrDefault(c, spiconfig.PropertyStitchBatchMaxRecords, spiconfig.DefaultBatchMaxRecords),
	}, nil
}

func (s *stdoutSink) Start() error {
	return nil
}

func (s *stdoutSink) Stop() error {
	return s.Flush()
}

func (s *stdoutSink) Push(
	_ *sink.Upsert, state singer.State,
) error {

	s.bufferedStates = append(s.bufferedStates, state)
	if len(s.bufferedStates) >= s.maxRecords {
		return s.Flush()
	}
	return nil
}

func (s *stdoutSink) Flush() error {
	s.logger.Infof("---- DRY RUN: NOTHING IS BEING PERSISTED TO STITCH ----")
	states := s.bufferedStates
	s.bufferedStates = nil
	return s.callback(states)
}
