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

package emitting

import (
	"io"

	"github.com/go-errors/errors"
	"github.com/singer-go/target-stitch/internal/supporting/logging"
	"github.com/singer-go/target-stitch/spi/singer"
)

type flusher interface {
	Flush() error
}

// StateEmitter writes acknowledged state values to the output stream, one
// JSON document per line, flushing after every write. The output stream
// is the authoritative progress signal for an external orchestrator, so
// values are never reordered or coalesced.
type StateEmitter struct {
	writer io.Writer
	logger *logging.Logger
}

func NewStateEmitter(
	writer io.Writer,
) (*StateEmitter, error) {

	logger, err := logging.NewLogger("StateEmitter")
	if err != nil {
		return nil, err
	}

	return &StateEmitter{
		writer: writer,
		logger: logger,
	}, nil
}

// OnFlushed satisfies the sink.FlushCallback contract: states arrive
// index-aligned with the pushes since the previous flush, nulls included.
func (se *StateEmitter) OnFlushed(
	states []singer.State,
) error {

	se.logger.Infof("Persisted batch of %d records to Stitch", len(states))
	for _, state := range states {
		if state.Null() {
			continue
		}
		if err := se.Emit(state); err != nil {
			return err
		}
	}
	return nil
}

func (se *StateEmitter) Emit(
	state singer.State,
) error {

	se.logger.Debugf("Emitting state %s", string(state))
	if _, err := se.writer.Write(append([]byte(state), '\n')); err != nil {
		return errors.Wrap(err, 0)
	}

	// Unbuffered writers (os.Stdout included) are flushed by the write
	// itself.
	if w, ok := se.writer.(flusher); ok {
		return w.Flush()
	}
	return nil
}
