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

package sink

import (
	"fmt"

	"github.com/singer-go/target-stitch/spi/config"
	"github.com/singer-go/target-stitch/spi/singer"
)

// FlushCallback is invoked exactly once per flush with the state values
// associated with every operation delivered since the previous flush,
// index-aligned with push order. Null states are included to keep the
// alignment intact.
type FlushCallback func(states []singer.State) error

type Factory = func(config *config.Config, callback FlushCallback) (Sink, error)

// Sink accepts upsert operations one at a time and batches them
// internally. Push associates the given (possibly null) state value with
// the operation. Flush forces delivery of all buffered operations and
// invokes the flush callback before returning. Implementations flush
// automatically once their configured capacity is reached. Stop performs
// a terminal flush before releasing resources.
type Sink interface {
	Start() error
	Stop() error
	Push(operation *Upsert, state singer.State) error
	Flush() error
}

// Error is the failure of a push or flush against the downstream service.
// It aborts the run, the pipeline performs no retries on top of it.
type Error struct {
	TableName string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.TableName != "" {
		return fmt.Sprintf("error persisting data for table '%s': %s", e.TableName, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}
