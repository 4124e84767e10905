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
	"bufio"
	"bytes"
	"testing"

	"github.com/singer-go/target-stitch/spi/singer"
	"github.com/stretchr/testify/assert"
)

func TestOnFlushed_EmitsStatesInOrder(
	t *testing.T,
) {

	buffer := &bytes.Buffer{}
	emitter, err := NewStateEmitter(buffer)
	assert.NoError(t, err)

	err = emitter.OnFlushed([]singer.State{
		singer.State(`{"offset":1}`),
		singer.State(`{"offset":2}`),
	})
	assert.NoError(t, err)
	assert.Equal(t, "{\"offset\":1}\n{\"offset\":2}\n", buffer.String())
}

func TestOnFlushed_SkipsNullStates(
	t *testing.T,
) {

	buffer := &bytes.Buffer{}
	emitter, err := NewStateEmitter(buffer)
	assert.NoError(t, err)

	err = emitter.OnFlushed([]singer.State{
		nil,
		singer.State(`{"offset":1}`),
		singer.State("null"),
		nil,
	})
	assert.NoError(t, err)
	assert.Equal(t, "{\"offset\":1}\n", buffer.String())
}

func TestOnFlushed_EmptyBatch(
	t *testing.T,
) {

	buffer := &bytes.Buffer{}
	emitter, err := NewStateEmitter(buffer)
	assert.NoError(t, err)

	assert.NoError(t, emitter.OnFlushed(nil))
	assert.Empty(t, buffer.String())
}

func TestEmit_PreservesRawBytes(
	t *testing.T,
) {

	buffer := &bytes.Buffer{}
	emitter, err := NewStateEmitter(buffer)
	assert.NoError(t, err)

	// Whitespace and member order of the incoming value survive verbatim,
	// the emitter never re-serializes.
	raw := `{"bookmarks": {"users": 42}, "currently_syncing": null}`
	assert.NoError(t, emitter.Emit(singer.State(raw)))
	assert.Equal(t, raw+"\n", buffer.String())
}

func TestEmit_FlushesBufferedWriters(
	t *testing.T,
) {

	buffer := &bytes.Buffer{}
	writer := bufio.NewWriterSize(buffer, 4096)
	emitter, err := NewStateEmitter(writer)
	assert.NoError(t, err)

	assert.NoError(t, emitter.Emit(singer.State(`{"offset":1}`)))
	assert.Equal(t, "{\"offset\":1}\n", buffer.String())
}
