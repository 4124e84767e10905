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
	"bytes"
	"strings"
	"testing"

	"github.com/singer-go/target-stitch/spi/config"
	"github.com/stretchr/testify/assert"

	_ "github.com/singer-go/target-stitch/internal/sinks/stdout"
)

func newDryRunPersister(
	t *testing.T,
) *Persister {

	t.Helper()
	c := &config.Config{}
	c.Sink.Type = config.Stdout

	p, err := NewPersister(c)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRun_EmitsStateAfterFinalFlush(
	t *testing.T,
) {

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object","properties":{"id":{"type":"integer","key":true}}}}`,
		`{"type":"RECORD","stream":"users","record":{"id":1}}`,
		`{"type":"STATE","value":{"offset":1}}`,
	}, "\n")

	output := &bytes.Buffer{}
	err := newDryRunPersister(t).Run(strings.NewReader(input), output)
	assert.NoError(t, err)
	assert.Equal(t, "{\"offset\":1}\n", output.String())
}

func TestRun_StateAttachedToRecordEmittedOnce(
	t *testing.T,
) {

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object"}}`,
		`{"type":"STATE","value":{"offset":1}}`,
		`{"type":"RECORD","stream":"users","record":{"id":1}}`,
		`{"type":"STATE","value":{"offset":2}}`,
		`{"type":"RECORD","stream":"users","record":{"id":2}}`,
	}, "\n")

	output := &bytes.Buffer{}
	err := newDryRunPersister(t).Run(strings.NewReader(input), output)
	assert.NoError(t, err)
	assert.Equal(t, "{\"offset\":1}\n{\"offset\":2}\n", output.String())
}

func TestRun_OnlyLatestTrailingStateEmitted(
	t *testing.T,
) {

	input := strings.Join([]string{
		`{"type":"STATE","value":{"offset":1}}`,
		`{"type":"STATE","value":{"offset":2}}`,
		`{"type":"STATE","value":{"offset":3}}`,
	}, "\n")

	output := &bytes.Buffer{}
	err := newDryRunPersister(t).Run(strings.NewReader(input), output)
	assert.NoError(t, err)
	assert.Equal(t, "{\"offset\":3}\n", output.String())
}

func TestRun_NoStatesNoOutput(
	t *testing.T,
) {

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object"}}`,
		`{"type":"RECORD","stream":"users","record":{"id":1}}`,
	}, "\n")

	output := &bytes.Buffer{}
	err := newDryRunPersister(t).Run(strings.NewReader(input), output)
	assert.NoError(t, err)
	assert.Empty(t, output.String())
}

func TestRun_InvalidInputAborts(
	t *testing.T,
) {

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object","properties":{"id":{"type":"integer"}}}}`,
		`{"type":"RECORD","stream":"users","record":{"id":"seven"}}`,
		`{"type":"STATE","value":{"offset":1}}`,
	}, "\n")

	output := &bytes.Buffer{}
	err := newDryRunPersister(t).Run(strings.NewReader(input), output)
	assert.Error(t, err)

	// No state may be acknowledged for the aborted run.
	assert.Empty(t, output.String())
}
