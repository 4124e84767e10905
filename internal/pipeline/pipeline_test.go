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
	"strings"
	"testing"
	"time"

	"github.com/singer-go/target-stitch/internal/transforming"
	"github.com/singer-go/target-stitch/spi/config"
	"github.com/singer-go/target-stitch/spi/schema"
	"github.com/singer-go/target-stitch/spi/singer"
	"github.com/singer-go/target-stitch/spi/sink"
	"github.com/stretchr/testify/assert"
)

type recordedPush struct {
	operation *sink.Upsert
	state     singer.State
}

type recordingSink struct {
	pushes  []recordedPush
	flushes int
}

func (rs *recordingSink) Start() error {
	return nil
}

func (rs *recordingSink) Stop() error {
	return rs.Flush()
}

func (rs *recordingSink) Push(
	operation *sink.Upsert, state singer.State,
) error {

	rs.pushes = append(rs.pushes, recordedPush{operation: operation, state: state})
	return nil
}

func (rs *recordingSink) Flush() error {
	rs.flushes++
	return nil
}

func newTestPipeline(
	t *testing.T,
) (*Pipeline, *schema.Registry) {

	t.Helper()
	registry := schema.NewSchemaRegistry()
	p, err := NewPipeline(&config.Config{}, registry, transforming.NewTransformer(registry))
	if err != nil {
		t.Fatal(err)
	}
	return p, registry
}

func TestProcessLines_SchemaRecordState(
	t *testing.T,
) {

	p, _ := newTestPipeline(t)
	rs := &recordingSink{}

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object","properties":{"id":{"type":"integer","key":true}}}}`,
		`{"type":"RECORD","stream":"users","record":{"id":1}}`,
		`{"type":"STATE","value":{"offset":1}}`,
	}, "\n")

	finalState, err := p.ProcessLines(strings.NewReader(input), rs)
	assert.NoError(t, err)
	assert.Equal(t, `{"offset":1}`, string(finalState))

	assert.Len(t, rs.pushes, 1)
	operation := rs.pushes[0].operation
	assert.Equal(t, "upsert", operation.Action)
	assert.Equal(t, "users", operation.TableName)
	assert.Equal(t, []string{"id"}, operation.KeyNames)
	assert.Equal(t, map[string]any{"id": float64(1)}, operation.Data)
	assert.True(t, rs.pushes[0].state.Null())
}

func TestProcessLines_StateAttachesToNextRecord(
	t *testing.T,
) {

	p, _ := newTestPipeline(t)
	rs := &recordingSink{}

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object"}}`,
		`{"type":"STATE","value":{"offset":1}}`,
		`{"type":"RECORD","stream":"users","record":{"id":1}}`,
		`{"type":"RECORD","stream":"users","record":{"id":2}}`,
	}, "\n")

	finalState, err := p.ProcessLines(strings.NewReader(input), rs)
	assert.NoError(t, err)
	assert.True(t, finalState.Null())

	assert.Len(t, rs.pushes, 2)
	assert.Equal(t, `{"offset":1}`, string(rs.pushes[0].state))
	assert.True(t, rs.pushes[1].state.Null())
}

func TestProcessLines_LaterStateOverwritesPending(
	t *testing.T,
) {

	p, _ := newTestPipeline(t)
	rs := &recordingSink{}

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object"}}`,
		`{"type":"STATE","value":{"offset":1}}`,
		`{"type":"STATE","value":{"offset":2}}`,
		`{"type":"RECORD","stream":"users","record":{"id":1}}`,
	}, "\n")

	_, err := p.ProcessLines(strings.NewReader(input), rs)
	assert.NoError(t, err)

	assert.Len(t, rs.pushes, 1)
	assert.Equal(t, `{"offset":2}`, string(rs.pushes[0].state))
}

func TestProcessLines_NullStateClearsPending(
	t *testing.T,
) {

	p, _ := newTestPipeline(t)
	rs := &recordingSink{}

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object"}}`,
		`{"type":"STATE","value":{"offset":1}}`,
		`{"type":"STATE","value":null}`,
		`{"type":"RECORD","stream":"users","record":{"id":1}}`,
	}, "\n")

	finalState, err := p.ProcessLines(strings.NewReader(input), rs)
	assert.NoError(t, err)
	assert.True(t, finalState.Null())
	assert.True(t, rs.pushes[0].state.Null())
}

func TestProcessLines_TrailingStateReturnedUnflushed(
	t *testing.T,
) {

	p, _ := newTestPipeline(t)
	rs := &recordingSink{}

	input := strings.Join([]string{
		`{"type":"STATE","value":{"offset":1}}`,
		`{"type":"STATE","value":{"offset":2}}`,
	}, "\n")

	finalState, err := p.ProcessLines(strings.NewReader(input), rs)
	assert.NoError(t, err)
	assert.Equal(t, `{"offset":2}`, string(finalState))
	assert.Empty(t, rs.pushes)
}

func TestProcessLines_UnknownMessageTypeAborts(
	t *testing.T,
) {

	p, _ := newTestPipeline(t)
	rs := &recordingSink{}

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object"}}`,
		`{"type":"ACTIVATE_VERSION","stream":"users"}`,
		`{"type":"RECORD","stream":"users","record":{"id":1}}`,
	}, "\n")

	_, err := p.ProcessLines(strings.NewReader(input), rs)
	assert.Error(t, err)

	// The record after the offending line must never reach the sink.
	assert.Empty(t, rs.pushes)
}

func TestProcessLines_RecordViolatingSchemaAborts(
	t *testing.T,
) {

	p, _ := newTestPipeline(t)
	rs := &recordingSink{}

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object","properties":{"id":{"type":"integer"}}}}`,
		`{"type":"RECORD","stream":"users","record":{"id":"seven"}}`,
	}, "\n")

	_, err := p.ProcessLines(strings.NewReader(input), rs)
	assert.Error(t, err)

	_, ok := err.(*transforming.ValidationError)
	assert.True(t, ok)
	assert.Empty(t, rs.pushes)
}

func TestProcessLines_RecordBeforeSchemaUsesEmptySchema(
	t *testing.T,
) {

	p, _ := newTestPipeline(t)
	rs := &recordingSink{}

	input := `{"type":"RECORD","stream":"undeclared","record":{"free":"form"}}`

	_, err := p.ProcessLines(strings.NewReader(input), rs)
	assert.NoError(t, err)

	assert.Len(t, rs.pushes, 1)
	assert.Equal(t, "undeclared", rs.pushes[0].operation.TableName)
	assert.Empty(t, rs.pushes[0].operation.KeyNames)
}

func TestProcessLines_SchemaReplacementTakesEffect(
	t *testing.T,
) {

	p, _ := newTestPipeline(t)
	rs := &recordingSink{}

	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object","properties":{"id":{"type":"integer","key":true}}}}`,
		`{"type":"RECORD","stream":"users","record":{"id":1}}`,
		`{"type":"SCHEMA","stream":"users","schema":{"type":"object","properties":{"email":{"type":"string","key":true}}}}`,
		`{"type":"RECORD","stream":"users","record":{"email":"a@b.io"}}`,
	}, "\n")

	_, err := p.ProcessLines(strings.NewReader(input), rs)
	assert.NoError(t, err)

	assert.Len(t, rs.pushes, 2)
	assert.Equal(t, []string{"id"}, rs.pushes[0].operation.KeyNames)
	assert.Equal(t, []string{"email"}, rs.pushes[1].operation.KeyNames)
}

func TestBuildUpsert(
	t *testing.T,
) {

	registry := schema.NewSchemaRegistry()
	registry.Update("orders", mustSchema(t, `{
		"type": "object",
		"properties": {
			"tenant": {"type": "string", "key": true},
			"order_id": {"type": "integer", "key": true}
		}
	}`))

	before := time.Now().UnixMilli()
	operation := BuildUpsert("orders", map[string]any{"tenant": "t1"}, registry)
	after := time.Now().UnixMilli()

	assert.Equal(t, "upsert", operation.Action)
	assert.Equal(t, "orders", operation.TableName)
	assert.Equal(t, []string{"tenant", "order_id"}, operation.KeyNames)
	assert.GreaterOrEqual(t, operation.Sequence, before)
	assert.LessOrEqual(t, operation.Sequence, after)
}

func mustSchema(
	t *testing.T, document string,
) *schema.Schema {

	t.Helper()
	streamSchema := &schema.Schema{}
	if err := streamSchema.UnmarshalJSON([]byte(document)); err != nil {
		t.Fatal(err)
	}
	return streamSchema
}
