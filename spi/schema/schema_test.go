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

package schema

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestSchema_Unmarshal_PreservesPropertyOrder(
	t *testing.T,
) {

	document := `{
		"type": "object",
		"properties": {
			"zulu": {"type": "string"},
			"alpha": {"type": "integer", "key": true},
			"mike": {"type": "string", "format": "date-time"}
		}
	}`

	schema := &Schema{}
	if err := json.Unmarshal([]byte(document), schema); err != nil {
		t.Error(err)
	}

	assert.Equal(t, []string{"zulu", "alpha", "mike"}, schema.PropertyNames)
	assert.Equal(t, []string{"object"}, schema.Types)
	assert.True(t, schema.Properties["alpha"].Key)
	assert.Equal(t, FormatDateTime, schema.Properties["mike"].Format)
}

func TestSchema_Unmarshal_TypeUnion(
	t *testing.T,
) {

	schema := &Schema{}
	if err := json.Unmarshal([]byte(`{"type": ["string", "null"]}`), schema); err != nil {
		t.Error(err)
	}

	assert.Equal(t, []string{"string", "null"}, schema.Types)
}

func TestSchema_Unmarshal_NestedItems(
	t *testing.T,
) {

	document := `{
		"type": "object",
		"properties": {
			"tags": {
				"type": "array",
				"items": {"type": "string"}
			}
		},
		"required": ["tags"]
	}`

	schema := &Schema{}
	if err := json.Unmarshal([]byte(document), schema); err != nil {
		t.Error(err)
	}

	assert.Equal(t, []string{"tags"}, schema.Required)
	assert.NotNil(t, schema.Properties["tags"].Items)
	assert.Equal(t, []string{"string"}, schema.Properties["tags"].Items.Types)
}

func TestSchema_Unmarshal_InvalidTypeDeclaration(
	t *testing.T,
) {

	schema := &Schema{}
	err := json.Unmarshal([]byte(`{"type": 42}`), schema)
	assert.Error(t, err)
}

func TestSchema_ZeroValue_IsEmptySchema(
	t *testing.T,
) {

	schema := &Schema{}
	assert.NoError(t, Validate(schema, map[string]any{"anything": "goes"}))
	assert.NoError(t, Validate(schema, "a bare string"))
	assert.NoError(t, Validate(schema, nil))
}
