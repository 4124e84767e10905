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
	"github.com/samber/lo"
)

var emptySchema = &Schema{}

// Registry maps stream names to their latest schema document. A later
// SCHEMA message for the same stream fully replaces the prior one, no
// history is retained. Lookups cannot fail: an unknown stream resolves to
// the empty schema.
type Registry struct {
	schemas map[string]*Schema
}

func NewSchemaRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*Schema),
	}
}

func (r *Registry) Update(
	streamName string, schema *Schema,
) {

	r.schemas[streamName] = schema
}

func (r *Registry) SchemaFor(
	streamName string,
) *Schema {

	if schema, present := r.schemas[streamName]; present {
		return schema
	}
	return emptySchema
}

// KeyFields returns the property names flagged with `key: true` in the
// stream's current schema, in schema declaration order. Unknown streams
// and schemas without properties yield an empty list.
func (r *Registry) KeyFields(
	streamName string,
) []string {

	schema := r.SchemaFor(streamName)
	return lo.Filter(schema.PropertyNames, func(name string, _ int) bool {
		return schema.Properties[name].Key
	})
}
