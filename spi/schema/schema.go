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
	"bytes"

	"github.com/go-errors/errors"
	"github.com/goccy/go-json"
)

const (
	FormatDateTime = "date-time"
	FormatEmail    = "email"
)

// Schema is a JSON Schema (draft-4 dialect) document reduced to the subset
// the pipeline asserts: type, properties, items, required, and format. Two
// extensions are recognized per property: the boolean `key` flag marking
// primary key membership and the `format` field driving value coercion.
// Unknown keywords are ignored. The zero value is the empty schema which
// validates every instance.
type Schema struct {
	Types    []string
	Format   string
	Key      bool
	Required []string
	Items    *Schema

	// PropertyNames preserves the declaration order of the properties
	// object. Key field ordering downstream depends on it.
	PropertyNames []string
	Properties    map[string]*Schema
}

type schemaDocument struct {
	Type       json.RawMessage `json:"type"`
	Format     string          `json:"format"`
	Key        bool            `json:"key"`
	Required   []string        `json:"required"`
	Items      *Schema         `json:"items"`
	Properties json.RawMessage `json:"properties"`
}

func (s *Schema) UnmarshalJSON(
	data []byte,
) error {

	document := schemaDocument{}
	if err := json.Unmarshal(data, &document); err != nil {
		return errors.Wrap(err, 0)
	}

	s.Format = document.Format
	s.Key = document.Key
	s.Required = document.Required
	s.Items = document.Items

	if len(document.Type) > 0 {
		single := ""
		if err := json.Unmarshal(document.Type, &single); err == nil {
			s.Types = []string{single}
		} else {
			multiple := make([]string, 0)
			if err := json.Unmarshal(document.Type, &multiple); err != nil {
				return errors.Errorf("invalid type declaration '%s'", string(document.Type))
			}
			s.Types = multiple
		}
	}

	if len(document.Properties) > 0 {
		names, properties, err := unmarshalOrderedProperties(document.Properties)
		if err != nil {
			return err
		}
		s.PropertyNames = names
		s.Properties = properties
	}
	return nil
}

// unmarshalOrderedProperties walks the properties object token-wise to
// retain the document order of the keys, which a plain map decode loses.
func unmarshalOrderedProperties(
	data []byte,
) ([]string, map[string]*Schema, error) {

	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return nil, nil, errors.Wrap(err, 0)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, nil, errors.Errorf("properties must be an object")
	}

	names := make([]string, 0)
	properties := make(map[string]*Schema)
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, nil, errors.Wrap(err, 0)
		}

		name := token.(string)
		property := &Schema{}
		if err := decoder.Decode(property); err != nil {
			return nil, nil, errors.Wrap(err, 0)
		}

		names = append(names, name)
		properties[name] = property
	}
	return names, properties, nil
}
