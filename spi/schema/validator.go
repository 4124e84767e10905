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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// Validate asserts an instance against the schema's draft-4 subset:
// type, required, properties, items, and string format assertions.
// Format checks run against the wire representation, coercion is not
// the validator's concern.
func Validate(
	schema *Schema, instance any,
) error {

	return validate("$", schema, instance)
}

func validate(
	path string, schema *Schema, instance any,
) error {

	if schema == nil {
		return nil
	}

	if len(schema.Types) > 0 {
		if !lo.SomeBy(schema.Types, func(typeName string) bool {
			return typeMatches(typeName, instance)
		}) {
			return errors.Errorf(
				"%s: value of type %s doesn't match schema type %s",
				path, typeName(instance), strings.Join(schema.Types, "|"),
			)
		}
	}

	if schema.Format != "" {
		if err := checkFormat(path, schema.Format, instance); err != nil {
			return err
		}
	}

	if object, ok := instance.(map[string]any); ok {
		for _, required := range schema.Required {
			if _, present := object[required]; !present {
				return errors.Errorf("%s: required property '%s' is missing", path, required)
			}
		}

		for _, name := range schema.PropertyNames {
			if value, present := object[name]; present {
				if err := validate(path+"."+name, schema.Properties[name], value); err != nil {
					return err
				}
			}
		}
	}

	if array, ok := instance.([]any); ok && schema.Items != nil {
		for i, item := range array {
			if err := validate(indexedPath(path, i), schema.Items, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func typeMatches(
	typeName string, instance any,
) bool {

	switch typeName {
	case "null":
		return instance == nil
	case "object":
		_, ok := instance.(map[string]any)
		return ok
	case "array":
		_, ok := instance.([]any)
		return ok
	case "string":
		_, ok := instance.(string)
		return ok
	case "boolean":
		_, ok := instance.(bool)
		return ok
	case "number":
		_, ok := asNumber(instance)
		return ok
	case "integer":
		number, ok := asNumber(instance)
		return ok && number == math.Trunc(number)
	default:
		return false
	}
}

func asNumber(
	instance any,
) (float64, bool) {

	switch v := instance.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func typeName(
	instance any,
) string {

	switch instance.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		if number, ok := asNumber(instance); ok {
			if number == math.Trunc(number) {
				return "integer"
			}
			return "number"
		}
		return "unknown"
	}
}

func checkFormat(
	path string, format string, instance any,
) error {

	value, ok := instance.(string)
	if !ok {
		// Format assertions only apply to strings, everything else is
		// covered by the type keyword.
		return nil
	}

	switch format {
	case FormatDateTime:
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return errors.Errorf("%s: '%s' is not a valid RFC 3339 date-time", path, value)
		}
	case FormatEmail:
		local, domain, found := strings.Cut(value, "@")
		if !found || local == "" || domain == "" {
			return errors.Errorf("%s: '%s' is not a valid email address", path, value)
		}
	}
	return nil
}

func indexedPath(
	path string, index int,
) string {

	return path + "[" + strconv.Itoa(index) + "]"
}
