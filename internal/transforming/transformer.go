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

package transforming

import (
	"fmt"
	"time"

	"github.com/go-errors/errors"
	"github.com/singer-go/target-stitch/internal/supporting"
	"github.com/singer-go/target-stitch/spi/schema"
)

type ValidationError struct {
	StreamName string
	Record     map[string]any
	Cause      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"record validation failed for stream '%s', record %v: %v",
		e.StreamName, e.Record, e.Cause,
	)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Transformer validates raw records against the registry's current schema
// for their stream and applies the schema driven coercions. The caller's
// record is never mutated, all work happens on a deep copy.
type Transformer struct {
	registry *schema.Registry
}

func NewTransformer(
	registry *schema.Registry,
) *Transformer {

	return &Transformer{
		registry: registry,
	}
}

// Transform returns the validated copy of the record with every top level
// property declared `format: date-time` converted from its RFC 3339 wire
// representation into an absolute UTC instant. Validation runs before
// coercion so format assertions see the original string values.
func (t *Transformer) Transform(
	streamName string, record map[string]any,
) (map[string]any, error) {

	transformed := supporting.DeepCopyMap(record)

	streamSchema := t.registry.SchemaFor(streamName)
	if err := schema.Validate(streamSchema, transformed); err != nil {
		return nil, &ValidationError{StreamName: streamName, Record: record, Cause: err}
	}

	for _, name := range streamSchema.PropertyNames {
		property := streamSchema.Properties[name]
		if property.Format != schema.FormatDateTime {
			continue
		}

		value, present := transformed[name]
		if !present || value == nil {
			continue
		}

		instant, err := parseDateTime(value)
		if err != nil {
			return nil, &ValidationError{
				StreamName: streamName,
				Record:     record,
				Cause:      errors.Errorf("error parsing property '%s', value '%v'", name, value),
			}
		}
		transformed[name] = instant
	}
	return transformed, nil
}

func parseDateTime(
	value any,
) (time.Time, error) {

	text, ok := value.(string)
	if !ok {
		return time.Time{}, errors.Errorf("value is not a string")
	}

	instant, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}, err
	}
	return instant.UTC(), nil
}
