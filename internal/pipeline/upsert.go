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
	"time"

	"github.com/singer-go/target-stitch/spi/schema"
	"github.com/singer-go/target-stitch/spi/sink"
)

// BuildUpsert assembles the outbound operation for a validated record.
// The sequence is the wall-clock time in milliseconds at build time and
// need not be strictly increasing across records.
func BuildUpsert(
	streamName string, transformedRecord map[string]any, registry *schema.Registry,
) *sink.Upsert {

	return &sink.Upsert{
		Action:    "upsert",
		TableName: streamName,
		KeyNames:  registry.KeyFields(streamName),
		Sequence:  time.Now().UnixMilli(),
		Data:      transformedRecord,
	}
}
