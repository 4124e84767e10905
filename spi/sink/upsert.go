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

// Upsert is one outbound insert-or-update operation. Sequence is derived
// from wall-clock time at build time and is an advisory ordering hint
// only, ties are possible under high throughput.
type Upsert struct {
	Action    string         `json:"action"`
	TableName string         `json:"table_name"`
	KeyNames  []string       `json:"key_names"`
	Sequence  int64          `json:"sequence"`
	Data      map[string]any `json:"data"`
}
