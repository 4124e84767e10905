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

package supporting

func AddrOf[T any](
	value T,
) *T {

	return &value
}

// DeepCopyValue clones a decoded JSON value. Maps and slices are copied
// recursively, scalars are returned as is.
func DeepCopyValue(
	value any,
) any {

	switch v := value.(type) {
	case map[string]any:
		return DeepCopyMap(v)
	case []any:
		clone := make([]any, len(v))
		for i, item := range v {
			clone[i] = DeepCopyValue(item)
		}
		return clone
	default:
		return v
	}
}

func DeepCopyMap(
	source map[string]any,
) map[string]any {

	if source == nil {
		return nil
	}

	clone := make(map[string]any, len(source))
	for key, value := range source {
		clone[key] = DeepCopyValue(value)
	}
	return clone
}
