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

package config

const (
	PropertySink = "sink.type"

	PropertyStitchClientId        = "stitch.client_id"
	PropertyStitchToken           = "stitch.token"
	PropertyStitchUrl             = "stitch.url"
	PropertyStitchNamespace       = "stitch.namespace"
	PropertyStitchBatchMaxRecords = "stitch.batch.maxrecords"
	PropertyStitchBatchMaxBytes   = "stitch.batch.maxbytes"

	PropertySpoolEnabled   = "stitch.spool.enabled"
	PropertySpoolUrl       = "stitch.spool.url"
	PropertySpoolS3Bucket  = "stitch.spool.s3bucket"
	PropertySpoolS3Region  = "stitch.spool.s3region"
	PropertySpoolThreshold = "stitch.spool.threshold"

	PropertyStatsEnabled        = "stats.enabled"
	PropertyRuntimeStatsEnabled = "stats.runtime.enabled"

	PropertyEncodingCustomReflection = "internal.encoding.customreflection"
)

const (
	// DefaultStitchUrl is the Stitch Import API push endpoint.
	DefaultStitchUrl = "https://api.stitchdata.com/v2/import/push"

	// DefaultBatchMaxRecords is the number of buffered upsert operations
	// that triggers an automatic flush.
	DefaultBatchMaxRecords = 100

	// DefaultBatchMaxBytes is the Stitch API request body limit.
	DefaultBatchMaxBytes = "4MB"
)
