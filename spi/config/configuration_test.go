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

import (
	"testing"

	"github.com/singer-go/target-stitch/internal/supporting"
	"github.com/stretchr/testify/assert"
)

func TestUnmarshall_Toml(
	t *testing.T,
) {

	content := `
[sink]
type = "stitch"

[stitch]
client_id = 1234
token = "secret"
namespace = "production"

[stitch.batch]
maxrecords = 50
maxbytes = "2MB"
`

	config := &Config{}
	assert.NoError(t, Unmarshall([]byte(content), config, FormatToml))

	assert.Equal(t, Stitch, config.Sink.Type)
	assert.Equal(t, int64(1234), config.Stitch.ClientId)
	assert.Equal(t, "secret", config.Stitch.Token)
	assert.Equal(t, "production", config.Stitch.Namespace)
	assert.Equal(t, 50, config.Stitch.Batch.MaxRecords)
	assert.Equal(t, "2MB", config.Stitch.Batch.MaxBytes)
}

func TestUnmarshall_Yaml(
	t *testing.T,
) {

	content := `
sink:
  type: stdout
stitch:
  client_id: 1234
  token: secret
  spool:
    enabled: true
    s3bucket: spool-bucket
    threshold: 4MB
`

	config := &Config{}
	assert.NoError(t, Unmarshall([]byte(content), config, FormatYaml))

	assert.Equal(t, Stdout, config.Sink.Type)
	assert.Equal(t, int64(1234), config.Stitch.ClientId)
	assert.NotNil(t, config.Stitch.Spool.Enabled)
	assert.True(t, *config.Stitch.Spool.Enabled)
	assert.Equal(t, "spool-bucket", config.Stitch.Spool.S3Bucket)
}

func TestUnmarshall_FlatJson(
	t *testing.T,
) {

	// The flat document layout of the historic configuration files.
	content := `{"client_id": 1234, "token": "secret", "namespace": "prod"}`

	config := &Config{}
	assert.NoError(t, Unmarshall([]byte(content), config, FormatJson))

	assert.Equal(t, int64(1234), config.Stitch.ClientId)
	assert.Equal(t, "secret", config.Stitch.Token)
	assert.Equal(t, "prod", config.Stitch.Namespace)
}

func TestUnmarshall_SectionedJson(
	t *testing.T,
) {

	content := `{"sink": {"type": "stitch"}, "stitch": {"client_id": 9, "token": "s"}}`

	config := &Config{}
	assert.NoError(t, Unmarshall([]byte(content), config, FormatJson))

	assert.Equal(t, Stitch, config.Sink.Type)
	assert.Equal(t, int64(9), config.Stitch.ClientId)
}

func TestGetOrDefault_ConfiguredValue(
	t *testing.T,
) {

	config := &Config{}
	config.Stitch.ClientId = 1234
	config.Stitch.Batch.MaxRecords = 25

	assert.Equal(t, int64(1234), GetOrDefault(config, PropertyStitchClientId, int64(0)))
	assert.Equal(t, 25, GetOrDefault(config, PropertyStitchBatchMaxRecords, DefaultBatchMaxRecords))
}

func TestGetOrDefault_FallsBackToDefault(
	t *testing.T,
) {

	config := &Config{}

	assert.Equal(t, DefaultBatchMaxRecords,
		GetOrDefault(config, PropertyStitchBatchMaxRecords, DefaultBatchMaxRecords))
	assert.Equal(t, DefaultStitchUrl,
		GetOrDefault(config, PropertyStitchUrl, DefaultStitchUrl))
}

func TestGetOrDefault_PointerProperty(
	t *testing.T,
) {

	config := &Config{}
	assert.False(t, GetOrDefault(config, PropertyStatsEnabled, false))

	config.Stats.Enabled = supporting.AddrOf(true)
	assert.True(t, GetOrDefault(config, PropertyStatsEnabled, false))
}

func TestGetOrDefault_EnvironmentOverride(
	t *testing.T,
) {

	t.Setenv("STITCH_TOKEN", "from-env")

	config := &Config{}
	config.Stitch.Token = "from-file"
	assert.Equal(t, "from-env", GetOrDefault(config, PropertyStitchToken, ""))
}

func TestGetOrDefault_UnknownProperty(
	t *testing.T,
) {

	config := &Config{}
	assert.Equal(t, "fallback", GetOrDefault(config, "no.such.property", "fallback"))
}
