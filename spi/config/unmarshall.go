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
	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatToml Format = "toml"
	FormatYaml Format = "yaml"

	// FormatJson matches the flat configuration files used by the
	// Python implementation.
	FormatJson Format = "json"
)

func Unmarshall(
	content []byte, config *Config, format Format,
) error {

	switch format {
	case FormatToml:
		return fromToml(content, config)
	case FormatJson:
		return fromJson(content, config)
	default:
		return fromYaml(content, config)
	}
}

func fromToml(
	content []byte, config *Config,
) error {

	return toml.Unmarshal(content, config)
}

func fromYaml(
	content []byte, config *Config,
) error {

	return yaml.Unmarshal(content, config)
}

func fromJson(
	content []byte, config *Config,
) error {

	// The historic JSON configuration is flat: client_id and token live
	// at the document root. Try the flat shape first and fall back to
	// the sectioned layout.
	flat := StitchConfig{}
	if err := json.Unmarshal(content, &flat); err == nil &&
		(flat.Token != "" || flat.ClientId != 0) {
		config.Stitch = flat
		return nil
	}
	return json.Unmarshal(content, config)
}
