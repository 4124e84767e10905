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
	"os"
	"reflect"
	"strings"
	"time"
)

type SinkType string

const (
	Stitch SinkType = "stitch"
	Stdout SinkType = "stdout"
)

type Config struct {
	Sink     SinkConfig     `toml:"sink" yaml:"sink" json:"sink"`
	Stitch   StitchConfig   `toml:"stitch" yaml:"stitch" json:"stitch"`
	Logging  LoggerConfig   `toml:"logging" yaml:"logging" json:"logging"`
	Stats    StatsConfig    `toml:"stats" yaml:"stats" json:"stats"`
	Internal InternalConfig `toml:"internal" yaml:"internal" json:"internal"`
}

type SinkConfig struct {
	Type SinkType `toml:"type" yaml:"type" json:"type"`
}

type StitchConfig struct {
	// ClientId and Token are kept at the top level of the section so the
	// flat JSON configuration files of the Python implementation keep
	// loading unchanged.
	ClientId  int64             `toml:"client_id" yaml:"client_id" json:"client_id"`
	Token     string            `toml:"token" yaml:"token" json:"token"`
	Url       string            `toml:"url" yaml:"url" json:"url"`
	Namespace string            `toml:"namespace" yaml:"namespace" json:"namespace"`
	Batch     StitchBatchConfig `toml:"batch" yaml:"batch" json:"batch"`
	Spool     SpoolConfig       `toml:"spool" yaml:"spool" json:"spool"`
}

type StitchBatchConfig struct {
	MaxRecords int    `toml:"maxrecords" yaml:"maxrecords" json:"maxrecords"`
	MaxBytes   string `toml:"maxbytes" yaml:"maxbytes" json:"maxbytes"`
}

type SpoolConfig struct {
	Enabled   *bool  `toml:"enabled" yaml:"enabled" json:"enabled"`
	Url       string `toml:"url" yaml:"url" json:"url"`
	S3Bucket  string `toml:"s3bucket" yaml:"s3bucket" json:"s3bucket"`
	S3Region  string `toml:"s3region" yaml:"s3region" json:"s3region"`
	Threshold string `toml:"threshold" yaml:"threshold" json:"threshold"`
}

type StatsConfig struct {
	Enabled *bool              `toml:"enabled" yaml:"enabled" json:"enabled"`
	Runtime RuntimeStatsConfig `toml:"runtime" yaml:"runtime" json:"runtime"`
}

type RuntimeStatsConfig struct {
	Enabled *bool `toml:"enabled" yaml:"enabled" json:"enabled"`
}

type InternalConfig struct {
	Encoding EncodingConfig `toml:"encoding" yaml:"encoding" json:"encoding"`
}

type EncodingConfig struct {
	CustomReflection *bool `toml:"customreflection" yaml:"customreflection" json:"customreflection"`
}

type LoggerConfig struct {
	Level   string                     `toml:"level" yaml:"level" json:"level"`
	Outputs LoggerOutputConfig         `toml:"output" yaml:"output" json:"output"`
	Loggers map[string]SubLoggerConfig `toml:"loggers" yaml:"loggers" json:"loggers"`
}

type LoggerOutputConfig struct {
	Console LoggerConsoleConfig `toml:"console" yaml:"console" json:"console"`
	File    LoggerFileConfig    `toml:"file" yaml:"file" json:"file"`
}

type SubLoggerConfig struct {
	Level   *string            `toml:"level" yaml:"level" json:"level"`
	Outputs LoggerOutputConfig `toml:"output" yaml:"output" json:"output"`
}

type LoggerConsoleConfig struct {
	Enabled *bool `toml:"enabled" yaml:"enabled" json:"enabled"`
}

type LoggerFileConfig struct {
	Enabled     *bool          `toml:"enabled" yaml:"enabled" json:"enabled"`
	Path        string         `toml:"path" yaml:"path" json:"path"`
	Rotate      *bool          `toml:"rotate" yaml:"rotate" json:"rotate"`
	MaxSize     *string        `toml:"maxsize" yaml:"maxsize" json:"maxsize"`
	MaxDuration *time.Duration `toml:"maxduration" yaml:"maxduration" json:"maxduration"`
	Compress    bool           `toml:"compress" yaml:"compress" json:"compress"`
}

func GetOrDefault[V any](
	config *Config, canonicalProperty string, defaultValue V,
) V {

	if env, found := findEnvProperty(canonicalProperty, defaultValue); found {
		return env
	}

	properties := strings.Split(canonicalProperty, ".")

	element := reflect.ValueOf(*config)
	for _, property := range properties {
		if e, ok := findProperty(element, property); ok {
			element = e
		} else {
			return defaultValue
		}
	}

	if !element.IsZero() &&
		!(element.Kind() == reflect.Ptr && element.IsNil()) {

		if element.Kind() == reflect.Ptr {
			element = element.Elem()
		}

		return element.Convert(reflect.TypeOf(defaultValue)).Interface().(V)
	}
	return defaultValue
}

func findEnvProperty[V any](
	canonicalProperty string, defaultValue V,
) (V, bool) {

	t := reflect.TypeOf(defaultValue)

	envVarName := strings.ToUpper(canonicalProperty)
	envVarName = strings.ReplaceAll(envVarName, "_", "__")
	envVarName = strings.ReplaceAll(envVarName, ".", "_")
	if val, ok := os.LookupEnv(envVarName); ok {
		v := reflect.ValueOf(val)
		cv := v.Convert(t)
		if !cv.IsZero() &&
			!(cv.Kind() == reflect.Ptr && cv.IsNil()) {
			return cv.Interface().(V), true
		}
	}
	return defaultValue, false
}

func findProperty(
	element reflect.Value, property string,
) (reflect.Value, bool) {

	if element.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	t := element.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous {
			continue
		}

		if f.Tag.Get("toml") == property {
			return element.Field(i), true
		}
	}
	return reflect.Value{}, false
}
