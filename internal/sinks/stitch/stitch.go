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

package stitch

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-errors/errors"
	"github.com/inhies/go-bytesize"
	"github.com/singer-go/target-stitch/internal/stats"
	"github.com/singer-go/target-stitch/internal/supporting/logging"
	"github.com/singer-go/target-stitch/spi/config"
	"github.com/singer-go/target-stitch/spi/encoding"
	"github.com/singer-go/target-stitch/spi/singer"
	"github.com/singer-go/target-stitch/spi/sink"
)

func init() {
	sink.RegisterSink(config.Stitch, newStitchSink)
}

// gateMessage is one upsert operation as the Import API expects it, with
// the account scoping fields added to every message.
type gateMessage struct {
	*sink.Upsert
	ClientId  int64  `json:"client_id"`
	Namespace string `json:"namespace,omitempty"`
}

type stitchSink struct {
	client    *http.Client
	encoder   *encoding.JsonEncoder
	logger    *logging.Logger
	timings   *stats.Service
	spool     *spooler
	callback  sink.FlushCallback
	url       string
	headers   http.Header
	clientId  int64
	namespace string

	maxRecords int
	maxBytes   int

	bufferedOps    []*sink.Upsert
	bufferedStates []singer.State
}

func newStitchSink(
	c *config.Config, callback sink.FlushCallback,
) (sink.Sink, error) {

	logger, err := logging.NewLogger("StitchSink")
	if err != nil {
		return nil, err
	}

	clientId := config.GetOrDefault(c, config.PropertyStitchClientId, int64(0))
	token := config.GetOrDefault(c, config.PropertyStitchToken, "")

	missingFields := make([]string, 0)
	if clientId == 0 {
		missingFields = append(missingFields, "client_id")
	}
	if token == "" {
		missingFields = append(missingFields, "token")
	}
	if len(missingFields) > 0 {
		return nil, errors.Errorf(
			"Configuration is missing required fields: [%s]", strings.Join(missingFields, " "),
		)
	}

	maxBytes, err := bytesize.Parse(
		config.GetOrDefault(c, config.PropertyStitchBatchMaxBytes, config.DefaultBatchMaxBytes),
	)
	if err != nil {
		return nil, errors.Errorf("Failed to parse batch maxbytes => %s", err.Error())
	}

	headers := make(http.Header)
	headers.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	headers.Add("Content-Type", "application/json")

	s := &stitchSink{
		client:     &http.Client{},
		encoder:    encoding.NewJsonEncoderWithConfig(c),
		logger:     logger,
		timings:    stats.SharedStatsService(c),
		callback:   callback,
		url:        config.GetOrDefault(c, config.PropertyStitchUrl, config.DefaultStitchUrl),
		headers:    headers,
		clientId:   clientId,
		namespace:  config.GetOrDefault(c, config.PropertyStitchNamespace, ""),
		maxRecords: config.GetOrDefault(c, config.PropertyStitchBatchMaxRecords, config.DefaultBatchMaxRecords),
		maxBytes:   int(maxBytes),
	}

	if config.GetOrDefault(c, config.PropertySpoolEnabled, false) {
		spool, err := newSpooler(c, logger, s.timings, headers)
		if err != nil {
			return nil, err
		}
		s.spool = spool
	}
	return s, nil
}

func (s *stitchSink) Start() error {
	return nil
}

func (s *stitchSink) Stop() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.client.CloseIdleConnections()
	return nil
}

func (s *stitchSink) Push(
	operation *sink.Upsert, state singer.State,
) error {

	s.bufferedOps = append(s.bufferedOps, operation)
	s.bufferedStates = append(s.bufferedStates, state)

	if len(s.bufferedOps) >= s.maxRecords {
		return s.Flush()
	}
	return nil
}

func (s *stitchSink) Flush() error {
	operations := s.bufferedOps
	states := s.bufferedStates
	s.bufferedOps = nil
	s.bufferedStates = nil

	if len(operations) > 0 {
		if err := s.deliver(operations); err != nil {
			return err
		}
	}
	return s.callback(states)
}

func (s *stitchSink) deliver(
	operations []*sink.Upsert,
) error {

	tableName := operations[0].TableName

	messages := make([]gateMessage, len(operations))
	for i, operation := range operations {
		messages[i] = gateMessage{
			Upsert:    operation,
			ClientId:  s.clientId,
			Namespace: s.namespace,
		}
	}

	var bodies [][]byte
	if err := s.timings.Time(stats.ModeSerializing, func() error {
		b, err := s.serialize(messages)
		bodies = b
		return err
	}); err != nil {
		return err
	}

	totalBytes := 0
	for _, body := range bodies {
		totalBytes += len(body)
	}
	s.logger.Debugf("Serialized %d messages into %d bytes across %d requests",
		len(messages), totalBytes, len(bodies))

	if s.spool != nil && totalBytes >= s.spool.threshold {
		combined, err := s.encoder.Marshal(messages)
		if err != nil {
			return errors.Wrap(err, 0)
		}
		return s.spool.persist(tableName, len(messages), combined)
	}

	s.logger.Infof("Sending batch with %d messages for table %s to %s",
		len(messages), tableName, s.url)
	for i, body := range bodies {
		s.logger.Debugf("Request %d of %d is %d bytes", i+1, len(bodies), len(body))
		if err := s.timings.Time(stats.ModePostToGate, func() error {
			return s.post(s.url, body)
		}); err != nil {
			return &sink.Error{TableName: tableName, Message: err.Error(), Cause: err}
		}
	}
	return nil
}

// serialize produces the request bodies for one batch. If the serialized
// form exceeds the request size limit the batch is split in half and
// serialized recursively.
func (s *stitchSink) serialize(
	messages []gateMessage,
) ([][]byte, error) {

	serialized, err := s.encoder.Marshal(messages)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	if len(serialized) < s.maxBytes {
		return [][]byte{serialized}, nil
	}

	if len(messages) <= 1 {
		return nil, &sink.Error{
			TableName: messages[0].TableName,
			Message: fmt.Sprintf(
				"a single record is larger than the Stitch API limit of %d Mb",
				s.maxBytes/1000000,
			),
		}
	}

	pivot := len(messages) / 2
	leftHalf, err := s.serialize(messages[:pivot])
	if err != nil {
		return nil, err
	}
	rightHalf, err := s.serialize(messages[pivot:])
	if err != nil {
		return nil, err
	}
	return append(leftHalf, rightHalf...), nil
}

func (s *stitchSink) post(
	url string, body []byte,
) error {

	return postWithRetries(s.client, s.logger, url, s.headers, body)
}

// postWithRetries sends the request with exponential backoff, eight
// attempts in total. Client errors are terminal: retrying a 4xx only
// repeats the rejection.
func postWithRetries(
	client *http.Client, logger *logging.Logger, url string, headers http.Header, body []byte,
) error {

	operation := func() error {
		request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(errors.Wrap(err, 0))
		}
		request.Header = headers

		response, err := client.Do(request)
		if err != nil {
			return err
		}
		defer response.Body.Close()

		if response.StatusCode >= 300 {
			err := errors.Errorf("%s", extractErrorMessage(response))
			if response.StatusCode >= 400 && response.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Infof("Error sending data to Stitch. Sleeping %s before trying again: %s", wait, err)
	}
	return backoff.RetryNotify(operation, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 7), notify)
}

// extractErrorMessage pulls the human oriented message out of an error
// response. Stitch includes it in the `message` field of a JSON body,
// some proxies use `error`; anything else falls back to status plus the
// raw body.
func extractErrorMessage(
	response *http.Response,
) string {

	raw, err := io.ReadAll(io.LimitReader(response.Body, 64*1024))
	if err != nil {
		return response.Status
	}

	decoder := encoding.NewJsonDecoder(false)
	parsed := make(map[string]any)
	if err := decoder.Unmarshal(raw, &parsed); err == nil {
		if message, ok := parsed["message"].(string); ok {
			return message
		}
		if message, ok := parsed["error"].(string); ok {
			return message
		}
	}
	return fmt.Sprintf("%s: %s", response.Status, string(raw))
}
