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
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/go-errors/errors"
	"github.com/hashicorp/go-uuid"
	"github.com/inhies/go-bytesize"
	"github.com/singer-go/target-stitch/internal/stats"
	"github.com/singer-go/target-stitch/internal/supporting/logging"
	"github.com/singer-go/target-stitch/spi/config"
	"github.com/singer-go/target-stitch/spi/encoding"
	"github.com/singer-go/target-stitch/spi/sink"
)

// spooler handles batches too large for the gate: the serialized batch is
// uploaded to S3 and the spool endpoint is notified with the batch
// metadata so the pipeline picks it up asynchronously.
type spooler struct {
	s3Client  *s3.S3
	client    *http.Client
	encoder   *encoding.JsonEncoder
	logger    *logging.Logger
	timings   *stats.Service
	headers   http.Header
	bucket    string
	url       string
	clientId  int64
	threshold int
}

func newSpooler(
	c *config.Config, logger *logging.Logger, timings *stats.Service, headers http.Header,
) (*spooler, error) {

	bucket := config.GetOrDefault(c, config.PropertySpoolS3Bucket, "")
	spoolUrl := config.GetOrDefault(c, config.PropertySpoolUrl, "")

	if bucket == "" || spoolUrl == "" {
		return nil, errors.Errorf("spooling requires both stitch.spool.s3bucket and stitch.spool.url")
	}

	threshold, err := bytesize.Parse(
		config.GetOrDefault(c, config.PropertySpoolThreshold, config.DefaultBatchMaxBytes),
	)
	if err != nil {
		return nil, errors.Errorf("Failed to parse spool threshold => %s", err.Error())
	}

	awsSession, err := session.NewSession(&aws.Config{
		Region: aws.String(config.GetOrDefault(c, config.PropertySpoolS3Region, "us-east-1")),
	})
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return &spooler{
		s3Client:  s3.New(awsSession),
		client:    &http.Client{},
		encoder:   encoding.NewJsonEncoderWithConfig(c),
		logger:    logger,
		timings:   timings,
		headers:   headers,
		bucket:    bucket,
		url:       spoolUrl,
		clientId:  config.GetOrDefault(c, config.PropertyStitchClientId, int64(0)),
		threshold: int(threshold),
	}, nil
}

func (sp *spooler) persist(
	tableName string, numRecords int, data []byte,
) error {

	keyName, err := sp.generateKey()
	if err != nil {
		return err
	}

	sp.logger.Infof("Sending batch with %d messages for table %s to s3 %s",
		numRecords, tableName, keyName)

	if err := sp.timings.Time(stats.ModePostToS3, func() error {
		_, err := sp.s3Client.PutObject(&s3.PutObjectInput{
			Bucket: aws.String(sp.bucket),
			Key:    aws.String(keyName),
			Body:   bytes.NewReader(data),
		})
		return err
	}); err != nil {
		return &sink.Error{TableName: tableName, Message: err.Error(), Cause: err}
	}

	notification := map[string]any{
		"table_name":         tableName,
		"action":             "upsert",
		"max_time_extracted": time.Now().UTC().Format("2006-01-02T15:04:05.000000Z"),
		"s3_key":             keyName,
		"s3_bucket":          sp.bucket,
		"num_records":        numRecords,
		"num_bytes":          len(data),
		"format":             "json",
	}

	body, err := sp.encoder.Marshal(notification)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	if err := sp.timings.Time(stats.ModePostToSpool, func() error {
		return postWithRetries(sp.client, sp.logger, sp.url, sp.headers, body)
	}); err != nil {
		return &sink.Error{TableName: tableName, Message: err.Error(), Cause: err}
	}
	return nil
}

func (sp *spooler) generateKey() (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", errors.Wrap(err, 0)
	}
	return fmt.Sprintf("%07d/%s-%s",
		sp.clientId, id, time.Now().UTC().Format("20060102-150405.000000"),
	), nil
}
