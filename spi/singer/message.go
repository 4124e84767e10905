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

package singer

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/singer-go/target-stitch/spi/encoding"
)

type MessageType string

const (
	MessageTypeSchema MessageType = "SCHEMA"
	MessageTypeRecord MessageType = "RECORD"
	MessageTypeState  MessageType = "STATE"
)

// State is an opaque progress marker. It is carried as the raw JSON bytes
// of the STATE message's value so emission preserves the exact upstream
// representation. A nil State represents a null checkpoint.
type State []byte

var nullLiteral = []byte("null")

func (s State) Null() bool {
	return len(s) == 0 || bytes.Equal(s, nullLiteral)
}

// Message is one decoded input line. Exactly one of Schema, Record, or
// Value is populated, depending on Type.
type Message struct {
	Type   MessageType     `json:"type"`
	Stream string          `json:"stream"`
	Schema json.RawMessage `json:"schema"`
	Record json.RawMessage `json:"record"`
	Value  json.RawMessage `json:"value"`
}

type ParseError struct {
	Line  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse message '%s': %v", e.Line, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

type ProtocolError struct {
	Line    string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s in message '%s'", e.Message, e.Line)
}

type Parser struct {
	decoder *encoding.JsonDecoder
}

func NewParser(
	decoder *encoding.JsonDecoder,
) *Parser {

	return &Parser{
		decoder: decoder,
	}
}

// Parse decodes a single input line. The returned message does not alias
// the given slice, it is safe to reuse the buffer between calls.
func (p *Parser) Parse(
	line []byte,
) (*Message, error) {

	message := &Message{}
	if err := p.decoder.Unmarshal(line, message); err != nil {
		return nil, &ParseError{Line: string(line), Cause: err}
	}

	switch message.Type {
	case MessageTypeSchema:
		if message.Stream == "" {
			return nil, &ProtocolError{Line: string(line), Message: "SCHEMA message without stream"}
		}
		if len(message.Schema) == 0 {
			return nil, &ProtocolError{Line: string(line), Message: "SCHEMA message without schema"}
		}
	case MessageTypeRecord:
		if message.Stream == "" {
			return nil, &ProtocolError{Line: string(line), Message: "RECORD message without stream"}
		}
		if len(message.Record) == 0 {
			return nil, &ProtocolError{Line: string(line), Message: "RECORD message without record"}
		}
	case MessageTypeState:
	default:
		return nil, &ProtocolError{
			Line:    string(line),
			Message: fmt.Sprintf("unknown message type '%s'", message.Type),
		}
	}

	message.detach()
	return message, nil
}

func (m *Message) detach() {
	m.Schema = bytes.Clone(m.Schema)
	m.Record = bytes.Clone(m.Record)
	m.Value = bytes.Clone(m.Value)
}
