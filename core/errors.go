// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrConfiguration indicates missing or invalid startup configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataLoad indicates the corpus could not be read or parsed.
	ErrDataLoad = errors.New("corpus load failed")

	// ErrIndexMismatch indicates a persisted embedding matrix does not match the corpus.
	ErrIndexMismatch = errors.New("embedding matrix does not match corpus")

	// ErrIndexNotReady indicates a search was attempted before the index was built.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrInvalidArticle indicates an Article failed validation.
	ErrInvalidArticle = errors.New("invalid article")

	// ErrEmptyArticleID indicates a feedback call without an article identity.
	ErrEmptyArticleID = errors.New("article id cannot be empty")

	// ErrDimensionMismatch indicates vectors of differing lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// ConfigurationError describes an invalid configuration field.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// IndexMismatchError reports the disagreeing sizes of a persisted matrix and
// the loaded corpus.
type IndexMismatchError struct {
	Rows     int
	Articles int
	// DigestChanged is set when row counts agree but the corpus content differs.
	DigestChanged bool
}

func (e *IndexMismatchError) Error() string {
	if e.DigestChanged {
		return fmt.Sprintf("%s: corpus content changed since matrix was built", ErrIndexMismatch)
	}
	return fmt.Sprintf("%s: matrix has %d rows, corpus has %d articles", ErrIndexMismatch, e.Rows, e.Articles)
}

func (e *IndexMismatchError) Is(target error) bool {
	return target == ErrIndexMismatch
}

// DataLoadError wraps a corpus read or parse failure with its source.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDataLoad, e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() []error {
	return []error{ErrDataLoad, e.Err}
}
