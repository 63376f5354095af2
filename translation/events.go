/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package translation

import (
	"time"

	"github.com/okidoki/doctranslate/doctree"
	"github.com/okidoki/doctranslate/industry"
)

// Options configures one translation run.
type Options struct {
	TargetLanguage string
	// IndustryOverride skips C3 classification entirely when set.
	IndustryOverride industry.Industry
	// MaxRetryPerBatch bounds how many times a single batch is retried
	// before it's reported as failed (ErrorKindBatchFailed) and the run
	// stops (SPEC_FULL.md §10's node-granular retry supplement).
	MaxRetryPerBatch int
}

const defaultMaxRetryPerBatch = 2

func (o Options) maxRetryPerBatch() int {
	if o.MaxRetryPerBatch <= 0 {
		return defaultMaxRetryPerBatch
	}
	return o.MaxRetryPerBatch
}

// CancelChoice is the host's answer to a cancellation request, resolved
// through Callbacks.OnCancelRequest.
type CancelChoice string

const (
	// CancelKeep stops the run but keeps whatever has been translated so
	// far in persisted state, so the run can be resumed later.
	CancelKeep CancelChoice = "keep"
	// CancelRestore stops the run and discards its persisted state. The
	// caller's original document is never modified by a run either way.
	CancelRestore CancelChoice = "restore"
)

// RunStatus is the orchestrator's phase, reported on ProgressEvent and, in
// its terminal form, on Result.
type RunStatus string

const (
	StatusIdle        RunStatus = "idle"
	StatusPreparing   RunStatus = "preparing"
	StatusTranslating RunStatus = "translating"
	StatusPaused      RunStatus = "paused"
	StatusCompleted   RunStatus = "completed"
	StatusCancelled   RunStatus = "cancelled"
	StatusError       RunStatus = "error"
)

// ErrorKind distinguishes the error-handling paths described in spec.md §7.
type ErrorKind int

const (
	// ErrorKindBatchFailed is a single batch that exhausted its retries.
	// This is fatal: the orchestrator stops the run, recording the index
	// of the batch that failed.
	ErrorKindBatchFailed ErrorKind = iota + 1
	// ErrorKindKnowledgeBaseDegraded is a RAG lookup failure; translation
	// continues without that term's company-preferred rendering.
	ErrorKindKnowledgeBaseDegraded
	// ErrorKindPersistenceDegraded is a durable-storage failure; the run
	// continues in memory-only mode for checkpointing.
	ErrorKindPersistenceDegraded
)

// ErrorEvent is reported through Callbacks.OnError. BatchIndex is -1 when
// the error isn't attributable to a single batch (e.g. no translatable
// content at all).
type ErrorEvent struct {
	Kind       ErrorKind
	Message    string
	BatchID    string
	BatchIndex int
}

// ProgressEvent is reported through Callbacks.OnProgress once after each
// completed batch; phase changes on their own emit no event. It marks
// milestone crossings that trigger a full document rebuild. Percentage is
// round(completedBatches/totalBatches × 100).
type ProgressEvent struct {
	Status                 RunStatus
	Percentage             int
	CurrentSection         string
	CompletedBatches       int
	TotalBatches           int
	EstimatedTimeRemaining time.Duration
	SourceLanguage         string
	TargetLanguage         string
	MilestonesCrossed      []int
}

// Result is what Translate/Resume return once a run stops, one way or
// another: the run completed, was cancelled, or hit a fatal error.
type Result struct {
	Status         RunStatus
	SourceLanguage string
	TargetLanguage string
	Progress       int
	// UserChoice is set only when Status is StatusCancelled.
	UserChoice CancelChoice
	// Error is set only when Status is StatusError.
	Error string
}

// Callbacks lets the host observe and steer a run.
type Callbacks struct {
	OnProgress      func(ProgressEvent)
	OnComplete      func(finalTree *doctree.Document)
	OnError         func(ErrorEvent)
	OnCancelRequest func() CancelChoice
}

func (c Callbacks) reportProgress(e ProgressEvent) {
	if c.OnProgress != nil {
		c.OnProgress(e)
	}
}

func (c Callbacks) reportComplete(doc *doctree.Document) {
	if c.OnComplete != nil {
		c.OnComplete(doc)
	}
}

func (c Callbacks) reportError(e ErrorEvent) {
	if c.OnError != nil {
		c.OnError(e)
	}
}
