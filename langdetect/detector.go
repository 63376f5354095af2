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

// Package langdetect implements C2: sampling the document and asking the
// LLM to name its source language.
package langdetect

import (
	"context"

	"github.com/okidoki/doctranslate/llm"
	"github.com/okidoki/doctranslate/logging"
)

const (
	sampleThreshold = 2000
	sliceLen        = 600
)

// Result is the detector's output. Confidence is normalized to 0..1.
type Result struct {
	Language   string
	Confidence float64
}

// Unknown is returned whenever detection fails for any reason; detection
// never throws (spec.md §4.2).
var Unknown = Result{Language: "Unknown", Confidence: 0}

type structuredResult struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Detect samples text and asks widget to identify its language.
func Detect(ctx context.Context, text string, widget llm.Widget) Result {
	sample := Sample(text)
	if sample == "" {
		return Unknown
	}

	helpers := widget.Helpers()
	if helpers == nil {
		logging.Warn("language detection skipped: widget has no structured-output support")
		return Unknown
	}

	output := helpers.Object(map[string]*llm.StructuredSpec{
		"language":   helpers.String(),
		"confidence": helpers.Number(),
	}, []string{"language", "confidence"})

	res, err := llm.AskStructured[structuredResult](ctx, widget, llm.AskRequest{
		Prompt: "Identify the primary language of the following document sample. " +
			"Respond with the language's common English name.",
		Context: sample,
		Output:  output,
	})
	if err != nil {
		logging.Warn("language detection failed: %v", err)
		return Unknown
	}
	if res.Language == "" {
		return Unknown
	}

	confidence := res.Confidence
	if confidence > 1 {
		confidence = confidence / 100
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Result{Language: res.Language, Confidence: confidence}
}

// Sample builds the representative sample used for detection: the whole
// text when it's under the threshold, or three 600-char slices (start,
// middle, end) separated by "[...]" markers when it's longer.
func Sample(text string) string {
	if len(text) <= sampleThreshold {
		return text
	}
	runes := []rune(text)
	n := len(runes)

	start := safeSlice(runes, 0, sliceLen)
	midStart := n/2 - sliceLen/2
	if midStart < 0 {
		midStart = 0
	}
	mid := safeSlice(runes, midStart, midStart+sliceLen)
	end := safeSlice(runes, n-sliceLen, n)

	return start + "\n[...]\n" + mid + "\n[...]\n" + end
}

func safeSlice(runes []rune, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(runes) {
		to = len(runes)
	}
	if from > to {
		from = to
	}
	return string(runes[from:to])
}
