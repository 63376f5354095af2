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

package industry

import (
	"context"
	"strings"
	"testing"

	"github.com/okidoki/doctranslate/llm"
	"github.com/stretchr/testify/require"
)

type stubWidget struct {
	result string
	err    error
	helper bool
}

func (s *stubWidget) Helpers() llm.Helpers {
	if !s.helper {
		return nil
	}
	return llm.NewJSONSchemaHelpers()
}

func (s *stubWidget) Ask(ctx context.Context, req llm.AskRequest) (llm.AskResponse, error) {
	if s.err != nil {
		return llm.AskResponse{Success: false, Error: s.err.Error()}, s.err
	}
	return llm.AskResponse{Success: true, Result: s.result}, nil
}

func TestClassifyByKeywordsHighConfidenceShortCircuits(t *testing.T) {
	text := strings.Repeat("plaintiff defendant whereas pursuant covenant jurisdiction liability indemnify tort statute clause herein ", 10)
	res := Classify(context.Background(), text, &stubWidget{helper: true, result: `{"industry":"technical"}`})
	require.Equal(t, Legal, res.Industry)
	require.GreaterOrEqual(t, res.Confidence, confidenceShortCircuit)
}

func TestClassifyLowConfidenceFallsBackToLLM(t *testing.T) {
	text := "This is a short ambiguous note about nothing in particular."
	res := Classify(context.Background(), text, &stubWidget{helper: true, result: `{"industry":"marketing"}`})
	require.Equal(t, Marketing, res.Industry)
	require.Equal(t, 1.0, res.Confidence)
}

func TestClassifyLLMFailureFallsBackToKeywordResult(t *testing.T) {
	text := "This is a short ambiguous note about nothing in particular."
	res := Classify(context.Background(), text, &stubWidget{helper: true, result: `not json`})
	require.Equal(t, General, res.Industry)
}

func TestClassifyNoHelpersUsesKeywordResultOnly(t *testing.T) {
	text := "diagnosis patient treatment symptom dosage"
	res := Classify(context.Background(), text, &stubWidget{helper: false})
	require.Equal(t, Medical, res.Industry)
}

func TestClassifyEmptyTextIsGeneralZeroConfidence(t *testing.T) {
	res := classifyByKeywords("")
	require.Equal(t, General, res.Industry)
	require.Equal(t, 0.0, res.Confidence)
}
