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

package langdetect

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

func TestSampleShortTextUnchanged(t *testing.T) {
	text := "short document body"
	require.Equal(t, text, Sample(text))
}

func TestSampleLongTextTakesThreeSlices(t *testing.T) {
	text := strings.Repeat("a", 5000)
	sample := Sample(text)
	require.Contains(t, sample, "[...]")
	require.Less(t, len(sample), len(text))
}

func TestDetectReturnsUnknownWithoutHelpers(t *testing.T) {
	res := Detect(context.Background(), "hello world", &stubWidget{helper: false})
	require.Equal(t, Unknown, res)
}

func TestDetectNormalizesPercentConfidence(t *testing.T) {
	w := &stubWidget{helper: true, result: `{"language":"French","confidence":87}`}
	res := Detect(context.Background(), "Bonjour le monde, ceci est un texte.", w)
	require.Equal(t, "French", res.Language)
	require.InDelta(t, 0.87, res.Confidence, 0.0001)
}

func TestDetectFailureReturnsUnknown(t *testing.T) {
	w := &stubWidget{helper: true, result: `not json`}
	res := Detect(context.Background(), "some text to sample", w)
	require.Equal(t, Unknown, res)
}

func TestDetectEmptyTextReturnsUnknown(t *testing.T) {
	res := Detect(context.Background(), "", &stubWidget{helper: true, result: `{}`})
	require.Equal(t, Unknown, res)
}
