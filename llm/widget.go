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

package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// AskRequest is the single shape every LLM round trip in the engine goes
// through: plain completion, structured-output completion, and
// knowledge-base-augmented completion are all just fields on this request
// (spec.md §6's `ask`).
type AskRequest struct {
	Prompt    string
	Context   string
	Output    *StructuredSpec
	MaxTokens int

	SearchKnowledgeBase bool
	SearchQuery         string
	SearchSource        string
	SearchLimit         int
}

// AskResponse is what comes back. Result holds raw text when Output is nil,
// or the raw (unparsed) JSON payload when Output is set — callers use
// AskStructured to get a typed value instead of handling Result directly.
type AskResponse struct {
	Success bool
	Result  string
	Error   string
	Sources []string
}

// Widget is the host-provided LLM collaborator. A nil Helpers() return
// means the host does not expose structured-output shapes; callers must
// fall back to prose parsing (spec.md §4.8's fallback path) and skip RAG
// structured output.
type Widget interface {
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	Helpers() Helpers
}

// AskStructured sends req (which must have Output set) and unmarshals the
// result into a T. Returns an error if the widget has no structured-output
// support, the call fails, or the response isn't valid JSON for T.
func AskStructured[T any](ctx context.Context, w Widget, req AskRequest) (T, error) {
	var zero T
	if w.Helpers() == nil {
		return zero, errors.New("widget does not support structured output")
	}
	if req.Output == nil {
		return zero, errors.New("AskStructured requires req.Output")
	}
	resp, err := w.Ask(ctx, req)
	if err != nil {
		return zero, errors.Wrap(err, "ask failed")
	}
	if !resp.Success {
		return zero, errors.Errorf("ask returned failure: %s", resp.Error)
	}
	var out T
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Result)), &out); err != nil {
		return zero, errors.Wrap(err, "unmarshal structured output")
	}
	return out, nil
}

// stripCodeFence removes a leading/trailing ```json ... ``` fence some
// chat models wrap structured output in despite instructions not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
