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
	"fmt"
	"strings"

	"github.com/okidoki/doctranslate/logging"
)

// DefaultWidget is the production Widget: a single Generator (typically a
// ReactAgent over one of the eino-ext chat models) plus an optional
// knowledge base for RAG lookups.
type DefaultWidget struct {
	Gen Generator
	KB  KnowledgeBase
}

var _ Widget = (*DefaultWidget)(nil)

func (w *DefaultWidget) Helpers() Helpers {
	return jsonschemaHelpers{}
}

func (w *DefaultWidget) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	var sources []string
	contextBlock := req.Context

	if req.SearchKnowledgeBase && w.KB != nil {
		results, err := w.KB.Search(ctx, req.SearchQuery, req.SearchSource, req.SearchLimit)
		if err != nil {
			// RAG is best-effort everywhere it's used (C5); a lookup
			// failure degrades to "no extra context", not a fatal error.
			logging.Warn("knowledge base search failed: %v", err)
		} else {
			var sb strings.Builder
			for _, r := range results {
				sb.WriteString("- ")
				sb.WriteString(r.Text)
				sb.WriteString("\n")
				if r.Source != "" {
					sources = append(sources, r.Source)
				}
			}
			if sb.Len() > 0 {
				if contextBlock != "" {
					contextBlock += "\n\n"
				}
				contextBlock += "KNOWLEDGE BASE RESULTS:\n" + sb.String()
			}
		}
	}

	prompt := buildPrompt(req.Prompt, contextBlock, req.Output)

	text, err := w.Gen.Call(ctx, prompt)
	if err != nil {
		return AskResponse{Success: false, Error: err.Error()}, err
	}
	return AskResponse{Success: true, Result: text, Sources: sources}, nil
}

func buildPrompt(prompt, contextBlock string, output *StructuredSpec) string {
	var sb strings.Builder
	if contextBlock != "" {
		sb.WriteString(contextBlock)
		sb.WriteString("\n\n")
	}
	sb.WriteString(prompt)
	if output != nil {
		sb.WriteString(fmt.Sprintf(
			"\n\nReturn ONLY a single JSON value matching this schema, with no markdown fence and no commentary:\n%s\n",
			output.String(),
		))
	}
	return sb.String()
}
