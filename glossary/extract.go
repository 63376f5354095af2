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

package glossary

import (
	"context"

	"github.com/okidoki/doctranslate/llm"
	"github.com/okidoki/doctranslate/logging"
)

type classifiedTerm struct {
	Term     string `json:"term"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

type extractResult struct {
	Terms []classifiedTerm `json:"terms"`
}

// ClassifyTerms asks the model to pick out glossary-worthy terms from a
// text sample and classify each as a proper noun, technical term, company
// name, product name, or other, with a TRANSLATE/KEEP/SPECIFIC handling
// action. A classification failure yields no terms — extraction is a
// nice-to-have refinement, never a hard dependency of translation.
func ClassifyTerms(ctx context.Context, widget llm.Widget, text string) []ExtractedTerm {
	helpers := widget.Helpers()
	if helpers == nil {
		return nil
	}

	termSpec := helpers.Object(map[string]*llm.StructuredSpec{
		"term":     helpers.String(),
		"category": helpers.Select("proper_noun", "technical_term", "company_name", "product_name", "other"),
		"action":   helpers.Select("TRANSLATE", "KEEP", "SPECIFIC"),
	}, []string{"term", "category", "action"})
	output := helpers.Object(map[string]*llm.StructuredSpec{
		"terms": helpers.Array(termSpec),
	}, []string{"terms"})

	res, err := llm.AskStructured[extractResult](ctx, widget, llm.AskRequest{
		Prompt: "Identify proper nouns, technical terms, company names, and product names in the " +
			"following text that should be handled consistently when translating. For each, decide " +
			"whether it should be TRANSLATE (translate normally), KEEP (leave untranslated), or " +
			"SPECIFIC (use a fixed rendering).",
		Context: text,
		Output:  output,
	})
	if err != nil {
		logging.Warn("glossary term extraction failed: %v", err)
		return nil
	}

	out := make([]ExtractedTerm, 0, len(res.Terms))
	for _, t := range res.Terms {
		if t.Term == "" {
			continue
		}
		out = append(out, ExtractedTerm{
			Term:     t.Term,
			Category: Category(t.Category),
			Action:   Action(t.Action),
		})
	}
	return out
}
