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

package terminology

import (
	"context"

	"github.com/okidoki/doctranslate/llm"
	"github.com/okidoki/doctranslate/logging"
)

// Term is one term resolved through the knowledge base, cache-populated
// for reuse by later batches in the same document (and later documents,
// via the durable tier).
type Term struct {
	Term        string
	Translation string
	Source      string
}

// Lookup resolves terms for the given industry/target language, consulting
// the cache first and only reaching into the knowledge base on a miss.
// A knowledge-base failure yields only the terms already resolved from the
// cache; C5 is always best-effort and never fails the surrounding translation.
func Lookup(ctx context.Context, cache *Cache, widget llm.Widget, terms []string, industry, targetLang string) []Term {
	var resolved []Term
	var misses []string

	for _, t := range terms {
		if e, ok := cache.Get(t, industry, targetLang); ok {
			resolved = append(resolved, Term{Term: e.Term, Translation: e.Translation, Source: e.Source})
		} else {
			misses = append(misses, t)
		}
	}
	if len(misses) == 0 {
		return resolved
	}

	found := queryKnowledgeBase(ctx, widget, misses, industry, targetLang)
	if len(found) > 0 {
		for _, t := range found {
			cache.Put(ctx, t.Term, industry, targetLang, t.Translation, t.Source)
		}
		resolved = append(resolved, found...)
	}
	return resolved
}

type kbLookupResult struct {
	Terms []struct {
		Term        string `json:"term"`
		Translation string `json:"translation"`
	} `json:"terms"`
}

func queryKnowledgeBase(ctx context.Context, widget llm.Widget, terms []string, industry, targetLang string) []Term {
	helpers := widget.Helpers()
	if helpers == nil {
		return nil
	}

	output := helpers.Object(map[string]*llm.StructuredSpec{
		"terms": helpers.Array(helpers.Object(map[string]*llm.StructuredSpec{
			"term":        helpers.String(),
			"translation": helpers.String(),
		}, []string{"term", "translation"})),
	}, []string{"terms"})

	res, err := llm.AskStructured[kbLookupResult](ctx, widget, llm.AskRequest{
		Prompt:              "Provide the preferred target-language translation for each of the following terms, as used in the " + industry + " industry. Target language: " + targetLang + ".",
		Context:             joinTerms(terms),
		Output:              output,
		SearchKnowledgeBase: true,
		SearchQuery:         joinTerms(terms),
		SearchSource:        industry,
		SearchLimit:         10,
	})
	if err != nil {
		logging.Warn("terminology knowledge base lookup failed: %v", err)
		return nil
	}

	out := make([]Term, 0, len(res.Terms))
	for _, t := range res.Terms {
		if t.Term == "" || t.Translation == "" {
			continue
		}
		out = append(out, Term{Term: t.Term, Translation: t.Translation, Source: "knowledge_base"})
	}
	return out
}

func joinTerms(terms []string) string {
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}
