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

// Package industry implements C3: classifying a document into one of a
// fixed set of industries, first by keyword scoring and, when that's
// inconclusive, by LLM refinement.
package industry

import (
	"context"
	"regexp"
	"strings"

	"github.com/okidoki/doctranslate/llm"
	"github.com/okidoki/doctranslate/logging"
)

// Industry is one of the fixed classification buckets.
type Industry string

const (
	Legal     Industry = "legal"
	Medical   Industry = "medical"
	Technical Industry = "technical"
	Financial Industry = "financial"
	Marketing Industry = "marketing"
	Academic  Industry = "academic"
	General   Industry = "general"
)

// confidenceShortCircuit is the keyword-score confidence above which LLM
// refinement is skipped entirely.
const confidenceShortCircuit = 0.7

var keywordSets = map[Industry][]string{
	Legal: {
		"plaintiff", "defendant", "herein", "whereas", "pursuant", "covenant",
		"jurisdiction", "liability", "indemnify", "tort", "statute", "clause",
	},
	Medical: {
		"diagnosis", "patient", "treatment", "symptom", "dosage", "prescription",
		"clinical", "therapy", "pathology", "physician", "syndrome", "prognosis",
	},
	Technical: {
		"configuration", "algorithm", "protocol", "deployment", "api", "latency",
		"runtime", "throughput", "repository", "dependency", "schema", "cluster",
	},
	Financial: {
		"equity", "dividend", "portfolio", "liquidity", "amortization", "revenue",
		"asset", "liability", "balance sheet", "valuation", "hedge", "audit",
	},
	Marketing: {
		"brand", "campaign", "audience", "engagement", "conversion", "funnel",
		"impression", "segment", "persona", "ctr", "messaging", "positioning",
	},
	Academic: {
		"hypothesis", "methodology", "citation", "literature review", "abstract",
		"empirical", "peer review", "corpus", "thesis", "findings", "dataset",
	},
}

var wordPattern = regexp.MustCompile(`[A-Za-z]+`)

// Result is the classifier's output.
type Result struct {
	Industry   Industry
	Confidence float64
}

type structuredResult struct {
	Industry Industry `json:"industry"`
}

// Classify scores text against every keyword set, and only asks the LLM to
// refine the call when the keyword score is inconclusive.
func Classify(ctx context.Context, text string, widget llm.Widget) Result {
	keywordResult := classifyByKeywords(text)
	if keywordResult.Confidence >= confidenceShortCircuit {
		return keywordResult
	}

	helpers := widget.Helpers()
	if helpers == nil {
		return keywordResult
	}

	output := helpers.Object(map[string]*llm.StructuredSpec{
		"industry": helpers.Select(
			string(Legal), string(Medical), string(Technical), string(Financial),
			string(Marketing), string(Academic), string(General),
		),
	}, []string{"industry"})

	res, err := llm.AskStructured[structuredResult](ctx, widget, llm.AskRequest{
		Prompt: "Classify the following document sample into exactly one industry: " +
			"legal, medical, technical, financial, marketing, academic, or general.",
		Context: sampleFor(text),
		Output:  output,
	})
	if err != nil || res.Industry == "" {
		logging.Warn("industry refinement failed, falling back to keyword result: %v", err)
		return keywordResult
	}
	return Result{Industry: res.Industry, Confidence: 1}
}

func classifyByKeywords(text string) Result {
	lower := strings.ToLower(text)
	wordCount := len(wordPattern.FindAllString(text, -1))
	if wordCount == 0 {
		return Result{Industry: General, Confidence: 0}
	}

	var best Industry = General
	bestScore := 0
	for ind, keywords := range keywordSets {
		score := 0
		for _, kw := range keywords {
			score += countWholeWord(lower, kw)
		}
		if score > bestScore {
			bestScore = score
			best = ind
		}
	}

	divisor := wordCount / 100
	if divisor < 1 {
		divisor = 1
	}
	confidence := float64(bestScore) / float64(divisor)
	if confidence > 1 {
		confidence = 1
	}
	return Result{Industry: best, Confidence: confidence}
}

func countWholeWord(lower, phrase string) int {
	pattern := `\b` + regexp.QuoteMeta(phrase) + `\b`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0
	}
	return len(re.FindAllString(lower, -1))
}

const sampleThreshold = 3000

func sampleFor(text string) string {
	if len(text) <= sampleThreshold {
		return text
	}
	return text[:sampleThreshold]
}
