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
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okidoki/doctranslate/doctree"
	"github.com/okidoki/doctranslate/glossary"
	"github.com/okidoki/doctranslate/industry"
	"github.com/okidoki/doctranslate/kvstore"
	"github.com/okidoki/doctranslate/langdetect"
	"github.com/okidoki/doctranslate/llm"
	"github.com/okidoki/doctranslate/terminology"
)

// documentIDSampleLimit bounds how much of the document's text feeds the
// hash — enough to distinguish documents in practice without hashing
// arbitrarily large trees on every call.
const documentIDSampleLimit = 10000

// secondsPerRemainingBatch is the crude per-batch time estimate used for
// ProgressEvent.EstimatedTimeRemaining.
const secondsPerRemainingBatch = 4

// ComputeDocumentID derives a stable identifier for a document from its
// text content: a 32-bit FNV-1a hash of the first 10,000 characters,
// base36-encoded and prefixed "doc_". Two documents with the same visible
// text get the same id, which is what lets a resumed run recognize "this
// is the document I was translating" without any caller-supplied id.
func ComputeDocumentID(doc *doctree.Document) string {
	text := doctree.ExtractDocumentText(doc)
	runes := []rune(text)
	if len(runes) > documentIDSampleLimit {
		runes = runes[:documentIDSampleLimit]
	}
	h := fnv.New32a()
	h.Write([]byte(string(runes)))
	return "doc_" + strconv.FormatUint(uint64(h.Sum32()), 36)
}

// Orchestrator is C11: it wires C2 through C10 together into one
// resumable translation run. A single Orchestrator can be reused across
// many sequential runs (they never overlap: Translate/Resume block until
// the run finishes, is cancelled, or fails fatally).
type Orchestrator struct {
	persistence *PersistenceStore
	cache       *terminology.Cache

	mu        sync.Mutex
	activeRun *run
}

// NewOrchestrator wires a durable store into both the persistence layer
// (C10) and the terminology cache's durable tier (C4). store may be nil
// for a purely in-memory, non-resumable setup.
func NewOrchestrator(store kvstore.Store) *Orchestrator {
	cache := terminology.NewCache(store)
	return &Orchestrator{
		persistence: NewPersistenceStore(store),
		cache:       cache,
	}
}

// Warm loads the terminology cache's persisted entries. Callers should
// invoke this once at startup, before the first Translate/Resume call.
func (o *Orchestrator) Warm(ctx context.Context) {
	o.cache.Load(ctx)
}

// CheckForIncompleteTranslation reports whether documentID has a
// resumable, persisted run.
func (o *Orchestrator) CheckForIncompleteTranslation(ctx context.Context, documentID string) bool {
	return o.persistence.HasIncompleteTranslation(ctx, documentID)
}

// GetIncompleteSummary returns a redacted summary of documentID's
// persisted run, if any.
func (o *Orchestrator) GetIncompleteSummary(ctx context.Context, documentID string) (Summary, bool) {
	return o.persistence.GetIncompleteSummary(ctx, documentID)
}

// ListIncompleteTranslations enumerates every persisted run across every
// document (SPEC_FULL.md §10's supplement over the single-document
// summary).
func (o *Orchestrator) ListIncompleteTranslations(ctx context.Context) []Summary {
	return o.persistence.ListIncomplete(ctx)
}

// DiscardIncomplete removes documentID's persisted state without
// resuming it.
func (o *Orchestrator) DiscardIncomplete(ctx context.Context, documentID string) {
	o.persistence.Discard(ctx, documentID)
}

// run holds the mutable state of one in-flight translation, reachable
// from the Orchestrator so Cancel/GetProgress/GetState can observe and
// steer it from another goroutine while Translate/Resume is running.
type run struct {
	documentID string
	options    Options
	widget     llm.Widget
	callbacks  Callbacks
	onUpdate   func(*doctree.Document)

	acc         *Accumulator
	glossaryMgr *glossary.Manager
	batches     []Batch
	completed   map[string]bool
	startedAt   time.Time
	sourceLang  string
	industry    industry.Industry

	cancelRequested atomic.Bool
}

// GetProgress returns the active run's progress, or (0, 0) when nothing
// is running.
func (o *Orchestrator) GetProgress() (completed, total int) {
	o.mu.Lock()
	r := o.activeRun
	o.mu.Unlock()
	if r == nil {
		return 0, 0
	}
	return r.acc.Progress()
}

// GetState returns the active run's document id and target language, or
// ok=false when nothing is running.
func (o *Orchestrator) GetState() (documentID, targetLanguage string, ok bool) {
	o.mu.Lock()
	r := o.activeRun
	o.mu.Unlock()
	if r == nil {
		return "", "", false
	}
	return r.documentID, r.options.TargetLanguage, true
}

// Cancel requests that the active run stop at the next batch boundary.
// It has no effect if no run is active, or if one is active but hasn't
// reached a batch boundary by the time it finishes on its own.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	r := o.activeRun
	o.mu.Unlock()
	if r != nil {
		r.cancelRequested.Store(true)
	}
}

// Translate runs a full translation from scratch: language detection,
// industry classification, glossary setup, batching, and batch-by-batch
// translation, checkpointing after every batch. doc itself is never
// mutated — every read and write happens against a deep clone (I10, R1).
func (o *Orchestrator) Translate(
	ctx context.Context,
	doc *doctree.Document,
	opts Options,
	widget llm.Widget,
	callbacks Callbacks,
	onUpdate func(*doctree.Document),
) Result {
	documentID := ComputeDocumentID(doc)
	clone := doctree.CloneDocument(doc)

	r := &run{
		documentID:  documentID,
		options:     opts,
		widget:      widget,
		callbacks:   callbacks,
		onUpdate:    onUpdate,
		acc:         NewAccumulator(clone),
		glossaryMgr: glossary.NewManager(),
		completed:   make(map[string]bool),
		startedAt:   time.Now(),
	}
	o.setActiveRun(r)
	defer o.setActiveRun(nil)

	text := doctree.ExtractDocumentText(clone)
	langResult := langdetect.Detect(ctx, text, widget)
	r.sourceLang = langResult.Language

	if opts.IndustryOverride != "" {
		r.industry = opts.IndustryOverride
	} else {
		r.industry = industry.Classify(ctx, text, widget).Industry
	}

	r.glossaryMgr.SetContext(r.industry, opts.TargetLanguage)
	o.seedGlossaryFromKnowledgeBase(ctx, r, text)

	sections := ExtractSections(clone)
	r.batches = BuildBatches(sections)
	if len(r.batches) == 0 {
		return o.noTranslatableContentResult(ctx, r)
	}

	return o.resolveOutcome(ctx, r)
}

// Resume continues a persisted run from where it left off: batches
// already recorded complete are skipped, the glossary and accumulator are
// restored, and translation continues from the first incomplete batch.
// doc itself is never mutated, the same as Translate.
func (o *Orchestrator) Resume(
	ctx context.Context,
	doc *doctree.Document,
	widget llm.Widget,
	callbacks Callbacks,
	onUpdate func(*doctree.Document),
) Result {
	documentID := ComputeDocumentID(doc)
	persisted, ok := o.persistence.Load(ctx, documentID)
	if !ok {
		return Result{Status: StatusError, Error: "no incomplete translation found for this document"}
	}
	clone := doctree.CloneDocument(doc)

	r := &run{
		documentID: documentID,
		options:    Options{TargetLanguage: persisted.TargetLanguage},
		widget:     widget,
		callbacks:  callbacks,
		onUpdate:   onUpdate,
		acc:        NewAccumulator(clone),
		glossaryMgr: func() *glossary.Manager {
			m := glossary.NewManager()
			m.RestoreGlossary(persisted.GlossaryEntries)
			return m
		}(),
		completed:  make(map[string]bool, len(persisted.CompletedBatchIDs)),
		startedAt:  persisted.StartedAt,
		sourceLang: persisted.SourceLanguage,
		industry:   industry.Industry(persisted.Industry),
	}
	for _, id := range persisted.CompletedBatchIDs {
		r.completed[id] = true
	}
	r.acc.Restore(stringKeyedToIntKeyed(persisted.TranslatedParagraphs))

	o.setActiveRun(r)
	defer o.setActiveRun(nil)

	sections := ExtractSections(clone)
	r.batches = BuildBatches(sections)
	if len(r.batches) == 0 {
		return o.noTranslatableContentResult(ctx, r)
	}

	return o.resolveOutcome(ctx, r)
}

func (o *Orchestrator) setActiveRun(r *run) {
	o.mu.Lock()
	o.activeRun = r
	o.mu.Unlock()
}

func (o *Orchestrator) seedGlossaryFromKnowledgeBase(ctx context.Context, r *run, text string) {
	sample := text
	if len(sample) > documentIDSampleLimit {
		sample = sample[:documentIDSampleLimit]
	}
	extracted := glossary.ClassifyTerms(ctx, r.widget, sample)
	r.glossaryMgr.ExtractTerms(extracted)

	terms := make([]string, 0, len(extracted))
	for _, t := range extracted {
		terms = append(terms, t.Term)
	}
	if len(terms) == 0 {
		return
	}
	ragTerms := terminology.Lookup(ctx, o.cache, r.widget, terms, string(r.industry), r.options.TargetLanguage)
	r.glossaryMgr.MergeRagTerms(ragTerms)
}

// runOutcome reports how runBatches stopped, so resolveOutcome knows what
// Result to build.
type runOutcome int

const (
	outcomeCompleted runOutcome = iota
	outcomeCancelKept
	outcomeCancelRestored
	outcomeError
)

func (o *Orchestrator) runBatches(ctx context.Context, r *run) (outcome runOutcome, failedIndex int, errMsg string) {
	industryLine := "This document belongs to the " + string(r.industry) + " industry."

	for i := 0; i < len(r.batches); i++ {
		batch := r.batches[i]
		if r.completed[batch.ID] {
			continue
		}

		if r.cancelRequested.Load() {
			choice := CancelRestore
			if r.callbacks.OnCancelRequest != nil {
				choice = r.callbacks.OnCancelRequest()
			}
			if choice == CancelKeep {
				o.checkpoint(ctx, r)
				return outcomeCancelKept, -1, ""
			}
			o.persistence.Discard(ctx, r.documentID)
			return outcomeCancelRestored, -1, ""
		}

		result := o.translateWithRetry(ctx, r, batch, industryLine)
		if result == nil {
			msg := "batch exhausted its retries and was left untranslated"
			r.callbacks.reportError(ErrorEvent{
				Kind:       ErrorKindBatchFailed,
				Message:    msg,
				BatchID:    batch.ID,
				BatchIndex: i,
			})
			// Fatal: stop the loop and leave persisted state intact so the
			// caller can resume from the last successful checkpoint.
			return outcomeError, i, msg
		}

		r.completed[batch.ID] = true
		r.glossaryMgr.UpdateFromBatch(result.NewTerms)
		crossed := r.acc.AddBatch(result.Batch)

		o.checkpoint(ctx, r)
		o.emitProgress(r, batch.SectionHeading, crossed)

		if len(crossed) > 0 && r.onUpdate != nil {
			r.onUpdate(r.acc.RebuildDocument())
		}
	}
	return outcomeCompleted, -1, ""
}

// resolveOutcome runs the batch loop to its conclusion and translates
// that conclusion into the Result spec.md's translate()/resume() contract
// promises.
func (o *Orchestrator) resolveOutcome(ctx context.Context, r *run) Result {
	outcome, _, errMsg := o.runBatches(ctx, r)
	switch outcome {
	case outcomeCancelKept:
		return Result{
			Status:         StatusCancelled,
			SourceLanguage: r.sourceLang,
			TargetLanguage: r.options.TargetLanguage,
			Progress:       batchPercentage(r),
			UserChoice:     CancelKeep,
		}
	case outcomeCancelRestored:
		return Result{
			Status:         StatusCancelled,
			SourceLanguage: r.sourceLang,
			TargetLanguage: r.options.TargetLanguage,
			Progress:       batchPercentage(r),
			UserChoice:     CancelRestore,
		}
	case outcomeError:
		return Result{
			Status:         StatusError,
			SourceLanguage: r.sourceLang,
			TargetLanguage: r.options.TargetLanguage,
			Progress:       batchPercentage(r),
			Error:          errMsg,
		}
	default:
		return o.finish(ctx, r)
	}
}

// noTranslatableContentResult implements spec.md §4.11 phase 4: an empty
// batch list is a fatal error, reported the same way a failed batch is,
// just without a batch index to attribute it to.
func (o *Orchestrator) noTranslatableContentResult(ctx context.Context, r *run) Result {
	const msg = "No translatable content found in the document"
	r.callbacks.reportError(ErrorEvent{Kind: ErrorKindBatchFailed, Message: msg, BatchIndex: -1})
	return Result{
		Status:         StatusError,
		SourceLanguage: r.sourceLang,
		TargetLanguage: r.options.TargetLanguage,
		Error:          msg,
	}
}

// batchPercentage is round(completedBatches/totalBatches × 100).
func batchPercentage(r *run) int {
	total := len(r.batches)
	if total == 0 {
		return 0
	}
	completed := len(r.completed)
	return (completed*100 + total/2) / total
}

func (o *Orchestrator) translateWithRetry(ctx context.Context, r *run, batch Batch, industryLine string) *BatchResult {
	glossaryPrompt := r.glossaryMgr.BuildGlossaryPrompt()
	attempts := r.options.maxRetryPerBatch() + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if result := TranslateBatch(ctx, batch, r.widget, industryLine, glossaryPrompt, r.options.TargetLanguage); result != nil {
			return result
		}
	}
	return nil
}

func (o *Orchestrator) emitProgress(r *run, sectionHeading string, crossed []int) {
	completedBatches := len(r.completed)
	totalBatches := len(r.batches)
	remaining := totalBatches - completedBatches
	if remaining < 0 {
		remaining = 0
	}
	r.callbacks.reportProgress(ProgressEvent{
		Status:                 StatusTranslating,
		Percentage:             batchPercentage(r),
		CurrentSection:         sectionHeading,
		CompletedBatches:       completedBatches,
		TotalBatches:           totalBatches,
		EstimatedTimeRemaining: time.Duration(remaining*secondsPerRemainingBatch) * time.Second,
		SourceLanguage:         r.sourceLang,
		TargetLanguage:         r.options.TargetLanguage,
		MilestonesCrossed:      crossed,
	})
}

func (o *Orchestrator) checkpoint(ctx context.Context, r *run) {
	completedIDs := make([]string, 0, len(r.completed))
	for id := range r.completed {
		completedIDs = append(completedIDs, id)
	}
	o.persistence.Save(ctx, &PersistedState{
		DocumentID:           r.documentID,
		SourceLanguage:       r.sourceLang,
		TargetLanguage:       r.options.TargetLanguage,
		Industry:             string(r.industry),
		TotalBatches:         len(r.batches),
		CompletedBatchIDs:    completedIDs,
		TranslatedParagraphs: intKeyedToStringKeyed(r.acc),
		GlossaryEntries:      r.glossaryMgr.GetGlossary(),
		StartedAt:            r.startedAt,
		UpdatedAt:            time.Now(),
	})
}

// finish implements spec.md §4.11 phase 8: the loop ran every batch to
// completion, so persisted state is cleared and onComplete fires with the
// final rebuild.
func (o *Orchestrator) finish(ctx context.Context, r *run) Result {
	finalDoc := r.acc.RebuildDocument()
	o.persistence.Discard(ctx, r.documentID)
	r.callbacks.reportComplete(finalDoc)
	return Result{
		Status:         StatusCompleted,
		SourceLanguage: r.sourceLang,
		TargetLanguage: r.options.TargetLanguage,
		Progress:       100,
	}
}

func stringKeyedToIntKeyed(in map[string][]*doctree.Node) map[int][]*doctree.Node {
	out := make(map[int][]*doctree.Node, len(in))
	for k, v := range in {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[idx] = v
	}
	return out
}

func intKeyedToStringKeyed(acc *Accumulator) map[string][]*doctree.Node {
	acc.mu.Lock()
	defer acc.mu.Unlock()
	out := make(map[string][]*doctree.Node, len(acc.translatedParagraphs))
	for k, v := range acc.translatedParagraphs {
		out[strconv.Itoa(k)] = v
	}
	return out
}

