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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okidoki/doctranslate/config"
	"github.com/okidoki/doctranslate/doctree"
	"github.com/okidoki/doctranslate/industry"
	"github.com/okidoki/doctranslate/translation"
)

var (
	inputFile      string
	outputFile     string
	targetLang     string
	industryFlag   string
	maxRetry       int
	keepOnInterupt bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a document to a target language",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if targetLang == "" {
			targetLang = cfg.DefaultTargetLanguage
		}

		doc, err := readDocument(inputFile)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		retries := maxRetry
		if retries == 0 {
			retries = cfg.MaxRetryPerBatch
		}
		opts := translation.Options{
			TargetLanguage:   targetLang,
			MaxRetryPerBatch: retries,
		}
		if industryFlag != "" {
			opts.IndustryOverride = industry.Industry(industryFlag)
		}

		var interrupted atomic.Bool
		go func() {
			<-ctx.Done()
			interrupted.Store(true)
			choice := translation.CancelKeep
			if !keepOnInterupt {
				choice = translation.CancelRestore
			}
			fmt.Fprintf(os.Stderr, "\ninterrupt received, stopping after the current batch (%s)...\n", choice)
			eng.orch.Cancel()
		}()

		var finalDoc *doctree.Document
		callbacks := translation.Callbacks{
			OnProgress: func(e translation.ProgressEvent) {
				fmt.Fprintf(os.Stderr, "progress: %d%% (%d/%d batches)\n", e.Percentage, e.CompletedBatches, e.TotalBatches)
			},
			OnComplete: func(d *doctree.Document) { finalDoc = d },
			OnError: func(e translation.ErrorEvent) {
				fmt.Fprintf(os.Stderr, "warning: %s (batch %s): %s\n", kindLabel(e.Kind), e.BatchID, e.Message)
			},
			OnCancelRequest: func() translation.CancelChoice {
				if keepOnInterupt {
					return translation.CancelKeep
				}
				return translation.CancelRestore
			},
		}

		onUpdate := func(d *doctree.Document) {
			if err := writeDocument(outputFile, d); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to checkpoint output: %v\n", err)
			}
		}

		result := eng.orch.Translate(ctx, doc, opts, eng.widget, callbacks, onUpdate)
		if result.Status == translation.StatusError {
			return fmt.Errorf("translation failed: %s", result.Error)
		}
		if finalDoc != nil {
			if err := writeDocument(outputFile, finalDoc); err != nil {
				return err
			}
		}

		if interrupted.Load() {
			documentID := translation.ComputeDocumentID(doc)
			if eng.orch.CheckForIncompleteTranslation(ctx, documentID) {
				fmt.Fprintf(os.Stderr, "translation paused (document %s); resume later with: doctranslate resume --input %s --output %s\n", documentID, inputFile, outputFile)
			}
		}
		return nil
	},
}

func kindLabel(k translation.ErrorKind) string {
	switch k {
	case translation.ErrorKindBatchFailed:
		return "batch failed"
	case translation.ErrorKindKnowledgeBaseDegraded:
		return "knowledge base degraded"
	case translation.ErrorKindPersistenceDegraded:
		return "persistence degraded"
	default:
		return "error"
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "input document JSON path (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output document JSON path (required)")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "target language code (defaults to config's default_target_language)")
	translateCmd.Flags().StringVar(&industryFlag, "industry", "", "skip industry classification and use this instead")
	translateCmd.Flags().IntVar(&maxRetry, "max-retry", 0, "max retries per batch (0 uses the config default)")
	translateCmd.Flags().BoolVar(&keepOnInterupt, "keep-on-interrupt", true, "on Ctrl-C, keep partial progress instead of restoring the original")

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("output")
}
