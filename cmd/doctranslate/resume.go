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
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okidoki/doctranslate/config"
	"github.com/okidoki/doctranslate/doctree"
	"github.com/okidoki/doctranslate/translation"
)

var resumeInputFile, resumeOutputFile string

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a previously interrupted translation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		doc, err := readDocument(resumeInputFile)
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

		documentID := translation.ComputeDocumentID(doc)
		if !eng.orch.CheckForIncompleteTranslation(ctx, documentID) {
			return fmt.Errorf("no incomplete translation found for document %s (input must match the file the original run started from)", documentID)
		}

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\ninterrupt received, stopping after the current batch (progress stays persisted)...")
			eng.orch.Cancel()
		}()

		var finalDoc *doctree.Document
		callbacks := translation.Callbacks{
			OnProgress: func(e translation.ProgressEvent) {
				fmt.Fprintf(os.Stderr, "progress: %d%% (%d/%d batches)\n", e.Percentage, e.CompletedBatches, e.TotalBatches)
			},
			OnComplete:      func(d *doctree.Document) { finalDoc = d },
			OnCancelRequest: func() translation.CancelChoice { return translation.CancelKeep },
		}

		result := eng.orch.Resume(ctx, doc, eng.widget, callbacks, nil)
		if result.Status == translation.StatusError {
			return fmt.Errorf("resume failed: %s", result.Error)
		}
		if finalDoc == nil {
			fmt.Fprintln(os.Stderr, "translation paused again; progress remains persisted for a later resume")
			return nil
		}
		return writeDocument(resumeOutputFile, finalDoc)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().StringVarP(&resumeInputFile, "input", "i", "", "original input document JSON path (required, same file the run started from)")
	resumeCmd.Flags().StringVarP(&resumeOutputFile, "output", "o", "", "output document JSON path (required)")

	resumeCmd.MarkFlagRequired("input")
	resumeCmd.MarkFlagRequired("output")
}
