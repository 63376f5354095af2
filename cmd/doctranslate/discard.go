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

	"github.com/spf13/cobra"

	"github.com/okidoki/doctranslate/config"
	"github.com/okidoki/doctranslate/translation"
)

var discardCmd = &cobra.Command{
	Use:   "discard <documentID>",
	Short: "Discard a document's persisted in-progress translation state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		ctx := context.Background()
		store, err := openStore(ctx, cfg.StorePath)
		if err != nil {
			return err
		}
		defer store.Close()

		orch := translation.NewOrchestrator(store)
		orch.DiscardIncomplete(ctx, args[0])
		fmt.Printf("discarded persisted state for %s\n", args[0])
		return nil
	},
}

// list shows every document with incomplete, persisted translation state —
// the SPEC_FULL.md §10 supplemented cross-document listing feature.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents with an incomplete, resumable translation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		ctx := context.Background()
		store, err := openStore(ctx, cfg.StorePath)
		if err != nil {
			return err
		}
		defer store.Close()

		orch := translation.NewOrchestrator(store)
		summaries := orch.ListIncompleteTranslations(ctx)
		if len(summaries) == 0 {
			fmt.Println("no incomplete translations")
			return nil
		}
		for _, s := range summaries {
			fmt.Printf("%s\t%s->%s\t%d batches done\tupdated %s\n",
				s.DocumentID, s.SourceLanguage, s.TargetLanguage, s.BatchesDone, s.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discardCmd)
	rootCmd.AddCommand(listCmd)
}
