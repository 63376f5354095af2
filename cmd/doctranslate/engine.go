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

	"github.com/pkg/errors"

	"github.com/okidoki/doctranslate/config"
	"github.com/okidoki/doctranslate/kvstore"
	"github.com/okidoki/doctranslate/llm"
	"github.com/okidoki/doctranslate/logging"
	"github.com/okidoki/doctranslate/translation"
)

// engine bundles the pieces every subcommand needs: a configured Widget to
// talk to the model (and optional knowledge base), an Orchestrator wired to
// the same durable store the terminology cache and persistence share, and
// the store itself so main can close it on exit.
type engine struct {
	widget llm.Widget
	orch   *translation.Orchestrator
	store  kvstore.Store
}

func buildEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	store, err := openStore(ctx, cfg.StorePath)
	if err != nil {
		return nil, err
	}

	model, err := llm.NewChatModel(ctx, cfg.ModelConfig())
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "create chat model")
	}

	agent, err := llm.NewReactAgent(ctx, "doctranslate", llm.ReactAgentOptions{
		SysPrompt: "You are a professional document translator. Follow the operator's instructions exactly and never add commentary outside what is asked for.",
		Model:     model,
	})
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "create agent")
	}

	widget := &llm.DefaultWidget{Gen: agent}

	if cfg.HasKnowledgeBase() {
		kb, err := llm.NewMCPKnowledgeBase(ctx, cfg.KnowledgeBaseConfig())
		if err != nil {
			logging.Warn("knowledge base unavailable, continuing without RAG: %v", err)
		} else {
			widget.KB = kb
		}
	}

	orch := translation.NewOrchestrator(store)
	orch.Warm(ctx)

	return &engine{widget: widget, orch: orch, store: store}, nil
}

func (e *engine) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

func openStore(ctx context.Context, path string) (kvstore.Store, error) {
	if path == "" || path == "memory" {
		return kvstore.NewMemoryStore(), nil
	}
	store, err := kvstore.NewSQLiteStore(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return store, nil
}
