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
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"

	"github.com/okidoki/doctranslate/logging"
)

// Generator is a single-shot LLM round trip: a prompt in, a completion out.
type Generator interface {
	Call(ctx context.Context, input string) (string, error)
}

// ReactAgent wraps an eino react.Agent with the retry/backoff policy every
// LLM round-trip in this engine shares. There is no tool loop in the
// translation engine's own calls (document translation never needs the
// model to call tools on this side), but react.Agent is reused as the
// Generator because it already owns message-modifier and callback wiring;
// ToolsConfig is simply left empty.
type ReactAgent struct {
	*react.Agent
	sysPrompt string
	retries   int
	timeout   time.Duration
}

type ReactAgentOptions struct {
	SysPrompt string
	Model     ChatModel
	MaxStep   int
	Retries   int
	Timeout   time.Duration
}

func NewReactAgent(ctx context.Context, name string, opts ReactAgentOptions) (*ReactAgent, error) {
	cfg := &react.AgentConfig{
		ToolCallingModel: opts.Model,
		MaxStep:          opts.MaxStep,
	}
	cfg.MessageModifier = newMessageModifier(opts.SysPrompt, name, opts.MaxStep)

	a, err := react.NewAgent(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create react agent")
	}

	retries := opts.Retries
	if retries == 0 {
		retries = 3
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 600 * time.Second
	}
	return &ReactAgent{
		Agent:     a,
		sysPrompt: opts.SysPrompt,
		retries:   retries,
		timeout:   timeout,
	}, nil
}

func newMessageModifier(sysPrompt, name string, limit int) func(ctx context.Context, input []*schema.Message) []*schema.Message {
	return func(ctx context.Context, input []*schema.Message) []*schema.Message {
		logging.Debug("messageModifier name=%s limit=%d input=%d", name, limit, len(input))
		res := make([]*schema.Message, 0, len(input)+1)
		res = append(res, schema.SystemMessage(sysPrompt))
		res = append(res, input...)
		return res
	}
}

// Call sends input as a single user message and returns the model's text
// content, retrying on transport-level errors with capped exponential
// backoff. Non-retryable errors (anything that isn't a recognizable
// timeout/connection failure) return immediately.
func (a *ReactAgent) Call(ctx context.Context, input string) (string, error) {
	msgs := []*schema.Message{schema.UserMessage(input)}

	var lastErr error
	for attempt := 0; attempt <= a.retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * time.Second
			if wait > 10*time.Second {
				wait = 10 * time.Second
			}
			logging.Info("retrying LLM call (attempt %d/%d) after %s", attempt+1, a.retries+1, wait)
			time.Sleep(wait)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
		out, err := a.Generate(attemptCtx, msgs, agent.WithComposeOptions(compose.WithCallbacks(callbackHandler{})))
		cancel()
		if err == nil {
			return out.Content, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return "", errors.Wrap(err, "llm call failed (non-retryable)")
		}
		logging.Warn("retryable LLM error (attempt %d/%d): %v", attempt+1, a.retries+1, err)
	}
	return "", errors.Wrap(fmt.Errorf("exhausted %d attempts: %w", a.retries+1, lastErr), "llm call failed")
}

func isRetryable(err error) bool {
	s := err.Error()
	for _, needle := range []string{
		"timeout", "connection reset", "connection refused",
		"operation timed out", "context deadline exceeded",
		"read tcp", "write tcp",
	} {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

type callbackHandler struct{}

var _ callbacks.Handler = callbackHandler{}

func (callbackHandler) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	logging.Debug("llm call start: %+v", info)
	return ctx
}

func (callbackHandler) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	return ctx
}

func (callbackHandler) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	logging.Error("llm call error: %+v: %v", info, err)
	return ctx
}

func (callbackHandler) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo, input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	return ctx
}

func (callbackHandler) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	return ctx
}
