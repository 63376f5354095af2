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
	"encoding/json"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
)

// KBResult is one hit from the company knowledge base.
type KBResult struct {
	Text   string
	Source string
}

// KnowledgeBase is the channel C5 consults. The default implementation
// reaches a company knowledge-base MCP server; tests and embedders that
// don't have one can supply their own (including a nil KnowledgeBase,
// which Ask treats as "no RAG available").
type KnowledgeBase interface {
	Search(ctx context.Context, query, source string, limit int) ([]KBResult, error)
}

// MCPKnowledgeBaseConfig configures the MCP transport used to reach the
// knowledge-base server, mirroring the teacher's own MCPConfig/MCPClient
// (llm/tool/mcp.go) generalized from "repo AST" tools to a single
// "search_knowledge_base" tool.
type MCPKnowledgeBaseConfig struct {
	Command string
	Args    []string
	Envs    []string
	SSEURL  string
	// ToolName is the MCP tool invoked for search; defaults to
	// "search_knowledge_base".
	ToolName string
}

type mcpKnowledgeBase struct {
	cli      *client.Client
	toolName string
}

// NewMCPKnowledgeBase starts (or connects to) an MCP server exposing a
// knowledge-base search tool.
func NewMCPKnowledgeBase(ctx context.Context, cfg MCPKnowledgeBaseConfig) (KnowledgeBase, error) {
	var cli *client.Client
	var err error
	switch {
	case cfg.SSEURL != "":
		cli, err = client.NewSSEMCPClient(cfg.SSEURL)
	case cfg.Command != "":
		cli, err = client.NewStdioMCPClient(cfg.Command, cfg.Envs, cfg.Args...)
	default:
		return nil, errors.New("either Command or SSEURL must be set")
	}
	if err != nil {
		return nil, errors.Wrap(err, "create mcp client")
	}
	if err := cli.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "start mcp client")
	}
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "doctranslate", Version: "1.0.0"}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		return nil, errors.Wrap(err, "initialize mcp client")
	}

	toolName := cfg.ToolName
	if toolName == "" {
		toolName = "search_knowledge_base"
	}
	return &mcpKnowledgeBase{cli: cli, toolName: toolName}, nil
}

type kbSearchArgs struct {
	Query  string `json:"query"`
	Source string `json:"source,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

func (k *mcpKnowledgeBase) Search(ctx context.Context, query, source string, limit int) ([]KBResult, error) {
	args, err := structFields(kbSearchArgs{Query: query, Source: source, Limit: limit})
	if err != nil {
		return nil, err
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = k.toolName
	req.Params.Arguments = args

	res, err := k.cli.CallTool(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "call knowledge base tool")
	}
	if res.IsError {
		return nil, errors.New("knowledge base tool returned an error")
	}

	var out []KBResult
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			out = append(out, KBResult{Text: tc.Text})
		}
	}
	return out, nil
}

func structFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
