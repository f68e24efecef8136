// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package goopenai

import (
	"context"

	"github.com/poiesic/ticketrank/ai"
)

// Provider implements ai.AIProvider using go-openai clients.
type Provider struct {
	embedder  *Embedder
	completer *Completer
}

// NewProvider validates config and builds both services.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	completer, err := newCompleter(config)
	if err != nil {
		return nil, err
	}
	return &Provider{embedder: embedder, completer: completer}, nil
}

func (p *Provider) Embedder() ai.Embedder   { return p.embedder }
func (p *Provider) Completer() ai.Completer { return p.completer }

// Validate embeds a short test string to check the key and endpoint.
func (p *Provider) Validate(ctx context.Context) error {
	_, err := p.embedder.EmbedText(ctx, "test")
	return err
}

func (p *Provider) Close() error { return nil }
