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


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/ticketrank"
	"github.com/poiesic/ticketrank/ai"
	"github.com/poiesic/ticketrank/config"
	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/pipeline"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ticketrank",
		Usage: "Match support requests to template answers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "corpus",
				Usage: "Knowledge base file (.csv, .xlsx, .json, .yaml); overrides the config file",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory for the embedding matrix and feedback ledger; overrides the config file",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Build or load the embedding matrix for the corpus",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Recompute the matrix even if a matching one is stored",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Find the best template answer for a request",
				ArgsUsage: "<request text>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Preferred main category",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of results (0 uses the configured default)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the response as JSON",
					},
				},
			},
			{
				Name:   "feedback",
				Usage:  "Record whether an article helped",
				Action: feedbackCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "id",
						Usage:    "Corpus id of the article",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "query",
						Usage: "Request the article was suggested for",
					},
					&cli.BoolFlag{
						Name:  "unhelpful",
						Usage: "Record negative feedback",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show feedback statistics",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top",
						Usage: "Number of top rated articles to list",
						Value: 5,
					},
				},
			},
			{
				Name:   "validate",
				Usage:  "Check provider credentials and connectivity",
				Action: validateCommand,
			},
		},
	}
}

// setup loads .env, the configuration and the logger. The configuration is
// stored in the app metadata for the commands.
func setup(c *cli.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("corpus"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := c.String("data-dir"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if err := setupLogger(cfg.Logging.Level); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata["config"] = cfg
	return nil
}

func setupLogger(levelStr string) error {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	cfg, _ := c.App.Metadata["config"].(*config.Config)
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return cfg
}

func openEngine(c *cli.Context, progress io.Writer) (*ticketrank.Engine, error) {
	cfg := configFrom(c)
	e, err := ticketrank.NewEngine(c.Context, cfg.Storage.DataDir, ticketrank.OptionsFromConfig(cfg, progress)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return e, nil
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt)
}

func indexCommand(c *cli.Context) error {
	ctx, cancel := signalContext(c)
	defer cancel()

	e, err := openEngine(c, c.App.ErrWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.Index().Len() == 0 {
		return fmt.Errorf("corpus %s has no articles", configFrom(c).Corpus.Path)
	}

	if c.Bool("rebuild") {
		err = e.Index().Rebuild(ctx)
	} else {
		err = e.Prepare(ctx)
	}
	if err != nil {
		return describeProviderError("index build failed", err)
	}

	m := e.Index().Matrix()
	fmt.Fprintf(c.App.Writer, "Index ready: %d articles, %d dimensions, model %s\n", m.Rows, m.Dim, m.Model)
	return nil
}

func queryCommand(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("request text is required")
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	e, err := openEngine(c, c.App.ErrWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.Prepare(ctx); err != nil {
		return describeProviderError("index build failed", err)
	}

	resp, err := e.Process(ctx, pipeline.Request{
		Text:     text,
		Category: c.String("category"),
		TopK:     c.Int("top-k"),
	})
	if err != nil {
		return describeProviderError("query failed", err)
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, newQueryOutput(resp))
	}
	printResponse(c.App.Writer, resp)
	return nil
}

func feedbackCommand(c *cli.Context) error {
	e, err := openEngine(c, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	id := c.Int("id")
	var article *core.Article
	for _, a := range e.Index().Articles() {
		if a.ID == id {
			article = a
			break
		}
	}
	if article == nil {
		return fmt.Errorf("no article with id %d in corpus", id)
	}

	helpful := !c.Bool("unhelpful")
	stats, err := e.Pipeline().AddFeedback(c.Context, article.Identity(), c.String("query"), helpful)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Recorded %s feedback for article %d: %d/%d helpful (%.0f%%), bonus %.3f\n",
		map[bool]string{true: "positive", false: "negative"}[helpful],
		id, stats.Helpful, stats.Total, stats.Rate*100, e.Ledger().ScoreBonus(article.Identity()))
	return nil
}

func statsCommand(c *cli.Context) error {
	e, err := openEngine(c, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	s := e.Ledger().Statistics()
	w := c.App.Writer
	fmt.Fprintf(w, "Templates rated:  %d\n", s.TemplatesRated)
	fmt.Fprintf(w, "Total feedback:   %d\n", s.TotalFeedback)
	fmt.Fprintf(w, "Helpful:          %d\n", s.TotalHelpful)
	fmt.Fprintf(w, "Helpfulness rate: %.1f%%\n", s.HelpfulnessRate*100)
	fmt.Fprintf(w, "History size:     %d\n", s.HistorySize)

	top := e.Ledger().TopRated(c.Int("top"))
	if len(top) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nTop rated:")
	for i, id := range top {
		st := e.Ledger().Stats(id)
		label := id
		if a, ok := e.Index().Lookup(id); ok {
			label = fmt.Sprintf("#%d %s", a.ID, a.ExampleQuestion)
		}
		fmt.Fprintf(w, "%d. %s (%d/%d, bonus %.3f)\n", i+1, label, st.Helpful, st.Total, e.Ledger().ScoreBonus(id))
	}
	return nil
}

func validateCommand(c *cli.Context) error {
	e, err := openEngine(c, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.Provider().Validate(c.Context); err != nil {
		return describeProviderError("provider check failed", err)
	}
	fmt.Fprintln(c.App.Writer, "Provider OK")
	return nil
}

// describeProviderError makes rate-limit exhaustion readable.
func describeProviderError(what string, err error) error {
	if errors.Is(err, ai.ErrRateLimited) {
		return fmt.Errorf("%s: provider is overloaded, gave up after %d attempts; try again in a minute: %w", what, ai.Attempts(err), err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
