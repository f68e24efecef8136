package corpus

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/ticketrank/core"
)

// Format identifies a corpus encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported corpus format %q", filepath.Ext(path))
}

// Loader reads corpora.
type Loader struct {
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{logger: slog.Default().With("component", "corpus")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the corpus at path with a default Loader.
func Load(path string) ([]*core.Article, error) {
	return NewLoader().Load(path)
}

// Load reads the corpus at path. Every failure is a *core.DataLoadError.
func (l *Loader) Load(path string) ([]*core.Article, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &core.DataLoadError{Source: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &core.DataLoadError{Source: path, Err: err}
	}
	defer f.Close()

	return l.Read(path, f, format)
}

// Read parses a corpus from r. source names r in errors and logs.
func (l *Loader) Read(source string, r io.Reader, format Format) ([]*core.Article, error) {
	var (
		rows []row
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r)
	case FormatJSON:
		rows, err = readJSON(r)
	case FormatYAML:
		rows, err = readYAML(r)
	default:
		err = fmt.Errorf("unsupported corpus format %q", format)
	}
	if err != nil {
		return nil, &core.DataLoadError{Source: source, Err: err}
	}

	articles := make([]*core.Article, 0, len(rows))
	for i, r := range rows {
		article, idOK := r.toArticle(i)
		if !idOK {
			l.logger.Warn("unusable article id, using row number", "source", source, "row", i+1)
		}
		if err := core.ValidateArticle(article); err != nil {
			l.logger.Warn("skipping corpus row", "source", source, "row", i+1, "err", err)
			continue
		}
		articles = append(articles, article)
	}

	l.logger.Info("loaded corpus", "source", source, "format", format, "articles", len(articles))
	return articles, nil
}

// Categories returns the sorted distinct main categories of articles.
func Categories(articles []*core.Article) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range articles {
		if _, ok := seen[a.MainCategory]; ok || a.MainCategory == "" {
			continue
		}
		seen[a.MainCategory] = struct{}{}
		out = append(out, a.MainCategory)
	}
	slices.Sort(out)
	return out
}
