// Command hlcat prints a source file to the terminal with syntax
// highlighting, using the engine's built-in Go grammar or query directories
// supplied on the command line.
package main

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	"gitlab.com/tozd/go/errors"

	"go.spyglass.dev/highlight"
	"go.spyglass.dev/highlight/language"
	"go.spyglass.dev/highlight/treesitter"
)

//go:embed queries
var builtinQueries embed.FS

var theme = map[highlight.Category]lipgloss.Style{
	highlight.CategoryComment:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	highlight.CategoryConstant: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	highlight.CategoryFunction: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	highlight.CategoryKeyword:  lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	highlight.CategoryNumber:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	highlight.CategoryProperty: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	highlight.CategoryString:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	highlight.CategoryType:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	highlight.CategoryVariable: lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run() error {
	var (
		languageID string
		queryDir   string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   "hlcat <file>",
		Short: "Print a file with syntax highlighting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return errors.Errorf("parsing log level: %w", err)
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
			ctx := logger.WithContext(cmd.Context())

			return hlcat(ctx, args[0], languageID, queryDir)
		},
	}

	rootCmd.Flags().StringVarP(&languageID, "language", "l", "", "language name (default: by file extension)")
	rootCmd.Flags().StringVarP(&queryDir, "queries", "q", "", "directory of <language>/{highlights,injections}.scm overrides")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}
	return nil
}

func hlcat(ctx context.Context, file, languageID, queryDir string) error {
	source, err := os.ReadFile(file)
	if err != nil {
		return errors.Errorf("reading %s: %w", file, err)
	}

	if languageID == "" {
		languageID = detectLanguage(file)
		if languageID == "" {
			return errors.Errorf("cannot detect language of %s, pass --language", file)
		}
	}

	reg, err := newRegistry(queryDir)
	if err != nil {
		return err
	}

	spans, err := highlight.New(reg).Highlight(ctx, source, languageID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("highlighting failed, printing plain text")
		_, err = os.Stdout.Write(source)
		return err
	}

	return render(os.Stdout, source, spans)
}

// newRegistry builds the language registry: built-in grammars with their
// embedded queries, optionally overridden from a query directory on disk.
func newRegistry(queryDir string) (*language.Registry, error) {
	reg := language.NewRegistry()

	goLang := language.Language{
		Name:   "go",
		Parser: treesitter.New(tree_sitter.NewLanguage(tree_sitter_go.Language())),
	}
	if err := reg.Register(goLang); err != nil {
		return nil, err
	}

	if err := reg.LoadQueries(afero.FromIOFS{FS: builtinQueries}, "queries"); err != nil {
		return nil, err
	}
	if queryDir != "" {
		if err := reg.LoadQueries(afero.NewOsFs(), queryDir); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func detectLanguage(file string) string {
	switch filepath.Ext(file) {
	case ".go":
		return "go"
	}
	return ""
}

// render writes the source with each span styled by the theme. Gaps between
// spans print unstyled.
func render(w *os.File, source []byte, spans []highlight.Span) error {
	var sb strings.Builder
	var pos uint
	for _, s := range spans {
		if s.Start > pos {
			sb.Write(source[pos:s.Start])
		}
		text := string(source[s.Start:s.End])
		if style, ok := theme[s.Category]; ok {
			text = style.Render(text)
		}
		sb.WriteString(text)
		pos = s.End
	}
	if pos < uint(len(source)) {
		sb.Write(source[pos:])
	}

	_, err := w.WriteString(sb.String())
	return err
}
