// Package main is the kotae CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "kotae",
		Short: "Answer questions about PDFs and audio recordings",
		Long: `kotae extracts text and tables from PDFs and transcribes audio files,
indexes them for hybrid (keyword + semantic) retrieval, and answers
questions with a text generation model grounded on the retrieved passages.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newAskCmd(opts),
		newChatCmd(opts),
		newExtractCmd(opts),
		newServeCmd(opts),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development). When neither exists the
// built-in defaults are used. Returns the config and the path that was loaded, or
// "" for defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads the config and builds a logger. Interactive commands get a quiet
// logger so log lines do not interleave with answers.
func setup(opts *rootOptions, quiet bool) (*config.Config, string, *zap.Logger, error) {
	cfg, path, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || opts.debug
	newLogger := utils.NewLogger
	if quiet {
		newLogger = utils.NewQuietLogger
	}
	logger, err := newLogger(debug)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", path), zap.Bool("debug", debug))
	return cfg, path, logger, nil
}

// parseFileArgs turns PATH or PATH=LABEL arguments into source files. The last
// "=" starts a label only when no path separator follows it, so directories
// such as run=2/ stay part of the path.
func parseFileArgs(args []string) []models.SourceFile {
	files := make([]models.SourceFile, 0, len(args))
	for _, a := range args {
		path, label := a, ""
		if i := strings.LastIndex(a, "="); i > 0 && !strings.ContainsAny(a[i+1:], `/`+string(filepath.Separator)) {
			path, label = a[:i], strings.TrimSpace(a[i+1:])
		}
		files = append(files, models.NewSourceFile(path, label))
	}
	return files
}

// newPipeline is swapped out in tests to avoid loading models.
var newPipeline = func(cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	return pipeline.New(cfg, logger)
}

// ingest builds a pipeline and a session over files, reporting incomplete
// extractions to stderr.
func ingest(cmd *cobra.Command, opts *rootOptions, args []string) (*pipeline.Pipeline, *pipeline.Session, *zap.Logger, error) {
	cfg, _, logger, err := setup(opts, true)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := newPipeline(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	sess, results, err := p.Ingest(cmd.Context(), parseFileArgs(args))
	for _, r := range results {
		if r.Status() != "ok" {
			fmt.Fprintln(cmd.ErrOrStderr(), r.Summary())
		}
	}
	if err != nil {
		_ = p.Close()
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("ingest failed: %w", err)
	}
	return p, sess, logger, nil
}
