// Package cli implements the audiobrief command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/audiobrief/internal/audio"
	"github.com/nikhilbhutani/audiobrief/internal/pipeline"
)

// Runner is the pipeline as the CLI sees it.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

// BuildFunc constructs the Runner on first use, so flag errors and --help
// never need configuration.
type BuildFunc func(ctx context.Context) (Runner, error)

// NewRootCommand returns the root command with all subcommands attached.
func NewRootCommand(fs afero.Fs, build BuildFunc) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "audiobrief",
		Short: "Transcribe and summarize audio recordings.",
		Long: `audiobrief normalizes an audio file, transcribes it and turns the transcript
into a structured summary that keeps a minimum share of the original length.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(NewSummarizeCommand(fs, build))
	return rootCmd
}

type summarizeOptions struct {
	file    string
	mime    string
	url     string
	timeout time.Duration
	asJSON  bool
}

// NewSummarizeCommand runs the pipeline once and prints the summary.
func NewSummarizeCommand(fs afero.Fs, build BuildFunc) *cobra.Command {
	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a local audio file or an object URL.",
		Example: `  audiobrief summarize --file memo.caf
  audiobrief summarize --url https://bucket.s3.us-east-1.amazonaws.com/notes/memo.m4a --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := opts.input(fs)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if opts.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.timeout)
				defer cancel()
			}

			runner, err := build(ctx)
			if err != nil {
				return err
			}

			res, err := runner.Run(ctx, in)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, opts.asJSON)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "path to a local audio file")
	cmd.Flags().StringVar(&opts.mime, "mime", "", "MIME type of --file (detected from content when empty)")
	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "S3 or Supabase object URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "overall deadline for the run")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full result as JSON")

	return cmd
}

func (o summarizeOptions) input(fs afero.Fs) (pipeline.Input, error) {
	switch {
	case o.file != "" && o.url != "":
		return pipeline.Input{}, errors.New("use either --file or --url, not both")
	case o.url != "":
		return pipeline.Input{URL: o.url}, nil
	case o.file != "":
		data, err := afero.ReadFile(fs, o.file)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("read %s: %w", o.file, err)
		}
		asset := audio.NewSniffedAsset(data, o.mime, filepath.Base(o.file))
		return pipeline.Input{Asset: &asset}, nil
	default:
		return pipeline.Input{}, errors.New("one of --file or --url is required")
	}
}

func printResult(w io.Writer, res *pipeline.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintln(w, res.Text)
	return err
}
