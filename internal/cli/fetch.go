package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repo-auditor/repo-auditor/internal/auditor"
	"github.com/repo-auditor/repo-auditor/internal/config"
)

// NewFetchCmd downloads and extracts a repository snapshot without involving a model.
func NewFetchCmd(opts *Options) *cobra.Command {
	var format string
	var ref string
	var scan bool

	cmd := &cobra.Command{
		Use:   "fetch <repo_url>",
		Short: "Download a GitHub repository archive and extract it locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateFormat(format)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts, config.SkipInferenceCheck())
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			a, err := auditor.NewTools(cfg, logger, nil)
			if err != nil {
				return err
			}
			res, err := a.Fetcher.Fetch(cmd.Context(), args[0], ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !scan {
				if format == formatText {
					fmt.Fprintf(out, "Repo: %s\nRef: %s\nPath: %s\nRoot: %s\n", res.Repo, res.Ref, res.Path, res.Root)
					return nil
				}
				return writeStructured(out, format, res)
			}

			report := a.Scanner.Scan(cmd.Context(), res.Path)
			if format == formatText {
				fmt.Fprintf(out, "Fetched %s@%s into %s\n", res.Repo, res.Ref, res.Path)
				renderReport(out, report)
				return nil
			}
			return writeStructured(out, format, map[string]interface{}{
				"fetch": res,
				"scan":  report,
			})
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "main", "Branch, tag or commit to download")
	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&scan, "scan", false, "Scan the extracted tree for secrets")
	return cmd
}
