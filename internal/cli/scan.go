package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/repo-auditor/repo-auditor/internal/config"
	"github.com/repo-auditor/repo-auditor/internal/envscan"
)

// ErrSecretsFound is returned by scan --fail-on-findings when secrets are reported.
var ErrSecretsFound = errors.New("secrets found")

// NewScanCmd scans a local directory without involving a model.
func NewScanCmd(opts *Options) *cobra.Command {
	var format string
	var failOnFindings bool

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Scan a local directory for secrets in .env files",
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

			scanner, err := envscan.NewScanner(cfg.Scanner.ExtraPatterns, logger.Named("envscan"))
			if err != nil {
				return err
			}
			report := scanner.Scan(cmd.Context(), args[0])

			out := cmd.OutOrStdout()
			if format == formatText {
				renderReport(out, report)
			} else if err := writeStructured(out, format, report); err != nil {
				return err
			}

			if failOnFindings && report.Status == envscan.StatusSecretsFound {
				return fmt.Errorf("%w: %d finding(s)", ErrSecretsFound, len(report.Findings))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&failOnFindings, "fail-on-findings", false, "Exit non-zero when secrets are found")
	return cmd
}

func renderReport(w io.Writer, report envscan.Report) {
	fmt.Fprintf(w, "Root: %s\n", report.Root)
	fmt.Fprintf(w, "Env files scanned: %d\n", len(report.EnvFilesScanned))
	for _, f := range report.EnvFilesScanned {
		fmt.Fprintf(w, "  %s\n", f)
	}
	for _, f := range report.Findings {
		fmt.Fprintf(w, "%s:%d %s=%s\n", f.File, f.Line, f.Key, f.Value)
	}
	fmt.Fprintf(w, "Status: %s\n", report.Status)
}
