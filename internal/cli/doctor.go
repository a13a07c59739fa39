package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/repo-auditor/repo-auditor/internal/auditor"
)

// NewDoctorCmd returns a health-check command validating config and environment.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration, credentials and scanner patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if _, err := auditor.New(cfg, nil, nil); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Providers: %d, models: %d\n", len(cfg.Providers), len(cfg.Models))
			models := make([]string, 0, len(cfg.Models))
			for name, m := range cfg.Models {
				models = append(models, fmt.Sprintf("%s (%s/%s)", name, m.Provider, m.Model))
			}
			sort.Strings(models)
			for _, m := range models {
				fmt.Fprintf(out, "  model %s\n", m)
			}
			fmt.Fprintf(out, "Inference credential: %s\n", presence(cfg.Resolved.InferenceAPIKey != ""))
			fmt.Fprintf(out, "GitHub token: %s\n", presence(cfg.Resolved.HasGitHubToken()))
			fmt.Fprintf(out, "Max rounds: %d, transport: %s, metrics: %v\n", cfg.Agent.MaxRounds, cfg.Server.Transport, cfg.Server.MetricsEnabled)
			return nil
		},
	}
}

func presence(ok bool) string {
	if ok {
		return "set"
	}
	return "not set"
}
