package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repo-auditor/repo-auditor/internal/agent"
	"github.com/repo-auditor/repo-auditor/internal/auditor"
)

// NewAuditCmd runs the orchestration loop in-process.
func NewAuditCmd(opts *Options) *cobra.Command {
	var modelOverride string
	var maxRounds int
	var quiet bool

	cmd := &cobra.Command{
		Use:     "audit \"<instruction>\"",
		Short:   "Let the model fetch and scan repositories following an instruction",
		Example: `  repo-auditor audit "Download https://github.com/acme/widgets and check it for leaked secrets"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := args[0]
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("instruction cannot be empty")
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if maxRounds > 0 {
				cfg.Agent.MaxRounds = maxRounds
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			a, err := auditor.New(cfg, logger, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			res, err := a.Agent.Run(cmd.Context(), agent.Request{
				Prompt: prompt,
				Model:  modelOverride,
				OnEvent: func(ev agent.Event) {
					if !quiet {
						renderAgentEvent(out, ev)
					}
				},
			})
			if err != nil {
				return fmt.Errorf("audit failed after %d round(s): %w", res.Rounds, err)
			}
			fmt.Fprintln(out, res.Final)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelOverride, "model", "", "Override model id for this run")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "Override agent.max_rounds for this run")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the final answer")
	return cmd
}

func renderAgentEvent(w io.Writer, ev agent.Event) {
	switch ev.Type {
	case agent.EventToolCall:
		fmt.Fprintf(w, "[tool %s] %s\n", ev.Tool, compact(ev.Arguments))
	case agent.EventToolResult:
		fmt.Fprintf(w, "[tool %s %s] %s\n", ev.Tool, ev.Status, compact(ev.Payload))
	}
}

func compact(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return "{}"
	}
	return s
}
