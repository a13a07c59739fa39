package cli

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/bufbuild/connect-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"

	"github.com/repo-auditor/repo-auditor/internal/config"
	"github.com/repo-auditor/repo-auditor/internal/daemon"
	"github.com/repo-auditor/repo-auditor/internal/rpc"
	auditrpc "github.com/repo-auditor/repo-auditor/internal/rpc/audit"
	"github.com/repo-auditor/repo-auditor/internal/rpc/connectjson"
)

// NewRunCmd wires the run command to stream an audit from the daemon.
func NewRunCmd(opts *Options) *cobra.Command {
	var modelOverride string
	var addr string

	cmd := &cobra.Command{
		Use:   "run \"<instruction>\"",
		Short: "Send an audit instruction to the daemon and stream its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, config.SkipInferenceCheck())
			if err != nil {
				return err
			}

			prompt := args[0]
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("instruction cannot be empty")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			reqBody := rpc.AuditRequest{
				RunID:  "cli-" + uuid.NewString(),
				Model:  modelOverride,
				Prompt: prompt,
			}

			if addr == "" {
				addr = cfg.Server.Addr
			}
			baseURL := daemonURL(addr)
			switch strings.ToLower(strings.TrimSpace(cfg.Server.Transport)) {
			case "ndjson":
				return runNDJSON(ctx, cmd, baseURL+daemon.AuditRunPath, reqBody)
			default:
				return runConnect(ctx, cmd, baseURL+auditrpc.ConnectRunAuditProcedure, reqBody)
			}
		},
	}

	cmd.Flags().StringVar(&modelOverride, "model", "", "Override model id for this run")
	cmd.Flags().StringVar(&addr, "addr", "", "Daemon address (default: server.addr)")
	return cmd
}

func daemonURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func runNDJSON(ctx context.Context, cmd *cobra.Command, url string, reqBody rpc.AuditRequest) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("daemon returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var evt rpc.AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := renderEvent(cmd, evt); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func runConnect(ctx context.Context, cmd *cobra.Command, url string, reqBody rpc.AuditRequest) error {
	client := connect.NewClient[rpc.AuditStreamRequest, rpc.AuditEvent](buildH2CClient(), url, connect.WithCodec(connectjson.Codec{}))
	stream := client.CallBidiStream(ctx)

	if err := stream.Send(&rpc.AuditStreamRequest{Run: &reqBody}); err != nil {
		return err
	}

	// propagate cancellation to the daemon.
	go func() {
		<-ctx.Done()
		_ = stream.Send(&rpc.AuditStreamRequest{Cancel: true, RunID: reqBody.RunID})
		_ = stream.CloseRequest()
	}()

	for {
		evt, err := stream.Receive()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := renderEvent(cmd, *evt); err != nil {
			return err
		}
	}
	return stream.CloseResponse()
}

func renderEvent(cmd *cobra.Command, evt rpc.AuditEvent) error {
	out := cmd.OutOrStdout()
	switch evt.Type {
	case rpc.EventStarted:
		fmt.Fprintf(out, "[run %s]\n", evt.RunID)
	case rpc.EventToolCall:
		fmt.Fprintf(out, "[tool %s] %s\n", evt.Tool, compact(evt.Arguments))
	case rpc.EventToolResult:
		fmt.Fprintf(out, "[tool %s %s] %s\n", evt.Tool, evt.Status, compact(evt.Payload))
	case rpc.EventMessage:
		fmt.Fprintln(out, evt.Message)
	case rpc.EventDone:
		fmt.Fprintf(out, "[done rounds=%d tool_calls=%d]\n", evt.Rounds, evt.ToolCalls)
	case rpc.EventError:
		return fmt.Errorf("daemon error: %s", evt.Error)
	}
	return nil
}

func buildH2CClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}
