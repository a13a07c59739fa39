package audit

import (
	"context"
	"errors"
	"net/http"

	"github.com/bufbuild/connect-go"
	"github.com/google/uuid"

	"github.com/repo-auditor/repo-auditor/internal/observability"
	"github.com/repo-auditor/repo-auditor/internal/rpc"
	"github.com/repo-auditor/repo-auditor/internal/rpc/connectjson"
)

const ConnectRunAuditProcedure = "/repoaudit.v1.AuditService/Run"

// NewConnectHandler builds a Connect bidi stream handler for audit runs.
func NewConnectHandler(runner Runner, metrics *observability.Metrics) (string, http.Handler) {
	h := &connectRunHandler{runner: runner, metrics: metrics}
	return ConnectRunAuditProcedure, connect.NewBidiStreamHandler(ConnectRunAuditProcedure, h.handle, connect.WithCodec(connectjson.Codec{}))
}

type connectRunHandler struct {
	runner  Runner
	metrics *observability.Metrics
}

func (h *connectRunHandler) handle(ctx context.Context, stream *connect.BidiStream[rpc.AuditStreamRequest, rpc.AuditEvent]) error {
	h.metrics.IncActiveSessions("connect")
	defer h.metrics.DecActiveSessions("connect")

	if h.runner == nil {
		return connect.NewError(connect.CodeUnavailable, errors.New("audit runner unavailable"))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	first, err := stream.Receive()
	if err != nil {
		h.metrics.RecordTransportError("connect", "receive_first")
		return err
	}
	if first == nil || first.Run == nil {
		h.metrics.RecordTransportError("connect", "missing_run")
		return connect.NewError(connect.CodeInvalidArgument, errors.New("first message must include run payload"))
	}

	req := *first.Run
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	// Listen for cancellation messages from the client. A closed request
	// side is not a cancellation.
	go func() {
		for {
			msg, recvErr := stream.Receive()
			if recvErr != nil {
				return
			}
			if msg != nil && msg.Cancel {
				cancel()
				return
			}
		}
	}()

	events, runErr := h.runner.Run(ctx, req)
	if runErr != nil {
		h.metrics.RecordTransportError("connect", "runner_error")
		return connect.NewError(connect.CodeInvalidArgument, runErr)
	}

	for ev := range events {
		ev := ev
		if err := stream.Send(&ev); err != nil {
			h.metrics.RecordTransportError("connect", "send")
			return err
		}
	}
	return nil
}
