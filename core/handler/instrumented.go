package handler

import (
	"time"

	codectypes "github.com/gogo/protobuf/types"

	"github.com/tendermint/ibc/core/channel"
	channeltypes "github.com/tendermint/ibc/core/channel/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/libs/log"
)

// Handler dispatches messages against a fixed router, recording metrics and
// logging every outcome.
type Handler struct {
	router  exported.Router
	logger  log.Logger
	metrics *Metrics
}

// Option sets an optional Handler parameter.
type Option func(*Handler)

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(h *Handler) { h.metrics = metrics }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// New returns a Handler routing packets through router.
func New(router exported.Router, options ...Option) *Handler {
	h := &Handler{
		router:  router,
		logger:  log.NewNopLogger(),
		metrics: NopMetrics(),
	}
	for _, option := range options {
		option(h)
	}
	return h
}

// Router returns the router packets are routed through.
func (h *Handler) Router() exported.Router { return h.router }

// Dispatch is the package level Dispatch with metrics and logging.
func (h *Handler) Dispatch(ctx exported.ExecutionContext, any *codectypes.Any) (*Result, error) {
	start := time.Now()
	res, err := Dispatch(ctx, h.router, any)
	h.metrics.MessageDuration.With("type_url", res.TypeURL).Observe(time.Since(start).Seconds())
	h.metrics.Messages.With("type_url", res.TypeURL, "outcome", res.Outcome.String()).Add(1)

	if err != nil {
		h.logger.Debug("msg", "type_url", res.TypeURL, "outcome", res.Outcome, "err", err)
		return res, err
	}
	h.logger.Debug("msg", "type_url", res.TypeURL, "outcome", res.Outcome)

	if res.Outcome == Applied {
		switch res.TypeURL {
		case channeltypes.TypeURLMsgRecvPacket:
			h.metrics.PacketsReceived.Add(1)
		case channeltypes.TypeURLMsgAcknowledgement:
			h.metrics.PacketsAcknowledged.Add(1)
		case channeltypes.TypeURLMsgTimeout, channeltypes.TypeURLMsgTimeoutOnClose:
			h.metrics.PacketsTimedOut.Add(1)
		}
	}
	return res, nil
}

// SendPacket commits packet on behalf of an application.
func (h *Handler) SendPacket(ctx exported.ExecutionContext, packet channeltypes.Packet) error {
	if err := channel.SendPacket(ctx, packet); err != nil {
		return err
	}
	h.metrics.PacketsSent.Add(1)
	return nil
}

// WriteAcknowledgement writes an acknowledgement a module deferred.
func (h *Handler) WriteAcknowledgement(ctx exported.ExecutionContext, packet channeltypes.Packet, ack []byte) error {
	return channel.WriteAcknowledgement(ctx, packet, ack)
}
