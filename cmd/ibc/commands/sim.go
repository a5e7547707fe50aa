package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/ibc/config"
	channeltypes "github.com/tendermint/ibc/core/channel/types"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/handler"
	"github.com/tendermint/ibc/internal/chain"
	"github.com/tendermint/ibc/internal/ibctesting"
	"github.com/tendermint/ibc/libs/log"
)

// Manifest is a simulation scenario.
type Manifest struct {
	// Ordered opens an ORDERED channel instead of an UNORDERED one.
	Ordered bool `toml:"ordered"`

	Packets []ManifestPacket `toml:"packets"`
}

// ManifestPacket is a packet sent from the first chain to the second.
type ManifestPacket struct {
	Data string `toml:"data"`

	// Number of blocks of the receiving chain, counted from its height at
	// send time, after which the packet times out. 0 disables it.
	TimeoutBlocks uint64 `toml:"timeout-blocks"`

	// Timeout relative to the send time, e.g. "10m". Empty disables it.
	Timeout string `toml:"timeout"`

	// Expire lets the packet time out instead of relaying it.
	Expire bool `toml:"expire"`
}

// DefaultManifest relays one packet and lets a second one time out.
func DefaultManifest() Manifest {
	return Manifest{
		Packets: []ManifestPacket{
			{Data: "hello", TimeoutBlocks: 100},
			{Data: "late", TimeoutBlocks: 3, Expire: true},
		},
	}
}

// LoadManifest decodes the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return m, fmt.Errorf("unknown manifest keys %v", undecoded)
	}
	return m, m.Validate()
}

// Validate checks the durations and timeouts of the manifest.
func (m Manifest) Validate() error {
	for i, p := range m.Packets {
		if p.Data == "" {
			return fmt.Errorf("packet %d: data cannot be empty", i)
		}
		if p.Timeout != "" {
			if _, err := time.ParseDuration(p.Timeout); err != nil {
				return fmt.Errorf("packet %d: timeout: %w", i, err)
			}
		}
		if p.TimeoutBlocks == 0 && p.Timeout == "" {
			return fmt.Errorf("packet %d: needs a timeout height or timestamp", i)
		}
		if p.Expire && p.TimeoutBlocks == 0 {
			return fmt.Errorf("packet %d: expiring packets need timeout-blocks", i)
		}
	}
	return nil
}

// MakeSimCommand returns the command that runs two in-process chains through
// the handshakes and the packets of a manifest.
func MakeSimCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var manifestPath string
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run two in-process chains through a relayed scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest := DefaultManifest()
			if manifestPath != "" {
				var err error
				if manifest, err = LoadManifest(manifestPath); err != nil {
					return err
				}
			}

			var metrics *handler.Metrics
			if conf.Instrumentation.Prometheus {
				metrics = handler.PrometheusMetrics(conf.Instrumentation.Namespace)
				srv := startPrometheusServer(conf.Instrumentation.PrometheusListenAddr, logger)
				defer srv.Close()
			}

			if err := RunSim(conf, logger, metrics, manifest, cmd.OutOrStdout()); err != nil {
				return err
			}
			if metrics != nil {
				logger.Info("simulation done, serving metrics until interrupted",
					"addr", conf.Instrumentation.PrometheusListenAddr)
				<-cmd.Context().Done()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "TOML scenario file")
	return cmd
}

func startPrometheusServer(addr string, logger log.Logger) *http.Server {
	srv := &http.Server{
		Addr: addr,
		Handler: promhttp.InstrumentMetricHandler(
			prometheus.DefaultRegisterer, promhttp.HandlerFor(
				prometheus.DefaultGatherer,
				promhttp.HandlerOpts{MaxRequestsInFlight: 3},
			),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("prometheus HTTP server ListenAndServe", "err", err)
		}
	}()
	return srv
}

// simFailure carries a harness failure out of RunSim.
type simFailure struct {
	err error
}

func (f *simFailure) Errorf(format string, args ...interface{}) {
	f.err = fmt.Errorf(format, args...)
}

func (f *simFailure) FailNow() { panic(f) }

// RunSim runs manifest and reports every relayed step on out. Chain
// databases come from the backend of conf.
func RunSim(conf *config.Config, logger log.Logger, metrics *handler.Metrics, manifest Manifest, out io.Writer) (err error) {
	failure := &simFailure{}
	defer func() {
		if r := recover(); r != nil {
			if r != failure {
				panic(r)
			}
			err = failure.err
		}
	}()

	options := []chain.Option{chain.WithLogger(logger)}
	if metrics != nil {
		options = append(options, chain.WithMetrics(metrics))
	}
	coord := ibctesting.NewCoordinatorWithDB(failure, 2, simDB(conf), options...)
	path := ibctesting.NewPath(coord.GetChain(ibctesting.GetChainID(1)), coord.GetChain(ibctesting.GetChainID(2)))
	a, b := path.EndpointA, path.EndpointB
	if manifest.Ordered {
		path.SetChannelOrdered()
	}
	// packets are relayed right after they are sent
	a.ConnectionConfig.DelayPeriod = 0
	b.ConnectionConfig.DelayPeriod = 0

	step := func(name string, fn func() error) error {
		if err := fn(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Fprintf(out, "%-22s %s <-> %s\n", name, a.Chain.LatestHeight(), b.Chain.LatestHeight())
		return nil
	}
	handshake := []struct {
		name string
		fn   func() error
	}{
		{"create client A", a.CreateClient},
		{"create client B", b.CreateClient},
		{"conn open init", a.ConnOpenInit},
		{"conn open try", b.ConnOpenTry},
		{"conn open ack", a.ConnOpenAck},
		{"conn open confirm", b.ConnOpenConfirm},
		{"chan open init", a.ChanOpenInit},
		{"chan open try", b.ChanOpenTry},
		{"chan open ack", a.ChanOpenAck},
		{"chan open confirm", b.ChanOpenConfirm},
	}
	for _, s := range handshake {
		if err := step(s.name, s.fn); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "channel %s/%s <-> %s/%s (%s)\n",
		a.ChannelConfig.PortID, a.ChannelID, b.ChannelConfig.PortID, b.ChannelID, a.ChannelConfig.Order)

	for i, p := range manifest.Packets {
		if err := simPacket(coord, path, p); err != nil {
			return fmt.Errorf("packet %d: %w", i, err)
		}
		fmt.Fprintf(out, "%-22s %s <-> %s\n", fmt.Sprintf("packet %d %s", i, packetOutcome(p)),
			a.Chain.LatestHeight(), b.Chain.LatestHeight())
	}

	nextSend, err := a.Chain.Query().NextSequenceSend(a.ChannelConfig.PortID, a.ChannelID)
	if err != nil {
		return err
	}
	nextRecv, err := b.Chain.Query().NextSequenceRecv(b.ChannelConfig.PortID, b.ChannelID)
	if err != nil {
		return err
	}
	channel := a.GetChannel()
	fmt.Fprintf(out, "next send A=%d next recv B=%d channel A %s\n", nextSend, nextRecv, channel.State)
	return nil
}

func packetOutcome(p ManifestPacket) string {
	if p.Expire {
		return "timed out"
	}
	return "relayed"
}

func simPacket(coord *ibctesting.Coordinator, path *ibctesting.Path, p ManifestPacket) error {
	a, b := path.EndpointA, path.EndpointB

	var timeoutHeight clienttypes.Height
	if p.TimeoutBlocks > 0 {
		latest := b.Chain.LatestHeight()
		timeoutHeight = clienttypes.NewHeight(latest.RevisionNumber, latest.RevisionHeight+p.TimeoutBlocks)
	}
	var timeoutTimestamp uint64
	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return err
		}
		timeoutTimestamp = uint64(b.Chain.CurrentTime().Add(d).UnixNano())
	}

	packet, err := a.SendPacket(timeoutHeight, timeoutTimestamp, []byte(p.Data))
	if err != nil {
		return err
	}
	if !p.Expire {
		return path.RelayPacket(packet)
	}

	coord.CommitNBlocks(b.Chain, p.TimeoutBlocks)
	if err := a.TimeoutPacket(packet); err != nil {
		return err
	}
	if a.ChannelConfig.Order == channeltypes.ORDERED {
		// a timeout closes an ordered channel on the sender, the receiver
		// follows with a close confirm
		return b.ChanCloseConfirm()
	}
	return nil
}

// simDB opens the chain databases with the backend of conf, dropping the
// data of a previous simulation.
func simDB(conf *config.Config) ibctesting.ChainDB {
	open := config.ResetDBProvider(config.DefaultDBProvider)
	return func(chainID string) (dbm.DB, error) {
		return open(&config.DBContext{ID: "sim-" + chainID, Config: conf})
	}
}
