// Package channel implements the ICS-04 channel handshake and packet
// handlers.
package channel

import (
	channeltypes "github.com/tendermint/ibc/core/channel/types"
	"github.com/tendermint/ibc/core/client"
	clienttypes "github.com/tendermint/ibc/core/client/types"
	"github.com/tendermint/ibc/core/connection"
	connectiontypes "github.com/tendermint/ibc/core/connection/types"
	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/core/host"
)

// ValidateChanOpenInit checks the connection supports the channel ordering
// and asks the port's module to accept the channel.
func ValidateChanOpenInit(ctx exported.ValidationContext, router exported.Router, msg *channeltypes.MsgChannelOpenInit) error {
	wrap := func(err error) error { return channeltypes.WrapChannelError(msg.PortID, "", err) }

	conn, err := connectionForChannel(ctx, *msg.Channel, false)
	if err != nil {
		return wrap(err)
	}
	if _, err := client.VerifyActive(ctx, conn.ClientID); err != nil {
		return wrap(clienttypes.WrapClientError(conn.ClientID, err))
	}
	counter, err := ctx.ChannelCounter()
	if err != nil {
		return wrap(err)
	}
	module, err := route(router, msg.PortID)
	if err != nil {
		return wrap(err)
	}
	ch := msg.Channel
	return wrap(module.OnChanOpenInitValidate(ch.Ordering, ch.ConnectionHops, msg.PortID,
		host.FormatChannelID(counter), ch.GetCounterparty(), ch.Version))
}

// ExecuteChanOpenInit stores a new channel end in INIT with the version
// returned by the module.
func ExecuteChanOpenInit(ctx exported.ExecutionContext, router exported.Router, msg *channeltypes.MsgChannelOpenInit) error {
	counter, err := ctx.ChannelCounter()
	if err != nil {
		return channeltypes.WrapChannelError(msg.PortID, "", err)
	}
	channelID := host.FormatChannelID(counter)
	wrap := func(err error) error { return channeltypes.WrapChannelError(msg.PortID, channelID, err) }

	module, err := route(router, msg.PortID)
	if err != nil {
		return wrap(err)
	}
	ch := msg.Channel
	extras, version, err := module.OnChanOpenInitExecute(ch.Ordering, ch.ConnectionHops, msg.PortID, channelID, ch.GetCounterparty(), ch.Version)
	if err != nil {
		return wrap(err)
	}

	channel := channeltypes.NewChannel(channeltypes.INIT, ch.Ordering, ch.GetCounterparty(), ch.ConnectionHops, version)
	if err := storeNewChannel(ctx, msg.PortID, channelID, channel); err != nil {
		return wrap(err)
	}
	emitChannelEvent(ctx, channeltypes.EventTypeChannelOpenInit, msg.PortID, channelID, channel)
	emitExtras(ctx, extras)
	ctx.LogMessage("channel open init", "port_id", msg.PortID, "channel_id", channelID, "version", version)
	return nil
}

// ValidateChanOpenTry verifies the counterparty stored a matching INIT
// channel end and asks the port's module to accept the channel.
func ValidateChanOpenTry(ctx exported.ValidationContext, router exported.Router, msg *channeltypes.MsgChannelOpenTry) error {
	wrap := func(err error) error { return channeltypes.WrapChannelError(msg.PortID, "", err) }

	ch := msg.Channel
	conn, err := connectionForChannel(ctx, *ch, true)
	if err != nil {
		return wrap(err)
	}

	counterparty := ch.GetCounterparty()
	expected := channeltypes.NewChannel(channeltypes.INIT, ch.Ordering, channeltypes.NewCounterparty(msg.PortID, ""),
		[]host.ConnectionID{conn.GetCounterparty().ConnectionID}, msg.CounterpartyVersion)
	if err := connection.VerifyChannelState(ctx, conn, clienttypes.HeightFromPtr(msg.ProofHeight), msg.ProofInit,
		counterparty.PortID, counterparty.ChannelID, expected); err != nil {
		return wrap(err)
	}

	counter, err := ctx.ChannelCounter()
	if err != nil {
		return wrap(err)
	}
	module, err := route(router, msg.PortID)
	if err != nil {
		return wrap(err)
	}
	return wrap(module.OnChanOpenTryValidate(ch.Ordering, ch.ConnectionHops, msg.PortID,
		host.FormatChannelID(counter), counterparty, msg.CounterpartyVersion))
}

// ExecuteChanOpenTry stores a new channel end in TRYOPEN with the version
// returned by the module.
func ExecuteChanOpenTry(ctx exported.ExecutionContext, router exported.Router, msg *channeltypes.MsgChannelOpenTry) error {
	counter, err := ctx.ChannelCounter()
	if err != nil {
		return channeltypes.WrapChannelError(msg.PortID, "", err)
	}
	channelID := host.FormatChannelID(counter)
	wrap := func(err error) error { return channeltypes.WrapChannelError(msg.PortID, channelID, err) }

	module, err := route(router, msg.PortID)
	if err != nil {
		return wrap(err)
	}
	ch := msg.Channel
	extras, version, err := module.OnChanOpenTryExecute(ch.Ordering, ch.ConnectionHops, msg.PortID, channelID,
		ch.GetCounterparty(), msg.CounterpartyVersion)
	if err != nil {
		return wrap(err)
	}

	channel := channeltypes.NewChannel(channeltypes.TRYOPEN, ch.Ordering, ch.GetCounterparty(), ch.ConnectionHops, version)
	if err := storeNewChannel(ctx, msg.PortID, channelID, channel); err != nil {
		return wrap(err)
	}
	emitChannelEvent(ctx, channeltypes.EventTypeChannelOpenTry, msg.PortID, channelID, channel)
	emitExtras(ctx, extras)
	ctx.LogMessage("channel open try", "port_id", msg.PortID, "channel_id", channelID, "version", version)
	return nil
}

// ValidateChanOpenAck checks the local end is in INIT and verifies the
// counterparty stored a matching TRYOPEN end.
func ValidateChanOpenAck(ctx exported.ValidationContext, router exported.Router, msg *channeltypes.MsgChannelOpenAck) error {
	wrap := func(err error) error { return channeltypes.WrapChannelError(msg.PortID, msg.ChannelID, err) }

	channel, conn, err := channelWithOpenConnection(ctx, msg.PortID, msg.ChannelID, channeltypes.INIT)
	if err != nil {
		return wrap(err)
	}
	expected := channeltypes.NewChannel(channeltypes.TRYOPEN, channel.Ordering, channeltypes.NewCounterparty(msg.PortID, msg.ChannelID),
		[]host.ConnectionID{conn.GetCounterparty().ConnectionID}, msg.CounterpartyVersion)
	if err := connection.VerifyChannelState(ctx, conn, clienttypes.HeightFromPtr(msg.ProofHeight), msg.ProofTry,
		channel.GetCounterparty().PortID, msg.CounterpartyChannelID, expected); err != nil {
		return wrap(err)
	}

	module, err := route(router, msg.PortID)
	if err != nil {
		return wrap(err)
	}
	return wrap(module.OnChanOpenAckValidate(msg.PortID, msg.ChannelID, msg.CounterpartyVersion))
}

// ExecuteChanOpenAck opens the local end and records the counterparty
// channel identifier and version.
func ExecuteChanOpenAck(ctx exported.ExecutionContext, router exported.Router, msg *channeltypes.MsgChannelOpenAck) error {
	wrap := func(err error) error { return channeltypes.WrapChannelError(msg.PortID, msg.ChannelID, err) }

	channel, err := ctx.ChannelEnd(msg.PortID, msg.ChannelID)
	if err != nil {
		return wrap(err)
	}
	module, err := route(router, msg.PortID)
	if err != nil {
		return wrap(err)
	}
	extras, err := module.OnChanOpenAckExecute(msg.PortID, msg.ChannelID, msg.CounterpartyVersion)
	if err != nil {
		return wrap(err)
	}

	counterparty := channel.GetCounterparty()
	counterparty.ChannelID = msg.CounterpartyChannelID
	channel.State = channeltypes.OPEN
	channel.Version = msg.CounterpartyVersion
	channel.Counterparty = &counterparty
	if err := ctx.StoreChannel(msg.PortID, msg.ChannelID, channel); err != nil {
		return wrap(err)
	}
	emitChannelEvent(ctx, channeltypes.EventTypeChannelOpenAck, msg.PortID, msg.ChannelID, channel)
	emitExtras(ctx, extras)
	ctx.LogMessage("channel open ack", "port_id", msg.PortID, "channel_id", msg.ChannelID,
		"counterparty_channel_id", msg.CounterpartyChannelID)
	return nil
}

// ValidateChanOpenConfirm checks the local end is in TRYOPEN and verifies
// the counterparty opened its end.
func ValidateChanOpenConfirm(ctx exported.ValidationContext, router exported.Router, msg *channeltypes.MsgChannelOpenConfirm) error {
	wrap := func(err error) error { return channeltypes.WrapChannelError(msg.PortID, msg.ChannelID, err) }

	channel, conn, err := channelWithOpenConnection(ctx, msg.PortID, msg.ChannelID, channeltypes.TRYOPEN)
	if err != nil {
		return wrap(err)
	}
	counterparty := channel.GetCounterparty()
	expected := channeltypes.NewChannel(channeltypes.OPEN, channel.Ordering, channeltypes.NewCounterparty(msg.PortID, msg.ChannelID),
		[]host.ConnectionID{conn.GetCounterparty().ConnectionID}, channel.Version)
	if err := connection.VerifyChannelState(ctx, conn, clienttypes.HeightFromPtr(msg.ProofHeight), msg.ProofAck,
		counterparty.PortID, counterparty.ChannelID, expected); err != nil {
		return wrap(err)
	}

	module, err := route(router, msg.PortID)
	if err != nil {
		return wrap(err)
	}
	return wrap(module.OnChanOpenConfirmValidate(msg.PortID, msg.ChannelID))
}

// ExecuteChanOpenConfirm opens the local end.
func ExecuteChanOpenConfirm(ctx exported.ExecutionContext, router exported.Router, msg *channeltypes.MsgChannelOpenConfirm) error {
	return transition(ctx, router, msg.PortID, msg.ChannelID, channeltypes.OPEN, channeltypes.EventTypeChannelOpenConfirm,
		func(module exported.Module) (exported.ModuleExtras, error) {
			return module.OnChanOpenConfirmExecute(msg.PortID, msg.ChannelID)
		})
}

// ValidateChanCloseInit checks the channel can be closed and asks the
// port's module whether it may be.
func ValidateChanCloseInit(ctx exported.ValidationContext, router exported.Router, msg *channeltypes.MsgChannelCloseInit) error {
	wrap := func(err error) error { return channeltypes.WrapChannelError(msg.PortID, msg.ChannelID, err) }

	_, conn, err := openChannelForClose(ctx, msg.PortID, msg.ChannelID)
	if err != nil {
		return wrap(err)
	}
	if _, err := client.VerifyActive(ctx, conn.ClientID); err != nil {
		return wrap(clienttypes.WrapClientError(conn.ClientID, err))
	}
	module, err := route(router, msg.PortID)
	if err != nil {
		return wrap(err)
	}
	return wrap(module.OnChanCloseInitValidate(msg.PortID, msg.ChannelID))
}

// ExecuteChanCloseInit closes the local end.
func ExecuteChanCloseInit(ctx exported.ExecutionContext, router exported.Router, msg *channeltypes.MsgChannelCloseInit) error {
	return transition(ctx, router, msg.PortID, msg.ChannelID, channeltypes.CLOSED, channeltypes.EventTypeChannelCloseInit,
		func(module exported.Module) (exported.ModuleExtras, error) {
			return module.OnChanCloseInitExecute(msg.PortID, msg.ChannelID)
		})
}

// ValidateChanCloseConfirm verifies the counterparty closed its end.
func ValidateChanCloseConfirm(ctx exported.ValidationContext, router exported.Router, msg *channeltypes.MsgChannelCloseConfirm) error {
	wrap := func(err error) error { return channeltypes.WrapChannelError(msg.PortID, msg.ChannelID, err) }

	channel, conn, err := openChannelForClose(ctx, msg.PortID, msg.ChannelID)
	if err != nil {
		return wrap(err)
	}
	counterparty := channel.GetCounterparty()
	expected := channeltypes.NewChannel(channeltypes.CLOSED, channel.Ordering, channeltypes.NewCounterparty(msg.PortID, msg.ChannelID),
		[]host.ConnectionID{conn.GetCounterparty().ConnectionID}, channel.Version)
	if err := connection.VerifyChannelState(ctx, conn, clienttypes.HeightFromPtr(msg.ProofHeight), msg.ProofInit,
		counterparty.PortID, counterparty.ChannelID, expected); err != nil {
		return wrap(err)
	}

	module, err := route(router, msg.PortID)
	if err != nil {
		return wrap(err)
	}
	return wrap(module.OnChanCloseConfirmValidate(msg.PortID, msg.ChannelID))
}

// ExecuteChanCloseConfirm closes the local end.
func ExecuteChanCloseConfirm(ctx exported.ExecutionContext, router exported.Router, msg *channeltypes.MsgChannelCloseConfirm) error {
	return transition(ctx, router, msg.PortID, msg.ChannelID, channeltypes.CLOSED, channeltypes.EventTypeChannelCloseConfirm,
		func(module exported.Module) (exported.ModuleExtras, error) {
			return module.OnChanCloseConfirmExecute(msg.PortID, msg.ChannelID)
		})
}

// transition runs the module callback and moves the channel end to state.
func transition(
	ctx exported.ExecutionContext, router exported.Router, portID host.PortID, channelID host.ChannelID,
	state channeltypes.State, eventType string, callback func(exported.Module) (exported.ModuleExtras, error),
) error {
	wrap := func(err error) error { return channeltypes.WrapChannelError(portID, channelID, err) }

	channel, err := ctx.ChannelEnd(portID, channelID)
	if err != nil {
		return wrap(err)
	}
	module, err := route(router, portID)
	if err != nil {
		return wrap(err)
	}
	extras, err := callback(module)
	if err != nil {
		return wrap(err)
	}
	channel.State = state
	if err := ctx.StoreChannel(portID, channelID, channel); err != nil {
		return wrap(err)
	}
	emitChannelEvent(ctx, eventType, portID, channelID, channel)
	emitExtras(ctx, extras)
	ctx.LogMessage(eventType, "port_id", portID, "channel_id", channelID)
	return nil
}

// connectionForChannel returns the single connection a new channel travels
// over, once it checked the connection supports the channel ordering.
func connectionForChannel(ctx exported.ValidationContext, ch channeltypes.Channel, mustBeOpen bool) (connectiontypes.ConnectionEnd, error) {
	if len(ch.ConnectionHops) != 1 {
		return connectiontypes.ConnectionEnd{}, channeltypes.ErrInvalidConnectionHops{Expected: 1, Actual: len(ch.ConnectionHops)}
	}
	connectionID := ch.ConnectionHops[0]
	conn, err := ctx.ConnectionEnd(connectionID)
	if err != nil {
		return connectiontypes.ConnectionEnd{}, connectiontypes.WrapConnectionError(connectionID, err)
	}
	if mustBeOpen {
		if err := conn.VerifyState(connectionID, connectiontypes.OPEN); err != nil {
			return connectiontypes.ConnectionEnd{}, connectiontypes.WrapConnectionError(connectionID, err)
		}
	}
	if len(conn.Versions) != 1 {
		return connectiontypes.ConnectionEnd{}, connectiontypes.WrapConnectionError(connectionID, connectiontypes.ErrInvalidVersion)
	}
	if !connectiontypes.VerifySupportedFeature(conn.Versions[0], ch.Ordering.String()) {
		return connectiontypes.ConnectionEnd{}, channeltypes.ErrOrderingNotSupported{Ordering: ch.Ordering}
	}
	return conn, nil
}

// channelWithOpenConnection returns a channel end in state together with
// its connection, which must be open.
func channelWithOpenConnection(
	ctx exported.ValidationContext, portID host.PortID, channelID host.ChannelID, state channeltypes.State,
) (channeltypes.Channel, connectiontypes.ConnectionEnd, error) {
	channel, err := ctx.ChannelEnd(portID, channelID)
	if err != nil {
		return channeltypes.Channel{}, connectiontypes.ConnectionEnd{}, err
	}
	if channel.State != state {
		return channeltypes.Channel{}, connectiontypes.ConnectionEnd{}, channeltypes.ErrInvalidChannelState{
			PortID: portID, ChannelID: channelID, Expected: state, Actual: channel.State,
		}
	}
	conn, err := openConnection(ctx, channel)
	if err != nil {
		return channeltypes.Channel{}, connectiontypes.ConnectionEnd{}, err
	}
	return channel, conn, nil
}

func openChannelForClose(
	ctx exported.ValidationContext, portID host.PortID, channelID host.ChannelID,
) (channeltypes.Channel, connectiontypes.ConnectionEnd, error) {
	channel, err := ctx.ChannelEnd(portID, channelID)
	if err != nil {
		return channeltypes.Channel{}, connectiontypes.ConnectionEnd{}, err
	}
	if channel.IsClosed() {
		return channeltypes.Channel{}, connectiontypes.ConnectionEnd{}, channeltypes.ErrChannelClosed{PortID: portID, ChannelID: channelID}
	}
	conn, err := openConnection(ctx, channel)
	if err != nil {
		return channeltypes.Channel{}, connectiontypes.ConnectionEnd{}, err
	}
	return channel, conn, nil
}

func openConnection(ctx exported.ValidationContext, channel channeltypes.Channel) (connectiontypes.ConnectionEnd, error) {
	connectionID := channel.ConnectionID()
	conn, err := ctx.ConnectionEnd(connectionID)
	if err != nil {
		return connectiontypes.ConnectionEnd{}, connectiontypes.WrapConnectionError(connectionID, err)
	}
	if err := conn.VerifyState(connectionID, connectiontypes.OPEN); err != nil {
		return connectiontypes.ConnectionEnd{}, connectiontypes.WrapConnectionError(connectionID, err)
	}
	return conn, nil
}

func storeNewChannel(ctx exported.ExecutionContext, portID host.PortID, channelID host.ChannelID, channel channeltypes.Channel) error {
	if _, err := ctx.ChannelEnd(portID, channelID); err == nil {
		return channeltypes.ErrChannelExists
	}
	if err := ctx.StoreChannel(portID, channelID, channel); err != nil {
		return err
	}
	if err := ctx.IncreaseChannelCounter(); err != nil {
		return err
	}
	if err := ctx.StoreNextSequenceSend(portID, channelID, 1); err != nil {
		return err
	}
	if err := ctx.StoreNextSequenceRecv(portID, channelID, 1); err != nil {
		return err
	}
	return ctx.StoreNextSequenceAck(portID, channelID, 1)
}

func route(router exported.Router, portID host.PortID) (exported.Module, error) {
	module, ok := router.Route(portID)
	if !ok {
		return nil, channeltypes.ErrRouteNotFound{PortID: portID}
	}
	return module, nil
}

func emitChannelEvent(ctx exported.ExecutionContext, eventType string, portID host.PortID, channelID host.ChannelID, channel channeltypes.Channel) {
	counterparty := channel.GetCounterparty()
	ctx.EmitEvent(exported.NewMessageEvent(channeltypes.AttributeValueCategory))
	ctx.EmitEvent(exported.NewEvent(eventType,
		exported.NewAttribute(channeltypes.AttributeKeyPortID, portID.String()),
		exported.NewAttribute(channeltypes.AttributeKeyChannelID, channelID.String()),
		exported.NewAttribute(channeltypes.AttributeKeyCounterpartyPortID, counterparty.PortID.String()),
		exported.NewAttribute(channeltypes.AttributeKeyCounterpartyChannelID, counterparty.ChannelID.String()),
		exported.NewAttribute(channeltypes.AttributeKeyConnectionID, channel.ConnectionID().String()),
		exported.NewAttribute(channeltypes.AttributeKeyVersion, channel.Version),
	))
}

func emitExtras(ctx exported.ExecutionContext, extras exported.ModuleExtras) {
	for _, event := range extras.Events {
		ctx.EmitEvent(event)
	}
	for _, line := range extras.Logs {
		ctx.LogMessage(line)
	}
}
