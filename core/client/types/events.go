package types

// IBC client events
const (
	EventTypeCreateClient       = "create_client"
	EventTypeUpdateClient       = "update_client"
	EventTypeClientMisbehaviour = "client_misbehaviour"

	AttributeKeyClientID         = "client_id"
	AttributeKeyClientType       = "client_type"
	AttributeKeyConsensusHeight  = "consensus_height"
	AttributeKeyConsensusHeights = "consensus_heights"
	AttributeKeyHeader           = "header"
)

// AttributeValueCategory is the "module" attribute of the message event
// emitted by client handlers.
const AttributeValueCategory = "ibc_client"
