package server

// Note: game events (hand_started, player_acted, ...) are defined in
// internal/game/events.go and are forwarded to clients under their event
// type names.

// MessageType names a frame in the client protocol.
type MessageType string

const (
	// Client to server messages
	MessageTypeAuth        MessageType = "auth"
	MessageTypeCreateTable MessageType = "create_table"
	MessageTypeListTables  MessageType = "list_tables"
	MessageTypeJoinTable   MessageType = "join_table"
	MessageTypeLeaveTable  MessageType = "leave_table"
	MessageTypeStartHand   MessageType = "start_hand"
	MessageTypeAct         MessageType = "act"
	MessageTypeGetState    MessageType = "get_state"

	// Server to client messages
	MessageTypeAuthResponse   MessageType = "auth_response"
	MessageTypeTableCreated   MessageType = "table_created"
	MessageTypeTableList      MessageType = "table_list"
	MessageTypeTableJoined    MessageType = "table_joined"
	MessageTypeTableLeft      MessageType = "table_left"
	MessageTypeHandAck        MessageType = "hand_ack"
	MessageTypeHoleCards      MessageType = "hole_cards"
	MessageTypeActionRequired MessageType = "action_required"
	MessageTypeState          MessageType = "state"
	MessageTypeError          MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
