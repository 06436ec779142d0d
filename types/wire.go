package types

import "encoding/json"

// Client to server event names.
const (
	MessageTypeAuthenticate = "authenticate"
	MessageTypeJoinProject  = "join-project"
	MessageTypeLeaveProject = "leave-project"
	MessageTypeTyping       = "typing"
	MessageTypeStopTyping   = "stop-typing"
)

// JSON-serialized WebsocketMessage is what is actually sent via the
// websocket connection, in both directions.
type WebsocketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Wire marshals an event into its websocket envelope.
func (e *Event) Wire() ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WebsocketMessage{Event: e.Name, Data: data})
}

// The different payloads transferred from the client to here. Decoded
// weakly via mapstructure, unknown fields are ignored.

type AuthenticateData struct {
	UserId     string   `json:"userId" mapstructure:"userId"`
	UserRole   string   `json:"userRole" mapstructure:"userRole"`
	Token      string   `json:"token" mapstructure:"token"`
	ProjectIds []string `json:"projectIds" mapstructure:"projectIds"`
}

type TypingData struct {
	ProjectId string `json:"projectId" mapstructure:"projectId"`
	UserName  string `json:"userName" mapstructure:"userName"`
}

type StopTypingData struct {
	ProjectId string `json:"projectId" mapstructure:"projectId"`
}
