package websocket

import (
	"encoding/json"
	"time"

	"foodshare/pkg/logger"
)

// Frame types
const (
	FrameTypePing                = "ping"
	FrameTypePong                = "pong"
	FrameTypeSendMessage         = "send_message"
	FrameTypeSnapshot            = "snapshot"
	FrameTypeMessageAdded        = "message_added"
	FrameTypeMessageModified     = "message_modified"
	FrameTypeConversationUpdated = "conversation_updated"
	FrameTypeError               = "error"
)

// Frame is the envelope for every WebSocket message in both directions.
type Frame struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Text           string          `json:"text,omitempty"`
	Timestamp      string          `json:"timestamp"`
}

type ErrorData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Encode builds a server frame.
func Encode(frameType, conversationID string, data interface{}) ([]byte, error) {
	frame := Frame{
		Type:           frameType,
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		frame.Data = raw
	}
	return json.Marshal(frame)
}

// SendFrame encodes and queues a frame for a single client.
func (c *Client) SendFrame(frameType, conversationID string, data interface{}) bool {
	payload, err := Encode(frameType, conversationID, data)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s frame: %v", frameType, err)
		return false
	}
	return c.Enqueue(payload)
}

// SendError queues an error frame for a single client.
func (c *Client) SendError(code, message string) bool {
	return c.SendFrame(FrameTypeError, "", ErrorData{Code: code, Message: message})
}

func (m *Manager) dispatch(client *Client, raw []byte, handle func(*Client, Frame)) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Debug("WebSocket: failed to unmarshal frame from %s: %v", client.UserID, err)
		client.SendError("BAD_REQUEST", "Invalid message format")
		return
	}

	switch frame.Type {
	case FrameTypePing:
		client.SendFrame(FrameTypePong, "", nil)
	case "":
		client.SendError("BAD_REQUEST", "Frame type is required")
	default:
		if handle != nil {
			handle(client, frame)
		}
	}
}
