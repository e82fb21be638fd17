package websocket

import (
	"context"
	"encoding/json"

	"ripple_chat_server/internal/model"
	"ripple_chat_server/internal/service/event"
	"ripple_chat_server/internal/service/message"
	"ripple_chat_server/internal/service/presence"

	"go.uber.org/zap"
)

// Client command actions. Everything else travels over the REST surface;
// the socket carries only the low-latency signals.
const (
	actionTyping   = "typing"
	actionMarkSeen = "mark_seen"
	actionMarkRead = "mark_read"

	actionCallOffer    = "call_offer"
	actionCallAnswer   = "call_answer"
	actionIceCandidate = "ice_candidate"
	actionEndCall      = "end_call"
)

type command struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type typingCommand struct {
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

type markSeenCommand struct {
	MessageID string `json:"messageId"`
}

type markReadCommand struct {
	ConversationID string `json:"conversationId"`
}

// callCommand is a signaling relay: the payload is opaque to the server
// and forwarded verbatim to the callee. CallType ("video" or "audio") only
// matters for the call-log ledger entry.
type callCommand struct {
	To             string          `json:"to"`
	ConversationID string          `json:"conversationId"`
	CallType       string          `json:"callType"`
	Signal         json.RawMessage `json:"signal"`
}

// dispatch routes one inbound frame. Errors are logged, not surfaced;
// the socket stays up through bad commands.
func (g *Gateway) dispatch(session *presence.Session, data []byte) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		zap.L().Warn("unparseable socket command",
			zap.String("session", session.ID), zap.Error(err))
		return
	}
	ctx := context.Background()
	userID := session.UserID

	var err error
	switch cmd.Action {
	case actionTyping:
		var payload typingCommand
		if err = json.Unmarshal(cmd.Data, &payload); err == nil {
			err = g.services.Conversation.SetTyping(ctx, payload.ConversationID, userID, payload.IsTyping)
		}
	case actionMarkSeen:
		var payload markSeenCommand
		if err = json.Unmarshal(cmd.Data, &payload); err == nil {
			err = g.services.Message.MarkSeen(ctx, payload.MessageID, userID)
		}
	case actionMarkRead:
		var payload markReadCommand
		if err = json.Unmarshal(cmd.Data, &payload); err == nil {
			err = g.services.Conversation.MarkRead(ctx, payload.ConversationID, userID)
		}
	case actionCallOffer:
		err = g.startCall(ctx, userID, cmd.Data)
	case actionCallAnswer:
		err = g.relayCallSignal(ctx, userID, event.TypeCallAnswer, cmd.Data)
	case actionIceCandidate:
		err = g.relayCallSignal(ctx, userID, event.TypeIceCandidate, cmd.Data)
	case actionEndCall:
		err = g.endCall(ctx, userID, cmd.Data)
	default:
		zap.L().Warn("unknown socket command",
			zap.String("session", session.ID), zap.String("action", cmd.Action))
		return
	}
	if err != nil {
		zap.L().Warn("socket command failed",
			zap.String("session", session.ID), zap.String("action", cmd.Action), zap.Error(err))
	}
}

// relayCallSignal forwards an opaque WebRTC signal point-to-point.
func (g *Gateway) relayCallSignal(ctx context.Context, from, eventType string, data []byte) error {
	var payload callCommand
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	g.services.Events.PublishToUsers(ctx, event.Event{
		Type: eventType,
		Data: event.CallSignalPayload{From: from, Signal: payload.Signal},
	}, payload.To)
	return nil
}

// startCall relays the offer and, when the caller names the conversation,
// drops a call-started entry into its ledger so calls leave history.
func (g *Gateway) startCall(ctx context.Context, from string, data []byte) error {
	var payload callCommand
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	g.services.Events.PublishToUsers(ctx, event.Event{
		Type: event.TypeCallOffer,
		Data: event.CallSignalPayload{From: from, Signal: payload.Signal},
	}, payload.To)

	if payload.ConversationID != "" {
		content := "Audio call started"
		if payload.CallType == "video" {
			content = "Video call started"
		}
		if _, err := g.services.Message.Append(ctx, payload.ConversationID, from, message.SendParams{
			Type:    model.MessageTypeCall,
			Content: content,
		}); err != nil {
			return err
		}
	}
	return nil
}

// endCall relays the hang-up and, when the caller names the conversation,
// drops a call-log entry into its ledger.
func (g *Gateway) endCall(ctx context.Context, from string, data []byte) error {
	var payload callCommand
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	g.services.Events.PublishToUsers(ctx, event.Event{
		Type: event.TypeEndCall,
		Data: event.CallSignalPayload{From: from},
	}, payload.To)

	if payload.ConversationID != "" {
		if _, err := g.services.Message.Append(ctx, payload.ConversationID, from, message.SendParams{
			Type:    model.MessageTypeCall,
			Content: "Call ended",
		}); err != nil {
			return err
		}
	}
	return nil
}
