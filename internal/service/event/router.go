package event

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// MembershipSource resolves a conversation id to its participant ids.
type MembershipSource interface {
	ParticipantIDs(ctx context.Context, conversationID string) ([]string, error)
}

// MembershipFunc adapts a plain function to MembershipSource.
type MembershipFunc func(ctx context.Context, conversationID string) ([]string, error)

func (f MembershipFunc) ParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	return f(ctx, conversationID)
}

// Publisher is the surface the directory and ledger services publish
// through. Publishing never fails the triggering operation: fan-out
// problems are logged and recovered locally.
type Publisher interface {
	PublishToUsers(ctx context.Context, evt Event, userIDs ...string)
	PublishToConversation(ctx context.Context, evt Event, conversationID, excludeUserID string)
}

// Router resolves targets (users via the presence registry, conversations
// via membership) and hands envelopes to the broker.
type Router struct {
	members MembershipSource
	broker  Broker
}

// NewRouter creates the router. It also serves as the presence Notifier.
func NewRouter(members MembershipSource, broker Broker) *Router {
	return &Router{
		members: members,
		broker:  broker,
	}
}

// PublishToUsers sends evt to every session of the given users.
func (r *Router) PublishToUsers(ctx context.Context, evt Event, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	r.publish(ctx, evt, userIDs)
}

// PublishToConversation sends evt to every participant except
// excludeUserID (empty string excludes nobody).
func (r *Router) PublishToConversation(ctx context.Context, evt Event, conversationID, excludeUserID string) {
	participants, err := r.members.ParticipantIDs(ctx, conversationID)
	if err != nil {
		zap.L().Error("resolve conversation targets failed",
			zap.String("conversation", conversationID), zap.Error(err))
		return
	}
	targets := participants[:0]
	for _, id := range participants {
		if id != excludeUserID {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return
	}
	r.publish(ctx, evt, targets)
}

func (r *Router) publish(ctx context.Context, evt Event, targets []string) {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		zap.L().Error("serialize event data failed", zap.String("type", evt.Type), zap.Error(err))
		return
	}
	env := Envelope{Targets: targets, Type: evt.Type, Data: data}
	if err := r.broker.Publish(ctx, env); err != nil {
		zap.L().Error("publish event failed", zap.String("type", evt.Type), zap.Error(err))
	}
}

// NotifyOnline implements presence.Notifier.
func (r *Router) NotifyOnline(userID string, since time.Time, targets []string) {
	r.PublishToUsers(context.Background(), Event{
		Type: TypeUserOnline,
		Data: OnlinePayload{UserID: userID, Since: since},
	}, targets...)
}

// NotifyOffline implements presence.Notifier.
func (r *Router) NotifyOffline(userID string, lastSeen time.Time, targets []string) {
	r.PublishToUsers(context.Background(), Event{
		Type: TypeUserOffline,
		Data: OfflinePayload{UserID: userID, LastSeen: lastSeen},
	}, targets...)
}
