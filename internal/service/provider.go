// Package service wires the engine's services together.
package service

import (
	"context"

	"ripple_chat_server/internal/dao/mysql/repository"
	"ripple_chat_server/internal/infrastructure/blob"
	"ripple_chat_server/internal/service/conversation"
	"ripple_chat_server/internal/service/event"
	"ripple_chat_server/internal/service/message"
	"ripple_chat_server/internal/service/presence"
	"ripple_chat_server/internal/service/user"
)

// Services aggregates every service for injection into handlers and the
// gateway.
type Services struct {
	Registry     *presence.Registry
	Events       *event.Router
	Conversation *conversation.Service
	Message      *message.Service
	User         *user.Service
}

// NewServices builds the service graph.
//
// Construction order matters: the registry needs no router, the router
// needs the registry (via its broker) and the conversation service's
// membership lookup, and presence notifications flow back through the
// router, injected last to break the cycle.
func NewServices(repos *repository.Repositories, broker event.Broker, registry *presence.Registry, blobs *blob.LocalStore) *Services {
	var convSvc *conversation.Service

	router := event.NewRouter(event.MembershipFunc(func(ctx context.Context, convID string) ([]string, error) {
		return convSvc.ParticipantIDs(ctx, convID)
	}), broker)

	convSvc = conversation.NewConversationService(repos, router)
	msgSvc := message.NewMessageService(repos, router, convSvc)
	userSvc := user.NewUserService(repos, blobs)

	registry.SetNotifier(router)

	return &Services{
		Registry:     registry,
		Events:       router,
		Conversation: convSvc,
		Message:      msgSvc,
		User:         userSvc,
	}
}

// Svc is the global service graph the handler layer calls into.
var Svc *Services

// InitServices builds the global instance. Called from main after the
// repositories, broker and registry exist.
func InitServices(repos *repository.Repositories, broker event.Broker, registry *presence.Registry, blobs *blob.LocalStore) {
	Svc = NewServices(repos, broker, registry, blobs)
}
