package memoryrepo

import (
	"github.com/webitel/im-messaging-service/internal/repository"
	"go.uber.org/fx"
)

// Module wires the in-process backend (storage.driver=memory). Meant for
// local development; state is gone on restart.
var Module = fx.Module("memory-repository",
	fx.Provide(
		fx.Annotate(NewMessageRepository, fx.As(new(repository.MessageRepository))),
		fx.Annotate(NewConversationRepository, fx.As(new(repository.ConversationRepository))),
		fx.Annotate(NewBlockRepository, fx.As(new(repository.BlockRepository))),
	),
)
