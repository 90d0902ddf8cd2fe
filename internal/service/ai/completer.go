package ai

import (
	"context"

	"github.com/mait-chat/backend/internal/service/completion"
)

// Completer lets chat sessions talk to the reply service in-process. The
// conversation id on the context selects the remembered transcript.
func (s *Service) Completer() completion.Completer {
	return completion.Func(func(ctx context.Context, message string) (string, error) {
		reply, err := s.GenerateReply(ctx, completion.ConversationFrom(ctx), message)
		if err != nil {
			return "", &completion.Error{Err: err}
		}
		return reply, nil
	})
}
