package completion

import "context"

type conversationKey struct{}

// WithConversation tags ctx with the conversation a completion belongs to.
func WithConversation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationKey{}, id)
}

// ConversationFrom returns the conversation id carried by ctx, if any.
func ConversationFrom(ctx context.Context) string {
	id, _ := ctx.Value(conversationKey{}).(string)
	return id
}
