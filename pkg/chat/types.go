// Package chat orchestrates the message-send flow.
//
// A Manager wires the session store to the backend client: it tracks
// the active session, gates sends so only one request is outstanding,
// builds the bounded context window, and folds replies and failures
// back into the transcript as ai-sender messages.
//
// Example usage:
//
//	mgr := chat.New(chat.Config{}, st, storage, backend, log)
//
//	sess, _ := mgr.NewChat()
//	res, err := mgr.Send(ctx, "Hello")
//	if err != nil {
//	    // gating or validation failure, nothing was sent
//	}
package chat

import (
	"github.com/nrfhq/chatkeep/pkg/store"
)

// FallbackReply is appended when the backend returns an empty reply.
const FallbackReply = "Sorry, I did not receive a valid response."

// Stale-reply policies. A reply is stale when its originating session
// stopped being active while the request was in flight.
const (
	// StaleReplyAppend appends stale replies to their originating
	// session anyway.
	StaleReplyAppend = "append"

	// StaleReplyDiscard drops stale replies.
	StaleReplyDiscard = "discard"
)

// Config contains chat manager configuration.
type Config struct {
	// BaseSessionName seeds new session names ("Conversation 1").
	// Default: "Conversation".
	BaseSessionName string

	// ContextWindow is the number of preceding messages sent as
	// context with each request. Default: 10.
	ContextWindow int

	// StaleReplyPolicy decides what happens to replies arriving
	// after the user navigated away from the originating session.
	// Default: StaleReplyAppend. Replies whose session was deleted
	// are always dropped.
	StaleReplyPolicy string
}

// SendResult describes the outcome of a completed send.
type SendResult struct {
	// UserMessage is the user message appended to the transcript.
	UserMessage store.Message

	// Reply is the ai message constructed from the backend's reply
	// or from its error description.
	Reply store.Message

	// Delivered reports whether Reply was appended to a session.
	// False when the stale-reply policy dropped it or the session
	// was deleted mid-flight.
	Delivered bool

	// Failed reports whether Reply carries an error description
	// instead of a model reply.
	Failed bool
}
