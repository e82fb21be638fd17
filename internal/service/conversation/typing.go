package conversation

import "sync"

// typingState is the in-memory typing-indicator table. Typing is ephemeral
// per-node state; it is never persisted because nothing would read it back
// after a restart.
type typingState struct {
	mu sync.Mutex
	m  map[string]map[string]struct{} // conversation -> typing users
}

func newTypingState() *typingState {
	return &typingState{m: make(map[string]map[string]struct{})}
}

// set adds or removes the user idempotently.
func (t *typingState) set(convID, userID string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	users, ok := t.m[convID]
	if isTyping {
		if !ok {
			users = make(map[string]struct{})
			t.m[convID] = users
		}
		users[userID] = struct{}{}
		return
	}
	if ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.m, convID)
		}
	}
}

// users returns who is currently typing in the conversation.
func (t *typingState) users(convID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.m[convID]))
	for id := range t.m[convID] {
		out = append(out, id)
	}
	return out
}

// clear drops all typing state of a conversation (delete cascade).
func (t *typingState) clear(convID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, convID)
}
