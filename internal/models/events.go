package models

// Outbound websocket event names.
const (
	EventChatMessage    = "chat-message"
	EventPrivateMessage = "private-message"
	EventTypingStarted  = "typing-started"
	EventTypingStopped  = "typing-stopped"
	EventUserOnline     = "user-online"
	EventUserOffline    = "user-offline"
	EventReadUpdate     = "read-update"
)

// Event is broadcasted through websockets. Only the fields relevant to the
// event type are set.
type Event struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	UserID    int      `json:"user_id,omitempty"`
	MessageID int      `json:"message_id,omitempty"`
	ReaderID  int      `json:"reader_id,omitempty"`
}

// MessageEvent builds a chat-message or private-message event.
func MessageEvent(msg Message) Event {
	eventType := EventChatMessage
	if msg.IsPrivate() {
		eventType = EventPrivateMessage
	}
	return Event{Type: eventType, Message: &msg}
}

// TypingEvent builds a typing-started or typing-stopped event.
func TypingEvent(userID int, started bool) Event {
	eventType := EventTypingStopped
	if started {
		eventType = EventTypingStarted
	}
	return Event{Type: eventType, UserID: userID}
}

// PresenceEvent builds a user-online or user-offline event.
func PresenceEvent(userID int, online bool) Event {
	eventType := EventUserOffline
	if online {
		eventType = EventUserOnline
	}
	return Event{Type: eventType, UserID: userID}
}

// ReadUpdateEvent builds a read-update event.
func ReadUpdateEvent(messageID, readerID int) Event {
	return Event{Type: EventReadUpdate, MessageID: messageID, ReaderID: readerID}
}
