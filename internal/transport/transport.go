// Package transport defines the contract between the Hub and whatever
// delivers messages to and from participants. The Hub
// depends only on this interface; internal/transport/ws provides a concrete
// gorilla/websocket implementation.
package transport

// Outbound event names.
const (
	EventCurrentQuestion   = "current-question"
	EventWaitingForQuest   = "waiting-for-question"
	EventYouWon            = "you-won"
	EventSubmissionResult  = "submission-result"
	EventSubmissionRejected = "submission-rejected"
	EventSubmissionError   = "submission-error"
	EventNewQuestion       = "new-question"
	EventWinnerDeclared    = "winner-declared"
	EventUserCount         = "user-count"
)

// Adapter is the outbound half of the contract: best-effort delivery to one
// connection, and delivery to every currently connected participant. Send
// failures are the adapter's concern — they must never block or fail the
// Hub's critical section.
type Adapter interface {
	SendTo(connID, eventName string, payload any)
	Broadcast(eventName string, payload any)
}
