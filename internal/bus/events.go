package bus

// Canonical event names pushed over the websocket feed.
const (
	EventOrderPlaced        = "orderPlaced"
	EventOrderStatusUpdated = "orderStatusUpdated"
)

// Event is one message on the notification feed. Payload must be
// JSON-serializable; events that fail to marshal are dropped with a log.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}
