package sale

import (
	"encoding/json"
	"time"
)

const EventSaleCompleted = "SaleCompleted"

// Event is the envelope published for every completed sale. Payload holds
// the sale as JSON and is decoded through the gateway normalizer, so older
// terminals with different field names still interoperate.
type Event struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	TerminalID string          `json:"terminal_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
}
