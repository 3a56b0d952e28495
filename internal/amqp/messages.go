package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage carries one composed threshold-crossing alert from the
// web app to the alert worker. The mail content is composed at publish time
// so the worker never re-reads the database.
type BudgetAlertMessage struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
