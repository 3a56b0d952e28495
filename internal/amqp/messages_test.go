package amqp

import (
	"testing"
	"time"
)

func TestBudgetAlertMessageRoundTrip(t *testing.T) {
	msg := &BudgetAlertMessage{
		Recipient: "a@x.com",
		Subject:   "Budget warning: food budget at 90%",
		Body:      "spent €91.00 of €100.00 in 2025-03",
		Timestamp: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := BudgetAlertMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Recipient != msg.Recipient || got.Subject != msg.Subject || got.Body != msg.Body {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("timestamp mismatch: %v != %v", got.Timestamp, msg.Timestamp)
	}
}

func TestBudgetAlertMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := BudgetAlertMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
