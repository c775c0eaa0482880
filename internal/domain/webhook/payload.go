package webhook

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Payload is a payment notification. Only studentId and productType are
// required.
type Payload struct {
	StudentID     flexString `json:"studentId"`
	ProductType   string     `json:"productType"`
	Amount        flexString `json:"amount"`
	TransactionID flexString `json:"transactionId"`
	StartDate     string     `json:"startDate"`
	ServiceDate   string     `json:"serviceDate"`
	Grade         string     `json:"grade"`
	Class         string     `json:"class"`
	Description   string     `json:"description"`
}

// AmountValue parses the amount in major units. Unparseable amounts are 0.
func (p *Payload) AmountValue() float64 {
	s := strings.TrimSpace(strings.TrimPrefix(string(p.Amount), "$"))
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// Date returns the service date the payer asked for, if any.
func (p *Payload) Date() string {
	if p.ServiceDate != "" {
		return p.ServiceDate
	}
	return p.StartDate
}

// Response is the webhook reply body.
type Response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	MealsAdded int    `json:"mealsAdded,omitempty"`
}

const maxSnapshot = 8 << 10

// snapshot returns body as JSON suitable for the audit log. Invalid or
// oversized bodies are stored as a string.
func snapshot(body []byte) json.RawMessage {
	if len(body) <= maxSnapshot && json.Valid(body) {
		return json.RawMessage(body)
	}
	s := string(body)
	if len(s) > maxSnapshot {
		s = s[:maxSnapshot] + "...<truncated>"
	}
	raw, _ := json.Marshal(s)
	return raw
}
