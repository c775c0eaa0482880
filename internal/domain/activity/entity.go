package activity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type classifies a log entry.
type Type string

const (
	TypeScan           Type = "scan"
	TypeWebhook        Type = "webhook"
	TypeWebhookAttempt Type = "webhook_attempt"
	TypeOverride       Type = "override"
	TypeSync           Type = "sync"
	TypeSystem         Type = "system"
)

// Entry is one append-only audit record.
type Entry struct {
	ID        int       `json:"id"`
	Type      Type      `json:"type"`
	Details   Details   `json:"details"`
	ActorID   *string   `json:"actorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// row is the storage shape of Entry.
type row struct {
	ID        int       `db:"id"`
	Type      Type      `db:"type"`
	Details   []byte    `db:"details"`
	ActorID   *string   `db:"actor_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r row) entry() *Entry {
	return &Entry{
		ID:        r.ID,
		Type:      r.Type,
		Details:   DecodeDetails(r.Details),
		ActorID:   r.ActorID,
		CreatedAt: r.CreatedAt,
	}
}

// Details is the typed payload of an entry. The JSON form carries a
// "kind" field naming the variant.
type Details interface {
	Kind() string
}

const (
	KindScanOutcome    = "scan_outcome"
	KindWebhookAttempt = "webhook_attempt"
	KindWebhookResult  = "webhook_result"
	KindOverride       = "override"
	KindSync           = "sync"
)

// ScanResult values recorded for each scan.
const (
	ScanSuccess       = "success"
	ScanInvalidTicket = "invalid_ticket"
	ScanDuplicateUsed = "duplicate_used"
	ScanInvalidStatus = "invalid_status"
	ScanWrongDate     = "wrong_date"
)

type ScanOutcome struct {
	TicketID  string `json:"ticketId"`
	Result    string `json:"result"`
	Expected  string `json:"expected,omitempty"`
	Actual    string `json:"actual,omitempty"`
	StudentID *int   `json:"studentId,omitempty"`
	Offline   bool   `json:"offline,omitempty"`
}

func (ScanOutcome) Kind() string { return KindScanOutcome }

type WebhookAttempt struct {
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Signature string          `json:"signature,omitempty"`
}

func (WebhookAttempt) Kind() string { return KindWebhookAttempt }

type WebhookResult struct {
	Source         string `json:"source"`
	Status         string `json:"status"`
	StudentID      string `json:"studentId,omitempty"`
	PlanType       string `json:"planType,omitempty"`
	MealsAdded     int    `json:"mealsAdded,omitempty"`
	SubscriptionID int    `json:"subscriptionId,omitempty"`
	TransactionID  string `json:"transactionId,omitempty"`
	Provisioned    bool   `json:"provisioned,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (WebhookResult) Kind() string { return KindWebhookResult }

type Override struct {
	Action         string `json:"action"`
	StudentID      int    `json:"studentId"`
	SchoolID       string `json:"schoolId,omitempty"`
	Reason         string `json:"reason,omitempty"`
	PlanType       string `json:"planType,omitempty"`
	MealsAdded     int    `json:"mealsAdded,omitempty"`
	MealsRemaining int    `json:"mealsRemaining"`
}

func (Override) Kind() string { return KindOverride }

type SyncEvent struct {
	Integration string `json:"integration"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
}

func (SyncEvent) Kind() string { return KindSync }

// Opaque holds details of unknown shape, including rows written before
// details were typed.
type Opaque map[string]interface{}

func (o Opaque) Kind() string {
	if k, ok := o["kind"].(string); ok {
		return k
	}
	return ""
}

// EncodeDetails renders d with its kind discriminator.
func EncodeDetails(d Details) ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	if o, ok := d.(Opaque); ok {
		return json.Marshal(map[string]interface{}(o))
	}

	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode %s details: %w", d.Kind(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode %s details: %w", d.Kind(), err)
	}
	kind, _ := json.Marshal(d.Kind())
	fields["kind"] = kind
	return json.Marshal(fields)
}

// DecodeDetails picks the variant named by "kind". Anything it cannot
// type is returned as Opaque rather than dropped.
func DecodeDetails(raw []byte) Details {
	if len(raw) == 0 || string(raw) == "null" {
		return Opaque{}
	}

	var head struct {
		Kind string `json:"kind"`
	}
	_ = json.Unmarshal(raw, &head)

	var d Details
	switch head.Kind {
	case KindScanOutcome:
		var v ScanOutcome
		if json.Unmarshal(raw, &v) == nil {
			d = v
		}
	case KindWebhookAttempt:
		var v WebhookAttempt
		if json.Unmarshal(raw, &v) == nil {
			d = v
		}
	case KindWebhookResult:
		var v WebhookResult
		if json.Unmarshal(raw, &v) == nil {
			d = v
		}
	case KindOverride:
		var v Override
		if json.Unmarshal(raw, &v) == nil {
			d = v
		}
	case KindSync:
		var v SyncEvent
		if json.Unmarshal(raw, &v) == nil {
			d = v
		}
	}
	if d != nil {
		return d
	}

	var o Opaque
	if err := json.Unmarshal(raw, &o); err != nil || o == nil {
		return Opaque{"raw": string(raw)}
	}
	return o
}

// MarshalJSON flattens Details into the entry with its kind.
func (e Entry) MarshalJSON() ([]byte, error) {
	details, err := EncodeDetails(e.Details)
	if err != nil {
		return nil, err
	}
	type plain Entry
	return json.Marshal(struct {
		plain
		Details json.RawMessage `json:"details"`
	}{plain: plain(e), Details: details})
}

// UnmarshalJSON restores the typed Details variant.
func (e *Entry) UnmarshalJSON(b []byte) error {
	type plain Entry
	var aux struct {
		plain
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*e = Entry(aux.plain)
	e.Details = DecodeDetails(aux.Details)
	return nil
}
