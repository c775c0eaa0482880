package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/domain/mealcredit"
	"github.com/edumeal/edumeal-api/internal/pkg/signature"
)

type granterStub struct {
	requests []mealcredit.GrantRequest
	err      error
}

func (g *granterStub) GrantMeals(_ context.Context, req mealcredit.GrantRequest) (*mealcredit.GrantResult, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &mealcredit.GrantResult{MealsAdded: mealcredit.MealsForPlan(req.PlanType)}, nil
}

type recorderStub struct {
	entries []activity.Entry
}

func (r *recorderStub) Record(_ context.Context, t activity.Type, d activity.Details, _ string) *activity.Entry {
	e := activity.Entry{ID: len(r.entries) + 1, Type: t, Details: d}
	r.entries = append(r.entries, e)
	return &e
}

func send(h *Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/quickbooks", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

const validBody = `{"studentId":"STU001","productType":"weekly","amount":25.00,"transactionId":"TX1"}`

func TestWebhookGrants(t *testing.T) {
	g, rec := &granterStub{}, &recorderStub{}
	h := NewHandler(g, rec, "")

	rr := send(h, validBody, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp Response
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if !resp.Success || resp.MealsAdded != 5 {
		t.Fatalf("unexpected response %+v", resp)
	}

	req := g.requests[0]
	if req.Payer.StudentID != "STU001" || req.AmountPaid != 25 || req.TransactionID != "TX1" || req.Channel != SourceQuickBooks {
		t.Fatalf("unexpected grant request %+v", req)
	}
	attempt, ok := rec.entries[0].Details.(activity.WebhookAttempt)
	if rec.entries[0].Type != activity.TypeWebhookAttempt || !ok || string(attempt.Payload) != validBody {
		t.Fatalf("expected attempt logged with payload, got %+v", rec.entries[0])
	}
}

func TestWebhookMissingFieldsLoggedFirst(t *testing.T) {
	g, rec := &granterStub{}, &recorderStub{}
	h := NewHandler(g, rec, "")

	rr := send(h, `{"productType":"weekly"}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"success":false`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	if len(g.requests) != 0 {
		t.Fatalf("engine must not be called")
	}
	if rec.entries[0].Type != activity.TypeWebhookAttempt {
		t.Fatalf("attempt must be logged before validation")
	}

	rr = send(h, `{not json`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", rr.Code)
	}
	attempt := rec.entries[len(rec.entries)-2].Details.(activity.WebhookAttempt)
	if string(attempt.Payload) != `"{not json"` {
		t.Fatalf("invalid payload should be stored as a string, got %s", attempt.Payload)
	}
}

func TestWebhookSignature(t *testing.T) {
	g, rec := &granterStub{}, &recorderStub{}
	h := NewHandler(g, rec, "s3cret")

	rr := send(h, validBody, map[string]string{"X-Webhook-Signature": "deadbeef"})
	if rr.Code != http.StatusUnauthorized || strings.TrimSpace(rr.Body.String()) != `{"message":"Unauthorized"}` {
		t.Fatalf("expected 401, got %d %s", rr.Code, rr.Body.String())
	}
	if len(rec.entries) != 1 || rec.entries[0].Type != activity.TypeWebhookAttempt {
		t.Fatalf("rejected call must still be logged")
	}

	if rr := send(h, validBody, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned call must be rejected, got %d", rr.Code)
	}

	rr = send(h, validBody, map[string]string{"X-Webhook-Signature": signature.SignHex([]byte(validBody), "s3cret")})
	if rr.Code != http.StatusOK {
		t.Fatalf("hex signature rejected: %d", rr.Code)
	}
	rr = send(h, validBody, map[string]string{"Intuit-Signature": signature.SignBase64([]byte(validBody), "s3cret")})
	if rr.Code != http.StatusOK {
		t.Fatalf("base64 signature rejected: %d", rr.Code)
	}
}

func TestWebhookEngineFailures(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{mealcredit.ErrCreationFailed, http.StatusInternalServerError},
		{errors.New("db down"), http.StatusInternalServerError},
		{mealcredit.ErrMissingFields, http.StatusBadRequest},
	}
	for _, tc := range tests {
		h := NewHandler(&granterStub{err: tc.err}, &recorderStub{}, "")
		rr := send(h, validBody, nil)
		if rr.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rr.Code)
		}
		if strings.Contains(rr.Body.String(), "db down") {
			t.Fatalf("internal error leaked")
		}
	}
}

func TestWebhookAcceptsNumericFields(t *testing.T) {
	g := &granterStub{}
	h := NewHandler(g, &recorderStub{}, "")

	rr := send(h, `{"studentId":1042,"productType":"monthly","amount":"40","transactionId":991,"serviceDate":"2024-02-01"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	req := g.requests[0]
	if req.Payer.StudentID != "1042" || req.TransactionID != "991" || req.AmountPaid != 40 || req.ServiceDate != "2024-02-01" {
		t.Fatalf("unexpected request %+v", req)
	}
}
