package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUnauthorizedBodyIsUniform(t *testing.T) {
	rr := httptest.NewRecorder()
	Unauthorized(rr)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != "{\"message\":\"Unauthorized\"}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestValidationErrorPromotesFirstField(t *testing.T) {
	rr := httptest.NewRecorder()
	ValidationError(rr, map[string]string{
		"lastName":  "This field is required",
		"firstName": "This field is required",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Field != "firstName" {
		t.Fatalf("expected firstName promoted, got %q", body.Field)
	}
	if len(body.Details) != 2 {
		t.Fatalf("expected both details, got %v", body.Details)
	}
}

func TestAttachmentHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	Attachment(rr, "text/csv", "eligibility_report_2024-01-01.csv", []byte("a,b\n"))

	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="eligibility_report_2024-01-01.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rr.Body.String() != "a,b\n" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}
