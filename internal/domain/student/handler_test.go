package student

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func passThrough(next http.Handler) http.Handler { return next }

func newTestRouter(repo *memRepo) http.Handler {
	r := chi.NewRouter()
	r.Mount("/api/students", NewHandler(NewService(repo, nil, nil)).Routes(passThrough))
	return r
}

func perform(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlerCreateAndGet(t *testing.T) {
	h := newTestRouter(newMemRepo())

	rr := perform(h, http.MethodPost, "/api/students",
		`{"studentId":"STU010","firstName":"Grace","lastName":"Hopper","grade":"7","class":"7A","mealsRemaining":3}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created Student
	json.Unmarshal(rr.Body.Bytes(), &created)
	if created.ID == 0 || created.MealsRemaining != 3 {
		t.Fatalf("unexpected student %+v", created)
	}

	rr = perform(h, http.MethodGet, "/api/students/1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"studentId":"STU010"`) {
		t.Fatalf("expected camelCase body, got %s", rr.Body.String())
	}
}

func TestHandlerCreateValidation(t *testing.T) {
	h := newTestRouter(newMemRepo())

	rr := perform(h, http.MethodPost, "/api/students", `{"studentId":"STU011","lastName":"Hopper","grade":"7","class":"7A"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body.Field != "firstName" || body.Message == "" {
		t.Fatalf("unexpected error body %s", rr.Body.String())
	}
}

func TestHandlerDuplicateStudentID(t *testing.T) {
	h := newTestRouter(newMemRepo(&Student{StudentID: "STU001", LastName: "Doe"}))

	rr := perform(h, http.MethodPost, "/api/students", `{"studentId":"STU001","firstName":"J","lastName":"D","grade":"5","class":"5A"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"field":"studentId"`) {
		t.Fatalf("expected studentId field error, got %s", rr.Body.String())
	}
}

func TestHandlerNotFoundAndBadID(t *testing.T) {
	h := newTestRouter(newMemRepo())

	if rr := perform(h, http.MethodGet, "/api/students/42", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr := perform(h, http.MethodGet, "/api/students/abc", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if rr := perform(h, http.MethodPut, "/api/students/42", `{"firstName":"X"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on update, got %d", rr.Code)
	}
}

func TestHandlerPartialUpdate(t *testing.T) {
	h := newTestRouter(newMemRepo(&Student{StudentID: "STU001", FirstName: "John", LastName: "Doe", IsActive: true, MealsRemaining: 10}))

	rr := perform(h, http.MethodPut, "/api/students/1", `{"isActive":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var st Student
	json.Unmarshal(rr.Body.Bytes(), &st)
	if st.IsActive || st.FirstName != "John" || st.MealsRemaining != 10 {
		t.Fatalf("partial update changed other fields: %+v", st)
	}

	if rr := perform(h, http.MethodPut, "/api/students/1", `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty update, got %d", rr.Code)
	}
}
