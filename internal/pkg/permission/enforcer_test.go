package permission

import "testing"

func TestDefaultPolicies(t *testing.T) {
	e, err := NewEnforcer(DefaultPolicies)
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}

	tests := []struct {
		role, path, method string
		want               bool
	}{
		{"admin", "/api/students", "GET", true},
		{"admin", "/api/tickets/generate", "POST", true},
		{"admin", "/api/reports/export", "GET", true},
		{"scanner", "/api/tickets/scan", "POST", true},
		{"scanner", "/api/tickets/override", "POST", true},
		{"scanner", "/api/tickets", "GET", true},
		{"scanner", "/api/tickets/generate", "POST", false},
		{"scanner", "/api/students", "GET", false},
		{"scanner", "/api/reports/dashboard", "GET", false},
		{"guest", "/api/tickets/scan", "POST", false},
	}

	for _, tc := range tests {
		if got := e.Allowed(tc.role, tc.path, tc.method); got != tc.want {
			t.Errorf("%s %s %s: expected %v, got %v", tc.role, tc.method, tc.path, tc.want, got)
		}
	}
}

func TestGrant(t *testing.T) {
	e, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}
	if e.Allowed("auditor", "/api/reports/dashboard", "GET") {
		t.Fatalf("expected deny before grant")
	}
	if err := e.Grant(Policy{Role: "auditor", Path: "/api/reports/*", Method: "GET"}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !e.Allowed("auditor", "/api/reports/dashboard", "GET") {
		t.Fatalf("expected allow after grant")
	}
}
