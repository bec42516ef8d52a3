package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                             "/",
		"/metrics":                     "/metrics",
		"/v1/users/abc":                "/v1/users/:id",
		"/v1/users/abc/status":         "/v1/users/:id/status",
		"/v1/users/abc/extra":          "/v1/users/abc/extra",
		"/v1/auth/sign-in":             "/v1/auth/sign-in",
		"/v1/auth/otp/generate":        "/v1/auth/otp/generate",
		"/v1/users?page=2&page_size=5": "/v1/users",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
