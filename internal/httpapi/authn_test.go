package httpapi

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "plain", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "surrounding space", header: "  Bearer token123  ", want: "token123"},
		{name: "empty", header: "", wantErr: true},
		{name: "no token", header: "Bearer ", wantErr: true},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractBearerToken(tc.header)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("token = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsPublicPath(t *testing.T) {
	public := []string{
		"/healthz", "/readyz", "/metrics", "/v1/info",
		"/v1/auth/sign-up", "/v1/auth/sign-in", "/v1/auth/forget-password",
		"/v1/auth/otp/generate", "/v1/auth/otp/validate",
	}
	for _, p := range public {
		if !isPublicPath(p) {
			t.Errorf("%s must be public", p)
		}
	}
	protected := []string{
		"/v1/auth/change-password", "/v1/users", "/v1/users/me", "/v1/users/abc/status",
	}
	for _, p := range protected {
		if isPublicPath(p) {
			t.Errorf("%s must require a token", p)
		}
	}
}
