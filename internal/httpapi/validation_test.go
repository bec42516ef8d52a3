package httpapi

import (
	"strings"
	"testing"
)

func validSignUp() signUpRequest {
	return signUpRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		CitizenID: "12345678901",
		Phone:     "5550001122",
		Email:     "jane.doe@example.com",
		Password:  "S3cure-pass",
	}
}

func TestValidateSignUp(t *testing.T) {
	if errs := validateSignUp(validSignUp()); len(errs) != 0 {
		t.Fatalf("valid request produced errors: %v", errs)
	}

	cases := []struct {
		name   string
		mutate func(*signUpRequest)
	}{
		{"empty first name", func(r *signUpRequest) { r.FirstName = "  " }},
		{"long last name", func(r *signUpRequest) { r.LastName = strings.Repeat("a", 51) }},
		{"short citizen id", func(r *signUpRequest) { r.CitizenID = "123" }},
		{"non-digit citizen id", func(r *signUpRequest) { r.CitizenID = "1234567890a" }},
		{"short phone", func(r *signUpRequest) { r.Phone = "555" }},
		{"bad email", func(r *signUpRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *signUpRequest) { r.Password = "short" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validSignUp()
			tc.mutate(&req)
			if errs := validateSignUp(req); len(errs) == 0 {
				t.Fatal("expected a field error")
			}
		})
	}
}

func TestValidateOTPRequest(t *testing.T) {
	ok := otpValidateRequest{Email: "jane.doe@example.com", OTP: "123456"}
	if errs := validateOTPRequest(ok); len(errs) != 0 {
		t.Fatalf("valid request produced errors: %v", errs)
	}
	for _, otp := range []string{"", "12345", "1234567", "12345a"} {
		req := otpValidateRequest{Email: "jane.doe@example.com", OTP: otp}
		if errs := validateOTPRequest(req); len(errs) == 0 {
			t.Errorf("otp %q must be rejected", otp)
		}
	}
}

func TestValidateEmailBounds(t *testing.T) {
	if errs := validateEmail(nil, "jane.doe@example.com"); len(errs) != 0 {
		t.Fatalf("valid email produced errors: %v", errs)
	}
	long := strings.Repeat("a", 95) + "@x.com"
	if errs := validateEmail(nil, long); len(errs) == 0 {
		t.Fatal("over-long email must be rejected")
	}
}
