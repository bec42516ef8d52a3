package httpapi

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation mirrors the field constraints of the public contract:
// each check appends a human-readable message, and the whole list is returned
// to the caller as a 400 with the field errors in message.

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateEmail(errs []string, email string) []string {
	email = strings.TrimSpace(email)
	if email == "" || !emailPattern.MatchString(email) {
		errs = append(errs, "email must be an email")
	}
	if len(email) > 100 {
		errs = append(errs, "email must be shorter than or equal to 100 characters")
	}
	return errs
}

func validatePassword(errs []string, field, password string) []string {
	if len(password) < 8 {
		errs = append(errs, fmt.Sprintf("%s must be longer than or equal to 8 characters", field))
	}
	return errs
}

func validateSignUp(req signUpRequest) []string {
	var errs []string
	if name := strings.TrimSpace(req.FirstName); name == "" || len(name) > 50 {
		errs = append(errs, "firstName must be between 1 and 50 characters")
	}
	if name := strings.TrimSpace(req.LastName); name == "" || len(name) > 50 {
		errs = append(errs, "lastName must be between 1 and 50 characters")
	}
	if len(req.CitizenID) != 11 || !isDigits(req.CitizenID) {
		errs = append(errs, "citizenId must be exactly 11 digits")
	}
	if len(req.Phone) != 10 || !isDigits(req.Phone) {
		errs = append(errs, "phone must be exactly 10 digits")
	}
	errs = validateEmail(errs, req.Email)
	errs = validatePassword(errs, "password", req.Password)
	return errs
}

func validateSignIn(req signInRequest) []string {
	var errs []string
	errs = validateEmail(errs, req.Email)
	errs = validatePassword(errs, "password", req.Password)
	return errs
}

func validateChangePassword(req changePasswordRequest) []string {
	var errs []string
	errs = validatePassword(errs, "currentPassword", req.CurrentPassword)
	errs = validatePassword(errs, "newPassword", req.NewPassword)
	return errs
}

func validateOTPRequest(req otpValidateRequest) []string {
	var errs []string
	errs = validateEmail(errs, req.Email)
	if len(req.OTP) != 6 || !isDigits(req.OTP) {
		errs = append(errs, "otp must be exactly 6 digits")
	}
	return errs
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
