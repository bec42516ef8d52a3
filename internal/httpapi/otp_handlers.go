package httpapi

import (
	"net/http"

	"emhana.org/internal/audit"
	"emhana.org/internal/obs"
)

type otpGenerateRequest struct {
	Email string `json:"email"`
}

type otpValidateRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (a *API) handleOTPGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req otpGenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validateEmail(nil, req.Email); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, errs)
		return
	}

	if err := a.otp.Generate(r.Context(), req.Email); err != nil {
		respondDomainError(w, err)
		return
	}

	obs.IncOTPIssued()
	_ = audit.LogEvent(r.Context(), "otp.generated", map[string]any{
		"email": req.Email,
	})

	// The code travels by mail only; the acknowledgement never reveals it.
	respond(w, http.StatusOK, "OTP generated successfully, check email to get code", nil)
}

func (a *API) handleOTPValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req otpValidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validateOTPRequest(req); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, errs)
		return
	}

	if err := a.otp.Validate(r.Context(), req.Email, req.OTP); err != nil {
		obs.IncOTPValidated("denied")
		respondDomainError(w, err)
		return
	}

	obs.IncOTPValidated("ok")
	_ = audit.LogEvent(r.Context(), "otp.validated", map[string]any{
		"email": req.Email,
	})

	respond(w, http.StatusOK, "OTP validated successfully", nil)
}
