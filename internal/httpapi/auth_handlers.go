package httpapi

import (
	"net/http"

	"emhana.org/internal/audit"
	"emhana.org/internal/auth"
	"emhana.org/internal/obs"
)

type signUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	CitizenID string `json:"citizenId"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgetPasswordRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validateSignUp(req); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, errs)
		return
	}

	session, err := a.auth.SignUp(r.Context(), auth.SignUpInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CitizenID: req.CitizenID,
		Phone:     req.Phone,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	obs.IncSignUp()
	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"user_id": session.User.ID,
		"email":   session.User.Email,
	})

	respond(w, http.StatusCreated, "User created successfully", session)
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validateSignIn(req); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, errs)
		return
	}

	session, err := a.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.IncSignIn("denied")
		respondDomainError(w, err)
		return
	}

	obs.IncSignIn("ok")
	_ = audit.LogEvent(r.Context(), "auth.signin", map[string]any{
		"user_id": session.User.ID,
	})

	respond(w, http.StatusOK, "User sign in successfully", session)
}

func (a *API) handleForgetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, http.MethodPatch)
		return
	}
	var req forgetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validateEmail(nil, req.Email); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, errs)
		return
	}

	user, tempPassword, err := a.auth.ForgetPassword(r.Context(), req.Email)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.password.reset", map[string]any{
		"user_id": user.ID,
	})

	// The temporary password is display-only for the caller; it is never
	// persisted in plaintext.
	respond(w, http.StatusOK, "User updated with a temporal password", map[string]any{
		"user":             user,
		"temporalPassword": tempPassword,
	})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, http.MethodPatch)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := validateChangePassword(req); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, errs)
		return
	}

	updated, err := a.auth.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.password.change", map[string]any{
		"user_id": updated.ID,
	})

	respond(w, http.StatusOK, "Password changed successfully", updated)
}
