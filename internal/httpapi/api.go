package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"emhana.org/internal/auth"
	"emhana.org/internal/obs"
	"emhana.org/internal/otp"
)

const serviceName = "emhana-api"

// ReadyProbe — простая проверка готовности (ping БД, если она подключена).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API — HTTP слой.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth *auth.Service
	otp  *otp.Engine

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, authSvc *auth.Service, otpEngine *otp.Engine) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		auth:       authSvc,
		otp:        otpEngine,
		rateBurst:  20,
		ratePerSec: 10,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// credential lifecycle
	a.mux.HandleFunc("/v1/auth/sign-up", a.handleSignUp)
	a.mux.HandleFunc("/v1/auth/sign-in", a.handleSignIn)
	a.mux.HandleFunc("/v1/auth/forget-password", a.handleForgetPassword)
	a.mux.HandleFunc("/v1/auth/change-password", a.handleChangePassword)

	// OTP lifecycle
	a.mux.HandleFunc("/v1/auth/otp/generate", a.handleOTPGenerate)
	a.mux.HandleFunc("/v1/auth/otp/validate", a.handleOTPValidate)

	// users
	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// корень — 404
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			respondError(w, http.StatusNotFound, "resource not found")
			return
		}
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler chain for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
