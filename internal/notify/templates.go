package notify

import (
	"fmt"
	"html/template"
	"strings"
)

// Template names used by the credential and OTP flows.
const (
	TemplateSignUp         = "auth-sign-up"
	TemplateForgetPassword = "user-forget-password"
	TemplateOTP            = "auth-otp-generate"
	TemplateChangeStatus   = "user-change-status"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "auth-sign-up"}}<h2>Welcome, {{.name}}</h2>
<p>Your account has been created. You can now sign in with your email.</p>{{end}}

{{define "user-forget-password"}}<h2>Temporary password</h2>
<p>Hello {{.name}},</p>
<p>On {{.date}} a temporary password was issued for your account:</p>
<p><b>{{.tempPassword}}</b></p>
<p>Sign in with it and change your password right away.</p>{{end}}

{{define "auth-otp-generate"}}<h2>Your one-time passcode</h2>
<p>Code: <b>{{.otp}}</b></p>
<p>If you did not request this code, ignore this message.</p>{{end}}

{{define "user-change-status"}}<h2>Account status changed</h2>
<p>Hello {{.name}},</p>
<p>Your account has been {{if .isActive}}enabled{{else}}disabled{{end}}.</p>{{end}}
`))

func renderTemplate(name string, data map[string]any) (string, error) {
	if templates.Lookup(name) == nil {
		return "", fmt.Errorf("notify: unknown template %q", name)
	}
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
