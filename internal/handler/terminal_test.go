package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTerminalPage(t *testing.T) {
	env := setupEnv(t)
	h := NewTerminalHandler(env.renderer, TerminalConfig{
		SSHHost:      "server.cloudbyte.cloud",
		ProjectDir:   "/var/www/your-project",
		SupportEmail: "support@cloudbyte.cloud",
	})
	sess := env.signUp(t, "alice@example.com")

	rec := httptest.NewRecorder()
	h.Terminal(rec, withSession(httptest.NewRequest("GET", "/terminal", nil), sess))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()

	if got := strings.Count(body, "data-copy="); got != 6 {
		t.Errorf("copy buttons = %d, want 6", got)
	}
	for _, want := range []string{
		"Developer Access Required",
		"<code>ssh user@server.cloudbyte.cloud</code>",
		"<code>cd /var/www/your-project</code>",
		"<code>git pull origin main</code>",
		"<code>npm install</code>",
		"<code>npm run build</code>",
		"<code>pm2 restart all</code>",
		"support@cloudbyte.cloud",
		"Back to Dashboard",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("terminal page missing %q", want)
		}
	}
}
