package handler

import (
	"net/http"
)

// TerminalConfig fills in the host-specific parts of the instructions.
type TerminalConfig struct {
	SSHHost      string
	ProjectDir   string
	SupportEmail string
}

type TerminalHandler struct {
	renderer *Renderer
	commands []string
	steps    []string
}

func NewTerminalHandler(renderer *Renderer, cfg TerminalConfig) *TerminalHandler {
	return &TerminalHandler{
		renderer: renderer,
		commands: []string{
			"ssh user@" + cfg.SSHHost,
			"cd " + cfg.ProjectDir,
			"git pull origin main",
			"npm install",
			"npm run build",
			"pm2 restart all",
		},
		steps: []string{
			"Contact your developer or system administrator for SSH credentials",
			"Use the provided SSH key to connect to your server",
			"Navigate to your project directory",
			"Execute deployment or management commands as needed",
			"For assistance, contact support at " + cfg.SupportEmail,
		},
	}
}

// Terminal renders the static access instructions.
func (h *TerminalHandler) Terminal(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Commands": h.commands,
		"Steps":    h.steps,
	}
	h.renderer.Render(w, r, http.StatusOK, "terminal.html", data)
}
