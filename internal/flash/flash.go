package flash

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const cookieName = "cloudbyte_flash"

// Kind selects the toast style.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Message is a one-shot toast shown on the next rendered page.
type Message struct {
	Kind Kind
	Text string
}

// Set stores a message to be shown after the next redirect.
func Set(w http.ResponseWriter, kind Kind, text string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    string(kind) + ":" + base64.RawURLEncoding.EncodeToString([]byte(text)),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending message, if any, and clears it.
func Pop(w http.ResponseWriter, r *http.Request) *Message {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	kindStr, encoded, ok := strings.Cut(cookie.Value, ":")
	if !ok {
		return nil
	}
	text, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	kind := Kind(kindStr)
	if kind != Success && kind != Error {
		kind = Success
	}
	return &Message{Kind: kind, Text: string(text)}
}
