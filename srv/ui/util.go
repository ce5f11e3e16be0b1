package ui

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const sessionCookie = "session_id"

func newSessionID() string {
	return uuid.New().String()
}

func isValidSession(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	_, err := uuid.Parse(sessionID)
	return err == nil
}

func (ui *GeneratorUI) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ui.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// textareaValue undoes the CRLF line breaks browsers submit for textareas,
// so text that was not edited compares equal to what was rendered.
func textareaValue(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

var templateFuncs = template.FuncMap{
	"rows": func(text string) int {
		n := strings.Count(text, "\n") + 2
		return min(max(n, 6), 30)
	},
}
