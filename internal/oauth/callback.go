package oauth

import (
	"html/template"
	"io"

	"github.com/shrutimovaliya24/softcool/internal/models"
)

// Message types posted from the callback popup to its opener.
const (
	MessageSuccess = "OAUTH_SUCCESS"
	MessageError   = "OAUTH_ERROR"
)

// Messages shown when the flow fails.
const (
	ErrTextFailed         = "Authentication failed"
	ErrTextInvalidRequest = "Invalid request. Please try again."
	ErrTextTimeout        = "Authentication timed out. Please try again."
	ErrTextPopupBlocked   = "Popup blocked. Please allow popups for this site."
)

// Message is the payload of the cross-window postMessage.
type Message struct {
	Type  string                       `json:"type"`
	Data  *models.OAuthCompleteRequest `json:"data,omitempty"`
	Error string                       `json:"error,omitempty"`
}

// SuccessMessage wraps a provider profile.
func SuccessMessage(provider string, p Profile) Message {
	return Message{
		Type: MessageSuccess,
		Data: &models.OAuthCompleteRequest{
			Provider: provider,
			Email:    p.Email,
			Name:     p.Name,
			Picture:  p.Picture,
		},
	}
}

// ErrorMessage reports a failed flow.
func ErrorMessage(text string) Message {
	return Message{Type: MessageError, Error: text}
}

// html/template encodes the message as a JS literal, escaping quotes and
// markup, so provider-controlled strings cannot break out of the script.
var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Signing in…</title></head>
<body>
<script>
  if (window.opener) {
    window.opener.postMessage({{.}}, window.location.origin);
  }
  window.close();
</script>
</body>
</html>
`))

// RenderCallback writes the popup page that relays msg to the opener.
func RenderCallback(w io.Writer, msg Message) error {
	return callbackPage.Execute(w, msg)
}
