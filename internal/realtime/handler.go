package realtime

import (
	"errors"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"
)

type HandlerOptions struct {
	// OriginPatterns restricts browser origins. Empty accepts any origin.
	OriginPatterns []string
}

// HandleWebSocket authenticates the handshake, upgrades the connection, and
// runs it as a hub session. An invalid credential is refused with 401 before
// any upgrade.
func HandleWebSocket(hub *Hub, opts HandlerOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := hub.BindSession(credentialFrom(r))
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				hub.logger.Warn("handshake rejected", "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			hub.logger.Error("handshake", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		acceptOpts := &ws.AcceptOptions{OriginPatterns: opts.OriginPatterns}
		if len(opts.OriginPatterns) == 0 {
			acceptOpts.InsecureSkipVerify = true
		}
		conn, err := ws.Accept(w, r, acceptOpts)
		if err != nil {
			hub.logger.Warn("accept", "error", err)
			return
		}

		sess.Run(r.Context(), conn)
	}
}

// credentialFrom reads the bearer credential from the token query parameter
// or the Authorization header.
func credentialFrom(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
