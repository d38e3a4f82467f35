package realtime

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/bizchat/server/internal/middleware"
)

// AcceptOptions controls the websocket origin check and optional session lookup
type AcceptOptions struct {
	// InsecureSkipVerify disables the origin check (dev only).
	InsecureSkipVerify bool
	// OriginPatterns lists extra allowed origin hosts, e.g. "app.example.com".
	OriginPatterns []string

	// Sessions resolves a Bearer header or session cookie on upgrade. A missing
	// or unknown session leaves the connection anonymous.
	Sessions   middleware.SessionResolver
	CookieName string
}

// OriginHosts turns configured CORS origins ("https://app.example.com") into
// websocket origin host patterns ("app.example.com").
func OriginHosts(origins []string) []string {
	var hosts []string
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if !strings.Contains(origin, "://") {
			hosts = append(hosts, origin)
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			log.Printf("ws: ignoring invalid origin %q", origin)
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}

// ServeWS returns an HTTP handler that upgrades to a websocket and joins the
// connection to hub. No session is required to connect.
func ServeWS(hub *Hub, opts AcceptOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := uuid.Nil
		if opts.Sessions != nil {
			if token := middleware.TokenFromRequest(r, opts.CookieName); token != "" {
				if id, ok := opts.Sessions.Resolve(token); ok {
					userID = id
				}
			}
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: opts.InsecureSkipVerify,
			OriginPatterns:     opts.OriginPatterns,
		})
		if err != nil {
			// Accept has already written the error response.
			log.Printf("ws: accept error: %v", err)
			return
		}
		conn.SetReadLimit(maxMessageSize)

		client := newClient(conn, userID)
		hub.add(client)
		defer func() {
			hub.remove(client)
			client.close()
			_ = conn.Close(websocket.StatusNormalClosure, "")
		}()

		ctx := r.Context()
		go client.writePump(ctx)
		client.readPump(ctx, hub)
	}
}
