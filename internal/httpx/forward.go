package httpx

import (
	"net"
	"net/http"
	"strings"
)

// ForwardMeta carries client information captured from the inbound request
// so it can be relayed to the upstream services.
type ForwardMeta struct {
	UserAgent string `validate:"omitempty,max=256"`
	IP        string `validate:"omitempty,max=64"` // derived from X-Forwarded-For/RemoteAddr
}

func MetaFromRequest(r *http.Request) ForwardMeta {
	return ForwardMeta{
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	}
}

// Apply stamps the captured metadata onto an outbound upstream request.
func (m ForwardMeta) Apply(req *http.Request) {
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	if m.IP != "" {
		req.Header.Set("X-Forwarded-For", m.IP)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// first hop is the original client
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
