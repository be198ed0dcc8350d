package security

import (
	"net/http"

	"github.com/sellside/storefront/internal/common"
)

// BodyLimit caps request payload size. Cart and order bodies are small, so
// anything beyond the limit is rejected before JSON decoding starts.
type BodyLimit struct {
	Max int64
}

// Middleware rejects oversized payloads with HTTP 413 and wraps the body so
// handlers cannot read past the limit.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, common.CodeBadRequest, "request body too large", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
