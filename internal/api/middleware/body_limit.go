package middleware

import (
	"net/http"
	"strings"
)

const (
	// DefaultStandardMaxBodyBytes is the max request body for the management
	// and auth surfaces (64KB).
	DefaultStandardMaxBodyBytes = 64 * 1024
	// DefaultIngestMaxBodyBytes is the max request body for modbus ingest (1MB).
	DefaultIngestMaxBodyBytes = 1 << 20
)

// MaxBodySize limits request bodies: ingestMax for modbus ingest, standardMax
// otherwise. GET/HEAD/DELETE are not limited.
func MaxBodySize(standardMax, ingestMax int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}
			max := standardMax
			if r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/modbus/") {
				max = ingestMax
			}
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}
