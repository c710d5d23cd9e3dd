// Package auth provides API key authentication for the gRPC and HTTP APIs.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// HeaderName carries the API key in gRPC metadata and HTTP headers.
const HeaderName = "x-api-key"

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// fingerprintKey is the context key for the authenticated key's fingerprint.
const fingerprintKey = contextKey("key_fingerprint")

// Authenticator validates API keys against a fixed set.
// Only SHA-256 digests are held in memory; every candidate is compared
// against every digest in constant time so timing does not reveal which
// key (or how much of one) matched.
type Authenticator struct {
	digests [][sha256.Size]byte
}

// NewAuthenticator creates an authenticator for keys.
// No keys means authentication is disabled and every request passes.
func NewAuthenticator(keys []string) *Authenticator {
	a := &Authenticator{digests: make([][sha256.Size]byte, 0, len(keys))}
	for _, k := range keys {
		a.digests = append(a.digests, sha256.Sum256([]byte(k)))
	}
	return a
}

// Enabled reports whether any keys are configured.
func (a *Authenticator) Enabled() bool {
	return len(a.digests) > 0
}

// Authenticate validates apiKey and returns its fingerprint (first 8 bytes
// of the digest, hex) for logging.
func (a *Authenticator) Authenticate(apiKey string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingKey
	}

	candidate := sha256.Sum256([]byte(apiKey))
	match := 0
	for i := range a.digests {
		match |= subtle.ConstantTimeCompare(candidate[:], a.digests[i][:])
	}
	if match != 1 {
		return "", ErrInvalidKey
	}
	return hex.EncodeToString(candidate[:8]), nil
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
// Health checks pass without a key so orchestrators can probe the server.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !a.Enabled() || isHealthMethod(info.FullMethod) {
			return handler(ctx, req)
		}

		var apiKey string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(HeaderName); len(vals) > 0 {
				apiKey = vals[0]
			}
		}

		fingerprint, err := a.Authenticate(apiKey)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(context.WithValue(ctx, fingerprintKey, fingerprint), req)
	}
}

// Middleware returns HTTP middleware that authenticates requests.
// Requests to paths in public pass without a key.
func (a *Authenticator) Middleware(public ...string) func(http.Handler) http.Handler {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() || open[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			fingerprint, err := a.Authenticate(r.Header.Get(HeaderName))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `APIKey header="`+HeaderName+`"`)
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), fingerprintKey, fingerprint)))
		})
	}
}

// FingerprintFromContext returns the authenticated key fingerprint.
// Returns empty string when authentication is disabled.
func FingerprintFromContext(ctx context.Context) string {
	if fp, ok := ctx.Value(fingerprintKey).(string); ok {
		return fp
	}
	return ""
}

func isHealthMethod(fullMethod string) bool {
	return fullMethod == "/grpc.health.v1.Health/Check" || fullMethod == "/grpc.health.v1.Health/Watch"
}
