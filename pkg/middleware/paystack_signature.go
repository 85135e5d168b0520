package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"venivici/pkg/logger"
)

const PaystackSignatureHeader = "X-Paystack-Signature"

// PaystackSignatureVerification authenticates provider webhooks: the header must carry the
// hex HMAC-SHA512 of the raw body keyed with the shared secret. An empty secret disables
// the check; config validation refuses that combination in production.
func PaystackSignatureVerification(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				log.Warn("Accepting unsigned Paystack webhook, no secret configured",
					"request_id", RequestIDFromContext(r.Context()),
					"remote_addr", r.RemoteAddr,
				)
				next.ServeHTTP(w, r)
				return
			}

			signature := strings.TrimSpace(r.Header.Get(PaystackSignatureHeader))
			if signature == "" {
				logAndReject(w, log, r, "Missing "+PaystackSignatureHeader+" header")
				return
			}

			body, err := readAndRestoreBody(r)
			if err != nil {
				logAndReject(w, log, r, "Failed to read request body")
				return
			}

			if !VerifyPaystackSignature(body, signature, secret) {
				logAndReject(w, log, r, "Invalid webhook signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SignPaystackPayload returns the signature Paystack would send for body.
func SignPaystackPayload(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifyPaystackSignature(body []byte, receivedSignature string, secret string) bool {
	expected := SignPaystackPayload(body, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(receivedSignature)))
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}

func logAndReject(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Paystack webhook verification failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)

	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
}
