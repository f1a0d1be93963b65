package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artfolio/engagement-service/internal/transport/http/response"
)

type deviceIDKey struct{}

const DeviceCookieName = "device_id"

// DeviceID resolves the caller's device fingerprint. An explicit
// X-Device-Id header (the storefront's own fingerprint) wins; otherwise
// an HMAC-signed cookie identifies the browser, minted on first contact.
// Cookie format: <device_id>.<exp_unix>.<sig>
func DeviceID(secret string, ttl time.Duration, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := strings.TrimSpace(r.Header.Get("X-Device-Id"))

			if deviceID == "" {
				if c, err := r.Cookie(DeviceCookieName); err == nil {
					if id, ok := verifyDeviceCookie(secret, c.Value); ok {
						deviceID = id
					}
				}
			}

			if deviceID == "" {
				deviceID = uuid.NewString()
				exp := time.Now().Add(ttl).Unix()

				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookieName,
					Value:    signDeviceCookie(secret, deviceID, exp),
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   secureCookie,
				})
			}

			ctx := context.WithValue(r.Context(), deviceIDKey{}, deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireDevice rejects requests that reached a device-scoped route
// without a resolved fingerprint.
func RequireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if DeviceFromContext(r.Context()) == "" {
			response.Fail(w, http.StatusBadRequest, "validation_error", "device id missing",
				nil, response.RequestIDFromRequest(r))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func DeviceFromContext(ctx context.Context) string {
	v, _ := ctx.Value(deviceIDKey{}).(string)
	return v
}

func signDeviceCookie(secret, deviceID string, exp int64) string {
	payload := fmt.Sprintf("%s.%d", deviceID, exp)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return payload + "." + sig
}

func verifyDeviceCookie(secret, cookie string) (string, bool) {
	parts := strings.SplitN(cookie, ".", 3)
	if len(parts) != 3 {
		return "", false
	}

	deviceID, expStr := parts[0], parts[1]

	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return "", false
	}

	if time.Now().Unix() > exp {
		return "", false // expired
	}

	expected := signDeviceCookie(secret, deviceID, exp)
	if !hmac.Equal([]byte(cookie), []byte(expected)) {
		return "", false
	}

	return deviceID, true
}
