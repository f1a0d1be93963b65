package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieSecret = "test-cookie-secret"

func deviceEcho() (http.Handler, *string) {
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = DeviceFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return h, &got
}

func TestDeviceID_HeaderWins(t *testing.T) {
	echo, got := deviceEcho()
	h := DeviceID(cookieSecret, time.Hour, false)(echo)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Device-Id", "fp_abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, "fp_abc", *got)
	assert.Empty(t, w.Result().Cookies(), "no cookie minted when the header identifies the device")
}

func TestDeviceID_MintsSignedCookie(t *testing.T) {
	echo, got := deviceEcho()
	h := DeviceID(cookieSecret, time.Hour, false)(echo)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, *got)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DeviceCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// cookie round trips to the same id
	echo2, got2 := deviceEcho()
	h2 := DeviceID(cookieSecret, time.Hour, false)(echo2)
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	h2.ServeHTTP(httptest.NewRecorder(), r2)

	assert.Equal(t, *got, *got2)
}

func TestDeviceID_TamperedCookieReplaced(t *testing.T) {
	id, exp := "dev_original", time.Now().Add(time.Hour).Unix()
	forged := signDeviceCookie("wrong-secret", id, exp)

	echo, got := deviceEcho()
	h := DeviceID(cookieSecret, time.Hour, false)(echo)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: forged})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.NotEqual(t, "dev_original", *got)
	assert.Len(t, w.Result().Cookies(), 1, "replacement cookie minted")
}

func TestDeviceID_ExpiredCookieReplaced(t *testing.T) {
	expired := signDeviceCookie(cookieSecret, "dev_old", time.Now().Add(-time.Minute).Unix())

	echo, got := deviceEcho()
	h := DeviceID(cookieSecret, time.Hour, false)(echo)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: expired})
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.NotEqual(t, "dev_old", *got)
}

func TestRequireDevice_RejectsWithoutFingerprint(t *testing.T) {
	h := RequireDevice(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
