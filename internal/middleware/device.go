package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/shrutimovaliya24/softcool/internal/services"
	"go.uber.org/zap"
)

// DeviceCookieName names the cookie that identifies a device.
const DeviceCookieName = "softcool_device"

const deviceIDValue = "device_id"

// deviceMaxAge keeps the device cookie for a year, like browser storage.
const deviceMaxAge = 365 * 24 * 60 * 60

type sessionKey struct{}

// SessionResolver returns the state of a device
type SessionResolver interface {
	Get(ctx context.Context, deviceID string) (*services.Session, error)
}

// NewDeviceCookieStore signs device cookies with secret
func NewDeviceCookieStore(secret string, secure bool) *sessions.CookieStore {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   deviceMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return cs
}

// DeviceMiddleware attaches the device session to the request context,
// issuing a new device id when the cookie is missing or unreadable.
func DeviceMiddleware(cookies sessions.Store, resolver SessionResolver, logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// a cookie signed with another secret yields a fresh session and an error
			cs, err := cookies.Get(r, DeviceCookieName)
			if err != nil {
				logger.Debug("Discarding unreadable device cookie", zap.Error(err))
			}

			deviceID, _ := cs.Values[deviceIDValue].(string)
			if deviceID == "" {
				deviceID = uuid.NewString()
				cs.Values[deviceIDValue] = deviceID
				if err := cs.Save(r, w); err != nil {
					logger.Error("Failed to save device cookie", zap.Error(err))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
			}

			sess, err := resolver.Get(r.Context(), deviceID)
			if err != nil {
				logger.Error("Failed to load device session",
					zap.String("device_id", deviceID),
					zap.Error(err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session set by DeviceMiddleware
func SessionFromContext(ctx context.Context) (*services.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*services.Session)
	return sess, ok && sess != nil
}
