package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/avvvet/cardkey-services/internal/cardsvc/metrics"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) InitAuth() {
	h.tokenAuth = jwtauth.New("HS256", []byte(h.cfg.SigningSecret()), nil)
	if h.cfg.AdminAuthEnabled && h.cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET_KEY not set, admin tokens are signed with the admin password")
	}
}

// IssueAdminToken mints a signed token carrying the admin claim.
func (h *Handler) IssueAdminToken(now time.Time) (string, error) {
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"admin": true,
		"iat":   now.Unix(),
		"exp":   now.Add(h.cfg.TokenTTL).Unix(),
	})
	return tokenString, err
}

// AdminAuthenticator runs after jwtauth.Verifier and rejects requests whose
// token is missing, expired, badly signed, or lacks the admin claim.
func (h *Handler) AdminAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if jwtauth.TokenFromHeader(r) == "" {
			h.fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			h.fail(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if admin, _ := claims["admin"].(bool); !admin {
			h.fail(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RedeemKeyAuthenticator guards redemption with its own shared key, separate
// from the admin token. It is a no-op when REDEEM_API_KEY is unset.
func (h *Handler) RedeemKeyAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.RedeemAPIKey != "" && !secretEqual(r.Header.Get("X-Redeem-Key"), h.cfg.RedeemAPIKey) {
			h.fail(w, http.StatusUnauthorized, "invalid redeem key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) AdminAuthHandler(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		metrics.AdminLogins.WithLabelValues("malformed").Inc()
		h.fail(w, http.StatusBadRequest, "login request could not be processed")
		return
	}

	if !h.checkAdminPassword(req.Password) {
		metrics.AdminLogins.WithLabelValues("rejected").Inc()
		log.Warnf("admin login rejected from %s", r.RemoteAddr)
		h.fail(w, http.StatusUnauthorized, "wrong password")
		return
	}

	token, err := h.IssueAdminToken(time.Now())
	if err != nil {
		log.Errorf("Error issuing admin token: %s", err)
		h.fail(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	metrics.AdminLogins.WithLabelValues("ok").Inc()
	h.CreateResponse(w, Response{Success: true, Message: "login successful", Token: token})
}

func (h *Handler) checkAdminPassword(password string) bool {
	if password == "" {
		return false
	}
	if h.cfg.AdminPasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(password)) == nil
	}
	if h.cfg.AdminPassword == "" {
		return false
	}
	return secretEqual(password, h.cfg.AdminPassword)
}

func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
