package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// VerifyPasswordHandler checks a password against VERIFY_PASSWORD for
// deployments that only gate a page behind a shared secret. Unreadable
// bodies are answered with 500, as existing clients expect.
func (h *Handler) VerifyPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Errorf("Error processing verify-password request: %s", err)
		h.fail(w, http.StatusInternalServerError, "server error")
		return
	}

	if h.cfg.VerifyPassword == "" || !secretEqual(req.Password, h.cfg.VerifyPassword) {
		h.fail(w, http.StatusUnauthorized, "incorrect password")
		return
	}

	h.CreateResponse(w, Response{Success: true, Message: "password verified"})
}
