package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/avvvet/cardkey-services/internal/cardsvc/apperr"
	"github.com/avvvet/cardkey-services/internal/cardsvc/models"
	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) ListUnusedHandler(w http.ResponseWriter, r *http.Request) {
	keys, err := h.cards.ListUnused(r.Context())
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	msg := fmt.Sprintf("found %d unused card keys", len(keys))
	if len(keys) == 0 {
		msg = "no unused card keys found"
	}
	h.CreateResponse(w, Response{Success: true, Message: msg, Data: keys})
}

type generateRequest struct {
	Count *int `json:"count"`
}

// GenerateHandler inserts a batch of new keys. The count in the body is
// optional and defaults to GENERATE_DEFAULT_COUNT.
func (h *Handler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.failErr(w, r, err)
		return
	}
	count := h.cfg.GenerateDefaultCount
	if req.Count != nil {
		count = *req.Count
	}

	res, err := h.generator.Generate(r.Context(), count)
	if err != nil {
		if apperr.Is(err, apperr.BadRequest) {
			h.failErr(w, r, err)
			return
		}
		// committed batches stay committed, so report what made it in
		log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
		h.CreateResponse(w, Response{
			Success: false,
			Message: err.Error(),
			Data:    res,
			Code:    http.StatusInternalServerError,
		})
		return
	}

	h.CreateResponse(w, Response{
		Success: true,
		Message: fmt.Sprintf("generated and inserted %d card keys", res.Inserted),
		Data:    res,
	})
}

func (h *Handler) LookupHandler(w http.ResponseWriter, r *http.Request) {
	k, err := h.cards.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.failErr(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Success: true, Message: "card key found", Data: k})
}

func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.cards.Stats(r.Context())
	if err != nil {
		h.failErr(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Success: true, Message: "card key counts", Data: st})
}

type redeemRequest struct {
	Code string `json:"code"`
}

func (h *Handler) RedeemHandler(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := h.cards.Redeem(r.Context(), req.Code)
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	switch res.Status {
	case models.Redeemed:
		h.CreateResponse(w, Response{Success: true, Message: "card key redeemed", Data: res})
	case models.AlreadyRedeemed:
		h.CreateResponse(w, Response{Success: false, Message: "card key already redeemed", Data: res})
	default:
		h.CreateResponse(w, Response{
			Success: false,
			Message: "card key not found",
			Data:    res,
			Code:    http.StatusNotFound,
		})
	}
}
