package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/avvvet/cardkey-services/internal/cardsvc/apperr"
	"github.com/avvvet/cardkey-services/internal/cardsvc/config"
	"github.com/avvvet/cardkey-services/internal/cardsvc/service"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	cfg        config.Config
	tokenAuth  *jwtauth.JWTAuth
	cards      *service.CardKeyService
	generator  *service.Generator
	instanceId string
}

func NewHandler(cfg config.Config, cards *service.CardKeyService, generator *service.Generator, instanceId string) *Handler {
	return &Handler{
		cfg:        cfg,
		cards:      cards,
		generator:  generator,
		instanceId: instanceId,
	}
}

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Token   string      `json:"token,omitempty"`
	Code    int         `json:"-"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	if rsp.Code == 0 {
		rsp.Code = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Error encode response: %s", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, code int, msg string) {
	h.CreateResponse(w, Response{Success: false, Message: msg, Code: code})
}

// failErr maps err to a status and logs anything that is not the caller's fault.
func (h *Handler) failErr(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.StatusCode(err)
	if code >= http.StatusInternalServerError {
		log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
	}
	h.fail(w, code, err.Error())
}

// decodeJSON reads a single JSON object. An empty body yields io.EOF so
// callers can apply defaults.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return apperr.Wrap(apperr.BadRequest, "malformed request body", err)
	}
	return nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Success: true,
		Message: "card key service is running at port " + h.cfg.Port,
		Data:    map[string]string{"instance_id": h.instanceId},
	})
}

func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.fail(w, http.StatusNotFound, "not found")
}

func (h *Handler) MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	h.fail(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
}
