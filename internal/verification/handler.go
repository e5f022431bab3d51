package verification

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/credmesh/credmesh/internal/credential"
	"github.com/credmesh/credmesh/internal/verifylog"
)

const defaultLogLimit = 100

// Handler exposes the verification HTTP endpoints.
type Handler struct {
	service  *Service
	log      verifylog.Store
	workerID string
}

// NewHandler builds the verification HTTP handler.
func NewHandler(service *Service, log verifylog.Store, workerID string) *Handler {
	return &Handler{service: service, log: log, workerID: workerID}
}

type verifyRequest struct {
	Credential credential.Credential `json:"credential"`
}

type batchRequest struct {
	Credentials []credential.Credential `json:"credentials"`
}

type resultPayload struct {
	Credential *credential.Credential `json:"credential,omitempty"`
	Verified   bool                   `json:"verified"`
	Message    string                 `json:"message"`
	IssuedBy   string                 `json:"issuedBy,omitempty"`
	IssuedAt   string                 `json:"issuedAt,omitempty"`
}

type verifyResponse struct {
	Success    bool                   `json:"success"`
	Verified   bool                   `json:"verified"`
	Message    string                 `json:"message"`
	Credential *credential.Credential `json:"credential,omitempty"`
	IssuedBy   string                 `json:"issuedBy,omitempty"`
	IssuedAt   string                 `json:"issuedAt,omitempty"`
	WorkerID   string                 `json:"workerId"`
	Timestamp  string                 `json:"timestamp"`
}

// Verify checks one presented credential. Both verified and not-verified
// decisions come back as 200; only validation failures (400) and authority or
// storage faults (500) are HTTP errors.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errorResponse(c, http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Verify(c.UserContext(), req.Credential)
	if err != nil {
		if errors.Is(err, credential.ErrInvalid) {
			return h.errorResponse(c, http.StatusBadRequest, err.Error())
		}
		return h.errorResponse(c, http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(verifyResponse{
		Success:    true,
		Verified:   result.Verified,
		Message:    result.Message,
		Credential: result.Credential,
		IssuedBy:   result.IssuedBy,
		IssuedAt:   result.IssuedAt,
		WorkerID:   h.workerID,
		Timestamp:  nowStamp(),
	})
}

// VerifyBatch checks a sequence of candidates and returns per-item results in
// input order.
func (h *Handler) VerifyBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errorResponse(c, http.StatusBadRequest, err.Error())
	}
	if req.Credentials == nil {
		return h.errorResponse(c, http.StatusBadRequest, "Request must contain an array of credentials")
	}

	results := h.service.VerifyBatch(c.UserContext(), req.Credentials)

	payload := make([]resultPayload, 0, len(results))
	for _, res := range results {
		payload = append(payload, resultPayload{
			Credential: res.Credential,
			Verified:   res.Verified,
			Message:    res.Message,
			IssuedBy:   res.IssuedBy,
			IssuedAt:   res.IssuedAt,
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":   true,
		"results":   payload,
		"workerId":  h.workerID,
		"timestamp": nowStamp(),
	})
}

// Logs returns recent verification log entries plus aggregate stats. The
// limit query parameter caps the number of entries (default 100); the
// credentialId parameter narrows the log to one credential's history.
func (h *Handler) Logs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultLogLimit)
	if limit <= 0 {
		limit = defaultLogLimit
	}

	var logs []verifylog.Entry
	var err error
	if credentialID := c.Query("credentialId"); credentialID != "" {
		logs, err = h.log.ByCredentialID(c.UserContext(), credentialID)
		if err == nil && len(logs) > limit {
			logs = logs[:limit]
		}
	} else {
		logs, err = h.log.Recent(c.UserContext(), limit)
	}
	if err != nil {
		return h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
	stats, err := h.log.Stats(c.UserContext())
	if err != nil {
		return h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
	}

	if logs == nil {
		logs = []verifylog.Entry{}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":   true,
		"logs":      logs,
		"stats":     stats,
		"workerId":  h.workerID,
		"timestamp": nowStamp(),
	})
}

func (h *Handler) errorResponse(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success":   false,
		"error":     msg,
		"workerId":  h.workerID,
		"timestamp": nowStamp(),
	})
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
