package credential

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/credmesh/credmesh/internal/metrics"
)

// Handler exposes the issuance HTTP endpoints.
type Handler struct {
	service  *Service
	workerID string
}

// NewHandler builds the issuance HTTP handler.
func NewHandler(service *Service, workerID string) *Handler {
	return &Handler{service: service, workerID: workerID}
}

// Issue handles first-time credential issuance. Duplicates come back as 409
// with the same body shape as a success, so callers can tell a replay apart
// from a validation failure.
func (h *Handler) Issue(c *fiber.Ctx) error {
	var candidate Credential
	if err := c.BodyParser(&candidate); err != nil {
		metrics.RecordIssuance(metrics.OutcomeInvalid)
		return h.errorResponse(c, http.StatusBadRequest, err.Error())
	}

	outcome, err := h.service.Issue(c.UserContext(), candidate)
	if err != nil {
		if errors.Is(err, ErrInvalid) {
			metrics.RecordIssuance(metrics.OutcomeInvalid)
			return h.errorResponse(c, http.StatusBadRequest, err.Error())
		}
		metrics.RecordIssuance(metrics.OutcomeError)
		return h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
	}

	if !outcome.IsNew {
		metrics.RecordIssuance(metrics.OutcomeDuplicate)
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"success":   false,
			"message":   outcome.Message,
			"workerId":  h.workerID,
			"timestamp": nowStamp(),
		})
	}

	metrics.RecordIssuance(metrics.OutcomeIssued)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"message":    outcome.Message,
		"credential": outcome.Record.Credential,
		"workerId":   h.workerID,
		"timestamp":  nowStamp(),
	})
}

// Get returns a single issuance record. The workerId and timestamp fields
// carry the issuance-time provenance, which the verifier reports as
// issuedBy/issuedAt.
func (h *Handler) Get(c *fiber.Ctx) error {
	rec, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"success":   false,
				"error":     "Credential not found",
				"workerId":  h.workerID,
				"timestamp": nowStamp(),
			})
		}
		return h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":    true,
		"credential": rec.Credential,
		"workerId":   rec.WorkerID,
		"timestamp":  rec.IssuedAt,
	})
}

// List returns all issuance records.
func (h *Handler) List(c *fiber.Ctx) error {
	records, err := h.service.GetAll(c.UserContext())
	if err != nil {
		return h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
	}

	credentials := make([]Credential, 0, len(records))
	for _, rec := range records {
		credentials = append(credentials, rec.Credential)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":     true,
		"credentials": credentials,
		"count":       len(credentials),
		"workerId":    h.workerID,
		"timestamp":   nowStamp(),
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
