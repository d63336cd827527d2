package server

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"
)

type handler struct {
	svc Querier
}

type wordRequest struct {
	Word string `json:"word"`
}

func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// getEtymology accepts the word as a form field or a JSON body. Query
// failures are reported in the payload with status 200.
func (h *handler) getEtymology(c fiber.Ctx) error {
	word, err := wordFromBody(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	return c.JSON(h.svc.Query(c.Context(), word))
}

func (h *handler) apiEtymology(c fiber.Ctx) error {
	word := c.Query("word")
	if strings.TrimSpace(word) == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing word parameter")
	}
	resp := h.svc.Query(c.Context(), word)
	if !resp.OK() {
		return c.Status(fiber.StatusNotFound).JSON(resp)
	}
	return c.JSON(resp)
}

func (h *handler) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"entries":  h.svc.Size(),
		"strategy": h.svc.Strategy(),
	})
}

func wordFromBody(c fiber.Ctx) (string, error) {
	ct := string(c.Request().Header.ContentType())
	if strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
		var req wordRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return "", err
		}
		return req.Word, nil
	}
	return c.FormValue("word"), nil
}
