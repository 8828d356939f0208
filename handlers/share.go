package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pricelens/models"
	"pricelens/services"
)

// ShareHandlers manages shareable calculation links
type ShareHandlers struct {
	shareService *services.ShareService
	calcService  *services.CalculatorService
}

func NewShareHandlers(shareService *services.ShareService, calcService *services.CalculatorService) *ShareHandlers {
	return &ShareHandlers{
		shareService: shareService,
		calcService:  calcService,
	}
}

type shareRequest struct {
	Inputs models.CalculatorInputs `json:"inputs"`
}

// CreateShare mints a token embedding the inputs and their recomputed result.
func (sh *ShareHandlers) CreateShare(c echo.Context) error {
	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	payload := models.SharePayload{
		Inputs:  req.Inputs,
		Results: sh.calcService.Compute(req.Inputs),
	}

	token, err := sh.shareService.Encode(payload)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create share token"})
	}

	return c.JSON(http.StatusCreated, map[string]string{"token": token})
}

// ResolveShare turns a token back into the calculation it embeds.
func (sh *ShareHandlers) ResolveShare(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "token is required"})
	}

	payload, err := sh.shareService.Decode(token)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "invalid share token"})
	}

	return c.JSON(http.StatusOK, payload)
}
