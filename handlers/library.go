package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"pricelens/models"
	"pricelens/services"
)

// LibraryHandlers manages the saved-calculation library endpoints
type LibraryHandlers struct {
	library     *services.LibraryService
	calcService *services.CalculatorService
}

func NewLibraryHandlers(library *services.LibraryService, calcService *services.CalculatorService) *LibraryHandlers {
	return &LibraryHandlers{
		library:     library,
		calcService: calcService,
	}
}

type saveRequest struct {
	Name   string                  `json:"name"`
	Inputs models.CalculatorInputs `json:"inputs"`
}

// SaveCalculation stores a named snapshot. Results are always recomputed
// server-side so a stale client cannot save inconsistent numbers.
func (lh *LibraryHandlers) SaveCalculation(c echo.Context) error {
	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}

	result := lh.calcService.Compute(req.Inputs)
	entry := lh.library.Save(req.Name, req.Inputs, result)

	return c.JSON(http.StatusCreated, entry)
}

// ListCalculations returns every saved entry, newest first.
func (lh *LibraryHandlers) ListCalculations(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"calculations": lh.library.List(),
	})
}

// GetCalculation returns a single saved entry by id.
func (lh *LibraryHandlers) GetCalculation(c echo.Context) error {
	id := c.Param("id")

	entry, found := lh.library.Get(id)
	if !found {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "calculation not found"})
	}

	return c.JSON(http.StatusOK, entry)
}

type renameRequest struct {
	Name string `json:"name"`
}

// RenameCalculation updates the display name of a saved entry.
func (lh *LibraryHandlers) RenameCalculation(c echo.Context) error {
	id := c.Param("id")

	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}

	if err := lh.library.Rename(id, req.Name); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}

	entry, _ := lh.library.Get(id)
	return c.JSON(http.StatusOK, entry)
}

// DeleteCalculation removes a saved entry.
func (lh *LibraryHandlers) DeleteCalculation(c echo.Context) error {
	id := c.Param("id")

	if err := lh.library.Delete(id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "calculation deleted"})
}

// ExportLibrary returns the whole library as a downloadable JSON document.
func (lh *LibraryHandlers) ExportLibrary(c echo.Context) error {
	export := lh.library.Export()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="pricing-calculations.json"`)
	return c.JSON(http.StatusOK, export)
}
