package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bloodlink/internal/errors"
	"bloodlink/internal/model"
	"bloodlink/internal/service"
)

// CenterHandler bundles donation center HTTP handlers.
type CenterHandler struct {
	svc service.CenterService
}

// NewCenterHandler creates a handler layer.
func NewCenterHandler(svc service.CenterService) *CenterHandler {
	return &CenterHandler{svc: svc}
}

// CreateCenter creates a donation center with its weekly schedule.
func (h *CenterHandler) CreateCenter(c echo.Context) error {
	var center model.DonationCenter
	if err := c.Bind(&center); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.CreateCenter(c.Request().Context(), &center)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateCenter saves edits, replacing the schedule atomically.
func (h *CenterHandler) UpdateCenter(c echo.Context) error {
	var center model.DonationCenter
	if err := c.Bind(&center); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	center.ID = c.Param("id")
	updated, err := h.svc.UpdateCenter(c.Request().Context(), &center)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteCenter removes a center and its schedule.
func (h *CenterHandler) DeleteCenter(c echo.Context) error {
	if err := h.svc.DeleteCenter(c.Request().Context(), c.Param("id")); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetCenter returns a center by id.
func (h *CenterHandler) GetCenter(c echo.Context) error {
	center, err := h.svc.GetCenter(c.Request().Context(), c.Param("id"))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, center)
}

// ListCenters returns all centers, optionally filtered by an accepted
// blood type via the accepts query param.
func (h *CenterHandler) ListCenters(c echo.Context) error {
	if accepts := c.QueryParam("accepts"); accepts != "" {
		centers, err := h.svc.ListCentersAccepting(c.Request().Context(), model.BloodType(accepts))
		if err != nil {
			httpErr := errors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		return c.JSON(http.StatusOK, centers)
	}

	centers, err := h.svc.ListCenters(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, centers)
}
