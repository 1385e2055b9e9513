package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"bloodlink/internal/auth"
	"bloodlink/internal/errors"
	"bloodlink/internal/model"
	"bloodlink/internal/service"
)

// RequestHandler handles blood request endpoints.
type RequestHandler struct {
	svc service.RequestService
	jwt *auth.JWTService
}

// NewRequestHandler creates a new request handler.
func NewRequestHandler(svc service.RequestService, jwt *auth.JWTService) *RequestHandler {
	return &RequestHandler{svc: svc, jwt: jwt}
}

// CreateRequestPayload represents a blood request creation payload.
type CreateRequestPayload struct {
	PatientName    string  `json:"patient_name" validate:"required"`
	BloodGroup     string  `json:"blood_group" validate:"required"`
	UnitsRequired  int     `json:"units_required" validate:"required"`
	MobileNumber   string  `json:"mobile_number"`
	Gender         string  `json:"gender"`
	SearchRadiusKm float64 `json:"search_radius_km" validate:"required"`
	Latitude       float64 `json:"latitude" validate:"required"`
	Longitude      float64 `json:"longitude" validate:"required"`
	IsUrgent       bool    `json:"is_urgent"`
}

// StatusPayload carries a lifecycle transition.
type StatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// CreateRequest creates a blood request. Authentication is optional: a
// valid bearer token attaches the requestor identity, anonymous requests
// carry none.
func (h *RequestHandler) CreateRequest(c echo.Context) error {
	var payload CreateRequestPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	req := &model.BloodRequest{
		PatientName:    payload.PatientName,
		BloodGroup:     model.BloodType(payload.BloodGroup),
		UnitsRequired:  payload.UnitsRequired,
		MobileNumber:   payload.MobileNumber,
		Gender:         payload.Gender,
		SearchRadiusKm: payload.SearchRadiusKm,
		Latitude:       payload.Latitude,
		Longitude:      payload.Longitude,
		IsUrgent:       payload.IsUrgent,
	}

	if claims := h.bearerClaims(c); claims != nil {
		req.RequestorID = &claims.UserID
		req.RequestorName = claims.Name
	}

	created, err := h.svc.CreateRequest(c.Request().Context(), req)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, created)
}

// GetRequest returns one blood request by id.
func (h *RequestHandler) GetRequest(c echo.Context) error {
	req, err := h.svc.GetRequest(c.Request().Context(), c.Param("id"))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, req)
}

// ListRequests returns all blood requests, newest first.
func (h *RequestHandler) ListRequests(c echo.Context) error {
	reqs, err := h.svc.ListRequests(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, reqs)
}

// UpdateRequest applies field edits to an existing request.
func (h *RequestHandler) UpdateRequest(c echo.Context) error {
	var payload CreateRequestPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	req := &model.BloodRequest{
		ID:             c.Param("id"),
		PatientName:    payload.PatientName,
		BloodGroup:     model.BloodType(payload.BloodGroup),
		UnitsRequired:  payload.UnitsRequired,
		MobileNumber:   payload.MobileNumber,
		Gender:         payload.Gender,
		SearchRadiusKm: payload.SearchRadiusKm,
		Latitude:       payload.Latitude,
		Longitude:      payload.Longitude,
		IsUrgent:       payload.IsUrgent,
	}

	updated, err := h.svc.UpdateRequest(c.Request().Context(), req)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, updated)
}

// UpdateStatus transitions a request between active/fulfilled/expired.
func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	var payload StatusPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	updated, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("id"), model.RequestStatus(payload.Status))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteRequest removes a request and cancels its notifications.
func (h *RequestHandler) DeleteRequest(c echo.Context) error {
	if err := h.svc.DeleteRequest(c.Request().Context(), c.Param("id")); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RequestHandler) bearerClaims(c echo.Context) *auth.Claims {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	claims, err := h.jwt.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil
	}
	return claims
}
