package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/filter"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/service/inventory"
	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type FlightHandler struct {
	service flights.FlightUseCase
	seats   inventory.SeatAdjuster
}

type createFlightRequest struct {
	FlightNumber         string    `json:"flightNumber" binding:"required"`
	AirplaneID           int64     `json:"airplaneId" binding:"required"`
	DepartureAirportCode string    `json:"departureAirportCode" binding:"required"`
	ArrivalAirportCode   string    `json:"arrivalAirportCode" binding:"required"`
	DepartureTime        time.Time `json:"departureTime" binding:"required"`
	ArrivalTime          time.Time `json:"arrivalTime" binding:"required"`
	Price                *int      `json:"price" binding:"required"`
	BoardingGate         *string   `json:"boardingGate"`
	TotalSeats           *int      `json:"totalSeats" binding:"required"`
}

type adjustSeatsRequest struct {
	Seats     int    `json:"seats" binding:"required"`
	Direction string `json:"direction" binding:"required"`
}

func NewFlightHandler(service flights.FlightUseCase, seats inventory.SeatAdjuster) *FlightHandler {
	return &FlightHandler{service: service, seats: seats}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.search)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.delete)
	router.PATCH("/:id/seats", h.adjustSeats)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req createFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	flight, err := h.service.Create(c.Request.Context(), &domain.Flight{
		FlightNumber:         req.FlightNumber,
		AirplaneID:           req.AirplaneID,
		DepartureAirportCode: req.DepartureAirportCode,
		ArrivalAirportCode:   req.ArrivalAirportCode,
		DepartureTime:        req.DepartureTime,
		ArrivalTime:          req.ArrivalTime,
		Price:                *req.Price,
		BoardingGate:         req.BoardingGate,
		TotalSeats:           *req.TotalSeats,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, flight)
}

func (h *FlightHandler) search(c *gin.Context) {
	result, err := h.service.Search(c.Request.Context(), filter.Values(c.Request.URL.Query()))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, flight)
}

func (h *FlightHandler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, map[string]int64{"id": id})
}

func (h *FlightHandler) adjustSeats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req adjustSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", domain.ErrInvalidAdjustment, err))
		return
	}
	direction, err := domain.ParseSeatDirection(req.Direction)
	if err != nil {
		fail(c, err)
		return
	}

	flight, err := h.seats.AdjustSeats(c.Request.Context(), domain.SeatAdjustment{
		FlightID:       id,
		Seats:          req.Seats,
		Direction:      direction,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, flight)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, fmt.Errorf("%w: invalid id %q", domain.ErrValidation, c.Param("id")))
		return 0, false
	}
	return id, true
}
