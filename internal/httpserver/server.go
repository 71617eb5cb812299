package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/store"
)

// CallStarter places an outbound call and returns its call SID.
type CallStarter interface {
	StartCall(to, customerName string) (string, error)
}

// StreamHandler terminates the vendor's media WebSocket.
type StreamHandler interface {
	ServeStream(w http.ResponseWriter, r *http.Request)
}

// Server bundles the API's dependencies behind an Echo router.
type Server struct {
	Echo *echo.Echo

	store   *store.Store
	dialer  CallStarter
	stream  StreamHandler
	metrics http.Handler
	log     *zap.Logger
}

// Deps lists what the routes need. Metrics and Stream may be nil in
// tests that do not exercise them.
type Deps struct {
	Store   *store.Store
	Dialer  CallStarter
	Stream  StreamHandler
	Metrics http.Handler
	Log     *zap.Logger
}

// NewServer wires all routes onto a fresh Echo instance.
func NewServer(d Deps) *Server {
	s := &Server{
		Echo:    New(),
		store:   d.Store,
		dialer:  d.Dialer,
		stream:  d.Stream,
		metrics: d.Metrics,
		log:     d.Log,
	}

	s.Echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if s.metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.metrics))
	}
	if s.stream != nil {
		s.Echo.GET("/vendor-stream", func(c echo.Context) error {
			s.stream.ServeStream(c.Response(), c.Request())
			return nil
		})
	}

	api := s.Echo.Group("/api")
	api.GET("/customers", s.listCustomers)
	api.GET("/customers/:id", s.getCustomer)
	api.POST("/call/start/:id", s.startCall)
	api.GET("/call/:id/summary", s.callSummary)

	return s
}

func (s *Server) listCustomers(c echo.Context) error {
	customers, err := s.store.Customers()
	if err != nil {
		s.log.Error("list customers failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody("could not list customers"))
	}
	return c.JSON(http.StatusOK, customers)
}

func (s *Server) getCustomer(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid customer id"))
	}
	customer, err := s.store.CustomerByID(uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("customer not found"))
	}
	return c.JSON(http.StatusOK, customer)
}

func (s *Server) startCall(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid customer id"))
	}
	customer, err := s.store.CustomerByID(uint(id))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("customer not found"))
	}
	if customer.ContactNumber == "" {
		return c.JSON(http.StatusUnprocessableEntity, errorBody("customer has no contact number"))
	}

	callSid, err := s.dialer.StartCall(customer.ContactNumber, customer.Name)
	if err != nil {
		s.log.Error("outbound call failed",
			zap.Uint("customer", customer.ID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, errorBody("could not place call"))
	}
	if err := s.store.RegisterCall(callSid, customer.ID); err != nil {
		s.log.Error("call registration failed",
			zap.String("call", callSid),
			zap.Error(err))
	}
	return c.JSON(http.StatusOK, map[string]string{"call_sid": callSid})
}

func (s *Server) callSummary(c echo.Context) error {
	rec, responses, err := s.store.Summary(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("session not found"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"session":   rec,
		"responses": responses,
	})
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
