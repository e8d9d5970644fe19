package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rcontf/beta-serverless-api/client"
	"github.com/rcontf/beta-serverless-api/storage"
)

// DefaultPort is used when a request omits the server port.
const DefaultPort = 27015

// Commander is the slice of the protocol client the adapter consumes.
type Commander interface {
	SendCmd(ctx context.Context, cmd string) (string, error)
	Disconnect() error
}

// ClientFactory builds a protocol client for one request's target
// server. Every request gets a fresh client, disconnected when the
// request finishes; nothing is pooled between requests.
type ClientFactory func(host string, port int, password string) Commander

type Options struct {
	// NewClient builds the protocol client. Nil selects the real one.
	NewClient ClientFactory

	// Store receives per-server command statistics. Optional.
	Store storage.Store

	// DebugHTTP keeps gin in debug mode.
	DebugHTTP bool

	Log *zap.Logger
}

// Server is the HTTP face of the RCON client: route dispatch, CORS
// headers, body validation and the JSON error envelopes. All protocol
// work happens in the client it constructs per request.
type Server struct {
	newClient ClientFactory
	store     storage.Store
	debugHTTP bool
	log       *zap.Logger
}

func NewServer(options Options) *Server {
	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	newClient := options.NewClient
	if newClient == nil {
		newClient = func(host string, port int, password string) Commander {
			return client.New(host, port, password, client.Options{
				Log: log.Named("client"),
			})
		}
	}

	return &Server{
		newClient: newClient,
		store:     options.Store,
		debugHTTP: options.DebugHTTP,
		log:       log,
	}
}

// Router builds the gin engine with logging, recovery and CORS
// middleware and every route registered.
func (s *Server) Router() *gin.Engine {
	gin.DisableConsoleColor()
	if !s.debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Combined access and error log to the service logger, RFC3339 UTC.
	r.Use(ginzap.Ginzap(s.log, time.RFC3339, true))

	// Logs all panics to the error log, with stacks.
	r.Use(ginzap.RecoveryWithZap(s.log, true))

	r.Use(corsMiddleware())

	r.POST("/", s.handleCommand)
	r.GET("/stats", s.handleStats)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"statusCode": http.StatusNotFound,
			"message":    "route not found",
			"error":      "Not Found",
		})
	})

	return r
}

// corsMiddleware sets the CORS response headers and short-circuits
// preflight requests. No CORS library is involved; the header set is
// fixed.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type commandRequest struct {
	IP       string `json:"ip" binding:"required"`
	Password string `json:"password" binding:"required"`
	Command  string `json:"command" binding:"required"`
	Port     int    `json:"port"`
}

func (s *Server) handleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	port := req.Port
	if port == 0 {
		port = DefaultPort
	}

	out, err := s.execute(c.Request.Context(), req.IP, port, req.Password, req.Command)
	s.record(c.Request.Context(), req.IP, port, err != nil)

	if err != nil {
		switch {
		case errors.Is(err, client.ErrHostUnreachable):
			badRequest(c, "host unreachable")

		case errors.Is(err, client.ErrAuthenticationRejected):
			badRequest(c, "invalid password")

		case errors.Is(err, client.ErrConnectionClosed):
			badRequest(c, "connection closed")

		default:
			s.log.Error("Command execution failed",
				zap.String("ip", req.IP),
				zap.Int("port", port),
				zap.Error(err))

			c.JSON(http.StatusInternalServerError, gin.H{
				"statusCode": http.StatusInternalServerError,
				"message":    err.Error(),
				"error":      "Internal Server Error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"response":   out,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	if s.store == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte("{}"))
		return
	}

	doc, err := s.store.Backup()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
			"error":      "Internal Server Error",
		})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

// execute runs one command against one server on a fresh client. The
// client is always disconnected before returning; a disconnect failure
// is folded into the result.
func (s *Server) execute(ctx context.Context, host string, port int, password, command string) (out string, err error) {
	cl := s.newClient(host, port, password)
	defer func() {
		err = multierr.Append(err, cl.Disconnect())
	}()

	out, err = cl.SendCmd(ctx, command)
	return out, err
}

func (s *Server) record(ctx context.Context, host string, port int, failed bool) {
	if s.store == nil {
		return
	}

	server := net.JoinHostPort(host, strconv.Itoa(port))
	if err := s.store.RecordCommand(ctx, server, failed); err != nil {
		s.log.Warn("Failed to record command stats",
			zap.String("server", server),
			zap.Error(err))
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"statusCode": http.StatusBadRequest,
		"message":    message,
		"error":      "Bad Request",
	})
}
