package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/graph-gophers/graphql-transport-ws/graphqlws"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/interceptor"
	"github.com/subhadeepchowdhury41/we-share/metrics"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
	"github.com/subhadeepchowdhury41/we-share/storage"
)

// Uploader stores media and returns its public URL.
type Uploader interface {
	Put(ctx context.Context, up storage.Upload) (string, error)
}

// Options configures the HTTP server. Media may be nil, which disables
// uploads.
type Options struct {
	Port           string
	CORSOrigins    []string
	Schema         *graphql.Schema
	Auth           *interceptor.AuthInterceptor
	Media          Uploader
	MaxUploadBytes int64
	Metrics        *metrics.Metrics
	Health         Probe
	Logger         *zap.Logger
}

type Server struct {
	http   *http.Server
	logger *zap.Logger
}

func New(o Options) *Server {
	return &Server{
		http: &http.Server{
			Addr:              ":" + o.Port,
			Handler:           NewRouter(o),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: o.Logger.Named("http"),
	}
}

// Start blocks until the server stops. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func NewRouter(o Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(o.Logger.Named("http")), o.Metrics.Middleware(), cors.New(corsConfig(o.CORSOrigins)))
	r.Use(o.Auth.Middleware())

	r.GET("/", gin.WrapH(playground.Handler("we-share", "/query")))

	query := queryHandler(o.Schema, o.CORSOrigins)
	r.GET("/query", query)
	r.POST("/query", query)

	r.POST("/upload", o.Auth.RequireAuth(), uploadHandler(o.Media, o.MaxUploadBytes, o.Logger.Named("upload")))

	r.GET("/health", func(c *gin.Context) {
		if err := o.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(o.Metrics.Handler()))
	return r
}

// queryHandler serves GraphQL over HTTP POST and subscriptions over
// websockets on the same path. The socket outlives the request, so only the
// caller's claims are carried into its context.
func queryHandler(schema *graphql.Schema, origins []string) gin.HandlerFunc {
	ws := graphqlws.NewHandler()
	ws.Upgrader.CheckOrigin = func(r *http.Request) bool {
		return originAllowed(origins, r.Header.Get("Origin"))
	}
	h := ws.NewHandlerFunc(schema, &relay.Handler{Schema: schema},
		graphqlws.WithContextGenerator(graphqlws.ContextGeneratorFunc(socketContext)),
	)
	return gin.WrapF(h)
}

func socketContext(ctx context.Context, r *http.Request) (context.Context, error) {
	if claims, ok := interceptor.ClaimsFromContext(r.Context()); ok {
		ctx = interceptor.WithClaims(ctx, claims)
	}
	return ctx, nil
}

// originAllowed applies the CORS origin list to websocket upgrades. Clients
// that send no Origin header are not browsers and are let through.
func originAllowed(origins []string, origin string) bool {
	if origin == "" || len(origins) == 0 || slices.Contains(origins, "*") {
		return true
	}
	return slices.Contains(origins, origin)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowWebSockets:  true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		// credentials need the caller's origin echoed back rather than "*"
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
			zap.String("user_id", interceptor.ViewerID(c.Request.Context())),
		)
	}
}

func uploadHandler(media Uploader, maxBytes int64, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if media == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads are disabled"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

		header, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", maxBytes)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
			return
		}

		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
			return
		}
		defer file.Close()

		contentType, err := sniff(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
			return
		}

		url, err := media.Put(c.Request.Context(), storage.Upload{
			Filename:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Body:        file,
		})
		switch {
		case apperr.Is(err, apperr.InvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": apperr.MessageOf(err), "fields": apperr.FieldsOf(err)})
			return
		case err != nil:
			logger.Error("upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}

// sniff detects the content type from the first bytes and rewinds the file.
func sniff(f io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
