package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/agenthands/districtlinker/internal/core"
	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/core/writer"
	"github.com/agenthands/districtlinker/internal/logger"
	"github.com/agenthands/districtlinker/internal/qanary"
)

// Processor runs the pipeline step for one question.
type Processor interface {
	Process(ctx context.Context, store core.Store) (*model.Report, error)
}

// RegionLister reads back what the mirror holds for a question.
type RegionLister interface {
	QuestionRegions(ctx context.Context, questionURI string) ([]writer.MirroredRegion, error)
}

// StoreFactory opens the annotation store a pipeline message points to.
type StoreFactory func(msg qanary.Message) (core.Store, error)

// About is served on /about.
type About struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	StartedAt   time.Time `json:"started_at"`
}

type Server struct {
	processor Processor
	stores    StoreFactory
	regions   RegionLister
	about     About
	log       *logger.Logger
}

type Option func(*Server)

// WithRegions enables GET /regions.
func WithRegions(l RegionLister) Option {
	return func(s *Server) { s.regions = l }
}

func NewServer(p Processor, stores StoreFactory, about About, log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		processor: p,
		stores:    stores,
		about:     about,
		log:       logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.about.Name))
	r.Use(s.requestLogger())

	r.GET("/health", s.Health)
	r.GET("/about", s.About)
	r.POST("/annotatequestion", s.AnnotateQuestion)
	if s.regions != nil {
		r.GET("/regions", s.Regions)
	}

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request", "method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status(), "duration", time.Since(start).String())
	}
}

func (s *Server) Health(c *gin.Context) {
	c.String(http.StatusOK, "alive")
}

func (s *Server) About(c *gin.Context) {
	c.JSON(http.StatusOK, s.about)
}

// AnnotateQuestion answers with the unchanged message once the annotations
// are written. Failures on single entities do not fail the request.
func (s *Server) AnnotateQuestion(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	msg, err := qanary.ParseMessage(body)
	if err != nil {
		s.log.Warn("rejected pipeline message", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store, err := s.stores(msg)
	if err != nil {
		s.log.Warn("could not open annotation store", "endpoint", msg.Endpoint(), "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.processor.Process(c.Request.Context(), store)
	if err != nil {
		s.log.Error("failed to process question", "graph", msg.InGraph(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read question"})
		return
	}
	s.log.Info("annotated question", "question", report.QuestionURI, "written", report.Written, "records", report.Records())

	c.Data(http.StatusOK, "application/json", body)
}

func (s *Server) Regions(c *gin.Context) {
	question := strings.TrimSpace(c.Query("question"))
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	regions, err := s.regions.QuestionRegions(c.Request.Context(), question)
	if err != nil {
		s.log.Error("failed to read mirrored regions", "question", question, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read regions"})
		return
	}
	if regions == nil {
		regions = []writer.MirroredRegion{}
	}
	c.JSON(http.StatusOK, gin.H{"question": question, "regions": regions})
}
