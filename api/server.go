// Package api exposes the computed batch to the presentation layer over a
// read-only REST surface.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/voltedge/powermarket/internal/aggregator"
	"github.com/voltedge/powermarket/internal/pipeline"
	"github.com/voltedge/powermarket/pkg/models"
)

// Dataset is the in-memory batch output the server serves for the session.
type Dataset struct {
	Records           []models.MarketRecord
	Failures          []pipeline.RowFailure
	Aggregates        map[aggregator.Dimension]map[string]*models.AggregateBucket
	Alerts            []models.Alert
	BudgetPerformance []models.BudgetPerformance
}

// Summary is the portfolio-wide rollup.
type Summary struct {
	Records             int             `json:"records"`
	RejectedRows        int             `json:"rejected_rows"`
	Revenue             decimal.Decimal `json:"revenue"`
	Cost                decimal.Decimal `json:"cost"`
	Margin              decimal.Decimal `json:"margin"`
	ActualGenerationMWh decimal.Decimal `json:"actual_generation_mwh"`
	BudgetGenerationMWh decimal.Decimal `json:"budget_generation_mwh"`
	AlertCounts         map[string]int  `json:"alert_counts"`
}

// Server serves the computed dataset.
type Server struct {
	router  *gin.Engine
	logger  *zap.Logger
	data    *Dataset
	summary Summary
}

// NewServer creates the API server around a computed dataset.
func NewServer(logger *zap.Logger, data *Dataset) *Server {
	s := &Server{logger: logger, data: data}
	s.summary = summarize(data)

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	s.router = router
	s.registerRoutes()
	return s
}

// Start starts the API server.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting API server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router returns the internal Gin engine for testing purposes.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/metrics", gin.WrapH(promhttp.Handler()))
		v1.GET("/health", s.healthCheck)
		v1.GET("/records", s.getRecords)
		v1.GET("/aggregates/:dimension", s.getAggregates)
		v1.GET("/alerts", s.getAlerts)
		v1.GET("/summary", s.getSummary)
		v1.GET("/budget-performance", s.getBudgetPerformance)
		v1.GET("/failures", s.getFailures)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getRecords returns the computed record collection, optionally filtered by
// market, asset and inclusive date range. The filter is the presentation
// layer's simple three-field predicate, provided server-side for
// convenience.
func (s *Server) getRecords(c *gin.Context) {
	market := c.Query("market")
	assetID := c.Query("asset_id")
	from := c.Query("from")
	to := c.Query("to")

	if market != "" {
		if _, err := models.ParseMarket(market); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	records := make([]models.MarketRecord, 0, len(s.data.Records))
	for i := range s.data.Records {
		rec := &s.data.Records[i]
		if market != "" && string(rec.Market) != market {
			continue
		}
		if assetID != "" && rec.AssetID != assetID {
			continue
		}
		// ISO dates compare correctly as strings.
		if from != "" && rec.Date < from {
			continue
		}
		if to != "" && rec.Date > to {
			continue
		}
		records = append(records, *rec)
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) getAggregates(c *gin.Context) {
	dim, err := aggregator.ParseDimension(c.Param("dimension"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dimension": dim, "buckets": s.data.Aggregates[dim]})
}

// getAlerts returns the severity-sorted alert list. An optional severity
// query acts as a floor: "high" returns critical and high.
func (s *Server) getAlerts(c *gin.Context) {
	floor := c.Query("severity")
	if floor == "" {
		c.JSON(http.StatusOK, gin.H{"alerts": s.data.Alerts})
		return
	}
	sev, err := models.ParseSeverity(floor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filtered := make([]models.Alert, 0, len(s.data.Alerts))
	for _, a := range s.data.Alerts {
		if a.Severity <= sev {
			filtered = append(filtered, a)
		}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": filtered})
}

func (s *Server) getSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.summary)
}

func (s *Server) getBudgetPerformance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"assets": s.data.BudgetPerformance})
}

func (s *Server) getFailures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"failures": s.data.Failures})
}

func summarize(data *Dataset) Summary {
	sum := Summary{
		Records:      len(data.Records),
		RejectedRows: len(data.Failures),
		AlertCounts:  make(map[string]int),
	}
	for i := range data.Records {
		rec := &data.Records[i]
		sum.Revenue = sum.Revenue.Add(rec.TotalRevenue)
		sum.Cost = sum.Cost.Add(rec.TotalCost)
		sum.Margin = sum.Margin.Add(rec.NetPL)
		sum.ActualGenerationMWh = sum.ActualGenerationMWh.Add(rec.ActualGenerationMWh)
		sum.BudgetGenerationMWh = sum.BudgetGenerationMWh.Add(rec.BudgetGenerationMWh)
	}
	for i := range data.Alerts {
		sum.AlertCounts[data.Alerts[i].Severity.String()]++
	}
	return sum
}
