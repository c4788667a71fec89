// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package server exposes the optimizer over HTTP.
//
// Each request runs its own single-threaded engine instance, so
// concurrent requests need no locking around search state. The catalog
// is swappable between runs for hot reload; a running search always
// keeps the snapshot it started with.
package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CadenceLabs/CadenceCore/services/optimizer/catalog"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/funnel"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/history"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/mcts"
)

// Config assembles the server's dependencies.
type Config struct {
	// Catalog is the initial strategy catalog. Nil selects defaults.
	Catalog *catalog.Catalog

	// Engine is the search configuration shared by all requests.
	Engine mcts.Config

	// History optionally archives results after each run.
	History *history.Store

	// Logger receives request and search logs. Nil uses slog.Default().
	Logger *slog.Logger

	// Metrics optionally instruments searches; Registry backs /metrics.
	Metrics  *mcts.Metrics
	Registry prometheus.Gatherer
}

// Server handles optimizer HTTP traffic.
type Server struct {
	engineConfig mcts.Config
	catalog      atomic.Pointer[catalog.Catalog]
	history      *history.Store
	logger       *slog.Logger
	metrics      *mcts.Metrics
	registry     prometheus.Gatherer
}

// New creates a server from the given configuration.
func New(config Config) (*Server, error) {
	if err := config.Engine.Validate(); err != nil {
		return nil, err
	}

	cat := config.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engineConfig: config.Engine,
		history:      config.History,
		logger:       logger,
		metrics:      config.Metrics,
		registry:     config.Registry,
	}
	s.catalog.Store(cat)
	return s, nil
}

// SwapCatalog atomically replaces the catalog used by future requests.
// In-flight searches keep the snapshot they started with.
func (s *Server) SwapCatalog(cat *catalog.Catalog) {
	if cat == nil {
		return
	}
	s.catalog.Store(cat)
	s.logger.Info("server catalog swapped", slog.Int("strategies", cat.Len()))
}

// Router builds the gin route tree.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	if s.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	{
		v1.POST("/optimize", s.handleOptimize)
		if s.history != nil {
			v1.GET("/history", s.handleListHistory)
			v1.GET("/history/:runId", s.handleGetHistory)
		}
	}
	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// optimizeRequest is the POST /v1/optimize payload.
type optimizeRequest struct {
	Objective     string `json:"objective" binding:"required"`
	InitialStage  string `json:"initial_stage"`
	MaxIterations uint64 `json:"max_iterations"`
	TimeLimitMS   int64  `json:"time_limit_ms"`
	Seed          uint64 `json:"seed"`
}

func (s *Server) handleOptimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stage := funnel.StageInitial
	if req.InitialStage != "" {
		parsed, err := funnel.ParseStage(req.InitialStage)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		stage = parsed
	}

	engine, err := mcts.New(s.catalog.Load(), s.engineConfig,
		mcts.WithLogger(s.logger), mcts.WithMetrics(s.metrics))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := engine.Optimize(c.Request.Context(), mcts.Request{
		Objective:    req.Objective,
		InitialStage: stage,
		Budget: mcts.Budget{
			MaxIterations: req.MaxIterations,
			TimeLimit:     time.Duration(req.TimeLimitMS) * time.Millisecond,
		},
		Seed: req.Seed,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if s.history != nil {
		if _, err := s.history.Save(result); err != nil {
			s.logger.Warn("history save failed",
				slog.String("run_id", result.RunID),
				slog.String("error", err.Error()))
		}
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListHistory(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := s.history.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) handleGetHistory(c *gin.Context) {
	record, err := s.history.Get(c.Param("runId"))
	if err != nil {
		if err == history.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}
