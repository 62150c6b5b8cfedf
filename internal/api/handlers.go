package api

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/songzhibin97/masquerade/internal/defi"
	"github.com/songzhibin97/masquerade/internal/marketplace"
	"github.com/songzhibin97/masquerade/internal/models"
	"github.com/songzhibin97/masquerade/internal/pools"
	"github.com/songzhibin97/masquerade/internal/privacy"
)

type scoreQuery struct {
	PoolSize     *float64 `form:"pool_size" binding:"required"`
	ActiveMixers *float64 `form:"active_mixers" binding:"required"`
	AnonymitySet *float64 `form:"anonymity_set" binding:"required"`
	Level        string   `form:"level"`
}

type ScoreResponse struct {
	privacy.PrivacyMetrics
	Level privacy.PrivacyLevel `json:"level"`
	Grade privacy.Grade        `json:"grade"`
}

type gasQuery struct {
	Amount   float64  `form:"amount" binding:"gte=0"`
	Level    string   `form:"level"`
	ETHPrice *float64 `form:"eth_price" binding:"omitempty,gt=0"`
}

type GasResponse struct {
	privacy.GasEstimate
	Level       privacy.PrivacyLevel `json:"level"`
	ETHPriceUSD float64              `json:"eth_price_usd"`
	PriceSource string               `json:"price_source"`
}

type PoolStatsResponse struct {
	Stats   models.PoolStats       `json:"stats"`
	Level   privacy.PrivacyLevel   `json:"level"`
	Metrics privacy.PrivacyMetrics `json:"metrics"`
	Grade   privacy.Grade          `json:"grade"`
	Display map[string]string      `json:"display"`
}

type depositRequest struct {
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	PrivacyLevel string  `json:"privacy_level"`
}

type withdrawRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type StealthAddressResponse struct {
	Transaction pools.Transaction `json:"transaction"`
	Address     string            `json:"address"`
}

type TransactionsResponse struct {
	Transactions []pools.Transaction  `json:"transactions"`
	Counts       map[pools.Status]int `json:"counts"`
}

type agentsQuery struct {
	Type  string `form:"type"`
	Query string `form:"q"`
	Limit int    `form:"limit" binding:"omitempty,gte=1"`
}

type defiRequest struct {
	Market string  `json:"market" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

func (s *Server) level(raw string) (privacy.PrivacyLevel, error) {
	if raw == "" {
		return s.opts.DefaultLevel, nil
	}
	return privacy.ParsePrivacyLevel(raw)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// GET /v1/privacy/score
func (s *Server) handleScore(c *gin.Context) {
	var q scoreQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}

	level, err := s.level(q.Level)
	if err != nil {
		s.writeError(c, err)
		return
	}

	stats, err := privacy.NewPoolStats(*q.PoolSize, *q.ActiveMixers, *q.AnonymitySet)
	if err != nil {
		s.writeError(c, err)
		return
	}

	metrics := stats.Score(level)
	c.JSON(http.StatusOK, ScoreResponse{
		PrivacyMetrics: metrics,
		Level:          level,
		Grade:          privacy.ScoreGrade(metrics.TotalScore),
	})
}

// GET /v1/privacy/gas
func (s *Server) handleGas(c *gin.Context) {
	var q gasQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}

	level, err := s.level(q.Level)
	if err != nil {
		s.writeError(c, err)
		return
	}

	price, source := 0.0, "request"
	if q.ETHPrice != nil {
		price = *q.ETHPrice
		// Inf 可通过 gt=0 校验, 但无法 JSON 编码
		if math.IsNaN(price) || math.IsInf(price, 0) {
			s.writeError(c, fmt.Errorf("%w: eth_price must be a finite number", privacy.ErrInvalidInput))
			return
		}
	} else {
		price, source = s.ethPrice(c.Request.Context())
	}

	c.JSON(http.StatusOK, GasResponse{
		GasEstimate: privacy.EstimateGasCostWithFees(q.Amount, level, price, s.fees),
		Level:       level,
		ETHPriceUSD: price,
		PriceSource: source,
	})
}

// GET /v1/pools/stats
func (s *Server) handlePoolStats(c *gin.Context) {
	level, err := s.level(c.Query("level"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	raw, err := s.opts.Collector.CollectPoolStats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	stats, err := privacy.NewPoolStats(raw.PoolSize, raw.ActiveMixers, raw.AnonymitySet)
	if err != nil {
		s.writeError(c, err)
		return
	}

	metrics := stats.Score(level)
	c.JSON(http.StatusOK, PoolStatsResponse{
		Stats:   *raw,
		Level:   level,
		Metrics: metrics,
		Grade:   privacy.ScoreGrade(metrics.TotalScore),
		Display: map[string]string{
			"pool_size":     "$" + privacy.FormatCompact(raw.PoolSize),
			"active_mixers": privacy.FormatCompact(raw.ActiveMixers),
			"anonymity_set": privacy.FormatCompact(raw.AnonymitySet),
		},
	})
}

// POST /v1/pools/deposit
func (s *Server) handleDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	level, err := s.level(req.PrivacyLevel)
	if err != nil {
		s.writeError(c, err)
		return
	}

	tx, err := s.opts.Simulator.Deposit(c.Request.Context(), req.Amount, level)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, tx)
}

// POST /v1/pools/withdraw
func (s *Server) handleWithdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	tx, err := s.opts.Simulator.Withdraw(c.Request.Context(), req.Amount)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, tx)
}

// POST /v1/pools/stealth-address
func (s *Server) handleStealthAddress(c *gin.Context) {
	tx, address, err := s.opts.Simulator.GenerateStealthAddress(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, StealthAddressResponse{Transaction: tx, Address: address})
}

// GET /v1/transactions
func (s *Server) handleListTransactions(c *gin.Context) {
	status, err := pools.ParseStatus(c.Query("status"))
	if err != nil {
		s.badRequest(c, err)
		return
	}

	tracker := s.opts.Simulator.Tracker()
	c.JSON(http.StatusOK, TransactionsResponse{
		Transactions: tracker.List(status),
		Counts:       tracker.Counts(),
	})
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	tx, err := s.opts.Simulator.Tracker().Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// DELETE /v1/transactions
func (s *Server) handleClearTransactions(c *gin.Context) {
	s.opts.Simulator.Tracker().Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAgentTypes(c *gin.Context) {
	c.JSON(http.StatusOK, marketplace.AgentTypes())
}

// GET /v1/agents
func (s *Server) handleListAgents(c *gin.Context) {
	if s.opts.Catalog == nil {
		s.writeError(c, errAgentsUnavailable)
		return
	}

	var q agentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err)
		return
	}

	listings, err := s.opts.Catalog.List(c.Request.Context(), q.Type, q.Query)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if q.Limit > 0 && len(listings) > q.Limit {
		listings = listings[:q.Limit]
	}
	c.JSON(http.StatusOK, listings)
}

func (s *Server) handleGetAgent(c *gin.Context) {
	if s.opts.Catalog == nil {
		s.writeError(c, errAgentsUnavailable)
		return
	}

	listing, err := s.opts.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// GET /v1/defi/markets
func (s *Server) handleMarkets(c *gin.Context) {
	c.JSON(http.StatusOK, defi.AllMarkets())
}

// POST /v1/defi/:action
func (s *Server) handleDefiAction(c *gin.Context) {
	action, err := defi.ParseAction(c.Param("action"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "UNKNOWN_ACTION"})
		return
	}

	var req defiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	receipt, err := s.opts.Desk.Execute(c.Request.Context(), action, req.Market, req.Amount)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("defi action executed", "action", action, "market", receipt.Market, "tx_hash", receipt.TxHash)
	c.JSON(http.StatusOK, receipt)
}
