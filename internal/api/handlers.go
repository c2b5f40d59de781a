package api

import (
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/lugondev/go-swappool/internal/storage"
)

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.repo.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleGetPools handles GET /api/v1/pools, optionally filtered by ?authority=.
func (s *Server) handleGetPools(c *gin.Context) {
	limit, offset, err := page(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	var pools []*storage.PoolModel
	if authority := c.Query("authority"); authority != "" {
		pools, err = s.repo.Pools().FindByAuthority(ctx, authority, limit, offset)
	} else {
		pools, err = s.repo.Pools().FindAll(ctx, limit, offset)
	}
	if err != nil {
		s.internalError(c, "pools", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pools":  pools,
		"count":  len(pools),
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleGetPool(c *gin.Context) {
	address, ok := s.address(c)
	if !ok {
		return
	}

	p, err := s.repo.Pools().FindByAddress(c.Request.Context(), address)
	if err != nil {
		s.internalError(c, "pool", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "pool not found"})
		return
	}

	c.JSON(http.StatusOK, p)
}

func (s *Server) handleGetPoolOperations(c *gin.Context) {
	address, ok := s.address(c)
	if !ok {
		return
	}
	limit, offset, err := page(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	ops, err := s.repo.Operations().FindByPool(c.Request.Context(), address, limit, offset)
	if err != nil {
		s.internalError(c, "operations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"operations": ops,
		"count":      len(ops),
		"limit":      limit,
		"offset":     offset,
	})
}

// handleGetOperations handles GET /api/v1/operations?actor=.
func (s *Server) handleGetOperations(c *gin.Context) {
	actor := c.Query("actor")
	if actor == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "actor is required"})
		return
	}
	limit, offset, err := page(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	ops, err := s.repo.Operations().FindByActor(c.Request.Context(), actor, limit, offset)
	if err != nil {
		s.internalError(c, "operations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"operations": ops,
		"count":      len(ops),
		"limit":      limit,
		"offset":     offset,
	})
}

func (s *Server) handleGetTransactions(c *gin.Context) {
	limit, _, err := page(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	txs, err := s.repo.Transactions().FindRecent(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, "transactions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"count":        len(txs),
	})
}

// handleGetTransaction returns a transaction with the operations it committed.
func (s *Server) handleGetTransaction(c *gin.Context) {
	signature := c.Param("signature")
	if _, err := solana.SignatureFromBase58(signature); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
		return
	}

	ctx := c.Request.Context()
	tx, err := s.repo.Transactions().FindBySignature(ctx, signature)
	if err != nil {
		s.internalError(c, "transaction", err)
		return
	}
	if tx == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "transaction not found"})
		return
	}

	ops, err := s.repo.Operations().FindBySignature(ctx, signature)
	if err != nil {
		s.internalError(c, "operations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction": tx,
		"operations":  ops,
	})
}

// address validates the :address path parameter.
func (s *Server) address(c *gin.Context) (string, bool) {
	address := c.Param("address")
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid address"})
		return "", false
	}
	return address, true
}
