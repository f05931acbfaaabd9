package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/playground/service"
)

// Info is the GetChallengeInfo response
type Info struct {
	Description string `json:"description"`
	ShowSource  bool   `json:"show_source"`
	SolvedEvent string `json:"solved_event"`
}

// Playground is the NewPlayground response
type Playground struct {
	Address string  `json:"address"`
	Token   string  `json:"token"`
	Value   float64 `json:"value"`
}

// Contract is the DeployContract response
type Contract struct {
	Address string `json:"address"`
	TxHash  string `json:"tx_hash"`
}

// Event is the GetFlag request
type Event struct {
	TxHash *string `json:"tx_hash"`
}

// Flag is the GetFlag response
type Flag struct {
	Flag string `json:"flag"`
}

// SourceCode is the GetSourceCode response
type SourceCode struct {
	Source map[string]string `json:"source"`
}

// ChallengeHandlers contains HTTP handlers for the challenge service
type ChallengeHandlers struct {
	svc *service.ChallengeService
}

// NewChallengeHandlers creates new challenge handlers
func NewChallengeHandlers(svc *service.ChallengeService) *ChallengeHandlers {
	return &ChallengeHandlers{svc: svc}
}

// GetChallengeInfo returns the challenge description
func (h *ChallengeHandlers) GetChallengeInfo(c *gin.Context) {
	info := h.svc.GetChallengeInfo()
	c.JSON(http.StatusOK, Info{
		Description: info.Description,
		ShowSource:  info.ShowSource,
		SolvedEvent: info.SolvedEvent,
	})
}

// NewPlayground issues a new playground account
func (h *ChallengeHandlers) NewPlayground(c *gin.Context) {
	pg, err := h.svc.NewPlayground(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Playground{
		Address: pg.Address,
		Token:   pg.Token,
		Value:   pg.Value,
	})
}

// DeployContract deploys the challenge from the authenticated account
func (h *ChallengeHandlers) DeployContract(c *gin.Context) {
	deployment, err := h.svc.DeployContract(c.Request.Context(), c.GetString(tokenKey))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Contract{
		Address: deployment.Address,
		TxHash:  deployment.TxHash,
	})
}

// GetFlag returns the flag once the given transaction solved the challenge
func (h *ChallengeHandlers) GetFlag(c *gin.Context) {
	var req Event
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
				Code: CodeMalformed,
				Msg:  "the json request could not be decoded",
			})
			return
		}
	}

	var txHash string
	if req.TxHash != nil {
		txHash = *req.TxHash
	}

	flag, err := h.svc.GetFlag(c.Request.Context(), c.GetString(tokenKey), txHash)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Flag{Flag: flag})
}

// GetSourceCode returns the challenge sources when they are public
func (h *ChallengeHandlers) GetSourceCode(c *gin.Context) {
	c.JSON(http.StatusOK, SourceCode{Source: h.svc.GetSourceCode()})
}

// Healthz reports liveness
func (h *ChallengeHandlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
