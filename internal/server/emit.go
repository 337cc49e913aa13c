package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	documentdomain "github.com/quadrasoft/fiscal/internal/document/domain"
	emissiondomain "github.com/quadrasoft/fiscal/internal/emission/domain"
	"go.uber.org/zap"
)

type emitRequest struct {
	OrderID      string `json:"order_id" binding:"required"`
	MerchantCode string `json:"merchant_code"`
	Model        string `json:"model" binding:"required"`

	NatOp       string `json:"nat_op"`
	Series      string `json:"series"`
	Number      string `json:"number"`
	Environment int    `json:"environment"`
	Destination int    `json:"destination"`
	Finality    int    `json:"finality"`
	Inbound     bool   `json:"inbound"`
	IssuedAt    string `json:"issued_at"`
}

type emitResponse struct {
	EmissionID      string   `json:"emission_id"`
	Key             string   `json:"key"`
	Model           string   `json:"model"`
	Number          string   `json:"number"`
	ProductTotal    float64  `json:"product_total"`
	Discount        float64  `json:"discount"`
	Net             float64  `json:"net"`
	IncompleteItems []string `json:"incomplete_items,omitempty"`
	XML             string   `json:"xml"`
}

// EmitDocument handles POST /v1/documents/emit.
func (s *Server) EmitDocument(c *gin.Context) {
	var req emitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	merchantCode := strings.TrimSpace(req.MerchantCode)
	if merchantCode == "" {
		merchantCode = s.cfg.MerchantCode
	}

	emit := emissiondomain.EmitRequest{
		OrderID:      req.OrderID,
		MerchantCode: merchantCode,
		Model:        documentdomain.Model(req.Model),
		NatOp:        req.NatOp,
		Series:       req.Series,
		Number:       req.Number,
		Environment:  req.Environment,
		Destination:  req.Destination,
		Finality:     req.Finality,
		Inbound:      req.Inbound,
	}
	if req.IssuedAt != "" {
		issuedAt, err := time.Parse(time.RFC3339, req.IssuedAt)
		if err != nil {
			AbortWithError(c, newValidationError("issued_at", "invalid_timestamp", "issued_at must be RFC3339"))
			return
		}
		emit.IssuedAt = &issuedAt
	}

	result, err := s.emission.Emit(c.Request.Context(), emit)
	if err != nil {
		s.log.Warn("emission failed",
			zap.String("order_id", req.OrderID),
			zap.Error(err),
		)
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, emitResponse{
		EmissionID:      result.EmissionID,
		Key:             result.Key,
		Model:           string(result.Model),
		Number:          result.Number,
		ProductTotal:    result.Totals.ProductTotal,
		Discount:        result.Totals.Discount,
		Net:             result.Totals.Net,
		IncompleteItems: result.IncompleteItems,
		XML:             result.XML,
	})
}
