package api

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/investcalc/calc-engine/internal/calc"
	"github.com/investcalc/calc-engine/internal/metrics"
)

// Float encodes like float64, except that infinities become the strings
// "Infinity" and "-Infinity" and NaN becomes null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(v):
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// --- Request types ---

// AveragePriceRequest is the JSON body for POST /calc/average-price.
type AveragePriceRequest struct {
	Lots []calc.Lot `json:"lots"`
}

// AveragingRequest is the JSON body for POST /calc/averaging and
// /calc/average-down. MarketPrice is optional for averaging.
type AveragingRequest struct {
	CurrentAvg  float64  `json:"currentAvg"`
	CurrentQty  float64  `json:"currentQty"`
	AddPrice    float64  `json:"addPrice"`
	AddQty      float64  `json:"addQty"`
	MarketPrice *float64 `json:"marketPrice,omitempty"`
}

// LossRecoveryRequest is the JSON body for POST /calc/loss-recovery.
type LossRecoveryRequest struct {
	AveragePrice float64 `json:"averagePrice"`
	CurrentPrice float64 `json:"currentPrice"`
}

// TargetRequest is the JSON body for POST /calc/target-profit and
// /calc/exit-plan.
type TargetRequest struct {
	AveragePrice float64         `json:"averagePrice"`
	Quantity     float64         `json:"quantity"`
	Mode         calc.TargetMode `json:"mode"`
	Target       float64         `json:"target"`
}

// ReturnRequest is the JSON body for POST /calc/return.
type ReturnRequest struct {
	BuyPrice   float64 `json:"buyPrice"`
	SellPrice  float64 `json:"sellPrice"`
	Quantity   float64 `json:"quantity"`
	FeePercent float64 `json:"feePercent"`
}

// Results that can carry +Inf are re-encoded through Float.

type averageDownResponse struct {
	NewAveragePrice     float64 `json:"newAveragePrice"`
	TotalInvested       float64 `json:"totalInvested"`
	TotalQuantity       float64 `json:"totalQuantity"`
	RequiredGainPercent Float   `json:"requiredGainPercent"`
}

type lossRecoveryResponse struct {
	LossPercent         float64 `json:"lossPercent"`
	RequiredGainPercent Float   `json:"requiredGainPercent"`
}

// --- HTTP Handlers ---

// AveragePrice handles POST /api/v1/calc/average-price
func (h *Handler) AveragePrice(w http.ResponseWriter, r *http.Request) {
	var req AveragePriceRequest
	if !decode(w, r, &req) {
		return
	}
	res, ok := calc.AveragePrice(req.Lots)
	writeCalc(w, "average_price", res, ok)
}

// Averaging handles POST /api/v1/calc/averaging
func (h *Handler) Averaging(w http.ResponseWriter, r *http.Request) {
	var req AveragingRequest
	if !decode(w, r, &req) {
		return
	}
	res, ok := calc.Averaging(req.CurrentAvg, req.CurrentQty, req.AddPrice, req.AddQty, req.MarketPrice)
	writeCalc(w, "averaging", res, ok)
}

// AverageDown handles POST /api/v1/calc/average-down
func (h *Handler) AverageDown(w http.ResponseWriter, r *http.Request) {
	var req AveragingRequest
	if !decode(w, r, &req) {
		return
	}
	var market float64
	if req.MarketPrice != nil {
		market = *req.MarketPrice
	}
	res, ok := calc.AverageDown(req.CurrentAvg, req.CurrentQty, req.AddPrice, req.AddQty, market)
	writeCalc(w, "average_down", averageDownResponse{
		NewAveragePrice:     res.NewAveragePrice,
		TotalInvested:       res.TotalInvested,
		TotalQuantity:       res.TotalQuantity,
		RequiredGainPercent: Float(res.RequiredGainPercent),
	}, ok)
}

// LossRecovery handles POST /api/v1/calc/loss-recovery
func (h *Handler) LossRecovery(w http.ResponseWriter, r *http.Request) {
	var req LossRecoveryRequest
	if !decode(w, r, &req) {
		return
	}
	res, ok := calc.LossRecovery(req.AveragePrice, req.CurrentPrice)
	writeCalc(w, "loss_recovery", lossRecoveryResponse{
		LossPercent:         res.LossPercent,
		RequiredGainPercent: Float(res.RequiredGainPercent),
	}, ok)
}

// TargetProfit handles POST /api/v1/calc/target-profit
func (h *Handler) TargetProfit(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if !decode(w, r, &req) {
		return
	}
	res, ok := calc.TargetProfit(req.AveragePrice, req.Quantity, req.Mode, req.Target)
	writeCalc(w, "target_profit", res, ok)
}

// ExitPlan handles POST /api/v1/calc/exit-plan
func (h *Handler) ExitPlan(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if !decode(w, r, &req) {
		return
	}
	res, ok := calc.ExitPlan(req.AveragePrice, req.Quantity, req.Mode, req.Target)
	writeCalc(w, "exit_plan", res, ok)
}

// Return handles POST /api/v1/calc/return
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	var req ReturnRequest
	if !decode(w, r, &req) {
		return
	}
	res, ok := calc.Return(req.BuyPrice, req.SellPrice, req.Quantity, req.FeePercent)
	writeCalc(w, "return", res, ok)
}

// writeCalc writes a calculator result, or 422 when the input was not
// usable. Finite inputs can still overflow to ±Inf or NaN, which JSON cannot
// carry; those are reported as out of range.
func writeCalc(w http.ResponseWriter, calculator string, v any, ok bool) {
	if !ok {
		metrics.CalcRequestsTotal.WithLabelValues(calculator, "invalid").Inc()
		writeError(w, "insufficient input", http.StatusUnprocessableEntity)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		metrics.CalcRequestsTotal.WithLabelValues(calculator, "out_of_range").Inc()
		writeError(w, "result out of range", http.StatusUnprocessableEntity)
		return
	}
	metrics.CalcRequestsTotal.WithLabelValues(calculator, "ok").Inc()
	writeBody(w, http.StatusOK, body)
}
