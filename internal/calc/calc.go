// Package calc implements the closed-form position calculators: weighted
// average price, averaging down/up with break-even shift, loss recovery,
// target profit, and trade return with round-trip fees.
//
// Every function is pure. Invalid input (an empty form field parsed as zero,
// a negative price) is an expected state rather than an error, so each
// calculator reports it through a boolean second return value instead of an
// error:
//
//	res, ok := calc.LossRecovery(avg, cur)
//	if !ok {
//		// show placeholder
//	}
//
// Values are float64. A division by a zero current price is reported as
// math.Inf(1), never as a failed calculation.
package calc

// Lot is one purchase contributing to a weighted average.
type Lot struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Valid reports whether the lot takes part in aggregation.
func (l Lot) Valid() bool {
	return l.Price > 0 && l.Quantity > 0
}

// AveragePriceResult is the quantity-weighted aggregate of a set of lots.
type AveragePriceResult struct {
	AveragePrice  float64 `json:"averagePrice"`
	TotalQuantity float64 `json:"totalQuantity"`
	TotalInvested float64 `json:"totalInvested"`
}

// Direction classifies an additional purchase against the current average.
type Direction string

const (
	DirectionDown Direction = "down"
	DirectionUp   Direction = "up"
	DirectionSame Direction = "same"
)

// BreakEven holds the gain (in percent, measured from the market price)
// needed to reach the average cost before and after an additional purchase.
// A negative Delta means the purchase made break-even easier.
type BreakEven struct {
	Before float64 `json:"breakEvenBefore"`
	After  float64 `json:"breakEvenAfter"`
	Delta  float64 `json:"breakEvenDelta"`
}

// AveragingResult describes a position after adding one more lot.
// BreakEven is nil when no market price was supplied.
type AveragingResult struct {
	NewAveragePrice float64    `json:"newAveragePrice"`
	TotalQuantity   float64    `json:"totalQuantity"`
	TotalInvested   float64    `json:"totalInvested"`
	Direction       Direction  `json:"direction"`
	BreakEven       *BreakEven `json:"breakEven"`
}

// AverageDownResult is the legacy single-figure averaging summary.
type AverageDownResult struct {
	NewAveragePrice     float64 `json:"newAveragePrice"`
	TotalInvested       float64 `json:"totalInvested"`
	TotalQuantity       float64 `json:"totalQuantity"`
	RequiredGainPercent float64 `json:"requiredGainPercent"`
}

// LossRecoveryResult pairs a drawdown with the gain needed to undo it.
// RequiredGainPercent is +Inf for a total loss.
type LossRecoveryResult struct {
	LossPercent         float64 `json:"lossPercent"`
	RequiredGainPercent float64 `json:"requiredGainPercent"`
}

// TargetMode selects how TargetProfit interprets its target value.
type TargetMode string

const (
	// ModePercent treats the target as a desired return in percent.
	ModePercent TargetMode = "percent"
	// ModeAmount treats the target as a desired absolute profit.
	ModeAmount TargetMode = "amount"
	// ModePrice treats the target as an exit price. Only ExitPlan accepts it.
	ModePrice TargetMode = "price"
)

// TargetProfitResult is the exit price for a desired profit.
type TargetProfitResult struct {
	TargetPrice    float64 `json:"targetPrice"`
	ExpectedProfit float64 `json:"expectedProfit"`
	ReturnPercent  float64 `json:"returnPercent"`
}

// ExitPlanResult is a TargetProfitResult plus the invested amount.
type ExitPlanResult struct {
	TargetProfitResult
	TotalInvested float64 `json:"totalInvested"`
}

// ReturnResult is the outcome of a closed trade, gross and net of fees.
type ReturnResult struct {
	ProfitLoss       float64 `json:"profitLoss"`
	ReturnPercent    float64 `json:"returnPercent"`
	TotalBuy         float64 `json:"totalBuy"`
	TotalSell        float64 `json:"totalSell"`
	FeeAmount        float64 `json:"feeAmount"`
	NetProfitLoss    float64 `json:"netProfitLoss"`
	NetReturnPercent float64 `json:"netReturnPercent"`
}
