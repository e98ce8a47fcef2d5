package calc

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Abs(b))
}

func ptr(f float64) *float64 {
	return &f
}

// --- AveragePrice ---

func TestAveragePrice_WeightedAverage(t *testing.T) {
	res, ok := AveragePrice([]Lot{
		{Price: 100, Quantity: 10},
		{Price: 80, Quantity: 30},
	})
	if !ok {
		t.Fatal("expected valid result")
	}
	if res.TotalInvested != 3400 {
		t.Errorf("expected invested 3400, got %v", res.TotalInvested)
	}
	if res.TotalQuantity != 40 {
		t.Errorf("expected quantity 40, got %v", res.TotalQuantity)
	}
	if !approx(res.AveragePrice, 85) {
		t.Errorf("expected average 85, got %v", res.AveragePrice)
	}
}

func TestAveragePrice_SkipsInvalidLots(t *testing.T) {
	res, ok := AveragePrice([]Lot{
		{Price: 100, Quantity: 10},
		{Price: 0, Quantity: 50},
		{Price: 90, Quantity: -5},
		{Price: -1, Quantity: -1},
	})
	if !ok {
		t.Fatal("expected valid result")
	}
	if res.TotalQuantity != 10 || res.TotalInvested != 1000 || res.AveragePrice != 100 {
		t.Errorf("invalid lots should be excluded, got %+v", res)
	}
}

func TestAveragePrice_NoValidLots(t *testing.T) {
	tests := []struct {
		name string
		lots []Lot
	}{
		{"nil", nil},
		{"empty", []Lot{}},
		{"all zero", []Lot{{0, 0}, {0, 0}}},
		{"negative", []Lot{{-10, 5}, {10, -5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := AveragePrice(tt.lots); ok {
				t.Error("expected invalid result")
			}
		})
	}
}

func TestAveragePrice_PermutationInvariant(t *testing.T) {
	lots := []Lot{
		{Price: 120, Quantity: 3},
		{Price: 95, Quantity: 7},
		{Price: 101, Quantity: 2},
		{Price: 88, Quantity: 11},
	}
	want, _ := AveragePrice(lots)

	var sum float64
	for _, l := range lots {
		sum += l.Price * l.Quantity
	}
	if want.TotalInvested != sum {
		t.Errorf("invested %v != Σ price·qty %v", want.TotalInvested, sum)
	}

	perms := [][]int{
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}
	for _, p := range perms {
		shuffled := make([]Lot, len(lots))
		for i, idx := range p {
			shuffled[i] = lots[idx]
		}
		got, ok := AveragePrice(shuffled)
		if !ok {
			t.Fatalf("permutation %v: expected valid result", p)
		}
		if !approx(got.AveragePrice, want.AveragePrice) ||
			got.TotalQuantity != want.TotalQuantity ||
			got.TotalInvested != want.TotalInvested {
			t.Errorf("permutation %v: got %+v, want %+v", p, got, want)
		}
	}
}

// --- Averaging ---

func TestAveraging_Direction(t *testing.T) {
	tests := []struct {
		addPrice float64
		want     Direction
	}{
		{100, DirectionSame},
		{80, DirectionDown},
		{120, DirectionUp},
	}
	for _, tt := range tests {
		res, ok := Averaging(100, 10, tt.addPrice, 10, nil)
		if !ok {
			t.Fatalf("add@%v: expected valid result", tt.addPrice)
		}
		if res.Direction != tt.want {
			t.Errorf("add@%v: expected %s, got %s", tt.addPrice, tt.want, res.Direction)
		}
	}
}

func TestAveraging_NewAverage(t *testing.T) {
	res, ok := Averaging(100, 10, 80, 10, nil)
	if !ok {
		t.Fatal("expected valid result")
	}
	if !approx(res.NewAveragePrice, 90) {
		t.Errorf("expected new average 90, got %v", res.NewAveragePrice)
	}
	if res.TotalQuantity != 20 || res.TotalInvested != 1800 {
		t.Errorf("unexpected totals: %+v", res)
	}
	if res.BreakEven != nil {
		t.Error("break-even should be absent without a market price")
	}
}

func TestAveraging_BreakEven(t *testing.T) {
	res, ok := Averaging(100, 10, 60, 10, ptr(50))
	if !ok {
		t.Fatal("expected valid result")
	}
	if res.BreakEven == nil {
		t.Fatal("expected break-even with market price")
	}
	// before: 100/50 → +100%, after: 80/50 → +60%.
	if !approx(res.BreakEven.Before, 100) {
		t.Errorf("before: expected 100, got %v", res.BreakEven.Before)
	}
	if !approx(res.BreakEven.After, 60) {
		t.Errorf("after: expected 60, got %v", res.BreakEven.After)
	}
	if !approx(res.BreakEven.Delta, -40) {
		t.Errorf("delta: expected -40, got %v", res.BreakEven.Delta)
	}
}

func TestAveraging_NonPositiveMarketPriceOmitsBreakEven(t *testing.T) {
	for _, m := range []float64{0, -5} {
		res, ok := Averaging(100, 10, 80, 10, ptr(m))
		if !ok {
			t.Fatalf("market %v: expected valid result", m)
		}
		if res.BreakEven != nil {
			t.Errorf("market %v: break-even should be absent", m)
		}
	}
}

func TestAveraging_InvalidInputs(t *testing.T) {
	tests := [][4]float64{
		{0, 10, 80, 10},
		{100, 0, 80, 10},
		{100, 10, 0, 10},
		{100, 10, 80, 0},
		{-100, 10, 80, 10},
	}
	for _, in := range tests {
		if _, ok := Averaging(in[0], in[1], in[2], in[3], ptr(50)); ok {
			t.Errorf("%v: expected invalid result", in)
		}
	}
}

// --- AverageDown ---

func TestAverageDown_RequiredGain(t *testing.T) {
	res, ok := AverageDown(100, 10, 60, 10, 50)
	if !ok {
		t.Fatal("expected valid result")
	}
	if !approx(res.RequiredGainPercent, 60) {
		t.Errorf("expected 60, got %v", res.RequiredGainPercent)
	}
}

func TestAverageDown_FloorsAtZero(t *testing.T) {
	res, _ := AverageDown(100, 10, 60, 10, 200)
	if res.RequiredGainPercent != 0 {
		t.Errorf("market above average should floor to 0, got %v", res.RequiredGainPercent)
	}
	res, _ = AverageDown(100, 10, 60, 10, -1)
	if res.RequiredGainPercent != 0 {
		t.Errorf("negative market price should give 0, got %v", res.RequiredGainPercent)
	}
}

func TestAverageDown_ZeroMarketIsInfinite(t *testing.T) {
	res, ok := AverageDown(100, 10, 60, 10, 0)
	if !ok {
		t.Fatal("expected valid result")
	}
	if !math.IsInf(res.RequiredGainPercent, 1) {
		t.Errorf("expected +Inf, got %v", res.RequiredGainPercent)
	}
}

// --- LossRecovery ---

func TestLossRecovery_ThirtyPercentLoss(t *testing.T) {
	res, ok := LossRecovery(10000, 7000)
	if !ok {
		t.Fatal("expected valid result")
	}
	if !approx(res.LossPercent, 30) {
		t.Errorf("expected loss 30, got %v", res.LossPercent)
	}
	if !approx(res.RequiredGainPercent, 300.0/7.0) {
		t.Errorf("expected gain 42.857, got %v", res.RequiredGainPercent)
	}
}

func TestLossRecovery_HalfLossNeedsDouble(t *testing.T) {
	res, _ := LossRecovery(100, 50)
	if !approx(res.RequiredGainPercent, 100) {
		t.Errorf("expected 100, got %v", res.RequiredGainPercent)
	}
}

func TestLossRecovery_TotalLoss(t *testing.T) {
	res, ok := LossRecovery(100, 0)
	if !ok {
		t.Fatal("total loss is a valid result")
	}
	if res.LossPercent != 100 {
		t.Errorf("expected loss 100, got %v", res.LossPercent)
	}
	if !math.IsInf(res.RequiredGainPercent, 1) {
		t.Errorf("expected +Inf, got %v", res.RequiredGainPercent)
	}
}

func TestLossRecovery_InProfit(t *testing.T) {
	res, _ := LossRecovery(100, 120)
	if res.LossPercent >= 0 {
		t.Errorf("loss should be negative when in profit, got %v", res.LossPercent)
	}
	if res.RequiredGainPercent >= 0 {
		t.Errorf("required gain should be negative when in profit, got %v", res.RequiredGainPercent)
	}
}

func TestLossRecovery_Invalid(t *testing.T) {
	if _, ok := LossRecovery(0, 50); ok {
		t.Error("zero average should be invalid")
	}
	if _, ok := LossRecovery(100, -1); ok {
		t.Error("negative current price should be invalid")
	}
}

// --- TargetProfit ---

func TestTargetProfit_Percent(t *testing.T) {
	res, ok := TargetProfit(50000, 10, ModePercent, 20)
	if !ok {
		t.Fatal("expected valid result")
	}
	if !approx(res.TargetPrice, 60000) {
		t.Errorf("expected 60000, got %v", res.TargetPrice)
	}
	if !approx(res.ExpectedProfit, 100000) {
		t.Errorf("expected 100000, got %v", res.ExpectedProfit)
	}
	if res.ReturnPercent != 20 {
		t.Errorf("expected 20, got %v", res.ReturnPercent)
	}
}

func TestTargetProfit_Amount(t *testing.T) {
	res, ok := TargetProfit(50000, 10, ModeAmount, 100000)
	if !ok {
		t.Fatal("expected valid result")
	}
	if !approx(res.TargetPrice, 60000) {
		t.Errorf("expected 60000, got %v", res.TargetPrice)
	}
	if !approx(res.ReturnPercent, 20) {
		t.Errorf("expected 20, got %v", res.ReturnPercent)
	}
}

func TestTargetProfit_RoundTrip(t *testing.T) {
	tests := []struct {
		avg, qty, r float64
	}{
		{1, 1, 0},
		{123.45, 17, 7.5},
		{50000, 100, 33.3},
		{0.0012, 250000, 1200},
	}
	for _, tt := range tests {
		pct, ok := TargetProfit(tt.avg, tt.qty, ModePercent, tt.r)
		if !ok {
			t.Fatalf("%+v: expected valid result", tt)
		}
		if !approx(pct.ReturnPercent, tt.r) {
			t.Errorf("%+v: return %v != %v", tt, pct.ReturnPercent, tt.r)
		}

		amt, _ := TargetProfit(tt.avg, tt.qty, ModeAmount, pct.ExpectedProfit)
		if !approx(amt.TargetPrice, pct.TargetPrice) {
			t.Errorf("%+v: amount-mode price %v != percent-mode price %v", tt, amt.TargetPrice, pct.TargetPrice)
		}

		back, _ := TargetProfit(tt.avg, tt.qty, ModePercent, amt.ReturnPercent)
		if !approx(back.TargetPrice, amt.TargetPrice) {
			t.Errorf("%+v: round-trip price %v != %v", tt, back.TargetPrice, amt.TargetPrice)
		}
	}
}

func TestTargetProfit_Invalid(t *testing.T) {
	if _, ok := TargetProfit(0, 10, ModePercent, 10); ok {
		t.Error("zero average should be invalid")
	}
	if _, ok := TargetProfit(100, 0, ModePercent, 10); ok {
		t.Error("zero quantity should be invalid")
	}
	if _, ok := TargetProfit(100, 10, ModeAmount, -1); ok {
		t.Error("negative target should be invalid")
	}
	if _, ok := TargetProfit(100, 10, ModePrice, 10); ok {
		t.Error("price mode is not a target-profit mode")
	}
}

// --- ExitPlan ---

func TestExitPlan_PriceMode(t *testing.T) {
	res, ok := ExitPlan(100, 10, ModePrice, 90)
	if !ok {
		t.Fatal("expected valid result")
	}
	if res.TotalInvested != 1000 {
		t.Errorf("expected invested 1000, got %v", res.TotalInvested)
	}
	if res.ExpectedProfit != -100 {
		t.Errorf("expected profit -100, got %v", res.ExpectedProfit)
	}
	if !approx(res.ReturnPercent, -10) {
		t.Errorf("expected -10%%, got %v", res.ReturnPercent)
	}
}

func TestExitPlan_PercentMode(t *testing.T) {
	res, ok := ExitPlan(100, 10, ModePercent, 10)
	if !ok {
		t.Fatal("expected valid result")
	}
	if !approx(res.TargetPrice, 110) || res.TotalInvested != 1000 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestExitPlan_ZeroTargetInvalid(t *testing.T) {
	if _, ok := ExitPlan(100, 10, ModePrice, 0); ok {
		t.Error("zero target should be invalid")
	}
}

// --- Return ---

func TestReturn_Gross(t *testing.T) {
	res, ok := Return(50000, 55000, 100, 0)
	if !ok {
		t.Fatal("expected valid result")
	}
	if res.ProfitLoss != 500000 {
		t.Errorf("expected profit 500000, got %v", res.ProfitLoss)
	}
	if !approx(res.ReturnPercent, 10) {
		t.Errorf("expected 10%%, got %v", res.ReturnPercent)
	}
	if res.FeeAmount != 0 || res.NetProfitLoss != res.ProfitLoss {
		t.Errorf("zero fee should leave net == gross, got %+v", res)
	}
}

func TestReturn_FeeOnCombinedNotional(t *testing.T) {
	gross, _ := Return(50000, 55000, 100, 0)
	net, ok := Return(50000, 55000, 100, 0.03)
	if !ok {
		t.Fatal("expected valid result")
	}
	wantFee := (50000.0 + 55000.0) * 100 * 0.0003
	if !approx(net.FeeAmount, wantFee) {
		t.Errorf("expected fee %v, got %v", wantFee, net.FeeAmount)
	}
	if !approx(gross.NetProfitLoss-net.NetProfitLoss, wantFee) {
		t.Errorf("net profit should drop by %v, dropped %v", wantFee, gross.NetProfitLoss-net.NetProfitLoss)
	}
	if !approx(net.NetReturnPercent, net.NetProfitLoss/net.TotalBuy*100) {
		t.Errorf("net return inconsistent: %+v", net)
	}
}

func TestReturn_Invalid(t *testing.T) {
	tests := [][4]float64{
		{0, 100, 1, 0},
		{100, 0, 1, 0},
		{100, 100, 0, 0},
		{100, 100, 1, -0.1},
	}
	for _, in := range tests {
		if _, ok := Return(in[0], in[1], in[2], in[3]); ok {
			t.Errorf("%v: expected invalid result", in)
		}
	}
}
