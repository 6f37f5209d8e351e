package engine

import (
	"errors"
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/henrycs/mockserver/internal/domain"
)

// Limit-price matching uses a relative tolerance of 1e-5: a submitted
// price matches iff |a-b| <= 1e-5 * max(|a|,|b|).

func TestProperty_LimitPriceTolerance(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		expected := float64(rapid.Int64Range(1, 1_000_000).Draw(t, "cents")) / 100
		// Relative offsets clear of the 1e-5 boundary on either side.
		relErr := rapid.SampledFrom([]float64{0, 1e-9, 1e-7, 1e-6, 5e-5, 1e-4, 1e-2}).Draw(t, "relErr")
		sign := 1.0
		if rapid.Bool().Draw(t, "neg") {
			sign = -1.0
		}
		submitted := expected * (1 + sign*relErr)

		eng, _, _ := newTestEngine()
		_, err := eng.LoadCase([]domain.Step{
			tradeStep("buy", domain.ActionBuy, "600001", expected, 100,
				record("e1", "600001", domain.OrderSideBuy, domain.OrderStatusFullFill, 100, expected)),
		})
		if err != nil {
			t.Fatalf("LoadCase: %v", err)
		}

		_, err = eng.SubmitTrade("600001", submitted, 100, domain.OrderSideBuy, domain.BidTypeLimit)

		shouldMatch := math.Abs(submitted-expected) <= 1e-5*math.Max(math.Abs(submitted), math.Abs(expected))
		if shouldMatch && err != nil {
			t.Fatalf("expected %v to match %v, got %v", submitted, expected, err)
		}
		if !shouldMatch && !errors.Is(err, domain.ErrParametersNotMatched) {
			t.Fatalf("expected %v to be rejected against %v, got %v", submitted, expected, err)
		}
	})
}

// Market orders zero both prices before comparing, so the submitted
// price never influences the outcome.

func TestProperty_MarketPriceNeutrality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		submitted := float64(rapid.Int64Range(-1_000_000, 1_000_000).Draw(t, "cents")) / 100
		expected := float64(rapid.Int64Range(0, 1_000_000).Draw(t, "expCents")) / 100

		eng, _, _ := newTestEngine()
		_, err := eng.LoadCase([]domain.Step{
			tradeStep("mkt", domain.ActionMarketSell, "600001", expected, 100,
				record("e1", "600001", domain.OrderSideSell, domain.OrderStatusFullFill, 100, expected)),
		})
		if err != nil {
			t.Fatalf("LoadCase: %v", err)
		}

		if _, err := eng.SubmitTrade("600001", submitted, 100, domain.OrderSideSell, domain.BidTypeMarket); err != nil {
			t.Fatalf("market sell at %v rejected: %v", submitted, err)
		}
	})
}

// The cursor never advances past an unexecuted step, and every
// successful mutating call moves it by exactly one (except at the end
// of the script).

func TestProperty_CursorAdvancesOneStepPerExecution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 8).Draw(t, "steps")
		steps := make([]domain.Step, n)
		for i := range steps {
			steps[i] = entrustStep("stage", record("e1", "600001", domain.OrderSideBuy, domain.OrderStatusSubmitted, 0, 0))
		}

		eng, _, _ := newTestEngine()
		// The leading entrust_update auto-executes; the cursor starts at 1.
		if _, err := eng.LoadCase(steps); err != nil {
			t.Fatalf("LoadCase: %v", err)
		}

		for i := 1; i < n-1; i++ {
			cur, err := eng.Current("600001")
			if err != nil {
				t.Fatalf("Current: %v", err)
			}
			if cur.Executed {
				t.Fatalf("step %d already executed before Proceed", i)
			}
			if _, err := eng.Proceed("600001"); err != nil {
				t.Fatalf("Proceed %d: %v", i, err)
			}
		}

		// Last step executed, script exhausted.
		if _, err := eng.Proceed("600001"); err != nil {
			t.Fatalf("final Proceed: %v", err)
		}
		if _, err := eng.Proceed("600001"); !errors.Is(err, domain.ErrScriptExhausted) {
			t.Fatalf("past-the-end Proceed err = %v, want ErrScriptExhausted", err)
		}
	})
}
