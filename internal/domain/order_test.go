package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestNewOrder_InitialState(t *testing.T) {
	o := NewOrder("client-1", "BTCUSD", TradeTypeBuy, OrderTypeLimit, d(100), d(10))

	if !o.RemainingVolume.Equal(d(10)) {
		t.Errorf("RemainingVolume = %s, want 10", o.RemainingVolume)
	}
	if o.Status != OrderStatusActive {
		t.Errorf("Status = %s, want active", o.Status)
	}
	if !o.HasRemainingVolume() {
		t.Error("HasRemainingVolume() = false, want true")
	}
	if o.HasExecutions() {
		t.Error("HasExecutions() = true, want false")
	}
}

func TestOrder_Execute(t *testing.T) {
	o := NewOrder("client-1", "BTCUSD", TradeTypeSell, OrderTypeLimit, d(100), d(10))

	if err := o.Execute(d(4), d(100)); err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}

	if !o.RemainingVolume.Equal(d(6)) {
		t.Errorf("RemainingVolume = %s, want 6", o.RemainingVolume)
	}
	if len(o.Executions) != 1 {
		t.Fatalf("len(Executions) = %d, want 1", len(o.Executions))
	}
	if !o.Executions[0].Volume.Equal(d(4)) || !o.Executions[0].Price.Equal(d(100)) {
		t.Errorf("Executions[0] = %s@%s, want 4@100", o.Executions[0].Volume, o.Executions[0].Price)
	}
	if !o.HasExecutions() {
		t.Error("HasExecutions() = false, want true")
	}

	if err := o.Execute(d(6), d(101)); err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if o.HasRemainingVolume() {
		t.Error("HasRemainingVolume() = true after full fill")
	}
}

func TestOrder_Execute_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		volume decimal.Decimal
	}{
		{"zero volume", d(0)},
		{"negative volume", d(-1)},
		{"exceeds remaining", d(11)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrder("client-1", "BTCUSD", TradeTypeBuy, OrderTypeLimit, d(100), d(10))
			err := o.Execute(tt.volume, d(100))
			if !errors.Is(err, ErrInvalidExecution) {
				t.Fatalf("Execute(%s) error = %v, want ErrInvalidExecution", tt.volume, err)
			}
			if !o.RemainingVolume.Equal(d(10)) {
				t.Errorf("RemainingVolume = %s, want 10 (unchanged)", o.RemainingVolume)
			}
			if o.HasExecutions() {
				t.Error("rejected execution must not be recorded")
			}
		})
	}
}

func TestOrder_Cancel(t *testing.T) {
	o := NewOrder("client-1", "BTCUSD", TradeTypeBuy, OrderTypeLimit, d(100), d(10))
	o.Cancel()
	if o.Status != OrderStatusCancelled {
		t.Errorf("Status = %s, want cancelled", o.Status)
	}
}

func TestOrder_AveragePrice(t *testing.T) {
	// 7 @ 148 + 3 @ 149 = 1036 + 447 = 1483 / 10 = 148.3
	o := NewOrder("client-1", "BTCUSD", TradeTypeBuy, OrderTypeLimit, d(150), d(10))
	_ = o.Execute(d(7), d(148))
	_ = o.Execute(d(3), d(149))

	avg, ok := o.AveragePrice()
	if !ok {
		t.Fatal("AveragePrice() returned false, want true")
	}
	want := decimal.RequireFromString("148.3")
	if !avg.Equal(want) {
		t.Errorf("AveragePrice() = %s, want %s", avg, want)
	}
}

func TestOrder_AveragePrice_NoExecutions(t *testing.T) {
	o := NewOrder("client-1", "BTCUSD", TradeTypeBuy, OrderTypeLimit, d(150), d(10))
	if _, ok := o.AveragePrice(); ok {
		t.Error("AveragePrice() returned true, want false without executions")
	}
}

func TestOrder_Clone_IsIndependent(t *testing.T) {
	o := NewOrder("client-1", "BTCUSD", TradeTypeBuy, OrderTypeLimit, d(100), d(10))
	_ = o.Execute(d(2), d(100))

	c := o.Clone()
	_ = o.Execute(d(3), d(100))

	if len(c.Executions) != 1 {
		t.Errorf("clone Executions = %d, want 1", len(c.Executions))
	}
	if !c.RemainingVolume.Equal(d(8)) {
		t.Errorf("clone RemainingVolume = %s, want 8", c.RemainingVolume)
	}
}

// Executed volume plus remaining volume always equals the original volume.
func TestProperty_ExecutionConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		volume := rapid.Int64Range(1, 1_000_000).Draw(t, "volume")
		o := NewOrder("c", "BTCUSD", TradeTypeBuy, OrderTypeLimit, d(1), d(volume))

		steps := rapid.IntRange(0, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			fill := rapid.Int64Range(-5, volume+5).Draw(t, "fill")
			_ = o.Execute(d(fill), d(1))

			if o.RemainingVolume.IsNegative() {
				t.Fatalf("remaining volume went negative: %s", o.RemainingVolume)
			}
			if !o.ExecutedVolume().Add(o.RemainingVolume).Equal(o.Volume) {
				t.Fatalf("executed %s + remaining %s != volume %s", o.ExecutedVolume(), o.RemainingVolume, o.Volume)
			}
		}
	})
}
