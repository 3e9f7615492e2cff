package pricing

import (
	"testing"

	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	items := []types.OrderItem{
		{Quantity: 2, Price: 12, DiscountPrice: 9, ShippingCost: 5},
		{Quantity: 1, Price: 10.10, ShippingCost: 0},
	}

	got := Summarize(items)
	want := types.PriceSummary{Subtotal: 34.10, Savings: 6, ShippingCost: 5, Total: 33.10}
	if !SummariesEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	if got := Summarize(nil); got != (types.PriceSummary{}) {
		t.Fatalf("expected zero summary, got %+v", got)
	}
}

func TestToSubunits(t *testing.T) {
	t.Parallel()

	cases := map[float64]int64{
		499:    49900,
		19.99:  1999,
		0.1:    10,
		1234.5: 123450,
	}
	for amount, want := range cases {
		if got := ToSubunits(amount); got != want {
			t.Fatalf("ToSubunits(%v) = %d, want %d", amount, got, want)
		}
	}
}

func TestWithShipping(t *testing.T) {
	t.Parallel()

	if got := WithShipping(9.1, 0.2); got != 9.3 {
		t.Fatalf("expected 9.3, got %v", got)
	}
}
