package orders

import (
	"restoran-pos/internal/models"

	"github.com/shopspring/decimal"
)

// computeTotals kalemlerden ara toplamı, ödenecek tutarı ve yuvarlamayı
// hesaplar; ardından ödemeleri uygular.
func computeTotals(o *models.Order) {
	sub := decimal.Zero
	for i := range o.Items {
		it := &o.Items[i]
		it.LineTotal = lineTotal(it.Quantity, it.UnitPrice)
		sub = sub.Add(it.LineTotal)
	}
	o.SubTotal = sub.Round(2)
	o.VAT = o.VAT.Round(2)
	o.Discount = o.Discount.Round(2)

	raw := o.SubTotal.Add(o.VAT).Sub(o.Discount)
	o.Payable = raw.Round(0)
	o.Rounding = o.Payable.Sub(raw).Round(2)

	applyPayments(o)
}

func lineTotal(qty, price decimal.Decimal) decimal.Decimal {
	return qty.Mul(price).Round(2)
}

// applyPayments Received, Change, Due ve Status alanlarını yeniden hesaplar.
func applyPayments(o *models.Order) {
	received := decimal.Zero
	for i := range o.Payments {
		o.Payments[i].Amount = o.Payments[i].Amount.Round(2)
		received = received.Add(o.Payments[i].Amount)
	}
	o.Received = received

	diff := received.Sub(o.Payable)
	if diff.IsPositive() {
		o.Change, o.Due = diff, decimal.Zero
	} else {
		o.Change, o.Due = decimal.Zero, diff.Neg()
	}

	if o.Due.IsZero() {
		o.Status = models.OrderStatusPaid
	} else {
		o.Status = models.OrderStatusUnpaid
	}
}
