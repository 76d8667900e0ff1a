// Package pricing computes point-of-sale cart totals: per-item discounts,
// category-scoped taxes in inclusive or exclusive mode, a transaction-level
// discount, and the outstanding or returned balance after payments.
//
// The engine is a pure function of its input: no state is kept between calls
// and identical drafts always produce identical carts.
package pricing

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrDraftRequired is returned when Price is called without a draft.
var ErrDraftRequired = errors.New("pricing: draft is required")

var hundred = decimal.NewFromInt(100)

// Formatter renders a monetary value for display. Implementations must be
// deterministic and must not alter the numeric value being formatted.
type Formatter interface {
	Format(decimal.Decimal) string
}

// Engine prices transaction drafts. The zero value is usable: display fields
// fall back to plain fixed-point strings and diagnostics are discarded.
type Engine struct {
	Formatter Formatter
	Logger    *zerolog.Logger
}

// Price resolves taxes, discounts, and payments for the draft and returns the
// complete cart summary. A nil draft is the only error case; empty or
// partially filled drafts degrade to zero totals.
func (e Engine) Price(d *Draft) (*Cart, error) {
	if d == nil {
		return nil, ErrDraftRequired
	}

	cart := &Cart{Items: make([]PricedItem, 0, len(d.Items))}
	for i, item := range d.Items {
		priced, ok := e.priceItem(item, d.Taxes, d.TaxMode)
		if !ok {
			if e.Logger != nil {
				e.Logger.Warn().Int("index", i).Str("item_type", item.ItemType).Msg("skip unpriceable line item")
			}
			continue
		}
		cart.Items = append(cart.Items, priced)

		cart.Subtotal = cart.Subtotal.Add(priced.Net)
		cart.ItemDiscountTotal = cart.ItemDiscountTotal.Add(priced.Discount)
		cart.TaxTotal = cart.TaxTotal.Add(priced.TaxTotal)
		cart.GrandTotal = cart.GrandTotal.Add(priced.Total)
		cart.OriginalGrandTotal = cart.OriginalGrandTotal.Add(priced.OriginalNet)
		cart.OriginalItemDiscountTotal = cart.OriginalItemDiscountTotal.Add(priced.OriginalDiscount)
	}

	// Aggregates sum already-rounded item fields and are re-rounded on top.
	cart.Subtotal = roundMoney(cart.Subtotal)
	cart.ItemDiscountTotal = roundMoney(cart.ItemDiscountTotal)
	cart.TaxTotal = roundMoney(cart.TaxTotal)
	cart.GrandTotal = roundMoney(cart.GrandTotal)
	cart.OriginalGrandTotal = roundMoney(cart.OriginalGrandTotal)
	cart.OriginalItemDiscountTotal = roundMoney(cart.OriginalItemDiscountTotal)

	cart.TransactionDiscount = clampDiscount(discountAmount(cart.GrandTotal, d.DiscountType, d.Discount), cart.GrandTotal)
	cart.Total = roundMoney(cart.GrandTotal.Sub(cart.TransactionDiscount))

	cart.OriginalTransactionDiscount = clampDiscount(discountAmount(cart.OriginalGrandTotal, d.DiscountType, d.Discount), cart.OriginalGrandTotal)
	cart.OriginalTotal = roundMoney(cart.OriginalGrandTotal.Sub(cart.OriginalTransactionDiscount))

	for _, p := range d.Payments {
		cart.PaymentTotal = cart.PaymentTotal.Add(p.Amount)
	}
	cart.PaymentTotal = roundMoney(cart.PaymentTotal)

	outstanding := cart.Total.Sub(cart.PaymentTotal)
	if outstanding.IsPositive() {
		cart.BalanceAmount = roundMoney(outstanding)
	} else {
		cart.ReturnAmount = roundMoney(outstanding.Neg())
	}
	cart.IsPaid = cart.BalanceAmount.IsZero()

	e.formatCart(cart)
	return cart, nil
}

// priceItem prices a single line item. The second return value is false when
// the item cannot be priced at all and should be dropped from the cart.
func (e Engine) priceItem(item LineItem, taxes []TaxRule, mode TaxMode) (PricedItem, bool) {
	if item.ItemType != ItemTypePackage && item.ItemType != ItemTypeProduct {
		return PricedItem{}, false
	}
	if item.Price.IsNegative() {
		return PricedItem{}, false
	}
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}
	applicable := applicableTaxes(item, taxes)

	// Baseline figures use the price exactly as entered, in both tax modes.
	original := lineFigures(item.Price, qty, item.DiscountType, item.Discount)

	base := item.Price
	if mode == TaxInclusive {
		if rate := combinedRate(applicable); rate.IsPositive() {
			// Back the tax component out of a tax-included price:
			// base = price - (rate * price) / (100 + rate).
			base = item.Price.Sub(rate.Mul(item.Price).Div(hundred.Add(rate)))
		}
	}
	working := lineFigures(base, qty, item.DiscountType, item.Discount)

	priced := PricedItem{
		Name:        item.Name,
		ItemType:    item.ItemType,
		PackageType: item.PackageType,
		Quantity:    qty,

		Price:     roundMoney(item.Price),
		BasePrice: roundMoney(base),
		Gross:     working.gross,
		Discount:  working.discount,
		Net:       working.net,

		OriginalGross:    original.gross,
		OriginalDiscount: original.discount,
		OriginalNet:      original.net,
	}

	// Tax is always computed on the tax-exclusive net amount. In inclusive
	// mode this reconstructs the entered price net of discount; in exclusive
	// mode it adds tax on top.
	for _, rule := range applicable {
		amount := roundMoney(rule.Rate.Mul(priced.Net).Div(hundred))
		priced.Taxes = append(priced.Taxes, TaxLine{
			ID:            rule.ID,
			Name:          rule.Name,
			Rate:          rule.Rate,
			Amount:        amount,
			AmountDisplay: e.format(amount),
		})
		priced.TaxTotal = priced.TaxTotal.Add(amount)
	}
	priced.TaxTotal = roundMoney(priced.TaxTotal)
	priced.Total = roundMoney(priced.Net.Add(priced.TaxTotal))

	priced.PriceFormatted = e.format(priced.Price)
	priced.GrossFormatted = e.format(priced.Gross)
	priced.DiscountFormatted = e.format(priced.Discount)
	priced.NetFormatted = e.format(priced.Net)
	priced.TaxFormatted = e.format(priced.TaxTotal)
	priced.TotalFormatted = e.format(priced.Total)
	return priced, true
}

type figures struct {
	gross    decimal.Decimal
	discount decimal.Decimal
	net      decimal.Decimal
}

// lineFigures is the single gross/discount/net computation shared by the
// tax-adjusted and as-entered views of a line item. Every field is rounded
// at the point it is finalised.
func lineFigures(unit decimal.Decimal, qty int, dt DiscountType, dv decimal.Decimal) figures {
	gross := roundMoney(unit.Mul(decimal.NewFromInt(int64(qty))))
	discount := clampDiscount(discountAmount(gross, dt, dv), gross)
	return figures{
		gross:    gross,
		discount: discount,
		net:      roundMoney(gross.Sub(discount)),
	}
}

// discountAmount resolves a discount value against its base amount. Percent
// discounts apply only for positive values; nominal discounts pass through.
// Anything else resolves to zero.
func discountAmount(base decimal.Decimal, dt DiscountType, value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	switch dt {
	case DiscountPercent:
		if !value.IsPositive() {
			return decimal.Zero
		}
		return base.Mul(value).Div(hundred)
	case DiscountNominal, "":
		return value
	default:
		return decimal.Zero
	}
}

// clampDiscount bounds a discount into [0, base] and rounds it.
func clampDiscount(discount, base decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	return roundMoney(discount)
}

// applicableTaxes selects the tax rules matching the item's category:
// package items match rules tagged with their package type, product items
// match only rules tagged "product".
func applicableTaxes(item LineItem, taxes []TaxRule) []TaxRule {
	var category string
	switch item.ItemType {
	case ItemTypePackage:
		category = item.PackageType
	case ItemTypeProduct:
		category = ItemTypeProduct
	default:
		return nil
	}
	if category == "" {
		return nil
	}
	var matched []TaxRule
	for _, rule := range taxes {
		if rule.Type == category {
			matched = append(matched, rule)
		}
	}
	return matched
}

// combinedRate sums rates additively; inclusive-mode decomposition treats
// multiple taxes as a single combined rate rather than compounding them.
func combinedRate(taxes []TaxRule) decimal.Decimal {
	total := decimal.Zero
	for _, rule := range taxes {
		total = total.Add(rule.Rate)
	}
	return total
}

// roundMoney finalises a monetary value at two decimal places. All rounding
// in the engine funnels through here.
func roundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

func (e Engine) format(v decimal.Decimal) string {
	if e.Formatter == nil {
		return v.StringFixed(2)
	}
	return e.Formatter.Format(v)
}

func (e Engine) formatCart(c *Cart) {
	c.SubtotalFormatted = e.format(c.Subtotal)
	c.TaxTotalFormatted = e.format(c.TaxTotal)
	c.GrandTotalFormatted = e.format(c.GrandTotal)
	c.TotalFormatted = e.format(c.Total)
	c.PaymentTotalFormatted = e.format(c.PaymentTotal)
	c.BalanceFormatted = e.format(c.BalanceAmount)
	c.ReturnFormatted = e.format(c.ReturnAmount)
}
