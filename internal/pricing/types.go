package pricing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxMode states whether unit prices already contain tax.
type TaxMode int

const (
	// TaxExclusive means tax is added on top of the entered price.
	TaxExclusive TaxMode = 0
	// TaxInclusive means the entered price already contains tax.
	TaxInclusive TaxMode = 1
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	// DiscountNominal treats the discount value as a flat amount.
	DiscountNominal DiscountType = "nominal"
	// DiscountPercent treats the discount value as a percentage of the base.
	DiscountPercent DiscountType = "percent"
)

// ParseDiscountType normalises a raw discount type string. Unknown values
// fall back to nominal, mirroring how the dashboard treats an unset selector.
func ParseDiscountType(raw string) DiscountType {
	if strings.EqualFold(strings.TrimSpace(raw), string(DiscountPercent)) {
		return DiscountPercent
	}
	return DiscountNominal
}

// Item type tags carried by sale line items.
const (
	ItemTypePackage = "package"
	ItemTypeProduct = "product"
)

// TaxRule is a category-scoped percentage tax. Type is the category tag the
// rule applies to: "product" for retail items, or a membership package type.
type TaxRule struct {
	ID   uuid.UUID       `json:"id"`
	Type string          `json:"type"`
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// LineItem is one row of a transaction draft. Price is the unit price as
// entered, either tax-inclusive or tax-exclusive depending on the draft's
// tax mode.
type LineItem struct {
	ItemType     string          `json:"item_type"`
	PackageType  string          `json:"package_type,omitempty"`
	Name         string          `json:"name,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	DiscountType DiscountType    `json:"discount_type,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
}

// Payment records an amount tendered against the transaction.
type Payment struct {
	Amount decimal.Decimal `json:"amount"`
}

// Draft is the ephemeral transaction being edited at the point of sale.
// It is rebuilt by the caller on every change and carries no identity.
type Draft struct {
	Items        []LineItem      `json:"items"`
	Taxes        []TaxRule       `json:"taxes"`
	TaxMode      TaxMode         `json:"tax_mode"`
	DiscountType DiscountType    `json:"discount_type,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	Payments     []Payment       `json:"payments"`
}

// TaxLine is one resolved tax applied to a priced item.
type TaxLine struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Rate          decimal.Decimal `json:"rate"`
	Amount        decimal.Decimal `json:"amount"`
	AmountDisplay string          `json:"amount_display"`
}

// PricedItem is a fully priced line item. The Original* fields reflect the
// price exactly as entered, before any tax-mode adjustment, and exist for
// display alongside the tax-resolved working figures.
type PricedItem struct {
	Name        string `json:"name,omitempty"`
	ItemType    string `json:"item_type"`
	PackageType string `json:"package_type,omitempty"`
	Quantity    int    `json:"quantity"`

	Price     decimal.Decimal `json:"price"`
	BasePrice decimal.Decimal `json:"base_price"`
	Gross     decimal.Decimal `json:"gross"`
	Discount  decimal.Decimal `json:"discount"`
	Net       decimal.Decimal `json:"net"`
	TaxTotal  decimal.Decimal `json:"tax_total"`
	Total     decimal.Decimal `json:"total"`

	OriginalGross    decimal.Decimal `json:"original_gross"`
	OriginalDiscount decimal.Decimal `json:"original_discount"`
	OriginalNet      decimal.Decimal `json:"original_net"`

	Taxes []TaxLine `json:"taxes,omitempty"`

	PriceFormatted    string `json:"price_display"`
	GrossFormatted    string `json:"gross_display"`
	DiscountFormatted string `json:"discount_display"`
	NetFormatted      string `json:"net_display"`
	TaxFormatted      string `json:"tax_display"`
	TotalFormatted    string `json:"total_display"`
}

// Cart is the priced, tax-resolved summary of a draft.
type Cart struct {
	Items []PricedItem `json:"items"`

	Subtotal            decimal.Decimal `json:"subtotal"`
	ItemDiscountTotal   decimal.Decimal `json:"item_discount_total"`
	TaxTotal            decimal.Decimal `json:"tax_total"`
	GrandTotal          decimal.Decimal `json:"grand_total"`
	TransactionDiscount decimal.Decimal `json:"transaction_discount"`
	Total               decimal.Decimal `json:"total"`

	OriginalGrandTotal          decimal.Decimal `json:"original_grand_total"`
	OriginalItemDiscountTotal   decimal.Decimal `json:"original_item_discount_total"`
	OriginalTransactionDiscount decimal.Decimal `json:"original_transaction_discount"`
	OriginalTotal               decimal.Decimal `json:"original_total"`

	PaymentTotal  decimal.Decimal `json:"payment_total"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	ReturnAmount  decimal.Decimal `json:"return_amount"`
	IsPaid        bool            `json:"is_paid"`

	SubtotalFormatted     string `json:"subtotal_display"`
	TaxTotalFormatted     string `json:"tax_total_display"`
	GrandTotalFormatted   string `json:"grand_total_display"`
	TotalFormatted        string `json:"total_display"`
	PaymentTotalFormatted string `json:"payment_total_display"`
	BalanceFormatted      string `json:"balance_amount_display"`
	ReturnFormatted       string `json:"return_amount_display"`
}
