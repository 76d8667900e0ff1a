package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func taxRule(taxType, name string, rate string) TaxRule {
	return TaxRule{ID: uuid.New(), Type: taxType, Name: name, Rate: dec(rate)}
}

func TestPriceNilDraft(t *testing.T) {
	_, err := Engine{}.Price(nil)
	require.ErrorIs(t, err, ErrDraftRequired)
}

func TestPriceEmptyDraft(t *testing.T) {
	cart, err := Engine{}.Price(&Draft{})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Subtotal.IsZero())
	assert.True(t, cart.GrandTotal.IsZero())
	assert.True(t, cart.Total.IsZero())
	assert.True(t, cart.BalanceAmount.IsZero())
	assert.True(t, cart.ReturnAmount.IsZero())
	assert.True(t, cart.IsPaid)
}

func TestPriceInclusiveRoundTrip(t *testing.T) {
	draft := &Draft{
		TaxMode: TaxInclusive,
		Taxes:   []TaxRule{taxRule("product", "PPN", "10")},
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("110"), Quantity: 1},
		},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	it := cart.Items[0]
	assert.True(t, it.BasePrice.Equal(dec("100")), "base price %s", it.BasePrice)
	assert.True(t, it.Net.Equal(dec("100")), "net %s", it.Net)
	assert.True(t, it.TaxTotal.Equal(dec("10")), "tax %s", it.TaxTotal)
	assert.True(t, it.Total.Equal(dec("110")), "total %s", it.Total)
	assert.True(t, cart.GrandTotal.Equal(dec("110")))
}

func TestPriceExclusiveAddsTax(t *testing.T) {
	draft := &Draft{
		TaxMode: TaxExclusive,
		Taxes:   []TaxRule{taxRule("product", "PPN", "10")},
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("110"), Quantity: 1},
		},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	it := cart.Items[0]
	assert.True(t, it.BasePrice.Equal(dec("110")))
	assert.True(t, it.Net.Equal(dec("110")))
	assert.True(t, it.TaxTotal.Equal(dec("11")))
	assert.True(t, it.Total.Equal(dec("121")))
}

func TestPricePercentDiscount(t *testing.T) {
	draft := &Draft{
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("200"), Quantity: 2, DiscountType: DiscountPercent, Discount: dec("10")},
		},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	it := cart.Items[0]
	assert.True(t, it.Gross.Equal(dec("400")))
	assert.True(t, it.Discount.Equal(dec("40")))
	assert.True(t, it.Net.Equal(dec("360")))
	assert.True(t, it.Total.Equal(dec("360")))
}

func TestPriceNominalDiscountClampedToGross(t *testing.T) {
	draft := &Draft{
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("50"), Quantity: 1, DiscountType: DiscountNominal, Discount: dec("500")},
		},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	it := cart.Items[0]
	assert.True(t, it.Discount.Equal(dec("50")), "discount clamps to gross, got %s", it.Discount)
	assert.True(t, it.Net.IsZero())
}

func TestPriceTransactionDiscountClamp(t *testing.T) {
	draft := &Draft{
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("500"), Quantity: 1},
		},
		DiscountType: DiscountNominal,
		Discount:     dec("10000"),
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	assert.True(t, cart.TransactionDiscount.Equal(dec("500")))
	assert.True(t, cart.Total.IsZero(), "total never goes negative, got %s", cart.Total)
}

func TestPriceBalanceAndReturnMutuallyExclusive(t *testing.T) {
	base := Draft{
		Items: []LineItem{{ItemType: ItemTypeProduct, Price: dec("100"), Quantity: 1}},
	}

	over := base
	over.Payments = []Payment{{Amount: dec("150")}}
	cart, err := Engine{}.Price(&over)
	require.NoError(t, err)
	assert.True(t, cart.BalanceAmount.IsZero())
	assert.True(t, cart.ReturnAmount.Equal(dec("50")))
	assert.True(t, cart.IsPaid)

	under := base
	under.Payments = []Payment{{Amount: dec("60")}}
	cart, err = Engine{}.Price(&under)
	require.NoError(t, err)
	assert.True(t, cart.BalanceAmount.Equal(dec("40")))
	assert.True(t, cart.ReturnAmount.IsZero())
	assert.False(t, cart.IsPaid)
}

func TestPriceCategoryScoping(t *testing.T) {
	productTax := taxRule("product", "PPN", "10")
	membershipTax := taxRule("membership", "Service", "5")
	draft := &Draft{
		Taxes: []TaxRule{productTax, membershipTax},
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("100"), Quantity: 1},
			{ItemType: ItemTypePackage, PackageType: "membership", Price: dec("100"), Quantity: 1},
			{ItemType: ItemTypePackage, PackageType: "personal-training", Price: dec("100"), Quantity: 1},
		},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	require.Len(t, cart.Items, 3)

	require.Len(t, cart.Items[0].Taxes, 1)
	assert.Equal(t, productTax.ID, cart.Items[0].Taxes[0].ID)

	require.Len(t, cart.Items[1].Taxes, 1)
	assert.Equal(t, membershipTax.ID, cart.Items[1].Taxes[0].ID)

	assert.Empty(t, cart.Items[2].Taxes, "unmatched package category gets no taxes")
}

func TestPricePackageNeverMatchesProductTax(t *testing.T) {
	// A package whose category collides with the product tag must still not
	// pick up product taxes, and vice versa products ignore package rules.
	draft := &Draft{
		Taxes: []TaxRule{taxRule("membership", "Service", "5")},
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("100"), Quantity: 1},
		},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	assert.Empty(t, cart.Items[0].Taxes)
}

func TestPriceInclusiveMultiTaxAdditiveRate(t *testing.T) {
	draft := &Draft{
		TaxMode: TaxInclusive,
		Taxes: []TaxRule{
			taxRule("product", "PPN", "10"),
			taxRule("product", "Service", "5"),
		},
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("115"), Quantity: 1},
		},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	it := cart.Items[0]
	// Combined 15% backed out of 115 leaves a base of 100.
	assert.True(t, it.BasePrice.Equal(dec("100")), "base %s", it.BasePrice)
	assert.True(t, it.TaxTotal.Equal(dec("15")), "tax %s", it.TaxTotal)
	assert.True(t, it.Total.Equal(dec("115")), "total %s", it.Total)
}

func TestPriceQuantityDefaultsToOne(t *testing.T) {
	draft := &Draft{
		Items: []LineItem{{ItemType: ItemTypeProduct, Price: dec("75")}},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.True(t, cart.Items[0].Gross.Equal(dec("75")))
}

func TestPriceSkipsMalformedItems(t *testing.T) {
	draft := &Draft{
		Items: []LineItem{
			{ItemType: "voucher", Price: dec("10")},
			{ItemType: ItemTypeProduct, Price: dec("-5")},
			{ItemType: ItemTypeProduct, Price: dec("20")},
		},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.GrandTotal.Equal(dec("20")))
}

func TestPriceOriginalViewIgnoresTaxMode(t *testing.T) {
	draft := &Draft{
		TaxMode: TaxInclusive,
		Taxes:   []TaxRule{taxRule("product", "PPN", "10")},
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("110"), Quantity: 2, DiscountType: DiscountNominal, Discount: dec("20")},
		},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	it := cart.Items[0]
	assert.True(t, it.OriginalGross.Equal(dec("220")))
	assert.True(t, it.OriginalDiscount.Equal(dec("20")))
	assert.True(t, it.OriginalNet.Equal(dec("200")))
	assert.True(t, cart.OriginalGrandTotal.Equal(dec("200")))
}

func TestPriceRoundingPerField(t *testing.T) {
	draft := &Draft{
		TaxMode: TaxExclusive,
		Taxes:   []TaxRule{taxRule("product", "PPN", "11")},
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("33.335"), Quantity: 3},
		},
	}
	cart, err := Engine{}.Price(draft)
	require.NoError(t, err)
	it := cart.Items[0]
	// Gross is rounded when finalised, then tax is taken from the rounded net.
	assert.True(t, it.Gross.Equal(dec("100.01")), "gross %s", it.Gross)
	assert.True(t, it.TaxTotal.Equal(dec("11.00")), "tax %s", it.TaxTotal)
	assert.True(t, it.Total.Equal(dec("111.01")), "total %s", it.Total)
}

func TestDiscountAmountSemantics(t *testing.T) {
	base := dec("400")
	cases := []struct {
		name  string
		dt    DiscountType
		value string
		want  string
	}{
		{"percent positive", DiscountPercent, "10", "40"},
		{"percent zero", DiscountPercent, "0", "0"},
		{"nominal", DiscountNominal, "25", "25"},
		{"nominal zero", DiscountNominal, "0", "0"},
		{"negative value", DiscountNominal, "-5", "0"},
		{"unknown type", DiscountType("bogus"), "10", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := discountAmount(base, tc.dt, dec(tc.value))
			assert.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestParseDiscountType(t *testing.T) {
	assert.Equal(t, DiscountPercent, ParseDiscountType("PERCENT"))
	assert.Equal(t, DiscountNominal, ParseDiscountType("nominal"))
	assert.Equal(t, DiscountNominal, ParseDiscountType(""))
	assert.Equal(t, DiscountNominal, ParseDiscountType("whatever"))
}

func TestPriceDeterministic(t *testing.T) {
	draft := &Draft{
		TaxMode: TaxInclusive,
		Taxes:   []TaxRule{taxRule("product", "PPN", "11")},
		Items: []LineItem{
			{ItemType: ItemTypeProduct, Price: dec("149999"), Quantity: 3, DiscountType: DiscountPercent, Discount: dec("7.5")},
		},
		Payments: []Payment{{Amount: dec("250000")}},
	}
	first, err := Engine{}.Price(draft)
	require.NoError(t, err)
	second, err := Engine{}.Price(draft)
	require.NoError(t, err)
	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.BalanceAmount.Equal(second.BalanceAmount))
	assert.Equal(t, first.TotalFormatted, second.TotalFormatted)
}
