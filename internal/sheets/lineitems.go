package sheets

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
)

type datedItem struct {
	date *time.Time
	item rules.LineItem
}

// LineItemSheet holds line items loaded from a workbook. It implements
// pricing.LineItemSource and is read-only after loading.
type LineItemSheet struct {
	items []datedItem
}

var _ pricing.LineItemSource = (*LineItemSheet)(nil)

// LoadLineItems reads sales line items from sheet. Required columns are
// customer_code, product_code and incoming_cost. Optional columns are
// category, quantity, date and the last_* history columns.
func LoadLineItems(r io.Reader, sheet string) (*LineItemSheet, []RowError, error) {
	t, err := readTable(r, sheet)
	if err != nil {
		return nil, nil, err
	}

	custCol, err := t.require("customer_code", "customer")
	if err != nil {
		return nil, nil, err
	}
	codeCol, err := t.require("product_code", "code", "sku")
	if err != nil {
		return nil, nil, err
	}
	costCol, err := t.require("incoming_cost", "cost", "unit_cost")
	if err != nil {
		return nil, nil, err
	}
	catCol, _ := t.column("category", "product_category")
	qtyCol, _ := t.column("quantity", "qty")
	dateCol, _ := t.column("date", "transaction_date", "invoice_date")

	history := []struct {
		names  []string
		target func(*rules.LineItem) **decimal.Decimal
	}{
		{[]string{"last_unit_sell_price", "last_sell_price"}, func(li *rules.LineItem) **decimal.Decimal { return &li.LastUnitSellPrice }},
		{[]string{"last_cost"}, func(li *rules.LineItem) **decimal.Decimal { return &li.LastCost }},
		{[]string{"last_amount"}, func(li *rules.LineItem) **decimal.Decimal { return &li.LastAmount }},
		{[]string{"last_gross_profit", "last_gp"}, func(li *rules.LineItem) **decimal.Decimal { return &li.LastGrossProfit }},
	}

	s := &LineItemSheet{}
	var rowErrs []RowError

rows:
	for i, row := range t.rows {
		rowNum := i + 2
		if isEmptyRow(row) {
			continue
		}

		li := rules.LineItem{
			CustomerCode: cell(row, custCol),
			ProductCode:  cell(row, codeCol),
			Category:     cell(row, catCol),
			Quantity:     decimal.Zero,
		}
		if li.CustomerCode == "" || li.ProductCode == "" {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: "customer_code and product_code are required"})
			continue
		}

		cost, err := parseMoney(cell(row, costCol))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Field: "incoming_cost", Message: err.Error()})
			continue
		}
		li.IncomingCost = cost

		if q := cell(row, qtyCol); q != "" {
			qty, err := decimal.NewFromString(q)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Row: rowNum, Field: "quantity", Message: err.Error()})
				continue
			}
			li.Quantity = qty
		}

		for _, h := range history {
			col, ok := t.column(h.names...)
			if !ok {
				continue
			}
			v, err := parseOptionalMoney(cell(row, col))
			if err != nil {
				rowErrs = append(rowErrs, RowError{Row: rowNum, Field: h.names[0], Message: err.Error()})
				continue rows
			}
			*h.target(&li) = v
		}

		entry := datedItem{item: li}
		if v := cell(row, dateCol); v != "" {
			d, err := parseDate(v)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Row: rowNum, Field: "date", Message: err.Error()})
				continue
			}
			entry.date = &d
		}
		s.items = append(s.items, entry)
	}

	return s, rowErrs, nil
}

// Len returns the number of loaded line items.
func (s *LineItemSheet) Len() int { return len(s.items) }

// All returns every loaded line item regardless of date.
func (s *LineItemSheet) All() []rules.LineItem {
	out := make([]rules.LineItem, len(s.items))
	for i, e := range s.items {
		out[i] = e.item
	}
	return out
}

// LineItems returns the items dated within [from, to] by calendar day.
// Undated rows are always included.
func (s *LineItemSheet) LineItems(ctx context.Context, from, to time.Time) ([]rules.LineItem, error) {
	lo, hi := from.Format(time.DateOnly), to.Format(time.DateOnly)

	var out []rules.LineItem
	for _, e := range s.items {
		if e.date != nil {
			day := e.date.Format(time.DateOnly)
			if day < lo || day > hi {
				continue
			}
		}
		out = append(out, e.item)
	}
	return out, nil
}
