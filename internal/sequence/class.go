package sequence

import (
	"fmt"
	"time"
)

// Class identifies a family of document numbers.
type Class string

const (
	ClassOrder         Class = "order"
	ClassQuotation     Class = "quotation"
	ClassSalesOrder    Class = "sales_order"
	ClassPurchaseOrder Class = "purchase_order"
	ClassInvoice       Class = "invoice"
	ClassBill          Class = "bill"
	ClassTransaction   Class = "transaction"
	ClassReceipt       Class = "receipt"
)

// Granularity is the calendar period a sequence restarts in.
type Granularity int

const (
	Day Granularity = iota + 1
	Month
)

type classSpec struct {
	prefix      string
	granularity Granularity
	width       int
}

var classSpecs = map[Class]classSpec{
	ClassOrder:         {prefix: "ORD", granularity: Day, width: 4},
	ClassQuotation:     {prefix: "QUO", granularity: Month, width: 5},
	ClassSalesOrder:    {prefix: "SO", granularity: Month, width: 5},
	ClassPurchaseOrder: {prefix: "PO", granularity: Month, width: 5},
	ClassInvoice:       {prefix: "INV", granularity: Month, width: 5},
	ClassBill:          {prefix: "BILL", granularity: Month, width: 5},
	ClassTransaction:   {prefix: "TXN", granularity: Day, width: 5},
	ClassReceipt:       {prefix: "RCPT", granularity: Day, width: 5},
}

// Granularity returns the default period of the class.
func (c Class) Granularity() Granularity {
	return classSpecs[c].granularity
}

// Width returns the zero-padded width of the sequence part.
func (c Class) Width() int {
	return classSpecs[c].width
}

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	_, ok := classSpecs[c]
	return ok
}

// Prefix renders the class prefix for the period containing at,
// e.g. ORD-20261015 or INV-202610.
func Prefix(c Class, g Granularity, at time.Time) string {
	layout := "20060102"
	if g == Month {
		layout = "200601"
	}
	return fmt.Sprintf("%s-%s", classSpecs[c].prefix, at.Format(layout))
}

// Format joins a prefix and a zero-padded sequence value.
func Format(prefix string, seq int64, width int) string {
	return fmt.Sprintf("%s-%0*d", prefix, width, seq)
}
