package timeline

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// MoneyFormatter renders amounts for human-readable descriptions.
type MoneyFormatter struct {
	unit  currency.Unit
	valid bool
}

// NewMoneyFormatter validates the ISO 4217 code.
func NewMoneyFormatter(code string) (MoneyFormatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return MoneyFormatter{}, fmt.Errorf("timeline: currency %q: %w", code, err)
	}
	return MoneyFormatter{unit: unit, valid: true}, nil
}

// Format renders amount as e.g. "INR 1,000.50". The decimal is printed
// exactly; no float conversion happens.
func (f MoneyFormatter) Format(amount decimal.Decimal) string {
	if !f.valid {
		return amount.StringFixed(2)
	}
	return f.unit.String() + " " + groupThousands(amount.StringFixed(2))
}

func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	b.WriteString(sign)
	lead := len(whole) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(whole[:lead])
	for i := lead; i < len(whole); i += 3 {
		b.WriteByte(',')
		b.WriteString(whole[i : i+3])
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
