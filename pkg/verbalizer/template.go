package verbalizer

import (
	"fmt"
	"strings"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// Deterministic body-building helpers. Step handlers compose draft
// bodies from these so every draft is complete before any LLM runs;
// Polish only ever replaces a body with verified prose.

// BulletDates renders ISO dates as a display-form bullet list.
func BulletDates(isoDates []string) string {
	var b strings.Builder
	for _, iso := range isoDates {
		fmt.Fprintf(&b, "- %s\n", FormatDateDisplay(iso))
	}
	return strings.TrimRight(b.String(), "\n")
}

// LineItemLines renders offer rows one per line with Swiss amounts.
func LineItemLines(items []models.LineItem, currency string) string {
	var b strings.Builder
	for _, it := range items {
		if it.Quantity > 1 {
			fmt.Fprintf(&b, "- %s: %d x %s %s (%s) = %s %s\n",
				it.Description, it.Quantity, currency, FormatAmountSwiss(it.UnitPrice),
				it.Unit.Display(), currency, FormatAmountSwiss(it.Total))
			continue
		}
		fmt.Fprintf(&b, "- %s: %s %s (%s)\n",
			it.Description, currency, FormatAmountSwiss(it.Total), it.Unit.Display())
	}
	return strings.TrimRight(b.String(), "\n")
}

// TotalLine renders the offer total.
func TotalLine(total float64, currency string) string {
	return fmt.Sprintf("Total: %s %s", currency, FormatAmountSwiss(total))
}

// DepositLine renders the deposit demand.
func DepositLine(amount float64, currency, dueISO string) string {
	if dueISO == "" {
		return fmt.Sprintf("Deposit: %s %s", currency, FormatAmountSwiss(amount))
	}
	return fmt.Sprintf("Deposit: %s %s, due by %s",
		currency, FormatAmountSwiss(amount), FormatDateDisplay(dueISO))
}

// SlotList renders time slots separated by commas.
func SlotList(slots []string) string {
	return strings.Join(slots, ", ")
}

// FieldList renders missing-field identifiers readably.
func FieldList(fields []string) string {
	pretty := make([]string, 0, len(fields))
	for _, f := range fields {
		pretty = append(pretty, strings.ReplaceAll(f, "_", " "))
	}
	return strings.Join(pretty, ", ")
}
