package verbalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

func TestFormatAmountSwiss(t *testing.T) {
	assert.Equal(t, "999.00", FormatAmountSwiss(999))
	assert.Equal(t, "1'250.00", FormatAmountSwiss(1250))
	assert.Equal(t, "1'234'567.50", FormatAmountSwiss(1234567.5))
	assert.Equal(t, "-1'250.00", FormatAmountSwiss(-1250))
	assert.Equal(t, "0.00", FormatAmountSwiss(0))
}

func TestFormatDateDisplay(t *testing.T) {
	assert.Equal(t, "15.04.2026", FormatDateDisplay("2026-04-15"))
	assert.Equal(t, "not-a-date", FormatDateDisplay("not-a-date"), "unparseable input passes through")
}

func TestContainsAmountBounded(t *testing.T) {
	assert.True(t, containsAmount("the total is CHF 1'250.00", 1250))
	assert.True(t, containsAmount("the total is 1250", 1250), "whole amounts may drop decimals")
	assert.True(t, containsAmount("the total is 1,250.00", 1250))
	assert.False(t, containsAmount("order 31250 units", 1250), "substrings of longer numbers do not count")
}

func TestForeignDates(t *testing.T) {
	got := foreignDates("We offer 15.10.2026 or 22.10.2026.", []string{"2026-10-15"})
	assert.Equal(t, []string{"22.10.2026"}, got)

	assert.Empty(t, foreignDates("See you on 15.10.2026.", []string{"2026-10-15"}))
}

func TestForeignAmountsMasksDates(t *testing.T) {
	got := foreignAmounts("On 15.10.2026 the total is 1'200.00 plus 99.50 surcharge.", []float64{1200})

	assert.Equal(t, []string{"99.50"}, got, "date fragments never read as amounts")
}

func TestForeignCounts(t *testing.T) {
	got := foreignCounts("Seats for 25 people, though you asked for 30 participants.", 30)

	assert.Equal(t, []string{"25 people"}, got)
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 23: "23rd"}
	for day, want := range cases {
		assert.Equal(t, want, ordinal(day))
	}
}

func TestBulletDates(t *testing.T) {
	got := BulletDates([]string{"2026-10-15", "2026-10-22"})
	assert.Equal(t, "- 15.10.2026\n- 22.10.2026", got)
}

func TestLineItemLines(t *testing.T) {
	items := []models.LineItem{
		{Description: "Room A rental", Quantity: 1, UnitPrice: 1200, Unit: models.UnitPerEvent, Total: 1200},
		{Description: "Business Lunch", Quantity: 30, UnitPrice: 45, Unit: models.UnitPerPerson, Total: 1350},
	}

	got := LineItemLines(items, "CHF")

	assert.Equal(t,
		"- Room A rental: CHF 1'200.00 (per event)\n"+
			"- Business Lunch: 30 x CHF 45.00 (per person) = CHF 1'350.00",
		got)
}

func TestTotalAndDepositLines(t *testing.T) {
	assert.Equal(t, "Total: CHF 2'550.00", TotalLine(2550, "CHF"))
	assert.Equal(t, "Deposit: CHF 765.00", DepositLine(765, "CHF", ""))
	assert.Equal(t, "Deposit: CHF 765.00, due by 01.10.2026", DepositLine(765, "CHF", "2026-10-01"))
}

func TestFieldList(t *testing.T) {
	assert.Equal(t, "postal code, name or company", FieldList([]string{"postal_code", "name_or_company"}))
}
