package core

import "time"

const (
	Monthly    FrequencyKind = "monthly"
	Weekly     FrequencyKind = "weekly"
	Biweekly   FrequencyKind = "biweekly"
	EveryNDays FrequencyKind = "every_n_days"
)

type (
	FrequencyKind string

	// Frequency is the date-stepping rule between consecutive installments.
	// EveryDays is only meaningful for EveryNDays.
	Frequency struct {
		Kind      FrequencyKind
		EveryDays int
	}

	// PlanItem is one installment of a preview plan.
	PlanItem struct {
		Index   int
		DueDate Date
		Gross   Money
		Fees    Money
		Net     Money
	}

	// InstallmentPlan is computed on demand for preview and never persisted.
	// Totals are recomputed from the items so callers can sanity-display them;
	// by construction they equal the inputs.
	InstallmentPlan struct {
		Items      []PlanItem
		TotalGross Money
		TotalFees  Money
		TotalNet   Money
	}
)

func (f Frequency) Validate() error {
	switch f.Kind {
	case Monthly, Weekly, Biweekly:
		return nil
	case EveryNDays:
		if f.EveryDays < 1 {
			return ErrInvalidFrequency
		}
		return nil
	}
	return ErrInvalidFrequency
}

// Step returns the due date n frequency units after first. n = 0 returns first
// unchanged. Monthly stepping preserves the day of month, clamping to the last
// valid day of the target month (Jan 31 + 1 month = Feb 29 in a leap year).
func (f Frequency) Step(first Date, n int) Date {
	if n == 0 {
		return first
	}
	switch f.Kind {
	case Weekly:
		return Date{Time: first.AddDate(0, 0, 7*n)}
	case Biweekly:
		return Date{Time: first.AddDate(0, 0, 15*n)}
	case EveryNDays:
		return Date{Time: first.AddDate(0, 0, f.EveryDays*n)}
	default:
		return addMonthsClamped(first, n)
	}
}

// addMonthsClamped steps forward by whole calendar months without the
// normalization time.AddDate applies (Jan 31 + 1 month must not become Mar 2).
func addMonthsClamped(d Date, months int) Date {
	y, m, day := d.Date()
	total := int(m) - 1 + months
	ty := y + total/12
	tm := time.Month(total%12 + 1)
	if last := daysIn(ty, tm); day > last {
		day = last
	}
	return NewDate(ty, int(tm), day)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SplitRounded divides total cents into count parts using the largest-remainder
// method: the first (total mod count) parts receive one extra cent. The parts
// always sum exactly to the total, and the front-loaded tie-break is fixed so
// that repeated previews of the same split stay auditable.
func SplitRounded(totalCents int64, count int) []int64 {
	base := totalCents / int64(count)
	remainder := totalCents % int64(count)
	parts := make([]int64, count)
	for i := range parts {
		parts[i] = base
		if int64(i) < remainder {
			parts[i]++
		}
	}
	return parts
}

// GeneratePlan splits totalGross and totalFees into count installments due at
// firstDue and stepped by freq. Interest is not part of the preview; it is
// applied at settlement time on the resulting entries.
//
// A plan needs count >= 2: a single installment is a plain direct entry and is
// rejected here. The function is pure and never returns a partial plan.
func GeneratePlan(totalGross, totalFees Money, count int, freq Frequency, firstDue Date) (InstallmentPlan, error) {
	if count < 2 {
		return InstallmentPlan{}, ErrInvalidInput
	}
	if totalGross.IsNegative() || totalFees.IsNegative() {
		return InstallmentPlan{}, ErrInvalidInput
	}
	if err := firstDue.Validate(); err != nil {
		return InstallmentPlan{}, ErrInvalidInput
	}
	if err := freq.Validate(); err != nil {
		return InstallmentPlan{}, err
	}

	grossParts := SplitRounded(totalGross.Cents, count)
	feeParts := SplitRounded(totalFees.Cents, count)

	plan := InstallmentPlan{Items: make([]PlanItem, count)}
	for i := 0; i < count; i++ {
		gross := Money{Cents: grossParts[i]}
		fees := Money{Cents: feeParts[i]}
		item := PlanItem{
			Index:   i + 1,
			DueDate: freq.Step(firstDue, i),
			Gross:   gross,
			Fees:    fees,
			Net:     gross.Sub(fees),
		}
		plan.Items[i] = item
		plan.TotalGross = plan.TotalGross.Add(item.Gross)
		plan.TotalFees = plan.TotalFees.Add(item.Fees)
		plan.TotalNet = plan.TotalNet.Add(item.Net)
	}
	return plan, nil
}
