package core

import "github.com/shopspring/decimal"

// PartnerBalance is the lifetime running balance owed to one partner.
// Unlike MonthlySummary it is never scoped to a period: it covers the full
// wash and withdrawal history regardless of the month under inspection.
type PartnerBalance struct {
	Partner     string
	Earned      decimal.Decimal
	Withdrawn   decimal.Decimal
	Outstanding decimal.Decimal
}

// BalanceFor computes earned = sum of washes received by partner over all
// time, withdrawn = sum of all withdrawals over all time (withdrawals are
// partner-agnostic, only the designated partner withdraws), and
// outstanding = earned - withdrawn. Outstanding may go negative: that
// signals over-withdrawal and must stay representable.
func BalanceFor(partner string, washes []WashRecord, withdrawals []WithdrawalRecord) PartnerBalance {
	b := PartnerBalance{
		Partner:   partner,
		Earned:    decimal.Zero,
		Withdrawn: decimal.Zero,
	}
	for _, w := range washes {
		if w.Recipient == partner {
			b.Earned = b.Earned.Add(w.Amount)
		}
	}
	for _, wd := range withdrawals {
		b.Withdrawn = b.Withdrawn.Add(wd.Amount)
	}
	b.Outstanding = b.Earned.Sub(b.Withdrawn)
	return b
}
