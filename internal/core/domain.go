package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Partner identifiers form a fixed, closed set. Every wash names the partner
// who received the cash and every purchase names the partner who paid.
const (
	PartnerDinis = "Dinis"
	PartnerAFP   = "AFP"
)

// DesignatedPartner is the partner whose lifetime earned-minus-withdrawn
// balance is tracked. Withdrawals always belong to this partner.
const DesignatedPartner = PartnerAFP

// Canonical purchase categories. The set is open: free-form category strings
// aggregate under their own bucket, these are only the values the UI offers.
const (
	CategoryProduct   = "Produto"
	CategoryEquipment = "Equipamento"
	CategoryOther     = "Outros"
)

// DefaultWithdrawalNote annotates withdrawals recorded without an explicit note.
const DefaultWithdrawalNote = "Levantamento"

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrEmptyPlate        = errors.New("empty vehicle plate")
	ErrEmptyService      = errors.New("empty service category")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty purchase category")
	ErrUnknownPartner    = errors.New("unknown partner")
)

// ValidPartner reports whether s names one of the two partners.
func ValidPartner(s string) bool {
	return s == PartnerDinis || s == PartnerAFP
}

type (
	// Wash is a revenue event draft: one paid wash service, not yet persisted.
	Wash struct {
		OccurredAt time.Time
		Plate      string
		Make       string
		Model      string
		Customer   string
		Service    string // open set, e.g. "Base Completa"
		Amount     decimal.Decimal
		Recipient  string // partner who received the cash
	}

	// WashRecord is a Wash the store has persisted and assigned an ID.
	WashRecord struct {
		ID string
		Wash
	}

	// Purchase is an expense event draft.
	Purchase struct {
		OccurredAt  time.Time
		Description string
		Amount      decimal.Decimal
		Category    string // open set, canonical values CategoryProduct etc.
		Payer       string // partner who paid
	}

	// PurchaseRecord is a persisted Purchase.
	PurchaseRecord struct {
		ID string
		Purchase
	}

	// Withdrawal is cash physically removed for the designated partner.
	Withdrawal struct {
		OccurredAt time.Time
		Amount     decimal.Decimal
		Note       string
	}

	// WithdrawalRecord is a persisted Withdrawal.
	WithdrawalRecord struct {
		ID string
		Withdrawal
	}
)

func (w Wash) Validate() error {
	if w.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(w.Plate) == "" {
		return ErrEmptyPlate
	}
	if strings.TrimSpace(w.Service) == "" {
		return ErrEmptyService
	}
	if !ValidPartner(w.Recipient) {
		return ErrUnknownPartner
	}
	if w.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (p Purchase) Validate() error {
	if p.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(p.Description) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if !ValidPartner(p.Payer) {
		return ErrUnknownPartner
	}
	if p.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (w Withdrawal) Validate() error {
	if w.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	if !w.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return nil
}

// Equal compares drafts by full field value. Persisted records compare by
// store-assigned ID instead; a draft never equals a record.
func (w Wash) Equal(o Wash) bool {
	return w.OccurredAt.Equal(o.OccurredAt) &&
		w.Plate == o.Plate &&
		w.Make == o.Make &&
		w.Model == o.Model &&
		w.Customer == o.Customer &&
		w.Service == o.Service &&
		w.Amount.Equal(o.Amount) &&
		w.Recipient == o.Recipient
}

func (p Purchase) Equal(o Purchase) bool {
	return p.OccurredAt.Equal(o.OccurredAt) &&
		p.Description == o.Description &&
		p.Amount.Equal(o.Amount) &&
		p.Category == o.Category &&
		p.Payer == o.Payer
}

func (w Withdrawal) Equal(o Withdrawal) bool {
	return w.OccurredAt.Equal(o.OccurredAt) &&
		w.Amount.Equal(o.Amount) &&
		w.Note == o.Note
}

func (r WashRecord) Equal(o WashRecord) bool             { return r.ID == o.ID }
func (r PurchaseRecord) Equal(o PurchaseRecord) bool     { return r.ID == o.ID }
func (r WithdrawalRecord) Equal(o WithdrawalRecord) bool { return r.ID == o.ID }
