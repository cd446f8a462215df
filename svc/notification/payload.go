package notification

import (
	"encoding/json"
	"strconv"
)

// Payload is the validated, type specific part of an envelope. The set of
// implementations is closed: one per Family.
type Payload interface {
	Family() Family
	// Variables returns the template variables contributed by the payload.
	// Optional fields that are absent are left out of the map.
	Variables() map[string]any
}

// CardKind is the card product of a card notification.
type CardKind string

const (
	CardCredit CardKind = "CREDIT"
	CardDebit  CardKind = "DEBIT"
)

type WelcomeData struct {
	FullName string `json:"fullname"`
}

type UserData struct {
	Date string `json:"date"`
}

type CardData struct {
	Date   string   `json:"date"`
	Kind   CardKind `json:"type"`
	Amount *float64 `json:"amount,omitempty"`
}

type PurchaseData struct {
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	CardID   string  `json:"cardId"`
	Merchant string  `json:"merchant"`
}

type TransactionData struct {
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant"`
}

type ReportData struct {
	Date string `json:"date"`
	URL  string `json:"url"`
}

func (WelcomeData) Family() Family     { return FamilyWelcome }
func (UserData) Family() Family        { return FamilyUser }
func (CardData) Family() Family        { return FamilyCard }
func (PurchaseData) Family() Family    { return FamilyPurchase }
func (TransactionData) Family() Family { return FamilyTransaction }
func (ReportData) Family() Family      { return FamilyReport }

func (d WelcomeData) Variables() map[string]any {
	return map[string]any{"fullname": d.FullName}
}

func (d UserData) Variables() map[string]any {
	return map[string]any{"date": d.Date}
}

func (d CardData) Variables() map[string]any {
	vars := map[string]any{"date": d.Date, "type": string(d.Kind)}
	if d.Amount != nil {
		addAmount(vars, *d.Amount)
	}
	return vars
}

func (d PurchaseData) Variables() map[string]any {
	vars := map[string]any{
		"date":      d.Date,
		"cardId":    d.CardID,
		"cardLast4": lastN(d.CardID, 4),
		"merchant":  d.Merchant,
	}
	addAmount(vars, d.Amount)
	return vars
}

func (d TransactionData) Variables() map[string]any {
	vars := map[string]any{"date": d.Date, "merchant": d.Merchant}
	addAmount(vars, d.Amount)
	return vars
}

func (d ReportData) Variables() map[string]any {
	return map[string]any{"date": d.Date, "url": d.URL}
}

func addAmount(vars map[string]any, amount float64) {
	vars["amount"] = amount
	vars["amountFormatted"] = strconv.FormatFloat(amount, 'f', 2, 64)
}

func lastN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// Snapshot converts a payload into a generic document for persistence.
func Snapshot(p Payload) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return out
}
