package notification

// Type is the closed set of notification kinds.
type Type string

const (
	TypeWelcome             Type = "WELCOME"
	TypeUserLogin           Type = "USER.LOGIN"
	TypeUserUpdate          Type = "USER.UPDATE"
	TypeCardCreate          Type = "CARD.CREATE"
	TypeCardActivate        Type = "CARD.ACTIVATE"
	TypeTransactionPurchase Type = "TRANSACTION.PURCHASE"
	TypeTransactionSave     Type = "TRANSACTION.SAVE"
	TypeTransactionPaid     Type = "TRANSACTION.PAID"
	TypeReportActivity      Type = "REPORT.ACTIVITY"
)

// Family groups types that share a payload shape.
type Family string

const (
	FamilyWelcome     Family = "welcome"
	FamilyUser        Family = "user"
	FamilyCard        Family = "card"
	FamilyPurchase    Family = "purchase"
	FamilyTransaction Family = "transaction"
	FamilyReport      Family = "report"
)

type entry struct {
	typ          Type
	family       Family
	templatePath string
}

// catalog is the single place a type is declared. Its payload family selects
// both the validation schema and the payload struct; templatePath locates the
// bundle in blob storage.
var catalog = []entry{
	{TypeWelcome, FamilyWelcome, "welcome"},
	{TypeUserLogin, FamilyUser, "user/login"},
	{TypeUserUpdate, FamilyUser, "user/update"},
	{TypeCardCreate, FamilyCard, "card/create"},
	{TypeCardActivate, FamilyCard, "card/activate"},
	{TypeTransactionPurchase, FamilyPurchase, "transaction/purchase"},
	{TypeTransactionSave, FamilyTransaction, "transaction/save"},
	{TypeTransactionPaid, FamilyTransaction, "transaction/paid"},
	{TypeReportActivity, FamilyReport, "report/activity"},
}

var byType = func() map[Type]entry {
	m := make(map[Type]entry, len(catalog))
	for _, e := range catalog {
		m[e.typ] = e
	}
	return m
}()

// Types lists every known type in declaration order.
func Types() []Type {
	out := make([]Type, len(catalog))
	for i, e := range catalog {
		out[i] = e.typ
	}
	return out
}

func (t Type) Valid() bool {
	_, ok := byType[t]
	return ok
}

// Family returns the payload family, or "" for unknown types.
func (t Type) Family() Family {
	return byType[t].family
}

// TemplatePath returns the blob path of the type's bundle, or "" for unknown
// types.
func (t Type) TemplatePath() string {
	return byType[t].templatePath
}

func (t Type) String() string { return string(t) }
