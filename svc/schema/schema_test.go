package schema_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/validator"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/schema"
)

// minimal holds the smallest valid payload per type and one required field
// to remove from it.
var minimal = map[notification.Type]struct {
	data     map[string]any
	required string
}{
	notification.TypeWelcome:             {map[string]any{"fullname": "Ana"}, "fullname"},
	notification.TypeUserLogin:           {map[string]any{"date": "2024-01-15T10:30:00Z"}, "date"},
	notification.TypeUserUpdate:          {map[string]any{"date": "2024-01-15"}, "date"},
	notification.TypeCardCreate:          {map[string]any{"date": "2024-01-15", "type": "CREDIT"}, "type"},
	notification.TypeCardActivate:        {map[string]any{"date": "2024-01-15", "type": "DEBIT"}, "date"},
	notification.TypeTransactionPurchase: {map[string]any{"date": "2024-01-15", "amount": 10, "cardId": "c-1", "merchant": "Cafe"}, "cardId"},
	notification.TypeTransactionSave:     {map[string]any{"date": "2024-01-15", "amount": 10, "merchant": "Bank"}, "amount"},
	notification.TypeTransactionPaid:     {map[string]any{"date": "2024-01-15", "amount": 10, "merchant": "Bank"}, "merchant"},
	notification.TypeReportActivity:      {map[string]any{"date": "2024-01-15", "url": "https://bank.example/r/1"}, "url"},
}

func envelope(t *testing.T, typ notification.Type, data map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"type":      typ,
		"userEmail": "a@b.com",
		"userId":    "u1",
		"data":      data,
	})
	require.NoError(t, err)
	return raw
}

func TestEveryTypeHasSchema(t *testing.T) {
	t.Parallel()

	require.Len(t, minimal, len(notification.Types()))
	for _, typ := range notification.Types() {
		tc, ok := minimal[typ]
		require.True(t, ok, "no fixture for %s", typ)

		t.Run(string(typ), func(t *testing.T) {
			t.Parallel()

			env, err := schema.ValidateEnvelope(envelope(t, typ, tc.data))
			require.NoError(t, err)
			assert.Equal(t, typ, env.Type)
			require.NotNil(t, env.Payload)
			assert.Equal(t, typ.Family(), env.Payload.Family())

			data := map[string]any{}
			for k, v := range tc.data {
				if k != tc.required {
					data[k] = v
				}
			}
			_, err = schema.ValidateEnvelope(envelope(t, typ, data))
			require.ErrorIs(t, err, schema.ErrInvalid)
			se, ok := schema.AsError(err)
			require.True(t, ok)
			assert.Contains(t, se.Messages(), `"data.`+tc.required+`" is required`)
			assert.Equal(t, string(typ.Family()), se.Schema)
		})
	}
}

func TestValidateEnvelope_Exhaustive(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"type": "TRANSACTION.PURCHASE",
		"userEmail": "not-an-email",
		"userId": "",
		"createdAt": "yesterday",
		"data": {"amount": -3, "merchant": "X", "extra": true}
	}`)
	_, err := schema.ValidateEnvelope(raw)
	require.Error(t, err)

	se, ok := schema.AsError(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{
		`"userEmail" must be a valid email`,
		`"userId" is required`,
		`"createdAt" must be in ISO 8601 date format`,
		`"data.date" is required`,
		`"data.amount" must be a positive number`,
		`"data.cardId" is required`,
		`"data.merchant" length must be at least 2 characters long`,
	}, se.Messages())

	var issues validator.ValidationErrors
	require.ErrorAs(t, err, &issues)
	assert.Contains(t, issues.Messages(), `"data.cardId" is required`)
}

func TestValidateEnvelope_TypeErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing type", func(t *testing.T) {
		t.Parallel()
		_, err := schema.ValidateEnvelope([]byte(`{"userEmail":"a@b.com","userId":"u1","data":{}}`))
		require.ErrorIs(t, err, schema.ErrTypeRequired)
		se, _ := schema.AsError(err)
		assert.Equal(t, []string{`"type" is required`}, se.Messages())
		assert.Empty(t, se.Schema)
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		_, err := schema.ValidateEnvelope([]byte(`{"type":"SMS.SEND","userEmail":"a@b.com","userId":"u1","data":{}}`))
		require.ErrorIs(t, err, notification.ErrUnknownType)
		assert.Contains(t, err.Error(), `"type" must be a known notification type, got "SMS.SEND"`)
	})

	t.Run("non string type", func(t *testing.T) {
		t.Parallel()
		_, err := schema.ValidateEnvelope([]byte(`{"type":7,"userEmail":"a@b.com","userId":"u1","data":{}}`))
		se, ok := schema.AsError(err)
		require.True(t, ok)
		assert.Equal(t, []string{`"type" must be of type string`}, se.Messages())
	})
}

func TestValidateEnvelope_Malformed(t *testing.T) {
	t.Parallel()

	for _, body := range []string{``, `nope`, `[1,2]`, `"str"`, `{"type":`} {
		_, err := schema.ValidateEnvelope([]byte(body))
		assert.ErrorIs(t, err, schema.ErrMalformed, "body %q", body)
	}
}

func TestValidateEnvelope_Fields(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"uuid": "550e8400-e29b-41d4-a716-446655440000",
		"type": "CARD.CREATE",
		"userEmail": "a@b.com",
		"userId": "u1",
		"createdAt": "2024-01-15T10:30:00.000Z",
		"data": {"date": "2024-01-15", "type": "CREDIT", "amount": "250.5", "unknown": 1}
	}`)
	env, err := schema.ValidateEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", env.ID)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), env.CreatedAt)

	card, ok := env.Payload.(notification.CardData)
	require.True(t, ok)
	require.NotNil(t, card.Amount)
	assert.Equal(t, 250.5, *card.Amount)
	assert.NotContains(t, notification.Snapshot(card), "unknown")

	_, err = schema.ValidateEnvelope([]byte(`{"id":"abc","type":"USER.LOGIN","userEmail":"a@b.com","userId":"u1","data":{"date":"2024-01-15"}}`))
	se, ok := schema.AsError(err)
	require.True(t, ok)
	assert.Equal(t, []string{`"id" must be a valid GUID`}, se.Messages())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	p, err := schema.Validate(notification.TypeWelcome, json.RawMessage(`{"fullname":"Ana"}`))
	require.NoError(t, err)
	assert.Equal(t, notification.WelcomeData{FullName: "Ana"}, p)

	_, err = schema.Validate(notification.TypeWelcome, json.RawMessage(`{"fullname":"A"}`))
	assert.ErrorIs(t, err, schema.ErrInvalid)

	_, err = schema.Validate("NOPE", json.RawMessage(`{}`))
	assert.True(t, errors.Is(err, notification.ErrUnknownType))

	_, err = schema.Validate(notification.TypeReportActivity, json.RawMessage(`[]`))
	se, ok := schema.AsError(err)
	require.True(t, ok)
	assert.Equal(t, []string{`"data" must be of type object`}, se.Messages())

	assert.Contains(t, schema.Describe(err), `"data" must be of type object`)
}
