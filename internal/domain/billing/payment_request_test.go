package billing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrylos/backend/internal/domain/shared"
)

func createTestPayment(t *testing.T) *PaymentRequest {
	p, err := NewPaymentRequest(uuid.New(), decimal.NewFromInt(25000), "")
	require.NoError(t, err)
	return p
}

func TestNewPaymentRequest(t *testing.T) {
	t.Run("defaults to pending with INR currency", func(t *testing.T) {
		p := createTestPayment(t)

		assert.Equal(t, PaymentStatusPending, p.Status)
		assert.Equal(t, "INR", p.Currency)
		assert.Nil(t, p.TransactionID)
		assert.Nil(t, p.PaidAt)
	})

	t.Run("keeps explicit currency", func(t *testing.T) {
		p, err := NewPaymentRequest(uuid.New(), decimal.NewFromInt(100), "USD")
		require.NoError(t, err)
		assert.Equal(t, "USD", p.Currency)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewPaymentRequest(uuid.New(), decimal.Zero, "")
		require.Error(t, err)

		_, err = NewPaymentRequest(uuid.New(), decimal.NewFromInt(-5), "")
		require.Error(t, err)
	})

	t.Run("rejects nil service request", func(t *testing.T) {
		_, err := NewPaymentRequest(uuid.Nil, decimal.NewFromInt(100), "")
		require.Error(t, err)
	})
}

func TestPaymentRequest_Settle(t *testing.T) {
	t.Run("pending becomes paid with transaction and timestamp", func(t *testing.T) {
		p := createTestPayment(t)
		p.ClearDomainEvents()

		require.NoError(t, p.Settle("TXN-1001"))
		assert.Equal(t, PaymentStatusPaid, p.Status)
		require.NotNil(t, p.TransactionID)
		assert.Equal(t, "TXN-1001", *p.TransactionID)
		assert.NotNil(t, p.PaidAt)

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypePaymentSettled, events[0].EventType())
	})

	t.Run("second settle preserves the first transaction", func(t *testing.T) {
		p := createTestPayment(t)
		require.NoError(t, p.Settle("TXN-1001"))
		firstPaidAt := *p.PaidAt

		err := p.Settle("TXN-2002")
		require.Error(t, err)

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "ALREADY_SETTLED", de.Code)
		assert.Equal(t, "TXN-1001", *p.TransactionID)
		assert.Equal(t, firstPaidAt, *p.PaidAt)
	})

	t.Run("rejects empty transaction id", func(t *testing.T) {
		p := createTestPayment(t)
		require.Error(t, p.Settle(""))
		assert.Equal(t, PaymentStatusPending, p.Status)
	})
}

func TestPaymentRequest_SetPayoutDetails(t *testing.T) {
	p := createTestPayment(t)
	p.SetPayoutDetails("50% advance", "agency@upi", "https://cdn.example.com/qr.png")

	assert.Equal(t, "50% advance", p.PaymentNote)
	assert.Equal(t, "agency@upi", p.UPIID)
	assert.Equal(t, "https://cdn.example.com/qr.png", p.QRCodeURL)
}
