package plaidclient

import (
	"testing"
	"time"

	"github.com/plaid/plaid-go/v24/plaid"
)

func TestTransactionTime(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("prefers posted datetime", func(t *testing.T) {
		posted := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
		var tx plaid.Transaction
		tx.SetDate("2025-03-14")
		tx.SetDatetime(posted)

		if got := transactionTime(&tx, clock); !got.Equal(posted) {
			t.Fatalf("transactionTime = %v, want %v", got, posted)
		}
	})

	t.Run("falls back to authorized datetime", func(t *testing.T) {
		authorized := time.Date(2025, time.March, 14, 8, 15, 0, 0, time.UTC)
		var tx plaid.Transaction
		tx.SetDate("2025-03-14")
		tx.SetAuthorizedDatetime(authorized)

		if got := transactionTime(&tx, clock); !got.Equal(authorized) {
			t.Fatalf("transactionTime = %v, want %v", got, authorized)
		}
	})

	t.Run("date-only reports start of day", func(t *testing.T) {
		var tx plaid.Transaction
		tx.SetDate("2025-03-14")

		want := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
		if got := transactionTime(&tx, clock); !got.Equal(want) {
			t.Fatalf("transactionTime = %v, want %v", got, want)
		}
	})

	t.Run("unparseable date falls back to now", func(t *testing.T) {
		var tx plaid.Transaction
		tx.SetDate("not a date")

		if got := transactionTime(&tx, clock); !got.Equal(now) {
			t.Fatalf("transactionTime = %v, want %v", got, now)
		}
	})
}
