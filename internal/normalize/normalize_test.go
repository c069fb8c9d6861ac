package normalize

import (
	"errors"
	"testing"
	"time"
)

func validRaw() RawTransaction {
	return RawTransaction{
		UserID:   "u1",
		Amount:   float64(99.5),
		Currency: "AUD",
		Merchant: "acme-store",
		Channel:  "web",
		Country:  "AU",
		City:     "Sydney",
		DeviceID: "dev-1",
	}
}

func TestNormalizeDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	txn, err := Normalize(validRaw(), now)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if txn.TxnID == "" {
		t.Fatalf("expected generated txn id")
	}
	if txn.TimestampMs != now.UnixMilli() {
		t.Fatalf("timestamp: %d", txn.TimestampMs)
	}
	if txn.TimestampUTC != "2026-03-01T12:00:00Z" {
		t.Fatalf("timestamp utc: %s", txn.TimestampUTC)
	}
	if txn.Amount != 99.5 {
		t.Fatalf("amount: %v", txn.Amount)
	}
}

func TestNormalizeKeepsProvidedIDAndTimestamp(t *testing.T) {
	raw := validRaw()
	raw.TxnID = "txn-42"
	raw.TimestampMs = 1_700_000_000_000
	txn, err := Normalize(raw, time.Now())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if txn.TxnID != "txn-42" {
		t.Fatalf("txn id: %s", txn.TxnID)
	}
	if txn.TimestampMs != 1_700_000_000_000 {
		t.Fatalf("timestamp: %d", txn.TimestampMs)
	}
}

func TestNormalizeParsesUTCTimestamp(t *testing.T) {
	raw := validRaw()
	raw.TimestampUTC = "2026-01-15T08:30:00Z"
	txn, err := Normalize(raw, time.Now())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC).UnixMilli()
	if txn.TimestampMs != want {
		t.Fatalf("timestamp: %d want %d", txn.TimestampMs, want)
	}
}

func TestNormalizeStringAmount(t *testing.T) {
	raw := validRaw()
	raw.Amount = "600"
	txn, err := Normalize(raw, time.Now())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if txn.Amount != 600 {
		t.Fatalf("amount: %v", txn.Amount)
	}
}

func TestNormalizeNegativeAmountRejected(t *testing.T) {
	raw := validRaw()
	raw.Amount = float64(-5)
	if _, err := Normalize(raw, time.Now()); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestNormalizeUnparseableAmountRejected(t *testing.T) {
	raw := validRaw()
	raw.Amount = "not-a-number"
	if _, err := Normalize(raw, time.Now()); err == nil {
		t.Fatalf("expected error for bad amount")
	}
}

func TestNormalizeMissingFields(t *testing.T) {
	raw := validRaw()
	raw.DeviceID = ""
	raw.City = ""
	_, err := Normalize(raw, time.Now())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Missing) != 2 {
		t.Fatalf("missing: %v", verr.Missing)
	}
	for _, want := range []string{"city", "device_id"} {
		found := false
		for _, got := range verr.Missing {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing should contain %s: %v", want, verr.Missing)
		}
	}
}

func TestNormalizeMissingAmount(t *testing.T) {
	raw := validRaw()
	raw.Amount = nil
	_, err := Normalize(raw, time.Now())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Missing) != 1 || verr.Missing[0] != "amount" {
		t.Fatalf("missing: %v", verr.Missing)
	}
}
