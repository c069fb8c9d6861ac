package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fraudguard/internal/model"
)

// RawTransaction is the wire form of an incoming transaction before
// validation. Amount is left untyped so both JSON numbers and numeric
// strings are accepted.
type RawTransaction struct {
	TxnID        string `json:"txn_id,omitempty"`
	UserID       string `json:"user_id"`
	Amount       any    `json:"amount"`
	Currency     string `json:"currency"`
	Merchant     string `json:"merchant"`
	MCC          string `json:"mcc,omitempty"`
	Channel      string `json:"channel"`
	Country      string `json:"country"`
	City         string `json:"city"`
	DeviceID     string `json:"device_id"`
	TimestampUTC string `json:"timestamp_utc,omitempty"`
	TimestampMs  int64  `json:"timestamp_ms,omitempty"`
}

// RequiredFields is the set of fields a transaction must carry.
var RequiredFields = []string{
	"user_id", "amount", "currency", "merchant", "country", "city", "device_id", "channel",
}

// ValidationError reports which required fields were absent. No state is
// mutated when it is returned.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing fields %v; required: %v", e.Missing, RequiredFields)
}

// Normalize validates raw input and builds the immutable Transaction.
// A missing txn_id gets a random UUID; a missing timestamp defaults to now.
func Normalize(raw RawTransaction, now time.Time) (model.Transaction, error) {
	missing := missingFields(raw)
	if len(missing) > 0 {
		return model.Transaction{}, &ValidationError{Missing: missing}
	}
	amount, err := parseAmount(raw.Amount)
	if err != nil {
		return model.Transaction{}, err
	}

	txnID := strings.TrimSpace(raw.TxnID)
	if txnID == "" {
		txnID = uuid.NewString()
	}

	tsMs := raw.TimestampMs
	if tsMs <= 0 && raw.TimestampUTC != "" {
		if t, err := parseUTC(raw.TimestampUTC); err == nil {
			tsMs = t.UnixMilli()
		}
	}
	if tsMs <= 0 {
		tsMs = now.UnixMilli()
	}

	return model.Transaction{
		TxnID:        txnID,
		UserID:       raw.UserID,
		Amount:       amount,
		Currency:     raw.Currency,
		Merchant:     raw.Merchant,
		MCC:          raw.MCC,
		Channel:      raw.Channel,
		Country:      raw.Country,
		City:         raw.City,
		DeviceID:     raw.DeviceID,
		TimestampMs:  tsMs,
		TimestampUTC: time.UnixMilli(tsMs).UTC().Format(time.RFC3339),
	}, nil
}

func missingFields(raw RawTransaction) []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("user_id", raw.UserID)
	if raw.Amount == nil {
		missing = append(missing, "amount")
	}
	check("currency", raw.Currency)
	check("merchant", raw.Merchant)
	check("country", raw.Country)
	check("city", raw.City)
	check("device_id", raw.DeviceID)
	check("channel", raw.Channel)
	return missing
}

func parseAmount(value any) (float64, error) {
	var amount float64
	switch v := value.(type) {
	case float64:
		amount = v
	case int:
		amount = float64(v)
	case int64:
		amount = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("parse amount: %w", err)
		}
		amount = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("parse amount: %w", err)
		}
		amount = f
	default:
		return 0, fmt.Errorf("amount has unsupported type %T", value)
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount must be non-negative, got %v", amount)
	}
	return amount, nil
}

var utcLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseUTC(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range utcLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", value)
}
