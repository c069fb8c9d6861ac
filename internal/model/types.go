package model

// RuleTrigger names a fraud rule that fired for a transaction.
type RuleTrigger string

const (
	RuleHighAmount  RuleTrigger = "HIGH_AMOUNT"
	RuleForeignHigh RuleTrigger = "FOREIGN_HIGH"
	RuleRapidFire   RuleTrigger = "RAPID_FIRE"
)

// Transaction is a normalized transaction event. Immutable once built.
type Transaction struct {
	TxnID        string  `json:"txn_id"`
	UserID       string  `json:"user_id"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	Merchant     string  `json:"merchant"`
	MCC          string  `json:"mcc,omitempty"`
	Channel      string  `json:"channel"`
	Country      string  `json:"country"`
	City         string  `json:"city"`
	DeviceID     string  `json:"device_id"`
	TimestampMs  int64   `json:"timestamp_ms"`
	TimestampUTC string  `json:"timestamp_utc"`
}

// UserVelocityState tracks per-user velocity across transactions.
// The zero value means the user has no history.
type UserVelocityState struct {
	LastTimestampMs int64  `json:"last_ts_ms"`
	LastCountry     string `json:"last_country"`
	RapidCount      int    `json:"rapid_count"`
	UpdatedAt       int64  `json:"updated_at"`
}

// Explanation records the thresholds a decision was made against.
type Explanation struct {
	Rules                  []RuleTrigger `json:"rules"`
	HighAmountThreshold    float64       `json:"high_amount_threshold"`
	ForeignAmountThreshold float64       `json:"foreign_amount_threshold"`
	HomeCountry            string        `json:"home_country"`
}

// RiskDecision is the outcome of processing one transaction.
type RiskDecision struct {
	TxnID       string        `json:"txn_id"`
	Risk        float64       `json:"risk"`
	Rules       []RuleTrigger `json:"rules"`
	AlertSent   bool          `json:"alert_sent"`
	Explanation Explanation   `json:"explanation"`
	Warning     string        `json:"warning,omitempty"`
	Directive   *Directive    `json:"-"`
	Transaction Transaction   `json:"-"`
}

// Directive describes the side effects the caller must perform for a
// high-risk decision. The processor never performs them itself.
type Directive struct {
	Case  SuspiciousCase
	Alert AlertPayload
}

// SuspiciousCase is the record to persist for a high-risk transaction.
type SuspiciousCase struct {
	TxnID       string      `json:"txn_id"`
	UserID      string      `json:"user_id"`
	Amount      float64     `json:"amount"`
	Currency    string      `json:"currency"`
	Merchant    string      `json:"merchant"`
	Country     string      `json:"country"`
	City        string      `json:"city"`
	DeviceID    string      `json:"device_id"`
	TimestampMs int64       `json:"timestamp_ms"`
	RiskScore   float64     `json:"risk_score"`
	Explanation Explanation `json:"explanation"`
	CreatedAt   int64       `json:"created_at"`
}

// AlertPayload is the notification body published for a high-risk decision.
type AlertPayload struct {
	Transaction Transaction `json:"transaction"`
	Risk        float64     `json:"risk"`
	Explanation Explanation `json:"explanation"`
}
