package dataapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount decodes numbers that arrive as JSON numbers, numeric strings, empty
// strings or null.
type Amount struct {
	decimal.Decimal
}

func NewAmount(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f)}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			a.Decimal = decimal.Zero
			return nil
		}
		val, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		a.Decimal = val
		return nil
	}
	val, err := decimal.NewFromString(string(b))
	if err == nil {
		a.Decimal = val
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		a.Decimal = decimal.NewFromFloat(f)
		return nil
	}
	return fmt.Errorf("invalid amount: %s", string(b))
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.Decimal.MarshalJSON()
}

// Text decodes a string field that is sometimes sent as a number.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	return fmt.Errorf("invalid text: %s", string(b))
}

// UnixTime decodes unix seconds, unix milliseconds, numeric strings and
// RFC3339 strings. The zero value means "not provided".
type UnixTime struct {
	time.Time
}

func (u *UnixTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		u.Time = time.Time{}
		return nil
	}
	raw := string(b)
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		raw = strings.TrimSpace(s)
		if raw == "" {
			u.Time = time.Time{}
			return nil
		}
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			u.Time = ts.UTC()
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %s", string(b))
	}
	u.Time = fromUnix(f)
	return nil
}

func (u UnixTime) MarshalJSON() ([]byte, error) {
	if u.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(u.Time.UTC().Format(time.RFC3339))
}

func fromUnix(f float64) time.Time {
	// Anything past year 33658 in seconds is really milliseconds.
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}

// Position is an open holding from /positions.
type Position struct {
	ProxyWallet  string `json:"proxyWallet"`
	Asset        string `json:"asset"`
	ConditionID  string `json:"conditionId"`
	Size         Amount `json:"size"`
	AvgPrice     Amount `json:"avgPrice"`
	InitialValue Amount `json:"initialValue"`
	CurrentValue Amount `json:"currentValue"`
	CashPnl      Amount `json:"cashPnl"`
	PercentPnl   Amount `json:"percentPnl"`
	TotalBought  Amount `json:"totalBought"`
	RealizedPnl  Amount `json:"realizedPnl"`
	CurPrice     Amount `json:"curPrice"`
	Redeemable   bool   `json:"redeemable"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Icon         string `json:"icon"`
	EventSlug    string `json:"eventSlug"`
	Outcome      string `json:"outcome"`
	OutcomeIndex int    `json:"outcomeIndex"`
	EndDate      Text   `json:"endDate"`
}

// ClosedPosition is a fully exited holding from /closed-positions.
type ClosedPosition struct {
	ProxyWallet string   `json:"proxyWallet"`
	Asset       string   `json:"asset"`
	ConditionID string   `json:"conditionId"`
	AvgPrice    Amount   `json:"avgPrice"`
	TotalBought Amount   `json:"totalBought"`
	RealizedPnl Amount   `json:"realizedPnl"`
	CurPrice    Amount   `json:"curPrice"`
	Timestamp   UnixTime `json:"timestamp"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	EventSlug   string   `json:"eventSlug"`
	Outcome     string   `json:"outcome"`
	EndDate     Text     `json:"endDate"`
}

// CostBasis is what was paid in: average price times shares bought.
func (p ClosedPosition) CostBasis() decimal.Decimal {
	return p.AvgPrice.Mul(p.TotalBought.Decimal)
}

// Trade is one fill from /trades.
type Trade struct {
	ProxyWallet     string   `json:"proxyWallet"`
	Side            string   `json:"side"`
	Asset           string   `json:"asset"`
	ConditionID     string   `json:"conditionId"`
	Size            Amount   `json:"size"`
	Price           Amount   `json:"price"`
	Timestamp       UnixTime `json:"timestamp"`
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Outcome         string   `json:"outcome"`
	TransactionHash string   `json:"transactionHash"`
}

// Notional is |size × price|.
func (t Trade) Notional() decimal.Decimal {
	return t.Size.Mul(t.Price.Decimal).Abs()
}

// Activity is one ledger entry from /activity.
type Activity struct {
	ProxyWallet     string   `json:"proxyWallet"`
	Timestamp       UnixTime `json:"timestamp"`
	ConditionID     string   `json:"conditionId"`
	Type            string   `json:"type"`
	Size            Amount   `json:"size"`
	UsdcSize        Amount   `json:"usdcSize"`
	Price           Amount   `json:"price"`
	Asset           string   `json:"asset"`
	Side            string   `json:"side"`
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	EventSlug       string   `json:"eventSlug"`
	Outcome         string   `json:"outcome"`
	TransactionHash string   `json:"transactionHash"`
}

type LeaderboardEntry struct {
	Rank        Text   `json:"rank"`
	ProxyWallet string `json:"proxyWallet"`
	UserName    string `json:"userName"`
	Volume      Amount `json:"vol"`
	PnL         Amount `json:"pnl"`
}

type ValueEntry struct {
	User  string `json:"user"`
	Value Amount `json:"value"`
}
