package services

import (
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

var detectBase = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

func expenseAt(desc, amount string, days int) core.Transaction {
	return core.Transaction{
		UserID:      1,
		Kind:        core.Expense,
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		OccurredAt:  detectBase.AddDate(0, 0, days),
	}
}

func TestDetectRecurring(t *testing.T) {
	tests := []struct {
		name       string
		txs        []core.Transaction
		wantCount  int
		wantName   string
		wantAmount string
		wantDay    int
	}{
		{
			name: "monthly series",
			txs: []core.Transaction{
				expenseAt("Netflix", "15.99", 0),
				expenseAt("Netflix", "15.99", 30),
				expenseAt("Netflix", "15.99", 60),
			},
			wantCount:  1,
			wantName:   "Netflix",
			wantAmount: "15.99",
			wantDay:    detectBase.AddDate(0, 0, 60).Day(),
		},
		{
			name: "one gap out of range disqualifies",
			txs: []core.Transaction{
				expenseAt("Netflix", "15.99", 0),
				expenseAt("Netflix", "15.99", 30),
				expenseAt("Netflix", "15.99", 60),
				expenseAt("Netflix", "15.99", 84),
			},
			wantCount: 0,
		},
		{
			name: "two occurrences are not enough",
			txs: []core.Transaction{
				expenseAt("Gym", "30", 0),
				expenseAt("Gym", "30", 30),
			},
			wantCount: 0,
		},
		{
			name: "average skips the first occurrence",
			txs: []core.Transaction{
				expenseAt("Water bill", "10.00", 0),
				expenseAt("Water bill", "20.00", 30),
				expenseAt("Water bill", "30.00", 60),
			},
			wantCount:  1,
			wantName:   "Water Bill",
			wantAmount: "25",
			wantDay:    detectBase.AddDate(0, 0, 60).Day(),
		},
		{
			name: "grouping ignores case and surrounding space",
			txs: []core.Transaction{
				expenseAt("  SPOTIFY ", "9.99", 0),
				expenseAt("spotify", "9.99", 31),
				expenseAt("Spotify", "9.99", 62),
			},
			wantCount:  1,
			wantName:   "Spotify",
			wantAmount: "9.99",
			wantDay:    detectBase.AddDate(0, 0, 62).Day(),
		},
		{
			name: "input order does not matter",
			txs: []core.Transaction{
				expenseAt("Rent", "800", 50),
				expenseAt("Rent", "700", 0),
				expenseAt("Rent", "900", 25),
			},
			wantCount:  1,
			wantName:   "Rent",
			wantAmount: "850",
			wantDay:    detectBase.AddDate(0, 0, 50).Day(),
		},
		{
			name: "gap bounds are inclusive",
			txs: []core.Transaction{
				expenseAt("Phone", "20", 0),
				expenseAt("Phone", "20", 25),
				expenseAt("Phone", "20", 60),
			},
			wantCount:  1,
			wantName:   "Phone",
			wantAmount: "20",
			wantDay:    detectBase.AddDate(0, 0, 60).Day(),
		},
		{
			name: "gap of 36 days fails",
			txs: []core.Transaction{
				expenseAt("Phone", "20", 0),
				expenseAt("Phone", "20", 30),
				expenseAt("Phone", "20", 66),
			},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectRecurring(1, tt.txs, MonthlyCadence{})
			if len(got) != tt.wantCount {
				t.Fatalf("DetectRecurring() found %d patterns, want %d: %+v", len(got), tt.wantCount, got)
			}
			if tt.wantCount == 0 {
				return
			}

			re := got[0]
			if re.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", re.Name, tt.wantName)
			}
			if !re.Amount.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("Amount = %s, want %s", re.Amount, tt.wantAmount)
			}
			if re.DetectedDay != tt.wantDay {
				t.Errorf("DetectedDay = %d, want %d", re.DetectedDay, tt.wantDay)
			}
			if re.ConfidenceScore != 0.90 {
				t.Errorf("ConfidenceScore = %v, want 0.90", re.ConfidenceScore)
			}
			if re.Frequency != core.Monthly {
				t.Errorf("Frequency = %q, want monthly", re.Frequency)
			}
			if re.IsConfirmed || re.IsIgnored {
				t.Error("new detections must start without a disposition")
			}
			if re.UserID != 1 {
				t.Errorf("UserID = %d, want 1", re.UserID)
			}
		})
	}
}

func TestDetectRecurringGroupsAnyKind(t *testing.T) {
	salary := []core.Transaction{
		expenseAt("Salary", "2000", 0),
		expenseAt("Salary", "2000", 30),
		expenseAt("Salary", "2000", 60),
	}
	for i := range salary {
		salary[i].Kind = core.Income
	}

	transfer := []core.Transaction{
		expenseAt("Transfer", "50", 0),
		expenseAt("Transfer", "50", 30),
		expenseAt("Transfer", "50", 60),
	}
	transfer[1].Kind = core.Income

	tests := []struct {
		name string
		txs  []core.Transaction
		want string
	}{
		{"income series", salary, "Salary"},
		{"mixed kinds", transfer, "Transfer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectRecurring(1, tt.txs, MonthlyCadence{})
			if len(got) != 1 {
				t.Fatalf("expected one pattern, got %+v", got)
			}
			if got[0].Name != tt.want {
				t.Errorf("Name = %q, want %q", got[0].Name, tt.want)
			}
		})
	}
}

func TestDetectRecurringRoundsAmount(t *testing.T) {
	txs := []core.Transaction{
		expenseAt("Power", "1", 0),
		expenseAt("Power", "10.00", 30),
		expenseAt("Power", "10.00", 60),
		expenseAt("Power", "10.01", 90),
	}
	got := DetectRecurring(1, txs, MonthlyCadence{})
	if len(got) != 1 {
		t.Fatalf("expected one pattern, got %d", len(got))
	}
	// (10.00 + 10.00 + 10.01) / 3 = 10.003333...
	if want := decimal.RequireFromString("10.00"); !got[0].Amount.Equal(want) {
		t.Errorf("Amount = %s, want %s", got[0].Amount, want)
	}
}

func TestDetectRecurringKeepsFirstAppearanceOrder(t *testing.T) {
	var txs []core.Transaction
	for _, desc := range []string{"Zeta", "Alpha"} {
		for i := 0; i < 3; i++ {
			txs = append(txs, expenseAt(desc, "5", i*30))
		}
	}
	got := DetectRecurring(1, txs, MonthlyCadence{})
	if len(got) != 2 || got[0].Name != "Zeta" || got[1].Name != "Alpha" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestMonthlyCadence(t *testing.T) {
	tests := []struct {
		gap  int
		want bool
	}{
		{24, false},
		{25, true},
		{30, true},
		{35, true},
		{36, false},
		{0, false},
	}
	for _, tt := range tests {
		if got := (MonthlyCadence{}).Accepts(tt.gap); got != tt.want {
			t.Errorf("Accepts(%d) = %v, want %v", tt.gap, got, tt.want)
		}
	}
}

func TestWholeDaysTruncates(t *testing.T) {
	from := time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 26, 22, 0, 0, 0, time.UTC)
	if got := wholeDays(from, to); got != 24 {
		t.Errorf("wholeDays() = %d, want 24", got)
	}
}

func TestDetectRecurringTitleCase(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"netflix premium", "Netflix Premium"},
		{"  SPOTIFY  ", "Spotify"},
		// Letters after an apostrophe stay lower case.
		{"o'reilly media", "O'reilly Media"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			txs := []core.Transaction{
				expenseAt(tt.desc, "10", 0),
				expenseAt(tt.desc, "10", 30),
				expenseAt(tt.desc, "10", 60),
			}
			got := DetectRecurring(1, txs, MonthlyCadence{})
			if len(got) != 1 {
				t.Fatalf("expected one pattern, got %+v", got)
			}
			if got[0].Name != tt.want {
				t.Errorf("Name = %q, want %q", got[0].Name, tt.want)
			}
		})
	}
}
