package phh_test

import (
	"bytes"
	"testing"

	"github.com/feltcraft/cardroom/internal/phh"
)

func TestPlayerAction(t *testing.T) {
	tests := []struct {
		name      string
		pos       int
		action    string
		total     int
		want      string
		shouldUse bool
	}{
		{"fold", 0, "fold", 0, "p1 f", true},
		{"check", 1, "check", 0, "p2 cc", true},
		{"call", 3, "call", 50, "p4 cc", true},
		{"raise", 0, "raise", 120, "p1 cbr 120", true},
		{"bet", 1, "bet", 40, "p2 cbr 40", true},
		{"zero raise", 2, "raise", 0, "", false},
		{"unknown verb", 2, "jam", 10, "", false},
	}

	for _, tt := range tests {
		got, ok := phh.PlayerAction(tt.pos, tt.action, tt.total)
		if ok != tt.shouldUse {
			t.Fatalf("%s: ok=%v want %v", tt.name, ok, tt.shouldUse)
		}
		if got != tt.want {
			t.Fatalf("%s: got %q want %q", tt.name, got, tt.want)
		}
	}
}

func TestDealerLines(t *testing.T) {
	if got := phh.DealAction(0, "AhKh"); got != "d dh p1 AhKh" {
		t.Fatalf("DealAction = %q", got)
	}
	if got := phh.DealAction(2, ""); got != "d dh p3 ????" {
		t.Fatalf("DealAction hidden = %q", got)
	}
	if got := phh.BoardAction("Ah2c7d"); got != "d db Ah2c7d" {
		t.Fatalf("BoardAction = %q", got)
	}
	if got := phh.ShowAction(1, "QsJs"); got != "p2 sm QsJs" {
		t.Fatalf("ShowAction = %q", got)
	}
}

func TestEncodeHandHistory(t *testing.T) {
	hand := &phh.HandHistory{
		Variant:           phh.VariantHoldem,
		HandID:            "hnd_01h455vb4pex5vsknk084sn02q",
		Table:             "main",
		SeatCount:         3,
		Seats:             []int{1, 2, 3},
		Antes:             []int{0, 0, 0},
		BlindsOrStraddles: []int{1, 2, 0},
		MinBet:            2,
		StartingStacks:    []int{200, 200, 200},
		FinishingStacks:   []int{197, 203, 200},
		Winnings:          []int{0, 3, 0},
		Players:           []string{"alice", "bob", "carol"},
		Actions: []string{
			"d dh p1 ????",
			"d dh p2 ????",
			"d dh p3 ????",
			"p3 f",
			"p1 cc",
			"p2 cc",
		},
		Time:     "15:22:00",
		TimeZone: "UTC",
		Day:      14,
		Month:    11,
		Year:     2025,
	}

	var buf bytes.Buffer
	if err := phh.Encode(&buf, hand); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	got := buf.String()
	want := "" +
		"variant = \"NT\"\n" +
		"hand = \"hnd_01h455vb4pex5vsknk084sn02q\"\n" +
		"table = \"main\"\n" +
		"seat_count = 3\n" +
		"seats = [1, 2, 3]\n" +
		"antes = [0, 0, 0]\n" +
		"blinds_or_straddles = [1, 2, 0]\n" +
		"min_bet = 2\n" +
		"starting_stacks = [200, 200, 200]\n" +
		"finishing_stacks = [197, 203, 200]\n" +
		"winnings = [0, 3, 0]\n" +
		"players = [\"alice\", \"bob\", \"carol\"]\n" +
		"actions = [\"d dh p1 ????\", \"d dh p2 ????\", \"d dh p3 ????\", \"p3 f\", \"p1 cc\", \"p2 cc\"]\n" +
		"time = \"15:22:00\"\n" +
		"time_zone = \"UTC\"\n" +
		"day = 14\n" +
		"month = 11\n" +
		"year = 2025\n"

	if got != want {
		t.Fatalf("Encode output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}

	if err := phh.Encode(&buf, nil); err == nil {
		t.Fatal("Encode(nil) should error")
	}
}
