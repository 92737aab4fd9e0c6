// Package phh encodes completed hands in the PHH format: one TOML table
// per hand, players ordered small blind first, actions in the format's
// compact verb notation ("p1 cbr 50", "d db Ah2c7d").
package phh

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// VariantHoldem marks no-limit Texas hold'em.
const VariantHoldem = "NT"

// HandHistory is one hand in PHH form. Slice fields are position-ordered:
// index 0 is the small blind, play proceeds clockwise.
type HandHistory struct {
	Variant           string   `toml:"variant"`
	HandID            string   `toml:"hand"`
	Table             string   `toml:"table,omitempty"`
	SeatCount         int      `toml:"seat_count,omitempty"`
	Seats             []int    `toml:"seats,omitempty"`
	Antes             []int    `toml:"antes"`
	BlindsOrStraddles []int    `toml:"blinds_or_straddles"`
	MinBet            int      `toml:"min_bet"`
	StartingStacks    []int    `toml:"starting_stacks"`
	FinishingStacks   []int    `toml:"finishing_stacks,omitempty"`
	Winnings          []int    `toml:"winnings,omitempty"`
	Players           []string `toml:"players,omitempty"`
	Actions           []string `toml:"actions"`
	Time              string   `toml:"time,omitempty"`
	TimeZone          string   `toml:"time_zone,omitempty"`
	Day               int      `toml:"day,omitempty"`
	Month             int      `toml:"month,omitempty"`
	Year              int      `toml:"year,omitempty"`
}

// Encode writes the hand history to the writer in PHH TOML form.
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return fmt.Errorf("phh: hand history is nil")
	}

	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// EncodeToBytes encodes and returns the result as bytes.
func EncodeToBytes(hand *HandHistory) ([]byte, error) {
	var buf strings.Builder
	if err := Encode(&buf, hand); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// DealAction is the hole-card deal line for one position. Pass "????" for
// cards that were never revealed.
func DealAction(pos int, cards string) string {
	if cards == "" {
		cards = "????"
	}
	return fmt.Sprintf("d dh p%d %s", pos+1, cards)
}

// BoardAction is the dealer line for newly dealt community cards, given as
// concatenated card codes.
func BoardAction(cards string) string {
	return fmt.Sprintf("d db %s", cards)
}

// PlayerAction converts a betting decision to PHH notation. The total is
// the round total for sizing actions. The second return is false for
// actions the format does not record.
func PlayerAction(pos int, action string, total int) (string, bool) {
	player := fmt.Sprintf("p%d", pos+1)
	switch action {
	case "fold":
		return player + " f", true
	case "check", "call":
		return player + " cc", true
	case "bet", "raise":
		if total <= 0 {
			return "", false
		}
		return fmt.Sprintf("%s cbr %d", player, total), true
	default:
		return "", false
	}
}

// ShowAction is the showdown reveal line for one position.
func ShowAction(pos int, cards string) string {
	return fmt.Sprintf("p%d sm %s", pos+1, cards)
}
