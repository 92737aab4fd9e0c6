package game

import "encoding/json"

// Action is a betting decision. Bet applies when nothing has been wagered
// this round, Raise when facing a bet. A call for less than the amount to
// call, or a raise for the player's whole stack, puts the player all-in;
// there is no separate all-in action.
type Action uint8

const (
	Fold Action = iota + 1
	Check
	Call
	Bet
	Raise
)

var actionNames = map[Action]string{
	Fold:  "fold",
	Check: "check",
	Call:  "call",
	Bet:   "bet",
	Raise: "raise",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

func (a Action) Valid() bool { return a >= Fold && a <= Raise }

// ParseAction converts a wire-level action name. Unknown names are a
// validation error.
func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}
	return 0, Validationf("unknown_action", "unknown action %q", s)
}

// MarshalJSON writes the action by name so clients never see raw codes.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// TakesAmount reports whether the action carries a chip amount. For Bet and
// Raise the amount is the total the player wants committed this round, not
// the increment.
func (a Action) TakesAmount() bool { return a == Bet || a == Raise }

// ValidAction describes one currently legal action for the acting player,
// with the allowed amount range for sizing actions. For Call, Min and Max
// both hold the amount the player would add (capped by stack). For Bet and
// Raise they bound the round total the player may commit to.
type ValidAction struct {
	Action Action `json:"action"`
	Min    int    `json:"min,omitempty"`
	Max    int    `json:"max,omitempty"`
}
