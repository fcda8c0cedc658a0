package domain

import "fmt"

// Action is the direction of a swap relative to the campaign token.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// ParseAction accepts either case.
func ParseAction(s string) (Action, error) {
	switch s {
	case "BUY", "buy":
		return ActionBuy, nil
	case "SELL", "sell":
		return ActionSell, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

func (a Action) String() string { return string(a) }
