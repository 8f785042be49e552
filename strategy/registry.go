// Package strategy holds the built-in trading strategies and the factory
// that builds one from a name and parameter map. Strategies here are pure:
// decisions depend only on the bars handed to them, never on wall-clock time
// or external state.
package strategy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tradeforge/quantback/backtest"
)

// Params carries strategy parameters parsed from config or CLI flags.
type Params map[string]string

// Int returns the named parameter as an int, or def when absent.
func (p Params) Int(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", key, err)
	}
	return v, nil
}

// New builds a strategy by name. Unknown names list the supported set in
// the error.
func New(name string, params Params) (backtest.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "buyhold", "buy-hold", "buy-and-hold":
		return BuyHold{}, nil

	case "sma-cross", "smacross":
		fast, err := params.Int("fast", 20)
		if err != nil {
			return nil, err
		}
		slow, err := params.Int("slow", 50)
		if err != nil {
			return nil, err
		}
		return NewSMACross(fast, slow)

	case "ema-cross", "emacross":
		fast, err := params.Int("fast", 12)
		if err != nil {
			return nil, err
		}
		slow, err := params.Int("slow", 26)
		if err != nil {
			return nil, err
		}
		return NewEMACross(fast, slow)

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
}

// Names lists the supported strategy names in sorted order.
func Names() []string {
	names := []string{"buyhold", "sma-cross", "ema-cross"}
	sort.Strings(names)
	return names
}
