package refit

import (
	"fmt"

	"homeship.ai/internal/sim/catalogs"
)

// Check is the outcome of a feasibility query. Code is one of the protocol E_* codes when
// OK is false.
type Check struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func pass() Check { return Check{OK: true} }

func fail(code, format string, args ...any) Check {
	return Check{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (c Check) String() string {
	if c.OK {
		return "ok"
	}
	return c.Code + ": " + c.Message
}

// CostOracle answers whether the ship can pay for a construction.
type CostOracle interface {
	CanAfford(cost []catalogs.Stack) bool
}

type unpriced struct{}

func (unpriced) CanAfford([]catalogs.Stack) bool { return true }

// Unpriced treats every construction as free.
var Unpriced CostOracle = unpriced{}
