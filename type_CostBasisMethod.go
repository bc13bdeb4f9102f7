package papertrade

import "fmt"

// CostBasisMethod defines how the invested amount of a holding is computed.
type CostBasisMethod int

const (
	// AverageCost values every held unit at the mean price of all the buys
	// ever made for the symbol. Sells never change it.
	AverageCost CostBasisMethod = iota
	// FIFO (First-In, First-Out) assumes the first units purchased are the
	// first ones sold; the held units are valued at the cost of the remaining lots.
	FIFO
)

func (m CostBasisMethod) String() string {
	switch m {
	case AverageCost:
		return "average"
	case FIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// ParseCostBasisMethod parses a string into a CostBasisMethod.
func ParseCostBasisMethod(s string) (CostBasisMethod, error) {
	switch s {
	case "average", "":
		return AverageCost, nil
	case "fifo":
		return FIFO, nil
	default:
		return 0, fmt.Errorf("unknown cost basis method: %q", s)
	}
}

// Set implements flag.Value.
func (m *CostBasisMethod) Set(s string) error {
	v, err := ParseCostBasisMethod(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m CostBasisMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *CostBasisMethod) UnmarshalText(b []byte) error { return m.Set(string(b)) }
