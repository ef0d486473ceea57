package enum

import "fmt"

// Disposition is the policy action the receiving system applied. Reject is
// the lowest code so that MIN() over a report's records yields the harshest
// action taken.
type Disposition int

const (
	DispositionReject     Disposition = 0
	DispositionQuarantine Disposition = 1
	DispositionNone       Disposition = 2
)

func (d Disposition) String() string {
	switch d {
	case DispositionReject:
		return "reject"
	case DispositionQuarantine:
		return "quarantine"
	case DispositionNone:
		return "none"
	}
	return fmt.Sprintf("disposition(%d)", int(d))
}

func ParseDisposition(label string) (Disposition, error) {
	switch label {
	case "reject":
		return DispositionReject, nil
	case "quarantine":
		return DispositionQuarantine, nil
	case "none":
		return DispositionNone, nil
	}
	return 0, fmt.Errorf("unknown disposition label %q", label)
}
