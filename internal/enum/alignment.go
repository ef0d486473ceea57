package enum

import "fmt"

// Alignment is the DKIM/SPF alignment outcome of a report record. Codes are
// ordered from worst to best so that MIN() over a report's records yields the
// worst case.
type Alignment int

const (
	AlignmentFail    Alignment = 0
	AlignmentUnknown Alignment = 1
	AlignmentPass    Alignment = 2
)

func (a Alignment) String() string {
	switch a {
	case AlignmentFail:
		return "fail"
	case AlignmentUnknown:
		return "unknown"
	case AlignmentPass:
		return "pass"
	}
	return fmt.Sprintf("alignment(%d)", int(a))
}

func ParseAlignment(label string) (Alignment, error) {
	switch label {
	case "fail":
		return AlignmentFail, nil
	case "unknown":
		return AlignmentUnknown, nil
	case "pass":
		return AlignmentPass, nil
	}
	return 0, fmt.Errorf("unknown alignment label %q", label)
}
