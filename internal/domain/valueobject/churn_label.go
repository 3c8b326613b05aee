package valueobject

import "fmt"

// ChurnLabel is the binary class predicted by the classifier.
type ChurnLabel int

const (
	LabelStay  ChurnLabel = 0
	LabelChurn ChurnLabel = 1
)

// ChurnLabelFromInt validates a raw classifier label.
func ChurnLabelFromInt(i int) (ChurnLabel, error) {
	switch i {
	case 0:
		return LabelStay, nil
	case 1:
		return LabelChurn, nil
	default:
		return 0, fmt.Errorf("invalid churn label: %d", i)
	}
}

// ChurnLabelFromString parses the wire representation ("STAY" or "CHURN").
func ChurnLabelFromString(s string) (ChurnLabel, error) {
	switch s {
	case "STAY":
		return LabelStay, nil
	case "CHURN":
		return LabelChurn, nil
	default:
		return 0, fmt.Errorf("invalid churn label: %s", s)
	}
}

// String returns the wire representation.
func (l ChurnLabel) String() string {
	if l == LabelChurn {
		return "CHURN"
	}
	return "STAY"
}

// Int returns the numeric class.
func (l ChurnLabel) Int() int {
	return int(l)
}
