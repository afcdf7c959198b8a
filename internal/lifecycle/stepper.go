package lifecycle

import "github.com/hongminglow/approval-desk/internal/models"

// StepState is how a single stepper node renders.
type StepState int

const (
	StepFuture StepState = iota
	StepPast
	StepActive
)

func (s StepState) String() string {
	switch s {
	case StepPast:
		return "past"
	case StepActive:
		return "active"
	default:
		return "future"
	}
}

// Step is one node of the progress indicator.
type Step struct {
	Status models.Status
	Label  string
	State  StepState
	// Terminal marks the error-styled rejected node.
	Terminal bool
}

var forwardSteps = []Step{
	{Status: models.Draft, Label: "Draft"},
	{Status: models.PendingApproval, Label: "Pending"},
	{Status: models.Approved, Label: "Approved"},
	{Status: models.Executed, Label: "Executed"},
}

var rejectedStep = Step{Status: models.Rejected, Label: "Rejected", Terminal: true}

// rejectedIndex places REJECTED right after PENDING_APPROVAL.
const rejectedIndex = 2

// Steps renders current as an ordered stepper. A rejected transaction
// collapses to Draft, Pending, Rejected.
func Steps(current models.Status) []Step {
	display := forwardSteps
	if current == models.Rejected {
		display = []Step{forwardSteps[0], forwardSteps[1], rejectedStep}
	}
	index := stepIndex(current)

	out := make([]Step, len(display))
	for i, step := range display {
		switch {
		case step.Status == current:
			step.State = StepActive
		case i < index:
			step.State = StepPast
		default:
			step.State = StepFuture
		}
		out[i] = step
	}
	return out
}

func stepIndex(status models.Status) int {
	if status == models.Rejected {
		return rejectedIndex
	}
	for i, step := range forwardSteps {
		if step.Status == status {
			return i
		}
	}
	return -1
}
