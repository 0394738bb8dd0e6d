package wizard

import "fmt"

type Step int

const (
	StepIntro Step = iota
	StepAttorney
	StepSubject
	StepScheduling
	StepReview
)

const (
	FirstStep = StepIntro
	LastStep  = StepReview
)

func (s Step) String() string {
	switch s {
	case StepIntro:
		return "Notice"
	case StepAttorney:
		return "Attorney Details"
	case StepSubject:
		return "PIC Information"
	case StepScheduling:
		return "Scheduling"
	case StepReview:
		return "Review & Submit"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}
