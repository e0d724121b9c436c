package workflow

import "github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"

// progressByStep maps the machine position to the client-facing stage
// and completion percentage reported on every result.
var progressByStep = map[int]models.Progress{
	models.StepIntake:       {CurrentStage: "date", Percentage: 0},
	models.StepDate:         {CurrentStage: "date", Percentage: 20},
	models.StepRoom:         {CurrentStage: "room", Percentage: 40},
	models.StepOffer:        {CurrentStage: "offer", Percentage: 60},
	models.StepNegotiation:  {CurrentStage: "deposit", Percentage: 70},
	models.StepTransition:   {CurrentStage: "deposit", Percentage: 80},
	models.StepConfirmation: {CurrentStage: "confirmed", Percentage: 100},
}

// ProgressFor returns the stage snapshot for a step, clamped into range.
func ProgressFor(step int) models.Progress {
	if p, ok := progressByStep[step]; ok {
		return p
	}
	return progressByStep[models.ClampStep(step)]
}
