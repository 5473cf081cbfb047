package domain

// Outcome is the presentation shape of a prediction call: either a
// successful Prediction or a failure kind with a human-readable message.
// A failed outcome never carries segments.
type Outcome struct {
	Success bool `json:"success"`
	*Prediction
	FormattedTime string    `json:"formatted_time,omitempty"`
	ErrorKind     ErrorKind `json:"error_kind,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// NewOutcome folds the result of a prediction call into an Outcome.
func NewOutcome(p *Prediction, err error) Outcome {
	if err != nil {
		return Outcome{ErrorKind: KindOf(err), Error: err.Error()}
	}
	if p == nil {
		return Outcome{ErrorKind: KindPredictionFailure, Error: "Prediction failed"}
	}
	return Outcome{
		Success:       true,
		Prediction:    p,
		FormattedTime: FormatDuration(p.TotalTimeHours),
	}
}
