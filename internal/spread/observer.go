package spread

// Observer receives engine events. Calls happen on the goroutine that drives
// the engine and must not block.
type Observer interface {
	FanProgress(progress float64)
	CardSelected(cardID string)
	CardRevealed(cardID string, order int)
	PhaseChanged(phase Phase)
}

// ObserverFuncs adapts optional functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnFanProgress  func(progress float64)
	OnCardSelected func(cardID string)
	OnCardRevealed func(cardID string, order int)
	OnPhaseChanged func(phase Phase)
}

func (o ObserverFuncs) FanProgress(progress float64) {
	if o.OnFanProgress != nil {
		o.OnFanProgress(progress)
	}
}

func (o ObserverFuncs) CardSelected(cardID string) {
	if o.OnCardSelected != nil {
		o.OnCardSelected(cardID)
	}
}

func (o ObserverFuncs) CardRevealed(cardID string, order int) {
	if o.OnCardRevealed != nil {
		o.OnCardRevealed(cardID, order)
	}
}

func (o ObserverFuncs) PhaseChanged(phase Phase) {
	if o.OnPhaseChanged != nil {
		o.OnPhaseChanged(phase)
	}
}
