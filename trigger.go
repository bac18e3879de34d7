package otc

// TriggerMatchType is what to match a channel on.
type TriggerMatchType int

const (
	TriggerZero TriggerMatchType = 1 + iota
	TriggerOne
	TriggerRising
	TriggerFalling
	TriggerEdge
	TriggerOver
	TriggerUnder
)

// TriggerMatch binds a channel to a match kind and, for the analog
// kinds, a level.
type TriggerMatch struct {
	Channel *Channel
	Match   TriggerMatchType
	Value   float64
}

// TriggerStage is one ordered stage of matches.
type TriggerStage struct {
	Stage   int
	Matches []*TriggerMatch
}

// Trigger is a named ordered list of stages.
type Trigger struct {
	Name   string
	Stages []*TriggerStage
}

// NewTrigger creates an empty trigger.
func NewTrigger(name string) *Trigger {
	return &Trigger{Name: name}
}

// AddStage appends a new empty stage.
func (t *Trigger) AddStage() *TriggerStage {
	st := &TriggerStage{Stage: len(t.Stages)}
	t.Stages = append(t.Stages, st)
	return st
}

// AddMatch appends a match to the stage. Logic channels accept only
// the edge and level kinds; analog channels only Rising, Falling, Over
// and Under.
func (st *TriggerStage) AddMatch(ch *Channel, match TriggerMatchType, value float64) error {
	if ch == nil {
		return ErrArg
	}
	switch ch.Type {
	case ChannelLogic:
		switch match {
		case TriggerZero, TriggerOne, TriggerRising, TriggerFalling, TriggerEdge:
		default:
			return ErrArg
		}
	case ChannelAnalog:
		switch match {
		case TriggerRising, TriggerFalling, TriggerOver, TriggerUnder:
		default:
			return ErrArg
		}
	default:
		return ErrArg
	}
	st.Matches = append(st.Matches, &TriggerMatch{Channel: ch, Match: match, Value: value})
	return nil
}

// verifyTrigger checks the trigger once before acquisition starts.
func verifyTrigger(t *Trigger) error {
	if t == nil {
		return nil
	}
	if len(t.Stages) == 0 {
		logErr("No trigger stages defined")
		return ErrArg
	}
	for _, st := range t.Stages {
		if len(st.Matches) == 0 {
			logErr("Stage %d has no matches", st.Stage)
			return ErrArg
		}
		for _, m := range st.Matches {
			if m.Channel == nil {
				logErr("Stage %d match has no channel", st.Stage)
				return ErrArg
			}
		}
	}
	return nil
}
