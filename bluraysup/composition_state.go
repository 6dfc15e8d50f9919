package bluraysup

type CompositionState uint32

const (
	CompositionStateNormal CompositionState = iota
	CompositionStateAcquPoint
	CompositionStateEpochStart
	CompositionStateEpochContinue
	CompositionStateInvalid
)

func getCompositionState(stateType byte) CompositionState {
	switch stateType {
	case 0x00:
		return CompositionStateNormal
	case 0x40:
		return CompositionStateAcquPoint
	case 0x80:
		return CompositionStateEpochStart
	case 0xC0:
		return CompositionStateEpochContinue
	default:
		return CompositionStateInvalid
	}
}

func (c CompositionState) String() string {
	switch c {
	case CompositionStateNormal:
		return "normal"
	case CompositionStateAcquPoint:
		return "acquisition point"
	case CompositionStateEpochStart:
		return "epoch start"
	case CompositionStateEpochContinue:
		return "epoch continue"
	default:
		return "invalid"
	}
}
