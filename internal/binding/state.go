package binding

type State int32

const (
	StateIdle State = iota
	StateExternalUpdate
	StateUserEdit
	StateReconciling
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateExternalUpdate:
		return "external_update"
	case StateUserEdit:
		return "user_edit"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}
