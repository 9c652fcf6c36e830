package task

// Status is the lifecycle state of a task.
type Status int

const (
	NotStarted Status = iota
	Queued
	Running
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "Not Started"
	case Queued:
		return "Queued"
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}
