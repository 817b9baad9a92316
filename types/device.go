package types

import "time"

// Phase is where a device currently is in the farm lifecycle.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhasePreparing Phase = "preparing"
	PhaseRunning   Phase = "running"
	PhaseFailed    Phase = "failed"
	PhaseStopped   Phase = "stopped"
)

// DeviceStatus is the live view of one device task.
type DeviceStatus struct {
	Serial    string    `json:"serial"`
	Port      int       `json:"port"`
	Phase     Phase     `json:"phase"`
	Jobs      int       `json:"jobs"`
	Completed int       `json:"completed"`
	LastError string    `json:"lastError,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConsoleLine is the last message rendered for a device row. Serial is empty
// for appended lines that do not belong to a device.
type ConsoleLine struct {
	Serial  string    `json:"serial,omitempty"`
	Row     int       `json:"row"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}
