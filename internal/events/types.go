package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeDeviceDiscovery uint32 = iota + 1
	TypeSelectionRejected
	TypeCaptureCompleted
	TypeCaptureInvocationFailed
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// DeviceDiscoveryEvent is published for every record the catalog lists.
type DeviceDiscoveryEvent struct {
	Action     string `json:"action" yaml:"action"`
	Index      int    `json:"index" yaml:"index"`
	Label      string `json:"label" yaml:"label"`
	Identifier string `json:"identifier" yaml:"identifier"`
	Timestamp  string `json:"timestamp" yaml:"timestamp"`
}

// Type returns the event type identifier for DeviceDiscoveryEvent.
func (e DeviceDiscoveryEvent) Type() uint32 { return TypeDeviceDiscovery }

// SelectionRejectedEvent is published when the operator enters an invalid choice.
type SelectionRejectedEvent struct {
	Input     string `json:"input" yaml:"input"`
	Reason    string `json:"reason" yaml:"reason"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// Type returns the event type identifier for SelectionRejectedEvent.
func (e SelectionRejectedEvent) Type() uint32 { return TypeSelectionRejected }

// CaptureCompletedEvent is published when the provider returned a result,
// whether or not the capture succeeded.
type CaptureCompletedEvent struct {
	CaptureID     string        `json:"capture_id" yaml:"capture_id"`
	Provider      string        `json:"provider" yaml:"provider"`
	Identifier    string        `json:"identifier" yaml:"identifier"`
	ResultCode    int           `json:"result_code" yaml:"result_code"`
	ErrorMessage  string        `json:"error_message" yaml:"error_message"`
	ArtifactFound bool          `json:"artifact_found" yaml:"artifact_found"`
	Artifacts     []string      `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	Timestamp     string        `json:"timestamp" yaml:"timestamp"`
}

// Type returns the event type identifier for CaptureCompletedEvent.
func (e CaptureCompletedEvent) Type() uint32 { return TypeCaptureCompleted }

// Succeeded reports whether the provider returned zero and an artifact was found.
func (e CaptureCompletedEvent) Succeeded() bool {
	return e.ResultCode == 0 && e.ArtifactFound
}

// CaptureInvocationFailedEvent is published when the provider could not be
// called or did not return.
type CaptureInvocationFailedEvent struct {
	CaptureID  string        `json:"capture_id" yaml:"capture_id"`
	Provider   string        `json:"provider" yaml:"provider"`
	Identifier string        `json:"identifier" yaml:"identifier"`
	Error      string        `json:"error" yaml:"error"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Timestamp  string        `json:"timestamp" yaml:"timestamp"`
}

// Type returns the event type identifier for CaptureInvocationFailedEvent.
func (e CaptureInvocationFailedEvent) Type() uint32 { return TypeCaptureInvocationFailed }
