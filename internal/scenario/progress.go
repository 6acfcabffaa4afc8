package scenario

import "time"

// Stage names a phase of running one scenario file.
type Stage string

const (
	// StageLoad decodes the TOML file.
	StageLoad Stage = "load"
	// StageLower builds the declared types in the interner.
	StageLower Stage = "lower"
	// StageRun evaluates the cases.
	StageRun Stage = "run"
)

// Status describes progress within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the stage is running.
	StatusWorking Status = "working"
	// StatusDone indicates the file finished and every case passed.
	StatusDone Status = "done"
	// StatusFailed indicates the file finished with failing cases.
	StatusFailed Status = "failed"
	// StatusError indicates the file could not be loaded or lowered.
	StatusError Status = "error"
)

// Event is a progress notification for one file. File is empty for
// batch-level events.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(evt)
}
