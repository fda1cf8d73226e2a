package installer

import "fmt"

// EventKind distinguishes progress lines from the terminal event.
type EventKind int

const (
	// EventLog carries one progress line.
	EventLog EventKind = iota
	// EventDone is sent exactly once per run, last.
	EventDone
)

// Level marks how a progress line should be presented.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Event is one entry of a run's progress stream.
type Event struct {
	Kind    EventKind
	Level   Level
	Message string

	// Success and Report are set on EventDone only.
	Success bool
	Report  *RunReport
}

// emitter formats progress lines and forwards them to the caller.
type emitter struct {
	emit func(Event)
}

func (e emitter) send(ev Event) {
	if e.emit != nil {
		e.emit(ev)
	}
}

func (e emitter) log(level Level, format string, args ...interface{}) {
	e.send(Event{Kind: EventLog, Level: level, Message: fmt.Sprintf(format, args...)})
}

func (e emitter) info(format string, args ...interface{}) {
	e.log(LevelInfo, format, args...)
}

func (e emitter) success(format string, args ...interface{}) {
	e.log(LevelSuccess, format, args...)
}

func (e emitter) error(format string, args ...interface{}) {
	e.log(LevelError, format, args...)
}

func (e emitter) done(report *RunReport) {
	e.send(Event{Kind: EventDone, Success: report.Success, Report: report})
}
