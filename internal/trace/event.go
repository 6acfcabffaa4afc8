package trace

import "time"

// Kind is the kind of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	// KindPoint is an instant event such as an exhausted budget.
	KindPoint
	// KindHeartbeat is a liveness tick.
	KindHeartbeat
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	ScopeRun Scope = iota + 1
	ScopeFile
	ScopePass
	ScopeQuery
)

var scopeNames = [...]string{
	ScopeRun:   "run",
	ScopeFile:  "file",
	ScopePass:  "pass",
	ScopeQuery: "query",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // global, monotonic
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	GID      uint64
	Name     string // e.g. "is_subtype", "lower", "file:unions.toml"
	Detail   string
	Extra    map[string]string
}
