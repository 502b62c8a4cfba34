package trace

import "time"

// Kind separates span boundaries from liveness ticks.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindHeartbeat
)

var kindNames = [...]string{KindSpanBegin: "begin", KindSpanEnd: "end", KindHeartbeat: "heartbeat"}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope orders events from coarse to fine. Each Level admits the scopes up
// to some depth.
type Scope uint8

const (
	ScopeDriver    Scope = iota + 1 // a build or one CLI command
	ScopeModule                     // one source file
	ScopePass                       // one compiler phase over a file
	ScopeCondition                  // one verification condition in the solver
)

var scopeNames = [...]string{ScopeDriver: "driver", ScopeModule: "module", ScopePass: "pass", ScopeCondition: "condition"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one record handed to a Tracer. Seq is assigned by the tracer
// that stores it.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	GID      uint64 // goroutine that emitted the event
	Name     string // "build", "sema", "Calc.Divide"
	Detail   string
	Extra    map[string]string
}
