// Package locking defines the lock-key data model (LockableResource),
// the structured LockResult the Facade returns to callers, and the
// external LockService/LockTracker collaborators RTC drives.
package locking

import "fmt"

// Kind tags the four lockable entity families the spec recognizes. It
// replaces the teacher corpus's usual dispatch-on-runtime-type-of-resource
// pattern with a single tagged variant (spec §9, "Polymorphism over lock
// kinds"): equality and map-keying stay structural instead of going through
// an interface hierarchy.
type Kind int

const (
	Node Kind = iota
	Relationship
	GraphProps
	Index
)

func (k Kind) String() string {
	switch k {
	case Node:
		return "node"
	case Relationship:
		return "relationship"
	case GraphProps:
		return "graph"
	case Index:
		return "index"
	default:
		return "unknown"
	}
}

// Mode is the read/write mode a lock is acquired under.
type Mode int

const (
	Read Mode = iota
	Write
)

func (m Mode) String() string {
	if m == Write {
		return "write"
	}
	return "read"
}

// Resource is a value-equal lock key: {kind, payload}. Two distinct requests
// that name the same node id must produce equal Resources (spec §3), so
// Resource is a plain comparable struct usable directly as a map key.
type Resource struct {
	Kind Kind
	// ID holds the entity id for Node/Relationship resources; it is 0 and
	// unused for GraphProps and Index.
	ID uint64
	// IndexName/IndexKey hold the (index, key) pair for Index resources;
	// both are empty and unused for the other kinds.
	IndexName string
	IndexKey  string
}

// NodeResource builds the lock key for a node entity.
func NodeResource(id uint64) Resource { return Resource{Kind: Node, ID: id} }

// RelationshipResource builds the lock key for a relationship entity.
func RelationshipResource(id uint64) Resource { return Resource{Kind: Relationship, ID: id} }

// GraphResource builds the lock key for the whole-graph properties lock.
// There is exactly one such resource per graph, so it carries no payload.
func GraphResource() Resource { return Resource{Kind: GraphProps} }

// IndexResource builds the lock key for one (index, key) pair.
func IndexResource(index, key string) Resource {
	return Resource{Kind: Index, IndexName: index, IndexKey: key}
}

func (r Resource) String() string {
	switch r.Kind {
	case Node, Relationship:
		return fmt.Sprintf("%s(%d)", r.Kind, r.ID)
	case Index:
		return fmt.Sprintf("index(%s,%s)", r.IndexName, r.IndexKey)
	default:
		return r.Kind.String()
	}
}

// ResultStatus is the sum type discriminant for Result (spec §3: "LockResult.
// Sum type: OkLocked | NotLocked | DeadLocked{message}").
type ResultStatus int

const (
	OkLocked ResultStatus = iota
	NotLocked
	DeadLocked
)

// Result is the structured reply to a lock-acquisition request. Deadlock and
// not-lockable conditions are values here, never Go errors — the slave needs
// a reply it can pattern-match and retry on, not an exception crossing the
// API boundary (spec §4.3, §7).
type Result struct {
	Status  ResultStatus
	Message string // populated only when Status == DeadLocked
}

// Ok is the canonical successful result.
var Ok = Result{Status: OkLocked}

// NotLockedResult is the canonical "IllegalResource" result.
var NotLockedResult = Result{Status: NotLocked}

// Deadlocked builds a DeadLocked result carrying the detector's message.
func Deadlocked(message string) Result {
	return Result{Status: DeadLocked, Message: message}
}
