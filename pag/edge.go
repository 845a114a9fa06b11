package pag

// EdgeKind tags the variant carried by an EdgeType.
type EdgeKind int

const (
	// EdgeProcessing marks an interval where the operator actively did work.
	EdgeProcessing EdgeKind = iota
	// EdgeSpinning marks a Schedule.Start immediately followed by Schedule.Stop.
	EdgeSpinning
	// EdgeWaiting marks an interval idle on external input.
	EdgeWaiting
	// EdgeBusy marks an interval idle but preparing the next activity.
	EdgeBusy
	// EdgeProgress marks a cross-worker control-message edge.
	EdgeProgress
	// EdgeData marks a cross-worker data-message edge.
	EdgeData
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeProcessing:
		return "Processing"
	case EdgeSpinning:
		return "Spinning"
	case EdgeWaiting:
		return "Waiting"
	case EdgeBusy:
		return "Busy"
	case EdgeProgress:
		return "Progress"
	case EdgeData:
		return "Data"
	default:
		return "Unknown"
	}
}

// EdgeType classifies the activity an edge represents.
//
// Equal implements the relaxed, content-lax equality the Trim reducer needs:
// two Processing values are equal iff their operator id matches (send/recv
// counts are mergeable payload, not identity); two Data values are equal
// regardless of length; Spinning values are equal iff their operator id
// matches; all other kinds match structurally (Kind alone). Do not compare
// EdgeType with == — use Equal.
type EdgeType struct {
	Kind EdgeKind

	// OID is the operator id. Meaningful for Processing (optional — nil when
	// the operator id is not yet known) and Spinning (always set).
	OID *int

	// Send and Recv are the mergeable byte/tuple counts for Processing edges.
	Send *int
	Recv *int

	// Length is the mergeable payload size for Data edges.
	Length *int
}

// Equal reports whether two EdgeType values belong to the same merge class,
// per the relaxed-equality rule documented on EdgeType.
func (a EdgeType) Equal(b EdgeType) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case EdgeProcessing, EdgeSpinning:
		return intPtrEqual(a.OID, b.OID)
	default:
		// Waiting, Busy, Progress carry no identity payload; Data's length
		// is mergeable, not identity.
		return true
	}
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtr(v int) *int { return &v }

// addOptional sums two optional ints, treating nil as the additive identity.
func addOptional(a, b *int) *int {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		v := *b
		return &v
	case b == nil:
		v := *a
		return &v
	default:
		sum := *a + *b
		return &sum
	}
}

// Processing builds a Processing EdgeType.
func Processing(oid, send, recv *int) EdgeType {
	return EdgeType{Kind: EdgeProcessing, OID: oid, Send: send, Recv: recv}
}

// Spinning builds a Spinning EdgeType for the given operator id.
func Spinning(oid int) EdgeType {
	return EdgeType{Kind: EdgeSpinning, OID: intPtr(oid)}
}

// Waiting builds a Waiting EdgeType.
func Waiting() EdgeType { return EdgeType{Kind: EdgeWaiting} }

// Busy builds a Busy EdgeType.
func Busy() EdgeType { return EdgeType{Kind: EdgeBusy} }

// ProgressEdge builds a Progress EdgeType (named to avoid colliding with the
// Progress event payload type).
func ProgressEdge() EdgeType { return EdgeType{Kind: EdgeProgress} }

// Data builds a Data EdgeType carrying a message length.
func Data(length int) EdgeType { return EdgeType{Kind: EdgeData, Length: intPtr(length)} }

// PagEdge is a single edge in the activity graph: a typed interval between
// two PagNodes.
type PagEdge struct {
	Src      PagNode
	Dst      PagNode
	EdgeType EdgeType
}

// mergePayload combines two same-class (per EdgeType.Equal) edge types'
// mergeable payloads, per TrimLocal's merge rules (spec §4.C).
func mergePayload(first, next EdgeType) EdgeType {
	switch first.Kind {
	case EdgeProcessing:
		return Processing(first.OID, addOptional(first.Send, next.Send), addOptional(first.Recv, next.Recv))
	case EdgeData:
		return Data(*first.Length + *next.Length)
	default:
		// Spinning, Waiting, Busy, Progress: no mergeable payload beyond Kind.
		return first
	}
}
