package archive

import (
	"database/sql"

	"github.com/li1/pagstream/pag"
)

// nullableInt converts an optional int payload field into a value
// database/sql's Exec accepts directly (driver.Valuer args must be one of
// a fixed set of types; *int is not among them).
func nullableInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return int64(*p)
}

// scanOptionalInt is the inverse of nullableInt for read paths.
func scanOptionalInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// edgeRow is the flattened column representation of a PagEdge written to
// and read from an archive sink's backing table.
type edgeRow struct {
	srcT, dstT         int64
	srcWid, dstWid     int
	kind               string
	oid, send, recv    *int
	length             *int
}

func toRow(e pag.PagEdge) edgeRow {
	et := e.EdgeType
	return edgeRow{
		srcT:   int64(e.Src.T),
		dstT:   int64(e.Dst.T),
		srcWid: int(e.Src.Wid),
		dstWid: int(e.Dst.Wid),
		kind:   et.Kind.String(),
		oid:    et.OID,
		send:   et.Send,
		recv:   et.Recv,
		length: et.Length,
	}
}
