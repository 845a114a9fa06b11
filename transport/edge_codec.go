package transport

import (
	"encoding/json"
	"time"

	"github.com/li1/pagstream/pag"
)

// wireEdge is the JSON representation of one PagEdge, used by the driver's
// output writer (spec §6: one JSON object per line, trailing comma).
type wireEdge struct {
	SrcT   time.Duration `json:"src_t"`
	SrcWid int           `json:"src_wid"`
	DstT   time.Duration `json:"dst_t"`
	DstWid int           `json:"dst_wid"`
	Kind   string        `json:"kind"`
	OID    *int          `json:"oid,omitempty"`
	Send   *int          `json:"send,omitempty"`
	Recv   *int          `json:"recv,omitempty"`
	Length *int          `json:"length,omitempty"`
}

// EncodeEdge renders a PagEdge as the driver's output line format.
func EncodeEdge(e pag.PagEdge) ([]byte, error) {
	w := wireEdge{
		SrcT: e.Src.T, SrcWid: int(e.Src.Wid),
		DstT: e.Dst.T, DstWid: int(e.Dst.Wid),
		Kind:   e.EdgeType.Kind.String(),
		OID:    e.EdgeType.OID,
		Send:   e.EdgeType.Send,
		Recv:   e.EdgeType.Recv,
		Length: e.EdgeType.Length,
	}
	return json.Marshal(w)
}

// EncodeEvent exposes the raw-event encoder for the driver's --trace tap.
func EncodeEvent(e pag.Event) ([]byte, error) { return encodeEvent(e) }
