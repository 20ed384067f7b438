// Package protocol implements the binary frame the service speaks.
//
// One frame per request, every field a 16-bit unsigned integer in network
// byte order (big-endian — the frame layout predates this port and left the
// byte order platform-defined; fixing it to network order is what makes the
// format interoperable):
//
//	start_id (2B) | target_id (2B) | edge_count N (2B)
//	N times: src_id (2B) | dest_id (2B) | cost (2B)
//
// Ids and costs are in [1,65535]; 0 never appears as a legal field value.
package protocol

import (
	"encoding/binary"
	"io"

	"github.com/CrashenX/dijkstra-server/domain"
	"github.com/CrashenX/dijkstra-server/pkg/datastructure"
	"github.com/CrashenX/dijkstra-server/pkg/engine/shortestpath"
)

type Request struct {
	Graph  *datastructure.Graph
	Start  uint16
	Target uint16
}

// DecodeRequest reads exactly one frame. A stream that ends before the header
// or any of the N edge records is complete fails with ErrIncompleteInput.
// maxEdges caps the declared edge count before any edge is read, so a hostile
// header cannot drive allocation; pass 0 for no cap beyond the uint16 field.
func DecodeRequest(r io.Reader, maxEdges int) (Request, error) {
	var req Request

	start, err := readU16(r, "start id")
	if err != nil {
		return req, err
	}
	target, err := readU16(r, "target id")
	if err != nil {
		return req, err
	}
	n, err := readU16(r, "edge count")
	if err != nil {
		return req, err
	}
	if maxEdges > 0 && int(n) > maxEdges {
		return req, domain.WrapErrorf(nil, domain.ErrBadParamInput,
			"frame declares %d edges, limit is %d", n, maxEdges)
	}

	g := datastructure.NewGraph()
	for i := uint16(0); i < n; i++ {
		var e [3]uint16 // src, dest, cost
		for j, field := range [3]string{"source id", "dest id", "cost"} {
			e[j], err = readU16(r, field)
			if err != nil {
				return req, err
			}
		}
		g.AddEdge(e[0], e[1], e[2])
	}

	req.Start = start
	req.Target = target
	req.Graph = g
	return req, nil
}

func readU16(r io.Reader, field string) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, domain.WrapErrorf(err, domain.ErrIncompleteInput,
			"short read on %s", field)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// EncodeResponse renders the single text line the client gets back. The
// original service wrote strlen+1 bytes, i.e. a trailing NUL after the line
// break; nulTerminated keeps that for byte-exact compatibility.
func EncodeResponse(res shortestpath.Result, nulTerminated bool) []byte {
	s := res.String() + "\n"
	if nulTerminated {
		s += "\x00"
	}
	return []byte(s)
}
