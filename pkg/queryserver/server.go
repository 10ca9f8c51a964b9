// Package queryserver runs pkg/wire's Lookup protocol over TCP, generalized
// from the teacher's TCPServer (which dispatched Put/Get/Del/Scan against a
// mutable core.HybridStore) down to the one read-only operation a built
// Index serves (SPEC_FULL §6.4).
package queryserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net"

	"airindex/pkg/common"
	"airindex/pkg/wire"
)

// Getter is satisfied by both pkg/index.Reader and pkg/btreeindex.Reader,
// so the daemon can serve either backend.
type Getter interface {
	Get(ctx context.Context, key common.Key) ([]byte, error)
}

type Server struct {
	getter   Getter
	notFound error // the Getter's not-found sentinel, compared with errors.Is
}

func New(getter Getter, notFound error) *Server {
	return &Server{getter: getter, notFound: notFound}
}

// Start listens on addr and serves connections until Accept fails, the same
// accept-loop shape as the teacher's TCPServer.Start.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("[queryserver] listening on %s (wire protocol)", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("[queryserver] accept error: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	ctx := context.Background()

	for {
		req, err := wire.DecodeRequest(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("[queryserver] decode error: %v", err)
			}
			return
		}

		if req.Op != wire.OpLookup {
			wire.EncodeResponse(conn, wire.Response{Status: wire.StatusErr, Value: []byte("unsupported op")})
			continue
		}

		val, err := s.getter.Get(ctx, req.Key)
		switch {
		case err == nil:
			wire.EncodeResponse(conn, wire.Response{Status: wire.StatusOK, Value: val})
		case s.notFound != nil && errors.Is(err, s.notFound):
			wire.EncodeResponse(conn, wire.Response{Status: wire.StatusNotFound})
		default:
			wire.EncodeResponse(conn, wire.Response{Status: wire.StatusErr, Value: []byte(err.Error())})
		}
	}
}
