// Command simpledbd serves the embedded simpledb façade over gRPC (spec
// §4.N, §6), following the teacher's cmd/server/main.go pattern: a
// manually registered grpc.ServiceDesc plus a JSON wire codec so the
// service needs no protoc build step.
package main

import (
	"flag"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/flowlight0/simpledb-go/internal/rpc"
)

var (
	flagDir  = flag.String("dir", "./simpledb-data", "database directory to open or create")
	flagGRPC = flag.String("grpc", ":9090", "gRPC listen address")
)

func main() {
	flag.Parse()

	srv, err := rpc.NewServer(*flagDir)
	if err != nil {
		log.Fatalf("open %s: %v", *flagDir, err)
	}
	defer srv.Close()

	encoding.RegisterCodec(rpc.Codec())

	lis, err := net.Listen("tcp", *flagGRPC)
	if err != nil {
		log.Fatalf("gRPC listen error: %v", err)
	}
	gs := grpc.NewServer()
	rpc.RegisterDBServer(gs, srv)
	log.Printf("simpledbd listening on %s (db=%s)", *flagGRPC, *flagDir)
	if err := gs.Serve(lis); err != nil {
		log.Fatalf("gRPC serve error: %v", err)
	}
}
