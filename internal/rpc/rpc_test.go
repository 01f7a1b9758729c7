package rpc

import (
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

func startTestServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	dir := t.TempDir()
	srv, err := NewServer(dir)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	encoding.RegisterCodec(Codec())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	gs := grpc.NewServer()
	RegisterDBServer(gs, srv)
	go gs.Serve(lis)

	return lis.Addr().String(), func() {
		gs.Stop()
		srv.Close()
	}
}

func TestClientExecAndQueryRoundTrip(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if _, err := c.Exec("create table t (id i32, name varchar(10))"); err != nil {
		t.Fatalf("Exec create: %v", err)
	}
	if n, err := c.Exec("insert into t (id, name) values (1, 'amy')"); err != nil || n != 1 {
		t.Fatalf("Exec insert: n=%d err=%v", n, err)
	}

	cols, rows, err := c.Query("select id, name from t")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %v", cols)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %v", rows)
	}

	if err := c.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestClientExplain(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if _, err := c.Exec("create table t (id i32)"); err != nil {
		t.Fatalf("Exec create: %v", err)
	}
	plan, err := c.Explain("select id from t")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if plan == "" {
		t.Fatalf("expected non-empty plan")
	}
}
