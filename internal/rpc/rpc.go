// Package rpc exposes the embedded simpledb façade (component L) over
// gRPC using a hand-registered grpc.ServiceDesc and a JSON wire codec,
// the same no-protobuf-toolchain pattern as the teacher's
// cmd/server/main.go (registerTinySQLServer/jsonCodec/
// _TinySQL_Exec_Handler). It is handle-based (spec §6): Connect/Prepare
// return opaque string handles the client threads back into later calls,
// since a gRPC call carries no implicit connection state of its own.
package rpc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/flowlight0/simpledb-go"
	"github.com/flowlight0/simpledb-go/internal/dbconfig"
)

// jsonCodec replaces gRPC's default protobuf codec with plain JSON, so
// the wire messages below need no .proto/protoc step.
type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)       { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error  { return json.Unmarshal(data, v) }

// Codec returns the gRPC codec implementation this package's server and
// client must both use (via encoding.RegisterCodec and grpc.ForceCodec
// respectively).
func Codec() encoding.Codec { return jsonCodec{} }

// ConnectRequest opens a connection against the server's already-open
// database directory.
type ConnectRequest struct{}

// ConnectResponse carries the opaque connection handle for later calls.
type ConnectResponse struct {
	ConnHandle string `json:"conn_handle"`
	Error      string `json:"error,omitempty"`
}

// ExecRequest runs one DML/DDL statement on an existing connection.
type ExecRequest struct {
	ConnHandle string `json:"conn_handle"`
	SQL        string `json:"sql"`
}

// ExecResponse reports the affected row count.
type ExecResponse struct {
	RowsAffected int    `json:"rows_affected"`
	Error        string `json:"error,omitempty"`
}

// QueryRequest runs one SELECT on an existing connection, returning the
// fully materialised result (spec §6: the wire protocol is handle-based
// for connections, not for in-flight result sets — a Query call drains
// the ResultSet server-side before responding).
type QueryRequest struct {
	ConnHandle string `json:"conn_handle"`
	SQL        string `json:"sql"`
}

// QueryResponse carries column metadata and every row, each row encoded
// as a JSON object keyed by column name.
type QueryResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Error   string           `json:"error,omitempty"`
}

// ExplainRequest asks the server to render a SELECT's operator tree
// without running it.
type ExplainRequest struct {
	ConnHandle string `json:"conn_handle"`
	SQL        string `json:"sql"`
}

// ExplainResponse carries the rendered plan tree.
type ExplainResponse struct {
	Plan  string `json:"plan"`
	Error string `json:"error,omitempty"`
}

// CommitRequest/RollbackRequest/CloseRequest each name the connection to
// act on.
type CommitRequest struct{ ConnHandle string `json:"conn_handle"` }
type RollbackRequest struct{ ConnHandle string `json:"conn_handle"` }
type CloseRequest struct{ ConnHandle string `json:"conn_handle"` }

// StatusResponse is a no-argument liveness/ack response shared by
// Commit/Rollback/Close.
type StatusResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DBService is the RPC surface a Server implements and a grpc.Server
// registers: Connect/Exec/Query/Explain/Commit/Rollback/Close folds the
// spec's ConnectionService/StatementService/ResultSetService together
// into one handle-keyed service, since every method already identifies
// its connection explicitly.
type DBService interface {
	Connect(context.Context, *ConnectRequest) (*ConnectResponse, error)
	Exec(context.Context, *ExecRequest) (*ExecResponse, error)
	Query(context.Context, *QueryRequest) (*QueryResponse, error)
	Explain(context.Context, *ExplainRequest) (*ExplainResponse, error)
	Commit(context.Context, *CommitRequest) (*StatusResponse, error)
	Rollback(context.Context, *RollbackRequest) (*StatusResponse, error)
	Close(context.Context, *CloseRequest) (*StatusResponse, error)
}

// RegisterDBServer registers srv on s using a manually built
// grpc.ServiceDesc, the teacher's registerTinySQLServer pattern.
func RegisterDBServer(s *grpc.Server, srv DBService) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "simpledb.DB",
		HandlerType: (*DBService)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Connect", Handler: connectHandler},
			{MethodName: "Exec", Handler: execHandler},
			{MethodName: "Query", Handler: queryHandler},
			{MethodName: "Explain", Handler: explainHandler},
			{MethodName: "Commit", Handler: commitHandler},
			{MethodName: "Rollback", Handler: rollbackHandler},
			{MethodName: "Close", Handler: closeHandler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "simpledb",
	}, srv)
}

func connectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ConnectRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DBService).Connect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/simpledb.DB/Connect"}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(DBService).Connect(ctx, req.(*ConnectRequest)) }
	return interceptor(ctx, in, info, handler)
}

func execHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DBService).Exec(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/simpledb.DB/Exec"}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(DBService).Exec(ctx, req.(*ExecRequest)) }
	return interceptor(ctx, in, info, handler)
}

func queryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(QueryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DBService).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/simpledb.DB/Query"}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(DBService).Query(ctx, req.(*QueryRequest)) }
	return interceptor(ctx, in, info, handler)
}

func explainHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExplainRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DBService).Explain(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/simpledb.DB/Explain"}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(DBService).Explain(ctx, req.(*ExplainRequest)) }
	return interceptor(ctx, in, info, handler)
}

func commitHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CommitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DBService).Commit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/simpledb.DB/Commit"}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(DBService).Commit(ctx, req.(*CommitRequest)) }
	return interceptor(ctx, in, info, handler)
}

func rollbackHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RollbackRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DBService).Rollback(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/simpledb.DB/Rollback"}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(DBService).Rollback(ctx, req.(*RollbackRequest)) }
	return interceptor(ctx, in, info, handler)
}

func closeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CloseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DBService).Close(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/simpledb.DB/Close"}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(DBService).Close(ctx, req.(*CloseRequest)) }
	return interceptor(ctx, in, info, handler)
}

// Server implements DBService over one open simpledb.Driver, tracking
// live connections by an opaque uuid handle (spec §6 "handle-based").
type Server struct {
	driver *simpledb.Driver

	mu    sync.Mutex
	conns map[string]*simpledb.Connection
}

// NewServer opens dir as a simpledb database and returns a Server ready
// to register with a grpc.Server.
func NewServer(dir string, opts ...dbconfig.Option) (*Server, error) {
	d, err := simpledb.Open(dir, opts...)
	if err != nil {
		return nil, err
	}
	return &Server{driver: d, conns: make(map[string]*simpledb.Connection)}, nil
}

// Close stops the underlying driver's background work.
func (s *Server) Close() error { return s.driver.Close() }

func (s *Server) lookup(handle string) (*simpledb.Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[handle]
	return c, ok
}

func (s *Server) Connect(_ context.Context, _ *ConnectRequest) (*ConnectResponse, error) {
	conn, err := s.driver.Connect()
	if err != nil {
		return &ConnectResponse{Error: err.Error()}, nil
	}
	handle := uuid.NewString()
	s.mu.Lock()
	s.conns[handle] = conn
	s.mu.Unlock()
	return &ConnectResponse{ConnHandle: handle}, nil
}

func (s *Server) Exec(_ context.Context, req *ExecRequest) (*ExecResponse, error) {
	conn, ok := s.lookup(req.ConnHandle)
	if !ok {
		return &ExecResponse{Error: "unknown connection handle"}, nil
	}
	n, err := conn.CreateStatement().ExecuteUpdate(req.SQL)
	if err != nil {
		return &ExecResponse{Error: err.Error()}, nil
	}
	return &ExecResponse{RowsAffected: n}, nil
}

func (s *Server) Query(_ context.Context, req *QueryRequest) (*QueryResponse, error) {
	conn, ok := s.lookup(req.ConnHandle)
	if !ok {
		return &QueryResponse{Error: "unknown connection handle"}, nil
	}
	rs, err := conn.CreateStatement().ExecuteQuery(req.SQL)
	if err != nil {
		return &QueryResponse{Error: err.Error()}, nil
	}
	defer rs.Close()

	cols := make([]string, rs.ColumnCount())
	for i := range cols {
		cols[i] = rs.ColumnName(i)
	}
	var rows []map[string]any
	for {
		ok, err := rs.Next()
		if err != nil {
			return &QueryResponse{Error: err.Error()}, nil
		}
		if !ok {
			break
		}
		row := make(map[string]any, len(cols))
		for i, name := range cols {
			if rs.ColumnType(i) == simpledb.TypeI32 {
				v, err := rs.GetI32(name)
				if err != nil {
					return &QueryResponse{Error: err.Error()}, nil
				}
				if rs.WasNull() {
					row[name] = nil
				} else {
					row[name] = v
				}
				continue
			}
			v, err := rs.GetString(name)
			if err != nil {
				return &QueryResponse{Error: err.Error()}, nil
			}
			if rs.WasNull() {
				row[name] = nil
			} else {
				row[name] = v
			}
		}
		rows = append(rows, row)
	}
	return &QueryResponse{Columns: cols, Rows: rows}, nil
}

func (s *Server) Explain(_ context.Context, req *ExplainRequest) (*ExplainResponse, error) {
	conn, ok := s.lookup(req.ConnHandle)
	if !ok {
		return &ExplainResponse{Error: "unknown connection handle"}, nil
	}
	out, err := conn.CreateStatement().Explain(req.SQL)
	if err != nil {
		return &ExplainResponse{Error: err.Error()}, nil
	}
	return &ExplainResponse{Plan: out}, nil
}

func (s *Server) Commit(_ context.Context, req *CommitRequest) (*StatusResponse, error) {
	conn, ok := s.lookup(req.ConnHandle)
	if !ok {
		return &StatusResponse{Error: "unknown connection handle"}, nil
	}
	if err := conn.Commit(); err != nil {
		return &StatusResponse{Error: err.Error()}, nil
	}
	return &StatusResponse{OK: true}, nil
}

func (s *Server) Rollback(_ context.Context, req *RollbackRequest) (*StatusResponse, error) {
	conn, ok := s.lookup(req.ConnHandle)
	if !ok {
		return &StatusResponse{Error: "unknown connection handle"}, nil
	}
	if err := conn.Rollback(); err != nil {
		return &StatusResponse{Error: err.Error()}, nil
	}
	return &StatusResponse{OK: true}, nil
}

func (s *Server) Close(_ context.Context, req *CloseRequest) (*StatusResponse, error) {
	conn, ok := s.lookup(req.ConnHandle)
	if !ok {
		return &StatusResponse{Error: "unknown connection handle"}, nil
	}
	if err := conn.Close(); err != nil {
		return &StatusResponse{Error: err.Error()}, nil
	}
	s.mu.Lock()
	delete(s.conns, req.ConnHandle)
	s.mu.Unlock()
	return &StatusResponse{OK: true}, nil
}
