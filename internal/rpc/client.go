package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client is a thin gRPC+JSON-codec wrapper around one server connection
// handle, the counterpart to the teacher's grpcQuery helper in
// cmd/server/main.go.
type Client struct {
	cc         *grpc.ClientConn
	connHandle string
}

// Dial connects to addr and opens a server-side connection handle.
func Dial(addr string) (*Client, error) {
	cc, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		return nil, err
	}
	var resp ConnectResponse
	if err := cc.Invoke(context.Background(), "/simpledb.DB/Connect", &ConnectRequest{}, &resp); err != nil {
		cc.Close()
		return nil, err
	}
	if resp.Error != "" {
		cc.Close()
		return nil, errString(resp.Error)
	}
	return &Client{cc: cc, connHandle: resp.ConnHandle}, nil
}

type errString string

func (e errString) Error() string { return string(e) }

// Exec runs one DML/DDL statement remotely.
func (c *Client) Exec(sql string) (int, error) {
	var resp ExecResponse
	if err := c.cc.Invoke(context.Background(), "/simpledb.DB/Exec", &ExecRequest{ConnHandle: c.connHandle, SQL: sql}, &resp); err != nil {
		return 0, err
	}
	if resp.Error != "" {
		return 0, errString(resp.Error)
	}
	return resp.RowsAffected, nil
}

// Query runs one SELECT remotely, returning every row materialised as a
// JSON-decoded map.
func (c *Client) Query(sql string) ([]string, []map[string]any, error) {
	var resp QueryResponse
	if err := c.cc.Invoke(context.Background(), "/simpledb.DB/Query", &QueryRequest{ConnHandle: c.connHandle, SQL: sql}, &resp); err != nil {
		return nil, nil, err
	}
	if resp.Error != "" {
		return nil, nil, errString(resp.Error)
	}
	return resp.Columns, resp.Rows, nil
}

// Explain renders a SELECT's operator tree remotely.
func (c *Client) Explain(sql string) (string, error) {
	var resp ExplainResponse
	if err := c.cc.Invoke(context.Background(), "/simpledb.DB/Explain", &ExplainRequest{ConnHandle: c.connHandle, SQL: sql}, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", errString(resp.Error)
	}
	return resp.Plan, nil
}

// Commit commits the remote connection's current transaction.
func (c *Client) Commit() error {
	var resp StatusResponse
	if err := c.cc.Invoke(context.Background(), "/simpledb.DB/Commit", &CommitRequest{ConnHandle: c.connHandle}, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return errString(resp.Error)
	}
	return nil
}

// Rollback aborts the remote connection's current transaction.
func (c *Client) Rollback() error {
	var resp StatusResponse
	if err := c.cc.Invoke(context.Background(), "/simpledb.DB/Rollback", &RollbackRequest{ConnHandle: c.connHandle}, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return errString(resp.Error)
	}
	return nil
}

// Close closes the remote connection and the underlying gRPC channel.
func (c *Client) Close() error {
	var resp StatusResponse
	err := c.cc.Invoke(context.Background(), "/simpledb.DB/Close", &CloseRequest{ConnHandle: c.connHandle}, &resp)
	cerr := c.cc.Close()
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return errString(resp.Error)
	}
	return cerr
}
