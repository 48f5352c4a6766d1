package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Stop asks the daemon to stop and exit.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListFolders returns the watched folders.
func (c *Client) ListFolders() (*ListFoldersResponse, error) {
	var resp ListFoldersResponse
	if err := c.call("ListFolders", ListFoldersRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddFolder starts watching path.
func (c *Client) AddFolder(path string) (*FolderResponse, error) {
	var resp FolderResponse
	if err := c.call("AddFolder", FolderRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveFolder stops watching path.
func (c *Client) RemoveFolder(path string) (*FolderResponse, error) {
	var resp FolderResponse
	if err := c.call("RemoveFolder", FolderRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns extraction history optionally filtered by status.
func (c *Client) History(status string, limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.call("History", HistoryRequest{Status: status, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearHistory removes finished history entries.
func (c *Client) ClearHistory() (*ClearHistoryResponse, error) {
	var resp ClearHistoryResponse
	if err := c.call("ClearHistory", ClearHistoryRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.call("DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Extract runs one archive through the daemon's workflow and waits for the
// outcome.
func (c *Client) Extract(req ExtractRequest) (*ExtractResponse, error) {
	var resp ExtractResponse
	if err := c.call("Extract", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
