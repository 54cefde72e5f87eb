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

// Status retrieves the daemon status snapshot.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Soundbridge.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Preflight runs environment checks on the daemon side.
func (c *Client) Preflight() (*PreflightResponse, error) {
	var resp PreflightResponse
	if err := c.client.Call("Soundbridge.Preflight", PreflightRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SoundAdd defines a new sound.
func (c *Client) SoundAdd(req SoundAddRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := c.client.Call("Soundbridge.SoundAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SoundAttach places a sound reference inside a category.
func (c *Client) SoundAttach(req SoundAttachRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := c.client.Call("Soundbridge.SoundAttach", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SoundDetach strips every reference to a sound.
func (c *Client) SoundDetach(req SoundDetachRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := c.client.Call("Soundbridge.SoundDetach", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SoundRemove deletes a sound definition and renumbers references.
func (c *Client) SoundRemove(req SoundRemoveRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := c.client.Call("Soundbridge.SoundRemove", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SoundUpdate rewrites attributes on a Sound element.
func (c *Client) SoundUpdate(req SoundUpdateRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := c.client.Call("Soundbridge.SoundUpdate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CategoryReorder moves a category among the visible top-level slots.
func (c *Client) CategoryReorder(req CategoryReorderRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := c.client.Call("Soundbridge.CategoryReorder", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Restart stops and relaunches the soundboard.
func (c *Client) Restart() (*RestartResponse, error) {
	var resp RestartResponse
	if err := c.client.Call("Soundbridge.Restart", RestartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns recent mutation journal entries.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Soundbridge.History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Play triggers playback of the sound at the given position.
func (c *Client) Play(id int) error {
	var resp PlayResponse
	return c.client.Call("Soundbridge.Play", PlayRequest{ID: id}, &resp)
}

// StopAll halts all playback.
func (c *Client) StopAll() error {
	var resp StopAllResponse
	return c.client.Call("Soundbridge.StopAll", StopAllRequest{}, &resp)
}

// TogglePause pauses or resumes playback.
func (c *Client) TogglePause() error {
	var resp TogglePauseResponse
	return c.client.Call("Soundbridge.TogglePause", TogglePauseRequest{}, &resp)
}

// SetVolume adjusts the soundboard volume and returns the new value.
func (c *Client) SetVolume(percent int) (int, error) {
	var resp VolumeResponse
	if err := c.client.Call("Soundbridge.Volume", VolumeRequest{Set: true, Percent: percent}, &resp); err != nil {
		return 0, err
	}
	return resp.Percent, nil
}

// GetVolume reads the soundboard volume.
func (c *Client) GetVolume() (int, error) {
	var resp VolumeResponse
	if err := c.client.Call("Soundbridge.Volume", VolumeRequest{}, &resp); err != nil {
		return 0, err
	}
	return resp.Percent, nil
}

// PlayStatus reads the soundboard playback state.
func (c *Client) PlayStatus() (string, error) {
	var resp PlayStatusResponse
	if err := c.client.Call("Soundbridge.PlayStatus", PlayStatusRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.client.Call("Soundbridge.Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
