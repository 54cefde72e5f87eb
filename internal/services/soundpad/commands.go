package soundpad

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// PlaySound starts playback of the definition at the given flat-list
// position.
func (c *Client) PlaySound(ctx context.Context, id int) error {
	resp, err := c.Do(ctx, fmt.Sprintf("DoPlaySound(%d)", id))
	if err != nil {
		return err
	}
	return parseStatus(resp)
}

// StopAllSounds stops playback immediately.
func (c *Client) StopAllSounds(ctx context.Context) error {
	resp, err := c.Do(ctx, "DoStopAllSounds()")
	if err != nil {
		return err
	}
	return parseStatus(resp)
}

// TogglePause pauses playback, or resumes it when already paused.
func (c *Client) TogglePause(ctx context.Context) error {
	resp, err := c.Do(ctx, "DoTogglePause()")
	if err != nil {
		return err
	}
	return parseStatus(resp)
}

// SetVolume sets the soundboard's master volume (0-100).
func (c *Client) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("volume %d out of range 0-100", percent)
	}
	resp, err := c.Do(ctx, fmt.Sprintf("SetVolume(%d)", percent))
	if err != nil {
		return err
	}
	return parseStatus(resp)
}

// GetVolume reads the soundboard's master volume.
func (c *Client) GetVolume(ctx context.Context) (int, error) {
	resp, err := c.Do(ctx, "GetVolume()")
	if err != nil {
		return 0, err
	}
	value := strings.TrimSpace(strings.TrimRight(resp, "\x00"))
	volume, convErr := strconv.Atoi(value)
	if convErr != nil {
		return 0, fmt.Errorf("unexpected volume response %q", resp)
	}
	return volume, nil
}

// GetPlayStatus reports the playback state token (STOPPED, PLAYING, PAUSED,
// SEEKING).
func (c *Client) GetPlayStatus(ctx context.Context) (string, error) {
	resp, err := c.Do(ctx, "GetPlayStatus()")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimRight(resp, "\x00")), nil
}
