// Package port implements the data port: one shared segment holding a
// request signal, a response signal and a frame. A port is a half-duplex
// synchronous call channel; requests and responses strictly alternate.
package port

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.hybscloud.com/iox"

	"gosuda.org/vstbridge/internal/protocol"
	"gosuda.org/vstbridge/internal/shm"
)

// Control block layout. Each signal sits on its own cache line.
const (
	offRequest  = 0
	offResponse = 64

	ControlBlockSize = 128
)

// Error definitions for port operations
var (
	ErrPortInUse     = errors.New("port: port is already created or connected")
	ErrPortNull      = errors.New("port: port is not created or connected")
	ErrFrameTooSmall = errors.New("port: frame size smaller than frame header")
)

// Port is one data port. The zero value is a null port.
type Port struct {
	seg      *shm.Segment
	request  *shm.Signal
	response *shm.Signal
	frame    protocol.Frame
}

// Create allocates a new port whose frame holds frameSize bytes, header
// included.
func (p *Port) Create(frameSize int) error {
	if !p.IsNull() {
		return ErrPortInUse
	}
	if frameSize < protocol.HeaderSize {
		return ErrFrameTooSmall
	}

	seg, err := shm.Create(ControlBlockSize + frameSize)
	if err != nil {
		return err
	}
	if err := p.bind(seg); err != nil {
		seg.Detach()
		return err
	}
	return nil
}

// Connect attaches to the port created by the peer with the given id.
func (p *Port) Connect(id int) error {
	if !p.IsNull() {
		return ErrPortInUse
	}

	seg, err := shm.Attach(id)
	if err != nil {
		return err
	}
	if err := p.bind(seg); err != nil {
		seg.Detach()
		return err
	}
	return nil
}

func (p *Port) bind(seg *shm.Segment) error {
	b := seg.Bytes()
	if len(b) < ControlBlockSize+protocol.HeaderSize {
		return fmt.Errorf("port: segment %d holds %d bytes: %w", seg.ID(), len(b), ErrFrameTooSmall)
	}

	request, err := shm.SignalAt(b, offRequest)
	if err != nil {
		return err
	}
	response, err := shm.SignalAt(b, offResponse)
	if err != nil {
		return err
	}
	frame, err := protocol.NewFrame(b[ControlBlockSize:])
	if err != nil {
		return err
	}

	p.seg = seg
	p.request = request
	p.response = response
	p.frame = frame
	return nil
}

// Disconnect detaches from the port and returns it to the null state.
func (p *Port) Disconnect() error {
	if p.IsNull() {
		return nil
	}
	err := p.seg.Detach()
	*p = Port{}
	return err
}

// IsNull reports whether the port is neither created nor connected
func (p *Port) IsNull() bool {
	return p.seg == nil
}

// IsConnected reports whether a peer is still attached to the port.
func (p *Port) IsConnected() bool {
	if p.IsNull() {
		return false
	}
	n, err := p.seg.Attachments()
	return err == nil && n > 1
}

// ID returns the port handle, or -1 for a null port
func (p *Port) ID() int {
	if p.IsNull() {
		return -1
	}
	return p.seg.ID()
}

// FrameSize returns the frame size in bytes, header included
func (p *Port) FrameSize() int {
	if p.IsNull() {
		return 0
	}
	return p.frame.Size()
}

// Capacity returns the number of payload bytes after the frame header
func (p *Port) Capacity() int {
	if p.IsNull() {
		return 0
	}
	return p.frame.Capacity()
}

// Frame returns the view over the port's frame.
func (p *Port) Frame() protocol.Frame {
	return p.frame
}

func (p *Port) SendRequest() error {
	if p.IsNull() {
		return ErrPortNull
	}
	return p.request.Post()
}

func (p *Port) SendResponse() error {
	if p.IsNull() {
		return ErrPortNull
	}
	return p.response.Post()
}

// WaitRequest waits for the peer's request. A negative timeout waits forever;
// an expired timeout returns shm.ErrTimeout.
func (p *Port) WaitRequest(timeout time.Duration) error {
	if p.IsNull() {
		return ErrPortNull
	}
	return p.request.Wait(timeout)
}

// WaitResponse waits for the peer's response. A negative timeout waits
// forever; an expired timeout returns shm.ErrTimeout.
func (p *Port) WaitResponse(timeout time.Duration) error {
	if p.IsNull() {
		return ErrPortNull
	}
	return p.response.Wait(timeout)
}

// WaitPeer blocks until a peer has attached to the port or ctx is done.
func (p *Port) WaitPeer(ctx context.Context) error {
	if p.IsNull() {
		return ErrPortNull
	}

	var bo iox.Backoff
	for !p.IsConnected() {
		if err := ctx.Err(); err != nil {
			return context.Cause(ctx)
		}
		bo.Wait()
	}
	return nil
}
