package port

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gosuda.org/vstbridge/internal/protocol"
	"gosuda.org/vstbridge/internal/shm"
)

// loopback returns a created port and a second attachment to it, standing in
// for the worker process.
func loopback(t *testing.T, frameSize int) (*Port, *Port) {
	t.Helper()
	var caller, worker Port
	if err := caller.Create(frameSize); err != nil {
		t.Skipf("shared memory unavailable: %v", err)
	}
	if err := worker.Connect(caller.ID()); err != nil {
		caller.Disconnect()
		t.Fatalf("Failed to connect port: %v", err)
	}
	t.Cleanup(func() {
		worker.Disconnect()
		caller.Disconnect()
	})
	return &caller, &worker
}

// serve answers requests on p until stop is closed, applying fn to each frame.
func serve(p *Port, stop <-chan struct{}, fn func(protocol.Frame)) <-chan error {
	errc := make(chan error, 1)
	go func() {
		for {
			select {
			case <-stop:
				errc <- nil
				return
			default:
			}
			err := p.WaitRequest(10 * time.Millisecond)
			if errors.Is(err, shm.ErrTimeout) {
				continue
			}
			if err != nil {
				errc <- err
				return
			}
			fn(p.Frame())
			p.Frame().SetCommand(protocol.CmdResponse)
			if err := p.SendResponse(); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc
}

func TestCreateConnect(t *testing.T) {
	caller, worker := loopback(t, 1024)

	if caller.IsNull() || worker.IsNull() {
		t.Fatal("Ports should not be null")
	}
	if worker.ID() != caller.ID() {
		t.Fatalf("Expected id %d, got %d", caller.ID(), worker.ID())
	}
	if worker.FrameSize() != 1024 || worker.Capacity() != 1024-protocol.HeaderSize {
		t.Fatalf("Worker recovered frame size %d, capacity %d", worker.FrameSize(), worker.Capacity())
	}
	if !caller.IsConnected() || !worker.IsConnected() {
		t.Fatal("Both sides should see a connected peer")
	}
	if err := caller.Create(1024); err != ErrPortInUse {
		t.Fatalf("Expected ErrPortInUse, got %v", err)
	}
	if err := worker.Connect(caller.ID()); err != ErrPortInUse {
		t.Fatalf("Expected ErrPortInUse, got %v", err)
	}

	worker.Disconnect()
	if caller.IsConnected() {
		t.Fatal("Caller should notice the detached peer")
	}
}

func TestNullPort(t *testing.T) {
	var p Port
	if !p.IsNull() || p.ID() != -1 || p.Capacity() != 0 {
		t.Fatal("Zero value should be a null port")
	}
	if err := p.SendRequest(); err != ErrPortNull {
		t.Fatalf("Expected ErrPortNull, got %v", err)
	}
	if err := p.WaitResponse(0); err != ErrPortNull {
		t.Fatalf("Expected ErrPortNull, got %v", err)
	}
	if err := p.Disconnect(); err != nil {
		t.Fatalf("Disconnecting a null port should be a no-op: %v", err)
	}
	if err := p.Create(protocol.HeaderSize - 1); err != ErrFrameTooSmall {
		t.Fatalf("Expected ErrFrameTooSmall, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	caller, worker := loopback(t, 4096)

	stop := make(chan struct{})
	errc := serve(worker, stop, func(f protocol.Frame) {
		// Echo the request with every field transformed.
		f.SetOpcode(f.Opcode() + 1)
		f.SetIndex(-f.Index())
		f.SetValue(f.Value() * 2)
		f.SetOpt(f.Opt() / 2)
		data := f.Data()
		for i := range data {
			data[i] = ^data[i]
		}
	})

	payload := make([]byte, caller.Capacity())
	for i := range payload {
		payload[i] = byte(i * 7)
	}

	for _, size := range []int{0, 1, 100, caller.Capacity()} {
		f := caller.Frame()
		f.Set(protocol.CmdDispatch, 10, 20, 1<<40, 3)
		copy(f.Data(), payload[:size])

		if err := caller.SendRequest(); err != nil {
			t.Fatalf("Failed to send request: %v", err)
		}
		if err := caller.WaitResponse(5 * time.Second); err != nil {
			t.Fatalf("Failed to wait for response: %v", err)
		}

		if f.Command() != protocol.CmdResponse || f.Opcode() != 11 || f.Index() != -20 || f.Value() != 1<<41 || f.Opt() != 1.5 {
			t.Fatalf("Unexpected header after round trip: %v %d %d %d %v", f.Command(), f.Opcode(), f.Index(), f.Value(), f.Opt())
		}
		want := make([]byte, size)
		for i := range want {
			want[i] = ^payload[i]
		}
		if !bytes.Equal(f.Data()[:size], want) {
			t.Fatalf("Payload of %d bytes corrupted", size)
		}
	}

	close(stop)
	if err := <-errc; err != nil {
		t.Fatalf("Worker loop failed: %v", err)
	}
}

func TestAlternationUnderConcurrency(t *testing.T) {
	caller, worker := loopback(t, 256)

	stop := make(chan struct{})
	errc := serve(worker, stop, func(f protocol.Frame) {
		f.SetValue(f.Value() + int64(f.Index()))
	})

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	failures := make(chan string, 64)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				mu.Lock()
				f := caller.Frame()
				f.Set(protocol.CmdDispatch, 0, int32(g), int64(i)*1000, 0)
				caller.SendRequest()
				err := caller.WaitResponse(5 * time.Second)
				got := f.Value()
				mu.Unlock()

				if err != nil {
					failures <- err.Error()
					return
				}
				if got != int64(i)*1000+int64(g) {
					failures <- "frame contents were interleaved"
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(stop)
	close(failures)

	for msg := range failures {
		t.Fatal(msg)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Worker loop failed: %v", err)
	}
}

func TestWaitPeer(t *testing.T) {
	var caller Port
	if err := caller.Create(512); err != nil {
		t.Skipf("shared memory unavailable: %v", err)
	}
	defer caller.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := caller.WaitPeer(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		var worker Port
		if err := worker.Connect(caller.ID()); err == nil {
			time.Sleep(time.Second)
			worker.Disconnect()
		}
	}()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := caller.WaitPeer(ctx2); err != nil {
		t.Fatalf("Failed to wait for peer: %v", err)
	}
}
