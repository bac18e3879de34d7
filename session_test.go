package otc

import (
	"sync/atomic"
	"testing"
	"time"
)

// idleDriver starts acquisition without registering any event source.
type idleDriver struct {
	BaseDriver
	stopCalls int32
}

func (d *idleDriver) Name() string     { return "idle-test" }
func (d *idleDriver) LongName() string { return "Idle test driver" }
func (d *idleDriver) APIVersion() int  { return 1 }

func (d *idleDriver) Scan(options []ConfigItem) ([]*Dev, error) { return nil, nil }

func (d *idleDriver) DevOpen(sdi *Dev) error          { return nil }
func (d *idleDriver) DevClose(sdi *Dev) error         { return nil }
func (d *idleDriver) AcquisitionStart(sdi *Dev) error { return nil }

func (d *idleDriver) AcquisitionStop(sdi *Dev) error {
	atomic.AddInt32(&d.stopCalls, 1)
	return nil
}

func testSessionDev(t *testing.T, drv Driver) (*Session, *Dev) {
	t.Helper()
	ctx, err := NewContext([]Driver{drv})
	if err != nil {
		t.Fatal(err)
	}
	sess, err := NewSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sdi := NewDev(drv, InstUser, "test", "session", "0")
	sdi.SetStatus(StatusActive)
	ChannelNew(sdi, 0, ChannelLogic, true, "D0")
	if err := sess.DevAdd(sdi); err != nil {
		t.Fatal(err)
	}
	return sess, sdi
}

// A start that registers no sources must trip the idle stop check:
// running goes false, the stopped callback fires exactly once, and a
// later Stop is a silent no-op.
func TestSessionStopWithoutSources(t *testing.T) {
	drv := &idleDriver{}
	sess, _ := testSessionDev(t, drv)

	var stopped int32
	sess.StoppedCallbackSet(func() {
		atomic.AddInt32(&stopped, 1)
	})

	if err := sess.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := sess.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if sess.IsRunning() {
		t.Error("session still running after Run returned")
	}
	if n := atomic.LoadInt32(&stopped); n != 1 {
		t.Errorf("stopped callback fired %d times, want 1", n)
	}
	if err := sess.Stop(); err != nil {
		t.Errorf("Stop() after stop returned %v, want nil", err)
	}
	if n := atomic.LoadInt32(&stopped); n != 1 {
		t.Errorf("stopped callback fired %d times after no-op Stop, want 1", n)
	}
}

func TestSessionStartChecks(t *testing.T) {
	drv := &idleDriver{}
	ctx, _ := NewContext([]Driver{drv})
	sess, _ := NewSession(ctx)

	// No devices attached.
	if err := sess.Start(); err != ErrArg {
		t.Errorf("Start() with no devices = %v, want ErrArg", err)
	}

	// Device without an enabled channel.
	sdi := NewDev(drv, InstUser, "test", "session", "0")
	ChannelNew(sdi, 0, ChannelLogic, false, "D0")
	sess.DevAdd(sdi)
	if err := sess.Start(); err != ErrArg {
		t.Errorf("Start() with all channels disabled = %v, want ErrArg", err)
	}
}

func TestSessionDevAdd(t *testing.T) {
	drv := &idleDriver{}
	ctx, _ := NewContext([]Driver{drv})
	s1, _ := NewSession(ctx)
	s2, _ := NewSession(ctx)

	sdi := NewDev(drv, InstUser, "test", "session", "0")
	if err := s1.DevAdd(sdi); err != nil {
		t.Fatal(err)
	}
	if err := s1.DevAdd(sdi); err != ErrArg {
		t.Errorf("re-adding to same session = %v, want ErrArg", err)
	}
	if err := s2.DevAdd(sdi); err != ErrBug {
		t.Errorf("adding to second session = %v, want ErrBug", err)
	}
	if err := s1.DevRemove(sdi); err != nil {
		t.Fatal(err)
	}
	if sdi.Session() != nil {
		t.Error("device still references session after removal")
	}
	if err := s2.DevAdd(sdi); err != nil {
		t.Errorf("adding after removal failed: %v", err)
	}
}

// timerDriver registers a timer source that fires a fixed number of
// times and then removes itself.
type timerDriver struct {
	BaseDriver
	fires int32
	limit int32
}

func (d *timerDriver) Name() string     { return "timer-test" }
func (d *timerDriver) LongName() string { return "Timer test driver" }
func (d *timerDriver) APIVersion() int  { return 1 }

func (d *timerDriver) Scan(options []ConfigItem) ([]*Dev, error) { return nil, nil }

func (d *timerDriver) DevOpen(sdi *Dev) error  { return nil }
func (d *timerDriver) DevClose(sdi *Dev) error { return nil }

func (d *timerDriver) AcquisitionStart(sdi *Dev) error {
	return sdi.Session().SourceAdd(sdi, -1, 0, time.Millisecond, func(fd int, revents int, data interface{}) bool {
		return atomic.AddInt32(&d.fires, 1) < d.limit
	}, nil)
}

func (d *timerDriver) AcquisitionStop(sdi *Dev) error { return nil }

func TestSessionTimerSource(t *testing.T) {
	drv := &timerDriver{limit: 5}
	sess, _ := testSessionDev(t, drv)

	if err := sess.Start(); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		sess.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
	if n := atomic.LoadInt32(&drv.fires); n != 5 {
		t.Errorf("timer fired %d times, want 5", n)
	}
	if sess.IsRunning() {
		t.Error("session still running")
	}
}

func TestSessionSourceDuplicateKey(t *testing.T) {
	ctx, _ := NewContext(nil)
	sess, _ := NewSession(ctx)
	cb := func(fd int, revents int, data interface{}) bool { return true }

	if err := sess.SourceAdd("key", -1, 0, time.Second, cb, nil); err != nil {
		t.Fatal(err)
	}
	if err := sess.SourceAdd("key", -1, 0, time.Second, cb, nil); err != ErrBug {
		t.Errorf("duplicate key = %v, want ErrBug", err)
	}
	if err := sess.SourceRemove("key"); err != nil {
		t.Fatal(err)
	}
	if err := sess.SourceRemove("key"); err != ErrBug {
		t.Errorf("removing absent key = %v, want ErrBug", err)
	}
}

func TestSessionTimerSourceNeedsTimeout(t *testing.T) {
	ctx, _ := NewContext(nil)
	sess, _ := NewSession(ctx)
	cb := func(fd int, revents int, data interface{}) bool { return true }
	if err := sess.SourceAdd("t", -1, 0, -1, cb, nil); err != ErrArg {
		t.Errorf("fd -1 with negative timeout = %v, want ErrArg", err)
	}
}

// Stop marshals onto the session loop: the driver's acquisition-stop
// runs there and the loop winds down once its sources are gone.
func TestSessionStopFromOtherThread(t *testing.T) {
	drv := &stoppableDriver{}
	sess, _ := testSessionDev(t, drv)

	if err := sess.Start(); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		sess.Run()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if !sess.IsRunning() {
		t.Fatal("session not running")
	}
	sess.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
	if sess.IsRunning() {
		t.Error("session still running after stop")
	}
}

// stoppableDriver keeps a timer source alive until acquisition-stop
// removes it.
type stoppableDriver struct {
	BaseDriver
}

func (d *stoppableDriver) Name() string     { return "stoppable-test" }
func (d *stoppableDriver) LongName() string { return "Stoppable test driver" }
func (d *stoppableDriver) APIVersion() int  { return 1 }

func (d *stoppableDriver) Scan(options []ConfigItem) ([]*Dev, error) { return nil, nil }

func (d *stoppableDriver) DevOpen(sdi *Dev) error  { return nil }
func (d *stoppableDriver) DevClose(sdi *Dev) error { return nil }

func (d *stoppableDriver) AcquisitionStart(sdi *Dev) error {
	return sdi.Session().SourceAdd(sdi, -1, 0, 5*time.Millisecond, func(fd int, revents int, data interface{}) bool {
		return true
	}, nil)
}

func (d *stoppableDriver) AcquisitionStop(sdi *Dev) error {
	return sdi.Session().SourceRemove(sdi)
}
