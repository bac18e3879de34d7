package otc

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// ReceiveCallback is invoked when an event source fires. revents holds
// the poll result bits, or 0 for a timeout expiry. Returning false
// removes the source.
type ReceiveCallback func(fd int, revents int, data interface{}) bool

type eventSource struct {
	key      interface{}
	fd       int // -1 for pure timer sources
	events   int16
	timeout  time.Duration // negative: no timeout
	deadline time.Time
	cb       ReceiveCallback
	data     interface{}
}

// Session multiplexes the event sources of one or more concurrently
// acquiring devices on a single loop goroutine, and fans their packets
// out to datafeed callbacks.
type Session struct {
	ctx *Context

	devs       []*Dev
	callbacks  []DatafeedCallback
	transforms []Transform
	trigger    *Trigger

	srcMu    sync.Mutex
	sources  map[interface{}]*eventSource
	srcOrder []interface{}

	running int32

	cbMu      sync.Mutex
	stoppedCB func()

	funcs    chan func()
	wakeR    int
	wakeW    int
	loopDone chan struct{}
}

// NewSession creates a session bound to the context.
func NewSession(ctx *Context) (*Session, error) {
	if ctx == nil {
		return nil, ErrArg
	}
	return &Session{
		ctx:     ctx,
		sources: make(map[interface{}]*eventSource),
	}, nil
}

// Context returns the session's context.
func (s *Session) Context() *Context { return s.ctx }

// Close releases the session. Attached devices are detached, never
// freed. Closing a running session is a caller bug.
func (s *Session) Close() error {
	if s.IsRunning() {
		logErr("Cannot close a running session")
		return ErrBug
	}
	return s.DevRemoveAll()
}

// DevAdd attaches a device to the session. A device belongs to at most
// one session. Adding a device to a running session starts acquisition
// on it immediately.
func (s *Session) DevAdd(sdi *Dev) error {
	if sdi == nil {
		return ErrArg
	}
	if sdi.session == s {
		logErr("%s: already in this session", sdi.connID)
		return ErrArg
	}
	if sdi.session != nil {
		logErr("%s: already in another session", sdi.connID)
		return ErrBug
	}
	sdi.session = s
	s.devs = append(s.devs, sdi)

	if s.IsRunning() && sdi.driver != nil {
		if err := sdi.driver.AcquisitionStart(sdi); err != nil {
			s.devRemove(sdi)
			return err
		}
	}
	return nil
}

func (s *Session) devRemove(sdi *Dev) {
	for i, d := range s.devs {
		if d == sdi {
			s.devs = append(s.devs[:i], s.devs[i+1:]...)
			break
		}
	}
	sdi.session = nil
}

// DevRemove detaches a device from the session. The device itself is
// not freed.
func (s *Session) DevRemove(sdi *Dev) error {
	if sdi == nil {
		return ErrArg
	}
	if sdi.session != s {
		logErr("%s: not in this session", sdi.connID)
		return ErrArg
	}
	s.devRemove(sdi)
	return nil
}

// DevRemoveAll detaches every device. None of them are freed.
func (s *Session) DevRemoveAll() error {
	for _, d := range s.devs {
		d.session = nil
	}
	s.devs = nil
	return nil
}

// DevListGet returns the attached devices.
func (s *Session) DevListGet() []*Dev {
	return append([]*Dev(nil), s.devs...)
}

// DatafeedCallbackAdd registers a consumer callback. Callbacks run in
// registration order on the session thread.
func (s *Session) DatafeedCallbackAdd(cb DatafeedCallback) error {
	if cb == nil {
		return ErrArg
	}
	s.callbacks = append(s.callbacks, cb)
	return nil
}

// DatafeedCallbackRemoveAll unregisters every consumer callback.
func (s *Session) DatafeedCallbackRemoveAll() {
	s.callbacks = nil
}

// TransformAdd appends a transform to the chain. Transforms run in
// registration order.
func (s *Session) TransformAdd(t Transform) error {
	if t == nil {
		return ErrArg
	}
	s.transforms = append(s.transforms, t)
	return nil
}

// TriggerSet installs the trigger used by the next Start.
func (s *Session) TriggerSet(t *Trigger) { s.trigger = t }

// TriggerGet returns the installed trigger.
func (s *Session) TriggerGet() *Trigger { return s.trigger }

// StoppedCallbackSet installs cb to run exactly once when the session
// stops. Safe to call from any thread.
func (s *Session) StoppedCallbackSet(cb func()) {
	s.cbMu.Lock()
	s.stoppedCB = cb
	s.cbMu.Unlock()
}

// IsRunning reports whether the session is between a successful Start
// and the final stop check. Safe to call from any thread.
func (s *Session) IsRunning() bool {
	return atomic.LoadInt32(&s.running) == 1
}

// SourceAdd registers an event source keyed by key. fd -1 with a
// non-negative timeout makes a pure timer source. Duplicate keys are a
// caller bug.
func (s *Session) SourceAdd(key interface{}, fd int, events int16, timeout time.Duration, cb ReceiveCallback, data interface{}) error {
	if cb == nil {
		return ErrArg
	}
	if fd < 0 && timeout < 0 {
		logErr("Timer source needs a timeout")
		return ErrArg
	}
	src := &eventSource{
		key:     key,
		fd:      fd,
		events:  events,
		timeout: timeout,
		cb:      cb,
		data:    data,
	}
	if timeout >= 0 {
		src.deadline = time.Now().Add(timeout)
	}
	s.srcMu.Lock()
	defer s.srcMu.Unlock()
	if _, dup := s.sources[key]; dup {
		logErr("Event source with key already exists")
		return ErrBug
	}
	s.sources[key] = src
	s.srcOrder = append(s.srcOrder, key)
	s.wake()
	return nil
}

// SourceAddFd registers an fd-keyed event source, mirroring the
// common case of one source per file descriptor.
func (s *Session) SourceAddFd(fd int, events int16, timeout time.Duration, cb ReceiveCallback, data interface{}) error {
	return s.SourceAdd(fd, fd, events, timeout, cb, data)
}

// SourceRemoveFd destroys the source registered under fd.
func (s *Session) SourceRemoveFd(fd int) error {
	return s.SourceRemove(fd)
}

// SourceRemove destroys the event source registered under key.
func (s *Session) SourceRemove(key interface{}) error {
	s.srcMu.Lock()
	defer s.srcMu.Unlock()
	if _, ok := s.sources[key]; !ok {
		logErr("No event source with key")
		return ErrBug
	}
	s.removeSourceLocked(key)
	s.wake()
	return nil
}

func (s *Session) removeSourceLocked(key interface{}) {
	delete(s.sources, key)
	for i, k := range s.srcOrder {
		if k == key {
			s.srcOrder = append(s.srcOrder[:i], s.srcOrder[i+1:]...)
			break
		}
	}
}

// wake pokes the loop so it re-reads the source table. A full pipe
// already guarantees a pending wakeup.
func (s *Session) wake() {
	if s.wakeW > 0 {
		var b [1]byte
		unix.Write(s.wakeW, b[:])
	}
}

// Start verifies the trigger, commits configuration and starts
// acquisition on every attached device, then launches the session
// loop. On any failure, devices already started are stopped in reverse
// order.
func (s *Session) Start() error {
	if s.IsRunning() {
		logErr("Session already running")
		return ErrBug
	}
	if len(s.devs) == 0 {
		logErr("No devices attached to session")
		return ErrArg
	}
	if err := verifyTrigger(s.trigger); err != nil {
		return err
	}
	for _, sdi := range s.devs {
		enabled := false
		for _, ch := range sdi.channels {
			if ch.Enabled {
				enabled = true
				break
			}
		}
		if !enabled {
			logErr("%s: no channels enabled", sdi.connID)
			return ErrArg
		}
	}

	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return ErrIO
	}
	s.wakeR, s.wakeW = fds[0], fds[1]
	s.funcs = make(chan func(), 16)
	s.loopDone = make(chan struct{})

	started := 0
	var err error
	for _, sdi := range s.devs {
		if err = ConfigCommit(sdi); err != nil {
			logErr("Failed to commit device settings before starting acquisition (%s)", err)
			break
		}
		if err = sdi.driver.AcquisitionStart(sdi); err != nil {
			logErr("%s: could not start acquisition (%s)", sdi.connID, err)
			break
		}
		started++
	}
	if err != nil {
		for i := started - 1; i >= 0; i-- {
			s.devs[i].driver.AcquisitionStop(s.devs[i])
		}
		s.closeWakePipe()
		s.funcs = nil
		s.loopDone = nil
		return err
	}

	atomic.StoreInt32(&s.running, 1)
	go s.mainLoop()
	return nil
}

func (s *Session) closeWakePipe() {
	if s.wakeR > 0 {
		unix.Close(s.wakeR)
		unix.Close(s.wakeW)
		s.wakeR, s.wakeW = 0, 0
	}
}

func (s *Session) drainFuncs() {
	for {
		select {
		case fn := <-s.funcs:
			fn()
		default:
			return
		}
	}
}

// snapshot returns the sources in registration order.
func (s *Session) snapshot() []*eventSource {
	s.srcMu.Lock()
	defer s.srcMu.Unlock()
	out := make([]*eventSource, 0, len(s.srcOrder))
	for _, k := range s.srcOrder {
		out = append(out, s.sources[k])
	}
	return out
}

func (s *Session) mainLoop() {
	defer close(s.loopDone)
	for {
		s.drainFuncs()

		srcs := s.snapshot()
		if len(srcs) == 0 {
			// Idle stop check: observe the empty table once more to
			// tolerate sources re-added in the meantime.
			s.srcMu.Lock()
			empty := len(s.sources) == 0
			s.srcMu.Unlock()
			if empty {
				break
			}
			continue
		}

		pfds := make([]unix.PollFd, 1, len(srcs)+1)
		pfds[0] = unix.PollFd{Fd: int32(s.wakeR), Events: unix.POLLIN}
		pollIdx := make(map[*eventSource]int)
		timeoutMs := -1
		now := time.Now()
		for _, src := range srcs {
			if src.fd >= 0 {
				pollIdx[src] = len(pfds)
				pfds = append(pfds, unix.PollFd{Fd: int32(src.fd), Events: src.events})
			}
			if src.timeout >= 0 {
				remain := src.deadline.Sub(now)
				if remain < 0 {
					remain = 0
				}
				ms := int(remain / time.Millisecond)
				if timeoutMs < 0 || ms < timeoutMs {
					timeoutMs = ms
				}
			}
		}

		_, err := unix.Poll(pfds, timeoutMs)
		if err != nil && err != unix.EINTR {
			logErr("Session poll failed: %s", err)
			break
		}

		if pfds[0].Revents != 0 {
			var buf [16]byte
			unix.Read(s.wakeR, buf[:])
		}
		s.drainFuncs()

		now = time.Now()
		for _, src := range srcs {
			s.srcMu.Lock()
			_, alive := s.sources[src.key]
			s.srcMu.Unlock()
			if !alive {
				continue
			}
			revents := 0
			if idx, ok := pollIdx[src]; ok {
				revents = int(pfds[idx].Revents)
			}
			expired := src.timeout >= 0 && !now.Before(src.deadline)
			if revents == 0 && !expired {
				continue
			}
			keep := src.cb(src.fd, revents, src.data)
			if keep && src.timeout >= 0 {
				src.deadline = time.Now().Add(src.timeout)
			}
			if !keep {
				s.srcMu.Lock()
				s.removeSourceLocked(src.key)
				s.srcMu.Unlock()
			}
		}
	}

	atomic.StoreInt32(&s.running, 0)
	s.closeWakePipe()
	s.cbMu.Lock()
	cb := s.stoppedCB
	s.cbMu.Unlock()
	if cb != nil {
		cb()
	}
}

// Run blocks until the session has stopped. It is the convenience main
// wait; the loop itself runs on the session goroutine started by
// Start.
func (s *Session) Run() error {
	if s.loopDone == nil {
		logErr("Session not started")
		return ErrBug
	}
	<-s.loopDone
	return nil
}

// Stop requests the session stop. It marshals the stop onto the
// session loop and does not block on completion; concurrent and
// repeated calls are harmless. Safe from any thread while the session
// object is kept alive.
func (s *Session) Stop() error {
	if !s.IsRunning() {
		return nil
	}
	devs := append([]*Dev(nil), s.devs...)
	select {
	case s.funcs <- func() {
		for _, sdi := range devs {
			if sdi.driver == nil {
				continue
			}
			if err := sdi.driver.AcquisitionStop(sdi); err != nil {
				logErr("%s: could not stop acquisition (%s)", sdi.connID, err)
			}
		}
	}:
	default:
		// A stop is already queued.
	}
	s.wake()
	return nil
}
