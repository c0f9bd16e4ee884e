package safe_close

import (
	"os"
	"os/signal"
	"sync"
)

// SafeClose coordinates the shutdown of a service and its goroutines.
// CloseWait returns only after all attached goroutines exited.
//
//  1. The main goroutine waits on ReceiveCloseSignal and calls Done before it returns.
//  2. Sub goroutines are started by Attach and exit once the close signal is received.
//  3. Any goroutine may call SendCloseSignal with a fatal error to stop the service.
//     CloseWait must not be called from an attached goroutine, it would deadlock.
//  4. Any third party caller can call CloseWait to close the service.
type SafeClose struct {
	m           sync.Mutex
	wg          sync.WaitGroup
	closeSignal chan struct{}
	done        chan struct{}
	doneOnce    sync.Once
	closeErr    error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// CloseWait sends a close signal and waits until Done is called and all
// attached goroutines returned. It can be called multiple times.
func (s *SafeClose) CloseWait() {
	s.SendCloseSignal(nil)
	s.wg.Wait()
	<-s.done
}

// SendCloseSignal sends a close signal. Only the first non-nil err is kept.
func (s *SafeClose) SendCloseSignal(err error) {
	s.m.Lock()
	defer s.m.Unlock()

	select {
	case <-s.closeSignal:
		return
	default:
		if err != nil {
			s.closeErr = err
		}
		close(s.closeSignal)
	}
}

// Err returns the error that closed s.
func (s *SafeClose) Err() error {
	s.m.Lock()
	defer s.m.Unlock()
	return s.closeErr
}

func (s *SafeClose) ReceiveCloseSignal() <-chan struct{} {
	return s.closeSignal
}

// Attach runs f in a new goroutine tracked by CloseWait.
// f must call done when it returns. If s was closed, f will not run.
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.m.Lock()
	select {
	case <-s.closeSignal:
		s.m.Unlock()
		return
	default:
		s.wg.Add(1)
	}
	s.m.Unlock()

	go func() {
		f(s.wg.Done, s.closeSignal)
	}()
}

// CloseOnSignal attaches a goroutine that sends a close signal when one of
// sig is received.
func (s *SafeClose) CloseOnSignal(sig ...os.Signal) {
	s.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		c := make(chan os.Signal, 1)
		signal.Notify(c, sig...)
		defer signal.Stop(c)
		select {
		case <-c:
			s.SendCloseSignal(nil)
		case <-closeSignal:
		}
	})
}

// Done notifies CloseWait that the main goroutine is done.
// It can be called multiple times.
func (s *SafeClose) Done() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}
