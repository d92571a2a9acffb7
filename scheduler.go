package spindly

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"
)

const (
	// DefaultMaxTimeToWaitGetVM default wait time
	DefaultMaxTimeToWaitGetVM = 500 * time.Millisecond
	// DefaultMaxRetriesGetVM default retries times
	DefaultMaxRetriesGetVM = 3
)

var (
	_scheduler = new(atomic.Value)
	// ErrSchedulerClosed the scheduler is closed error
	ErrSchedulerClosed = errors.New("scheduler is closed")
)

type schedulerHolder struct{ Scheduler }

func init() {
	_scheduler.Store(schedulerHolder{NewScheduler(Options{
		MaxVMs: uint(runtime.GOMAXPROCS(0)),
	})})
}

// SetScheduler set the default Scheduler
func SetScheduler(scheduler Scheduler) { _scheduler.Store(schedulerHolder{scheduler}) }

// GetScheduler get the default Scheduler
func GetScheduler() Scheduler { return _scheduler.Load().(schedulerHolder).Scheduler }

// Scheduler the VM pool. A VM obtained from Get returns to the pool by
// itself when its evaluation finishes.
type Scheduler interface {
	// Get the VM
	Get() (VM, error)
	// Shrink the available VM
	Shrink()
	// Close the scheduler
	Close() error
}

// Options the Scheduler options
type Options struct {
	InitialVMs         uint          `yaml:"initial-vms" json:"initialVMs"`
	MaxVMs             uint          `yaml:"max-vms" json:"maxVMs"`
	MaxRetriesGetVM    uint          `yaml:"max-retries-get-vm" json:"maxRetriesGetVM"`
	MaxTimeToWaitGetVM time.Duration `yaml:"max-time-to-wait-get-vm" json:"maxTimeToWaitGetVM"`
	VMOptions          []Option      `yaml:"-" json:"-"` // options for NewVM
}

// NewScheduler returns a new Scheduler
func NewScheduler(opt Options) Scheduler {
	s := &schedulerImpl{
		closed:             new(atomic.Bool),
		unInitVMs:          new(atomic.Int32),
		maxVMs:             opt.MaxVMs,
		maxRetriesGetVM:    opt.MaxRetriesGetVM,
		maxTimeToWaitGetVM: opt.MaxTimeToWaitGetVM,
	}
	if s.maxVMs == 0 {
		s.maxVMs = 1
	}
	if s.maxRetriesGetVM == 0 {
		s.maxRetriesGetVM = DefaultMaxRetriesGetVM
	}
	if s.maxTimeToWaitGetVM == 0 {
		s.maxTimeToWaitGetVM = DefaultMaxTimeToWaitGetVM
	}
	s.maxVMs = max(s.maxVMs, opt.InitialVMs)
	s.vms = make(chan VM, s.maxVMs)
	s.vmOpt = append(opt.VMOptions, func(vm *vmImpl) {
		vm.release = func() { s.release(vm) }
	})
	for i := uint(0); i < opt.InitialVMs; i++ {
		s.vms <- NewVM(s.vmOpt...)
	}
	s.unInitVMs.Store(int32(s.maxVMs - opt.InitialVMs))
	return s
}

type schedulerImpl struct {
	mu                      sync.Mutex // guards close(vms) against release
	vms                     chan VM
	maxVMs, maxRetriesGetVM uint
	unInitVMs               *atomic.Int32
	closed                  *atomic.Bool
	maxTimeToWaitGetVM      time.Duration
	vmOpt                   []Option
}

func (s *schedulerImpl) String() string {
	text, _ := s.MarshalText()
	return string(text)
}

func (s *schedulerImpl) MarshalText() ([]byte, error) {
	return json.Marshal(map[string]any{
		"available": len(s.vms),
		"max":       int(s.maxVMs),
		"unInit":    int(s.unInitVMs.Load()),
	})
}

// Close the scheduler
func (s *schedulerImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.CompareAndSwap(false, true) {
		close(s.vms)
	}
	return nil
}

// Get the VM
func (s *schedulerImpl) Get() (VM, error) {
	if s.closed.Load() {
		return nil, ErrSchedulerClosed
	}
	if s.unInitVMs.CompareAndSwap(int32(s.maxVMs), int32(s.maxVMs-1)) {
		return NewVM(s.vmOpt...), nil
	}

	timer := time.NewTimer(s.maxTimeToWaitGetVM)

	defer timer.Stop()

	for i := uint(1); i <= s.maxRetriesGetVM; i++ {
		select {
		case vm, ok := <-s.vms:
			if !ok {
				return nil, ErrSchedulerClosed
			}
			return vm, nil
		case <-timer.C:
			if s.unInitVMs.Add(-1) >= 0 {
				return NewVM(s.vmOpt...), nil
			}
			s.unInitVMs.Add(1)
			slog.Warn(fmt.Sprintf("could not get VM in %v", time.Duration(i)*s.maxTimeToWaitGetVM))
			timer.Reset(s.maxTimeToWaitGetVM)
		}
	}
	return nil, fmt.Errorf("could not get VM in %v",
		time.Duration(s.maxRetriesGetVM)*s.maxTimeToWaitGetVM)
}

// Shrink drops the idle VMs. VMs checked out during the shrink are
// dropped on release instead of rejoining the pool.
func (s *schedulerImpl) Shrink() {
	s.unInitVMs.Store(int32(s.maxVMs))
	for {
		select {
		case _, ok := <-s.vms:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// release the VM. The pool can be closed or at capacity by the time an
// evaluation finishes; the VM is dropped rather than blocking its
// watcher goroutine.
func (s *schedulerImpl) release(vm VM) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}

	select {
	case s.vms <- vm:
	default:
	}
}
