// Package supervisor launches one worker process per validated cookie profile,
// paces the launches, and owns the worker handles until they exit.
//
// The supervisor is sequential: it never spawns two workers at the same time,
// and spawn order equals the order of the configs it is given. Cancelling the
// context passed to Run is the interrupt: every tracked worker is sent a
// termination signal and Run returns only after all of them have exited.
// Without WithKillAfter that wait is unbounded, so a worker that ignores the
// signal blocks shutdown.
package supervisor

import (
	"context"
	"os"
	"sync"
	"time"

	"camoufox-launcher/internal/config"
	"camoufox-launcher/internal/metrics"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// Supervisor owns the set of worker handles and their lifecycle
type Supervisor struct {
	spawner   Spawner
	pacer     Pacer
	killAfter time.Duration
	metrics   metrics.Collector

	mu        sync.RWMutex
	state     State
	instances []*instance
}

type instance struct {
	handle    Handle
	startedAt time.Time
}

// New creates a supervisor that launches workers through spawner
func New(spawner Spawner, opts ...Option) *Supervisor {
	s := &Supervisor{
		spawner: spawner,
		pacer:   DefaultPacer(),
		metrics: metrics.NewNoopCollector(),
		state:   StateIdle,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run launches one worker per config and blocks until they all exit or ctx is
// cancelled. A clean interrupt-driven shutdown returns nil.
func (s *Supervisor) Run(ctx context.Context, configs []config.FinalizedConfig) error {
	if len(configs) == 0 {
		logrus.Error("没有有效的实例配置可以启动")
		return ErrNothingToLaunch
	}

	total := len(configs)
	for i, cfg := range configs {
		if ctx.Err() != nil {
			return s.terminate()
		}

		log := logrus.WithField("profile", cfg.CredentialFilename)

		s.setState(StateSpawning)
		log.Infof("正在启动第 %d/%d 个浏览器实例 (cookie: %s)...", i+1, total, cfg.CredentialFilename)

		handle, err := s.spawner.Spawn(cfg)
		if err != nil {
			// 单个实例启动失败只跳过该实例
			log.Errorf("启动浏览器实例失败，跳过: %v", err)
			s.metrics.SpawnFailed(cfg.CredentialFilename)
			continue
		}

		s.track(handle)
		s.setState(StateRunning)
		log.Infof("浏览器实例已启动 (pid: %d)", handle.PID())

		if s.pacer.Due(i, total) {
			s.setState(StatePacing)
			logrus.Infof("等待 %s 后启动下一个实例...", s.pacer.Interval)
			if err := s.pacer.Wait(ctx); err != nil {
				return s.terminate()
			}
		}
	}

	handles := s.handles()
	if len(handles) == 0 {
		logrus.Error("所有浏览器实例都启动失败")
		return ErrNothingLaunched
	}

	logrus.Infof("所有 %d 个浏览器实例已启动完成。按 Ctrl+C 终止所有实例。", len(handles))
	s.setState(StateSupervising)

	select {
	case <-waitAll(handles):
		s.setState(StateCompleted)
		logrus.Info("所有浏览器实例均已退出")
		return nil
	case <-ctx.Done():
		return s.terminate()
	}
}

// terminate signals every tracked worker and waits until all have exited
func (s *Supervisor) terminate() error {
	s.setState(StateTerminating)
	logrus.Info("捕获到中断信号，正在终止所有子进程...")

	handles := s.handles()
	for _, h := range handles {
		if err := h.Terminate(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logrus.WithField("profile", h.Name()).Warnf("发送终止信号失败: %v", err)
		}
	}

	done := waitAll(handles)
	if s.killAfter > 0 {
		timer := time.NewTimer(s.killAfter)
		defer timer.Stop()

		select {
		case <-done:
		case <-timer.C:
			logrus.Warnf("部分子进程在 %s 内未退出，强制结束", s.killAfter)
			for _, h := range handles {
				select {
				case <-h.Done():
				default:
					if err := h.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
						logrus.WithField("profile", h.Name()).Errorf("强制结束失败: %v", err)
					}
				}
			}
		}
	}
	<-done

	s.setState(StateTerminated)
	logrus.Infof("所有进程已终止 (%d 个)。", len(handles))
	return nil
}

// track records a freshly spawned handle and logs its exit in the background
func (s *Supervisor) track(h Handle) {
	s.mu.Lock()
	s.instances = append(s.instances, &instance{handle: h, startedAt: time.Now()})
	s.mu.Unlock()

	s.metrics.InstanceSpawned(h.Name())

	go func() {
		<-h.Done()
		log := logrus.WithField("profile", h.Name())
		if err := h.Err(); err != nil {
			log.Warnf("浏览器实例已退出: %v", err)
		} else {
			log.Info("浏览器实例已退出")
		}
		s.metrics.InstanceExited(h.Name(), h.Err())
	}()
}

func (s *Supervisor) handles() []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handles := make([]Handle, 0, len(s.instances))
	for _, inst := range s.instances {
		handles = append(handles, inst.handle)
	}
	return handles
}

func (s *Supervisor) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()

	if prev != next {
		s.metrics.StateTransition(prev.String(), next.String())
	}
}

// State returns the current supervisor state
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the status of every tracked worker in spawn order
func (s *Supervisor) Snapshot() []InstanceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]InstanceStatus, 0, len(s.instances))
	for _, inst := range s.instances {
		status := InstanceStatus{
			Name:      inst.handle.Name(),
			PID:       inst.handle.PID(),
			StartedAt: inst.startedAt,
		}
		select {
		case <-inst.handle.Done():
			status.Exited = true
			if err := inst.handle.Err(); err != nil {
				status.ExitError = err.Error()
			}
		default:
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// waitAll returns a channel closed once every handle is done
func waitAll(handles []Handle) <-chan struct{} {
	done := make(chan struct{})

	var wg conc.WaitGroup
	for _, h := range handles {
		wg.Go(func() {
			<-h.Done()
		})
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	return done
}
