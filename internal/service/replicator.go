package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/snapgram/internal/repository"
	"github.com/d60-Lab/snapgram/pkg/logger"
)

type replicateAction int

const (
	actionAdd replicateAction = iota + 1
	actionRemove
)

type replicateJob struct {
	action replicateAction
	userID uint
	fanID  uint
}

// FanReplicator 本地异步冗余执行器：把 follow 边镜像进 fans 表。
// 队列满时丢弃并告警，冗余表允许短暂落后于 follows。
type FanReplicator struct {
	fanRepo repository.FanRepository
	ch      chan replicateJob
	limiter *rate.Limiter
}

// NewFanReplicator writesPerSec <= 0 表示不限速
func NewFanReplicator(fanRepo repository.FanRepository, queueSize int, writesPerSec float64) *FanReplicator {
	if queueSize <= 0 {
		queueSize = 10000
	}
	var limiter *rate.Limiter
	if writesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(writesPerSec), int(writesPerSec))
	}
	return &FanReplicator{fanRepo: fanRepo, ch: make(chan replicateJob, queueSize), limiter: limiter}
}

// Start 启动 worker，返回停止函数（等队列自然排空一小段时间）
func (r *FanReplicator) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case job := <-r.ch:
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					if r.limiter != nil {
						_ = r.limiter.Wait(ctx)
					}
					switch job.action {
					case actionAdd:
						_ = r.fanRepo.Create(ctx, job.userID, job.fanID)
					case actionRemove:
						_ = r.fanRepo.Delete(ctx, job.userID, job.fanID)
					}
					cancel()
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(r.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (r *FanReplicator) EnqueueAdd(userID, fanID uint) {
	select {
	case r.ch <- replicateJob{action: actionAdd, userID: userID, fanID: fanID}:
	default:
		logger.Warn("replicator queue full, drop add", zap.Uint("user", userID), zap.Uint("fan", fanID))
	}
}

func (r *FanReplicator) EnqueueRemove(userID, fanID uint) {
	select {
	case r.ch <- replicateJob{action: actionRemove, userID: userID, fanID: fanID}:
	default:
		logger.Warn("replicator queue full, drop remove", zap.Uint("user", userID), zap.Uint("fan", fanID))
	}
}

// QueueLen 返回当前队列长度（采样值）。
func (r *FanReplicator) QueueLen() int { return len(r.ch) }
