// internal/service/seckill/infrastructure/zk_state_gate.go
package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"

	"goodskill/internal/service/seckill/domain"
	"goodskill/internal/zookeeper"
)

const stateRoot = "/goodskill/activities"

// 本地快照的新鲜度上限。刚结束的活动最晚在这个窗口内被所有实例看到，
// 对应设计上"有界、短暂"的状态滞后参数。
const stateFreshness = 200 * time.Millisecond

func statePath(activityID int64) string {
	return fmt.Sprintf("%s/%d/state", stateRoot, activityID)
}

type cachedState struct {
	state     domain.ActivityState
	fetchedAt time.Time
}

// ZkStateGate 是 port.StateGate 的 ZooKeeper 实现。
// 活动状态保存在复制的状态节点上，所有实例观察同一份状态；
// 读取走本地短时快照 + ZooKeeper Sync 读，换取热点下的吞吐。
type ZkStateGate struct {
	conn *zookeeper.Conn

	mu    sync.RWMutex
	cache map[int64]cachedState
}

func NewZkStateGate(conn *zookeeper.Conn) *ZkStateGate {
	return &ZkStateGate{
		conn:  conn,
		cache: make(map[int64]cachedState),
	}
}

// State 返回活动的当前状态
func (g *ZkStateGate) State(ctx context.Context, activityID int64) (domain.ActivityState, error) {
	g.mu.RLock()
	cached, ok := g.cache[activityID]
	g.mu.RUnlock()
	if ok && time.Since(cached.fetchedAt) < stateFreshness {
		return cached.state, nil
	}

	// Sync 强制 follower 追上 leader 再读，接近 majority-read 的新鲜度
	if _, err := g.conn.Sync(statePath(activityID)); err != nil && err != zk.ErrNoNode {
		return "", errors.Wrapf(err, "failed to sync state node for activity %d", activityID)
	}
	data, _, err := g.conn.Get(statePath(activityID))
	if err == zk.ErrNoNode {
		// 状态节点尚未创建视同未开始
		g.store(activityID, domain.StateNotStarted)
		return domain.StateNotStarted, nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read state node for activity %d", activityID)
	}

	state := domain.ActivityState(data)
	switch state {
	case domain.StateNotStarted, domain.StateInProgress, domain.StateEnded:
	default:
		return "", errors.Errorf("unknown activity state %q for activity %d", data, activityID)
	}
	g.store(activityID, state)
	return state, nil
}

// CheckState 判断活动是否处于期望状态
func (g *ZkStateGate) CheckState(ctx context.Context, activityID int64, expected domain.ActivityState) (bool, error) {
	state, err := g.State(ctx, activityID)
	if err != nil {
		return false, err
	}
	return state == expected, nil
}

// SetState 写入活动状态。状态流转属于活动管理面，执行策略不会调用。
func (g *ZkStateGate) SetState(ctx context.Context, activityID int64, state domain.ActivityState) error {
	path := statePath(activityID)
	if err := g.conn.EnsurePath(fmt.Sprintf("%s/%d", stateRoot, activityID)); err != nil {
		return err
	}
	if err := g.conn.SetOrCreate(path, []byte(state)); err != nil {
		return errors.Wrapf(err, "failed to set state for activity %d", activityID)
	}
	g.store(activityID, state)
	return nil
}

func (g *ZkStateGate) store(activityID int64, state domain.ActivityState) {
	g.mu.Lock()
	g.cache[activityID] = cachedState{state: state, fetchedAt: time.Now()}
	g.mu.Unlock()
}
