// internal/zookeeper/conn.go
package zookeeper

import (
	"fmt"
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 是对 zk.Conn 的薄封装，统一会话超时等参数
type Conn struct {
	*zk.Conn
}

// Connect 建立一个 ZooKeeper 会话
func Connect(servers []string) (*Conn, error) {
	conn, _, err := zk.Connect(servers, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper %v: %w", servers, err)
	}
	return &Conn{Conn: conn}, nil
}

// EnsurePath 逐级创建持久节点路径，节点已存在不算错误
func (c *Conn) EnsurePath(path string) error {
	var current string
	for _, part := range splitPath(path) {
		current += "/" + part
		_, err := c.Create(current, []byte{}, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return fmt.Errorf("failed to create node %s: %w", current, err)
		}
	}
	return nil
}

// SetOrCreate 写入节点数据，节点不存在时先创建
func (c *Conn) SetOrCreate(path string, data []byte) error {
	_, err := c.Set(path, data, -1)
	if err == zk.ErrNoNode {
		_, err = c.Create(path, data, 0, zk.WorldACL(zk.PermAll))
	}
	if err != nil && err != zk.ErrNodeExists {
		return fmt.Errorf("failed to write node %s: %w", path, err)
	}
	return nil
}

func splitPath(path string) []string {
	var parts []string
	var cur string
	for _, r := range path {
		if r == '/' {
			if cur != "" {
				parts = append(parts, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		parts = append(parts, cur)
	}
	return parts
}
