package producer

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
}

// EnsureTopic 通知 topic 不存在時建立，已存在不做任何事
// 建立 topic 必須連到 controller
func EnsureTopic(ctx context.Context, brokers []string, topic TopicConfig) (created bool, err error) {
	conn, err := dialController(ctx, brokers)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return false, fmt.Errorf("read partitions: %w", err)
	}
	for _, p := range partitions {
		if p.Topic == topic.Name {
			return false, nil
		}
	}

	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic.Name,
		NumPartitions:     topic.Partitions,
		ReplicationFactor: topic.ReplicationFactor,
	}); err != nil {
		return false, fmt.Errorf("create topic %s: %w", topic.Name, err)
	}
	return true, nil
}

func dialController(ctx context.Context, brokers []string) (*kafka.Conn, error) {
	var lastErr error
	for _, broker := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}

		controller, err := conn.Controller()
		if err != nil {
			conn.Close()
			lastErr = err
			continue
		}

		addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
		if addr == broker {
			return conn, nil
		}
		conn.Close()
		conn, err = kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		return conn, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no brokers configured")
	}
	return nil, fmt.Errorf("find kafka controller: %w", lastErr)
}
