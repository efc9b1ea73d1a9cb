// Package pubsub is a small in-process publish/subscribe hub. Slow
// subscribers never block publishers: each subscription buffers the latest
// message and older undelivered messages are dropped.
package pubsub

import (
	"sync"
)

type Publisher interface {
	Publish(topic string, data []byte)
}

type Subscriber interface {
	Subscribe(topics ...string) Subscription
}

type Subscription interface {
	Wait() <-chan []byte
	Close()
}

func New() *Client {
	return &Client{
		topics: map[string]map[*subscription]struct{}{},
	}
}

type Client struct {
	mu     sync.Mutex
	topics map[string]map[*subscription]struct{}
}

var _ Publisher = (*Client)(nil)
var _ Subscriber = (*Client)(nil)

func (c *Client) Publish(topic string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.topics[topic] {
		sub.send(data)
	}
}

func (c *Client) Subscribe(topics ...string) Subscription {
	sub := &subscription{
		ch:     make(chan []byte, 1),
		client: c,
		topics: topics,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		if c.topics[topic] == nil {
			c.topics[topic] = map[*subscription]struct{}{}
		}
		c.topics[topic][sub] = struct{}{}
	}
	return sub
}

func (c *Client) unsubscribe(sub *subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range sub.topics {
		delete(c.topics[topic], sub)
		if len(c.topics[topic]) == 0 {
			delete(c.topics, topic)
		}
	}
}

type subscription struct {
	ch     chan []byte
	client *Client
	topics []string
	once   sync.Once
}

// send replaces any pending message with data. Called with the client lock
// held, so sends to one subscription never race.
func (s *subscription) send(data []byte) {
	select {
	case s.ch <- data:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- data
}

func (s *subscription) Wait() <-chan []byte {
	return s.ch
}

func (s *subscription) Close() {
	s.once.Do(func() { s.client.unsubscribe(s) })
}
