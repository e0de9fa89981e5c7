package connections

import (
	domain "github.com/htm-project/neural-api/internal/domain/connections"
)

// Subscribe registers handler and takes ownership of it. Firing order
// among multiple subscribers is subscription order. The returned token is
// opaque and is consumed by Unsubscribe.
func (c *Connections) Subscribe(handler domain.EventHandler) domain.SubscriptionToken {
	token := domain.NewSubscriptionToken()
	c.observers = append(c.observers, subscription{token: token, handler: handler})
	return token
}

// Unsubscribe removes the handler registered under token and destroys it.
// Subsequent events do not reach it. Unsubscribing an unknown token is a
// no-op.
func (c *Connections) Unsubscribe(token domain.SubscriptionToken) {
	for i, sub := range c.observers {
		if sub.token == token {
			sub.handler.Destroy()
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

func (c *Connections) notifyCreateSegment(s domain.SegmentID) {
	for _, sub := range c.observers {
		sub.handler.OnCreateSegment(s)
	}
}

func (c *Connections) notifyDestroySegment(s domain.SegmentID) {
	for _, sub := range c.observers {
		sub.handler.OnDestroySegment(s)
	}
}

func (c *Connections) notifyCreateSynapse(y domain.SynapseID) {
	for _, sub := range c.observers {
		sub.handler.OnCreateSynapse(y)
	}
}

func (c *Connections) notifyDestroySynapse(y domain.SynapseID) {
	for _, sub := range c.observers {
		sub.handler.OnDestroySynapse(y)
	}
}

func (c *Connections) notifyUpdateSynapsePermanence(y domain.SynapseID, permanence float32) {
	for _, sub := range c.observers {
		sub.handler.OnUpdateSynapsePermanence(y, permanence)
	}
}
