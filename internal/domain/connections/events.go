package connections

import "github.com/google/uuid"

// SubscriptionToken is the opaque handle returned by Subscribe and consumed
// by Unsubscribe. It is backed by a UUID rather than a raw counter so it
// carries no information about subscription order or count.
type SubscriptionToken uuid.UUID

// NewSubscriptionToken mints a fresh, random token.
func NewSubscriptionToken() SubscriptionToken {
	return SubscriptionToken(uuid.New())
}

func (t SubscriptionToken) String() string {
	return uuid.UUID(t).String()
}

// EventHandler is the five-hook observer interface structural mutators
// notify after a change has been applied to both the forward and reverse
// stores. The store takes ownership of a handler on Subscribe: it calls
// Destroy on Unsubscribe and expects no further calls afterward.
type EventHandler interface {
	OnCreateSegment(segment SegmentID)
	OnDestroySegment(segment SegmentID)
	OnCreateSynapse(synapse SynapseID)
	OnDestroySynapse(synapse SynapseID)
	OnUpdateSynapsePermanence(synapse SynapseID, permanence float32)

	// Destroy releases any resources the handler holds. The store calls it
	// exactly once, on Unsubscribe, and never touches the handler again.
	Destroy()
}

// NopEventHandler is a zero-cost EventHandler callers can embed to
// implement only the hooks they care about.
type NopEventHandler struct{}

func (NopEventHandler) OnCreateSegment(SegmentID)                     {}
func (NopEventHandler) OnDestroySegment(SegmentID)                    {}
func (NopEventHandler) OnCreateSynapse(SynapseID)                     {}
func (NopEventHandler) OnDestroySynapse(SynapseID)                    {}
func (NopEventHandler) OnUpdateSynapsePermanence(SynapseID, float32)  {}
func (NopEventHandler) Destroy()                                      {}
