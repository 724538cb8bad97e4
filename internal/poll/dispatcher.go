// Package poll routes external task ids back to the provider adapter that
// minted them. It holds no task state; everything needed to re-reach the
// provider rides inside the id itself.
package poll

import (
	"context"

	"github.com/hardingCheng/waoowaoo/internal/domain"
	"github.com/hardingCheng/waoowaoo/internal/taskid"
)

// Poller performs one status check for a decoded task reference.
type Poller interface {
	Poll(ctx context.Context, userID string, ref taskid.Ref) (*domain.PollResult, error)
}

// Dispatcher decodes external ids and routes them to registered pollers by
// their provider tag.
type Dispatcher struct {
	pollers map[string]Poller
}

// NewDispatcher builds a dispatcher over a provider-tag to poller map.
func NewDispatcher(pollers map[string]Poller) *Dispatcher {
	if pollers == nil {
		pollers = map[string]Poller{}
	}
	return &Dispatcher{pollers: pollers}
}

// Check decodes the external id, recovers the provider identity embedded in
// it and performs a single status poll. Malformed or unroutable ids fail
// with OPENAI_VIDEO_TASK_ID_INVALID.
func (d *Dispatcher) Check(ctx context.Context, userID, externalID string) (*domain.PollResult, error) {
	ref, err := taskid.Decode(externalID)
	if err != nil {
		return nil, domain.WrapError(domain.CodeVideoTaskIDInvalid, err, "external task id is not decodable")
	}
	if ref.Kind != domain.TaskKindVideo {
		return nil, domain.NewError(domain.CodeVideoTaskIDInvalid, "task kind %q is not pollable", ref.Kind)
	}
	poller, ok := d.pollers[ref.Provider]
	if !ok {
		return nil, domain.NewError(domain.CodeVideoTaskIDInvalid, "no adapter registered for provider tag %q", ref.Provider)
	}
	return poller.Poll(ctx, userID, ref)
}
