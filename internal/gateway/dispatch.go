package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/observability/metrics"
	"github.com/yourorg/workstream/internal/resource"
	"github.com/yourorg/workstream/internal/security"
	"github.com/yourorg/workstream/internal/security/audit"
	"github.com/yourorg/workstream/internal/security/ratelimit"
	"github.com/yourorg/workstream/internal/service"
)

const responseSuffix = "-response"

type handlerFunc func(ctx context.Context, sess domain.Session, data json.RawMessage) (any, error)

type handlerEntry struct {
	resource string
	action   resource.Action
	roles    []domain.Role
	fn       handlerFunc
}

// Dispatcher routes inbound events to resource operations. Every registered
// resource gets the same six handlers; authorization, rate limiting, audit,
// and broadcasts are applied uniformly here.
type Dispatcher struct {
	registry  *service.Registry
	hub       *Hub
	broadcast *Broadcaster
	limiter   *ratelimit.Limiter
	audit     *audit.Logger
	logger    *slog.Logger
	handlers  map[string]handlerEntry
}

func NewDispatcher(reg *service.Registry, hub *Hub, bc *Broadcaster, limiter *ratelimit.Limiter, al *audit.Logger, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		registry:  reg,
		hub:       hub,
		broadcast: bc,
		limiter:   limiter,
		audit:     al,
		logger:    logger,
		handlers:  map[string]handlerEntry{},
	}
	for _, res := range reg.All() {
		d.register(res)
	}
	return d
}

func (d *Dispatcher) register(res *service.Resource) {
	desc := res.Descriptor()
	add := func(action resource.Action, fn handlerFunc) {
		d.handlers[desc.Name+":"+string(action)] = handlerEntry{
			resource: desc.Name,
			action:   action,
			roles:    desc.RolesFor(action),
			fn:       fn,
		}
	}

	add(resource.ActionCreate, func(ctx context.Context, sess domain.Session, data json.RawMessage) (any, error) {
		var input domain.Document
		if err := json.Unmarshal(data, &input); err != nil {
			return nil, domain.Validation("invalid payload")
		}
		return res.Create(ctx, sess.CompanyID, input)
	})

	add(resource.ActionGetAll, func(ctx context.Context, sess domain.Session, data json.RawMessage) (any, error) {
		var req listRequest
		if len(data) > 0 {
			if err := json.Unmarshal(data, &req); err != nil {
				return nil, domain.Validation("invalid payload")
			}
		}
		return res.List(ctx, sess.CompanyID, req.toFilters())
	})

	add(resource.ActionGetByID, func(ctx context.Context, sess domain.Session, data json.RawMessage) (any, error) {
		var req idRequest
		if err := json.Unmarshal(data, &req); err != nil || req.ID == "" {
			return nil, domain.Validation("id is required")
		}
		return res.Get(ctx, sess.CompanyID, req.ID)
	})

	add(resource.ActionUpdate, func(ctx context.Context, sess domain.Session, data json.RawMessage) (any, error) {
		id, patch, err := decodeUpdate(data)
		if err != nil {
			return nil, domain.Validation("invalid payload")
		}
		if id == "" {
			return nil, domain.Validation("id is required")
		}
		return res.Update(ctx, sess.CompanyID, id, patch)
	})

	add(resource.ActionDelete, func(ctx context.Context, sess domain.Session, data json.RawMessage) (any, error) {
		var req idRequest
		if err := json.Unmarshal(data, &req); err != nil || req.ID == "" {
			return nil, domain.Validation("id is required")
		}
		if err := res.Delete(ctx, sess.CompanyID, req.ID); err != nil {
			return nil, err
		}
		return domain.Document{"id": req.ID}, nil
	})

	add(resource.ActionStats, func(ctx context.Context, sess domain.Session, data json.RawMessage) (any, error) {
		return res.Stats(ctx, sess.CompanyID)
	})
}

// Dispatch runs one inbound frame and acknowledges it through reply. The
// ack event is the request event with "-response" appended and carries the
// request's correlation id back.
func (d *Dispatcher) Dispatch(ctx context.Context, sess domain.Session, env Envelope, reply func(Response)) {
	started := time.Now()
	ack := Response{Event: env.Event + responseSuffix, ID: env.ID}

	entry, ok := d.handlers[env.Event]
	if !ok {
		ack.Error = fmt.Sprintf("unknown event %q", env.Event)
		reply(ack)
		return
	}

	result, err := d.run(ctx, sess, entry, env.Data)
	metrics.ObserveEvent(entry.resource, string(entry.action), resultLabel(err), time.Since(started))

	if err != nil {
		ack.Error = err.Error()
		reply(ack)
		if resource.MutatingActions[entry.action] && domain.KindOf(err) == domain.KindUnauthorized {
			d.audit.LogDenied(ctx, sess.CompanyID, sess.UserID, entry.resource, err.Error())
		}
		return
	}

	ack.Done = true
	ack.Data = result
	reply(ack)

	if resource.MutatingActions[entry.action] {
		d.afterMutation(ctx, sess, entry, result)
	}
}

// run executes the handler inside an error boundary so a panicking handler
// fails a single request instead of the connection.
func (d *Dispatcher) run(ctx context.Context, sess domain.Session, entry handlerEntry, data json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic",
				slog.String("resource", entry.resource),
				slog.String("action", string(entry.action)),
				slog.Any("panic", r))
			result = nil
			err = domain.Internal(fmt.Sprintf("failed to %s %s", entry.action, entry.resource), nil)
		}
	}()

	if !sess.Valid() {
		return nil, domain.Unauthorized("invalid session")
	}
	if !security.Allowed(sess.Role, entry.roles) {
		return nil, domain.Unauthorized(fmt.Sprintf("role %s may not %s %s", sess.Role, entry.action, entry.resource))
	}
	if resource.MutatingActions[entry.action] && d.limiter != nil && !d.limiter.Allow(sess.CompanyID) {
		return nil, domain.Unauthorized("rate limit exceeded")
	}

	return entry.fn(ctx, sess, data)
}

// afterMutation emits the entity broadcast synchronously and schedules the
// list refresh; both go to the tenant's room only.
func (d *Dispatcher) afterMutation(ctx context.Context, sess domain.Session, entry handlerEntry, result any) {
	d.audit.LogMutation(ctx, sess.CompanyID, sess.UserID, string(entry.action), entry.resource, resultID(result), "success")

	room := RoomForTenant(sess.CompanyID)
	event := entry.resource + ":" + pastTense(entry.action)
	if err := d.hub.Publish(ctx, room, Response{Event: event, Done: true, Data: result}); err != nil {
		d.logger.Error("entity broadcast failed",
			slog.String("event", event),
			slog.String("error", err.Error()))
		metrics.ObserveBroadcast(entry.resource, "error")
	} else {
		metrics.ObserveBroadcast(entry.resource, "success")
	}

	d.broadcast.Sync(entry.resource, sess.CompanyID)
}

func pastTense(action resource.Action) string {
	switch action {
	case resource.ActionCreate:
		return "created"
	case resource.ActionUpdate:
		return "updated"
	case resource.ActionDelete:
		return "deleted"
	}
	return string(action)
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return domain.KindOf(err).String()
}

func resultID(result any) string {
	if doc, ok := result.(domain.Document); ok {
		return doc.String(domain.FieldID)
	}
	return ""
}
