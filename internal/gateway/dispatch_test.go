package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/security/audit"
	"github.com/yourorg/workstream/internal/security/ratelimit"
	"github.com/yourorg/workstream/internal/service"
	"github.com/yourorg/workstream/internal/store/memory"
	"github.com/yourorg/workstream/pkg/cache"
)

func adminSession(companyID string) domain.Session {
	return domain.Session{
		UserID:            "user-1",
		Email:             "admin@test",
		Role:              domain.RoleAdmin,
		CompanyID:         companyID,
		MetadataCompanyID: companyID,
	}
}

type fixture struct {
	hub         *Hub
	dispatcher  *Dispatcher
	broadcaster *Broadcaster
}

func newFixture(t *testing.T, limiter *ratelimit.Limiter) *fixture {
	t.Helper()
	log := slog.Default()
	registry := service.NewRegistry(memory.New(), log, cache.New())
	hub := NewHub(log)
	broadcaster := NewBroadcaster(registry, hub, log)
	dispatcher := NewDispatcher(registry, hub, broadcaster, limiter, audit.NewLogger(log, nil), log)
	return &fixture{hub: hub, dispatcher: dispatcher, broadcaster: broadcaster}
}

func dispatch(t *testing.T, f *fixture, sess domain.Session, event string, data any) Response {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var got Response
	f.dispatcher.Dispatch(context.Background(), sess,
		Envelope{Event: event, ID: "req-1", Data: raw},
		func(r Response) { got = r })
	return got
}

func TestDispatchUnknownEvent(t *testing.T) {
	f := newFixture(t, nil)

	got := dispatch(t, f, adminSession("acme_corp"), "widget:make", map[string]any{})

	if got.Event != "widget:make-response" || got.Done || got.Error == "" {
		t.Fatalf("unexpected ack: %+v", got)
	}
}

func TestDispatchAckEchoesRequestID(t *testing.T) {
	f := newFixture(t, nil)

	got := dispatch(t, f, adminSession("acme_corp"), "deal:getAll", map[string]any{})

	if got.Event != "deal:getAll-response" || got.ID != "req-1" || !got.Done {
		t.Fatalf("unexpected ack: %+v", got)
	}
}

func TestDispatchRoleDeniedForMutation(t *testing.T) {
	f := newFixture(t, nil)
	sess := adminSession("acme_corp")
	sess.Role = domain.RoleEmployee

	got := dispatch(t, f, sess, "deal:create", map[string]any{"name": "nope"})

	if got.Done || got.Error == "" {
		t.Fatalf("employee mutation should be denied, got %+v", got)
	}
}

func TestDispatchEmployeeCanReadCRM(t *testing.T) {
	f := newFixture(t, nil)
	sess := adminSession("acme_corp")
	sess.Role = domain.RoleEmployee

	got := dispatch(t, f, sess, "deal:getAll", map[string]any{})
	if !got.Done {
		t.Fatalf("employee read should pass, got %+v", got)
	}
}

func TestDispatchHRRolesOnHRResources(t *testing.T) {
	f := newFixture(t, nil)

	sess := adminSession("acme_corp")
	sess.Role = domain.RoleHR
	got := dispatch(t, f, sess, "candidate:create", map[string]any{
		"name": "Alex", "position": "Engineer",
	})
	if !got.Done {
		t.Fatalf("hr create candidate should pass, got %+v", got)
	}
	f.broadcaster.Wait()

	// Managers read HR data but cannot mutate it.
	sess.Role = domain.RoleManager
	if got := dispatch(t, f, sess, "candidate:getAll", map[string]any{}); !got.Done {
		t.Fatalf("manager read candidate should pass, got %+v", got)
	}
	if got := dispatch(t, f, sess, "candidate:create", map[string]any{"name": "x", "position": "y"}); got.Done {
		t.Fatal("manager create candidate should be denied")
	}
}

func TestDispatchRejectsInconsistentSession(t *testing.T) {
	f := newFixture(t, nil)
	sess := adminSession("acme_corp")
	sess.MetadataCompanyID = "globex_inc"

	got := dispatch(t, f, sess, "deal:getAll", map[string]any{})

	if got.Done || got.Error != "invalid session" {
		t.Fatalf("mismatched tenant claim should be rejected, got %+v", got)
	}
}

func TestDispatchRateLimitsMutations(t *testing.T) {
	limiter := ratelimit.NewLimiter(1, time.Minute)
	defer limiter.Stop()
	f := newFixture(t, limiter)
	sess := adminSession("acme_corp")

	deal := map[string]any{
		"name": "First", "owner": "Dana",
		"dealValue": 100, "expectedClosedDate": "2026-10-01",
	}
	if got := dispatch(t, f, sess, "deal:create", deal); !got.Done {
		t.Fatalf("first mutation should pass, got %+v", got)
	}
	f.broadcaster.Wait()

	if got := dispatch(t, f, sess, "deal:create", deal); got.Done || got.Error != "rate limit exceeded" {
		t.Fatalf("second mutation should be rate limited, got %+v", got)
	}

	// Reads are not rate limited.
	if got := dispatch(t, f, sess, "deal:getAll", map[string]any{}); !got.Done {
		t.Fatalf("read should bypass the limiter, got %+v", got)
	}
}

func TestDispatchCreateBroadcastsToRoom(t *testing.T) {
	f := newFixture(t, nil)
	sess := adminSession("acme_corp")

	member := &Conn{send: make(chan []byte, 8), sess: sess, logger: slog.Default()}
	f.hub.Join(RoomForTenant("acme_corp"), member)

	outsider := &Conn{send: make(chan []byte, 8), logger: slog.Default()}
	f.hub.Join(RoomForTenant("globex_inc"), outsider)

	got := dispatch(t, f, sess, "deal:create", map[string]any{
		"name": "Acme renewal", "owner": "Dana",
		"dealValue": 100, "expectedClosedDate": "2026-10-01",
	})
	if !got.Done || got.Error != "" {
		t.Fatalf("create failed: %+v", got)
	}
	f.broadcaster.Wait()

	events := map[string]json.RawMessage{}
	for i := 0; i < 2; i++ {
		select {
		case payload := <-member.send:
			var frame Response
			if err := json.Unmarshal(payload, &frame); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			raw, _ := json.Marshal(frame.Data)
			events[frame.Event] = raw
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for broadcast %d, saw %v", i, events)
		}
	}

	if _, ok := events["deal:created"]; !ok {
		t.Errorf("missing entity broadcast, saw %v", events)
	}
	listRaw, ok := events["deal:list-update"]
	if !ok {
		t.Fatalf("missing list refresh, saw %v", events)
	}
	var page struct {
		Total int64 `json:"total"`
		Page  int64 `json:"page"`
		Limit int64 `json:"limit"`
	}
	if err := json.Unmarshal(listRaw, &page); err != nil {
		t.Fatalf("decode list page: %v", err)
	}
	if page.Total != 1 || page.Page != 1 || page.Limit != service.DefaultPageSize {
		t.Errorf("list page = %+v, want first default page with one item", page)
	}

	select {
	case payload := <-outsider.send:
		t.Fatalf("other tenant received %s", payload)
	default:
	}
}

func TestDispatchDeleteRespectsPolicy(t *testing.T) {
	f := newFixture(t, nil)
	sess := adminSession("acme_corp")

	created := dispatch(t, f, sess, "ticket:create", map[string]any{"subject": "Printer"})
	if !created.Done {
		t.Fatalf("create: %+v", created)
	}
	f.broadcaster.Wait()

	doc, _ := created.Data.(domain.Document)
	id := doc.String(domain.FieldID)

	deleted := dispatch(t, f, sess, "ticket:delete", map[string]any{"id": id})
	if !deleted.Done {
		t.Fatalf("delete: %+v", deleted)
	}
	f.broadcaster.Wait()

	got := dispatch(t, f, sess, "ticket:getById", map[string]any{"id": id})
	if got.Done || got.Error != "Ticket not found" {
		t.Fatalf("lookup after delete = %+v, want Ticket not found", got)
	}
}

func TestDispatchUpdateAcceptsFlatPayload(t *testing.T) {
	f := newFixture(t, nil)
	sess := adminSession("acme_corp")

	created := dispatch(t, f, sess, "deal:create", map[string]any{
		"name": "Acme renewal", "owner": "Dana",
		"dealValue": 100, "expectedClosedDate": "2026-10-01",
	})
	if !created.Done {
		t.Fatalf("create: %+v", created)
	}
	f.broadcaster.Wait()

	doc, _ := created.Data.(domain.Document)
	id := doc.String(domain.FieldID)

	updated := dispatch(t, f, sess, "deal:update", map[string]any{
		"id": id, "stage": "Qualified",
	})
	if !updated.Done {
		t.Fatalf("flat update: %+v", updated)
	}
	f.broadcaster.Wait()

	out, _ := updated.Data.(domain.Document)
	if got := out.String("stage"); got != "Qualified" {
		t.Errorf("stage = %q, want Qualified", got)
	}
}

func TestRoomMembership(t *testing.T) {
	hub := NewHub(slog.Default())
	c := &Conn{send: make(chan []byte, 1), logger: slog.Default()}

	room := RoomForTenant("acme_corp")
	hub.Join(room, c)
	if got := hub.MemberCount(room); got != 1 {
		t.Fatalf("members = %d, want 1", got)
	}

	if err := hub.Publish(context.Background(), room, Response{Event: "ping", Done: true}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-c.send:
	default:
		t.Fatal("member did not receive frame")
	}

	hub.Leave(c)
	if got := hub.MemberCount(room); got != 0 {
		t.Fatalf("members after leave = %d, want 0", got)
	}
}
