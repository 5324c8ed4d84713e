package pairing_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/s376930/Chat-Arena/internal/catalog"
	"github.com/s376930/Chat-Arena/internal/conversation"
	"github.com/s376930/Chat-Arena/internal/event"
	"github.com/s376930/Chat-Arena/internal/pairing"
	"github.com/s376930/Chat-Arena/internal/session"
	"github.com/s376930/Chat-Arena/internal/storage"
	"github.com/s376930/Chat-Arena/pkg/types"
)

// fakeConn records every frame written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []types.ServerFrame
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := v.(types.ServerFrame); ok {
		c.frames = append(c.frames, f)
	}
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) all() []types.ServerFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.ServerFrame(nil), c.frames...)
}

func (c *fakeConn) typed(t types.FrameType) []types.ServerFrame {
	var out []types.ServerFrame
	for _, f := range c.all() {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) frameTypes() []types.FrameType {
	var out []types.FrameType
	for _, f := range c.all() {
		out = append(out, f.Type)
	}
	return out
}

// fakeAI stands in for the AI registry.
type fakeAI struct {
	mu        sync.Mutex
	available bool
	spawnErr  error
	nextID    int
	spawned   []string
	removed   []string
}

func (a *fakeAI) Available() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.available
}

func (a *fakeAI) Spawn(ctx context.Context, partnerID, sessionID, topic, task string) (types.AISession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.spawnErr != nil {
		return types.AISession{}, a.spawnErr
	}
	a.nextID++
	id := fmt.Sprintf("ai_%08d", a.nextID)
	a.spawned = append(a.spawned, id)
	return types.AISession{
		AIID:        id,
		PersonaID:   "curious_alex",
		PersonaName: "Alex",
		Provider:    "anthropic",
		Model:       "claude-sonnet-4-20250514",
	}, nil
}

func (a *fakeAI) Remove(ctx context.Context, aiID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removed = append(a.removed, aiID)
}

func (a *fakeAI) spawnCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.spawned)
}

func (a *fakeAI) removedIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.removed...)
}

// arena bundles the collaborators a pairing scenario needs.
type arena struct {
	table  *session.Table
	queue  *pairing.Queue
	cat    *catalog.Store
	convs  *conversation.Log
	ai     *fakeAI
	pairer *pairing.Pairer
	cfg    *types.Config
}

func testConfig() *types.Config {
	return &types.Config{
		Chat: types.ChatConfig{
			MinThinkChars:            10,
			InactivityTimeoutSeconds: 1800,
			InactivityCheckSeconds:   60,
		},
		Pairing: types.PairingConfig{DelayEnabled: false, DelaySeconds: 10},
		AI:      types.AIConfig{Enabled: true, MaxParticipants: 5},
	}
}

// newArena builds a fresh arena over a temp data dir. ai may be nil,
// seed=false leaves the catalog empty.
func newArena(cfg *types.Config, ai *fakeAI, seed bool) *arena {
	dir, err := os.MkdirTemp("", "arena-pairing-*")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(os.RemoveAll, dir)

	store := storage.New(dir)
	cat := catalog.New(store)
	if seed {
		ctx := context.Background()
		for _, text := range []string{"Dream vacations", "Favorite books"} {
			_, err := cat.AddTopic(ctx, text)
			Expect(err).NotTo(HaveOccurred())
		}
		for _, text := range []string{
			"Ask about their childhood",
			"Share a personal story",
			"Find three things in common",
			"Play devil's advocate",
		} {
			_, err := cat.AddTask(ctx, text)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	convs := conversation.NewLog(store)
	queue := pairing.NewQueue(cfg.Pairing.Delay())
	table := session.NewTable()

	var aiIface pairing.AI
	if ai != nil {
		aiIface = ai
	}

	return &arena{
		table:  table,
		queue:  queue,
		cat:    cat,
		convs:  convs,
		ai:     ai,
		pairer: pairing.New(table, queue, cat, convs, aiIface, cfg),
		cfg:    cfg,
	}
}

func (a *arena) connect() (string, *fakeConn) {
	conn := &fakeConn{}
	return a.table.Connect(conn), conn
}

var _ = Describe("Pairing protocol", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		event.Reset()
	})

	Describe("joining the queue", func() {
		It("rejects a join without consent", func() {
			a := newArena(testConfig(), nil, true)
			userID, conn := a.connect()

			a.pairer.Join(ctx, userID, false)

			errs := conn.typed(types.FrameError)
			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Message).To(Equal("Consent required to participate"))
			Expect(a.queue.Size()).To(BeZero())

			s, ok := a.table.Get(userID)
			Expect(ok).To(BeTrue())
			Expect(s.Consented).To(BeFalse())
		})

		It("puts the first consenting user in the queue at position 1", func() {
			a := newArena(testConfig(), nil, true)
			userID, conn := a.connect()

			a.pairer.Join(ctx, userID, true)

			waiting := conn.typed(types.FrameWaiting)
			Expect(waiting).To(HaveLen(1))
			Expect(waiting[0].Position).To(Equal(1))
			Expect(a.queue.Position(userID)).To(Equal(1))

			s, _ := a.table.Get(userID)
			Expect(s.Consented).To(BeTrue())
			Expect(s.LastActivity).NotTo(BeNil())
		})

		It("ignores a repeated join from a paired user", func() {
			a := newArena(testConfig(), nil, true)
			userA, _ := a.connect()
			userB, _ := a.connect()
			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)
			Expect(a.table.IsPaired(userA)).To(BeTrue())

			a.pairer.Join(ctx, userA, true)

			Expect(a.queue.Position(userA)).To(BeZero(),
				"a paired user must never sit in the queue")
			Expect(a.table.IsPaired(userA)).To(BeTrue())
		})
	})

	Describe("matching two humans", func() {
		It("pairs two waiting users into one session", func() {
			a := newArena(testConfig(), nil, true)
			userA, connA := a.connect()
			userB, connB := a.connect()

			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)

			pairedA := connA.typed(types.FramePaired)
			pairedB := connB.typed(types.FramePaired)
			Expect(pairedA).To(HaveLen(1))
			Expect(pairedB).To(HaveLen(1))
			Expect(pairedA[0].SessionID).To(Equal(pairedB[0].SessionID))
			Expect(pairedA[0].Topic).To(Equal(pairedB[0].Topic))
			Expect(pairedA[0].Task).NotTo(Equal(pairedB[0].Task),
				"each side gets a distinct task")

			Expect(a.table.VerifyPairing(userA, userB)).To(BeTrue())
			Expect(a.queue.Size()).To(BeZero())

			conv, ok := a.convs.Active(pairedA[0].SessionID)
			Expect(ok).To(BeTrue())
			Expect(conv.Participants).To(HaveLen(2))
			Expect(conv.Topic).To(Equal(pairedA[0].Topic))
		})

		It("tells both users when the catalog is empty", func() {
			a := newArena(testConfig(), nil, false)
			userA, connA := a.connect()
			userB, connB := a.connect()

			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)

			for _, conn := range []*fakeConn{connA, connB} {
				errs := conn.typed(types.FrameError)
				Expect(errs).To(HaveLen(1))
				Expect(errs[0].Message).To(Equal("No topics or tasks available. Please try again later."))
			}

			// Both stayed in line for a later attempt.
			Expect(a.queue.Position(userA)).NotTo(BeZero())
			Expect(a.queue.Position(userB)).NotTo(BeZero())
			Expect(a.table.IsPaired(userA)).To(BeFalse())
		})

		It("requeues the requester when the partner cannot be committed", func() {
			a := newArena(testConfig(), nil, true)
			// A ghost at the head of the queue with no session behind it.
			a.queue.Add("user_deadbeef")

			userA, connA := a.connect()
			a.pairer.Join(ctx, userA, true)

			Expect(a.table.IsPaired(userA)).To(BeFalse())
			Expect(a.queue.Position(userA)).To(Equal(1),
				"the ghost is consumed, the requester requeued")
			Expect(connA.typed(types.FrameError)).To(BeEmpty(),
				"a failed commit requeues silently")

			// The next arrival pairs normally.
			userB, connB := a.connect()
			a.pairer.Join(ctx, userB, true)
			Expect(connA.typed(types.FramePaired)).To(HaveLen(1))
			Expect(connB.typed(types.FramePaired)).To(HaveLen(1))
		})
	})

	Describe("the AI fallback", func() {
		It("pairs a lone eligible waiter with an AI participant", func() {
			cfg := testConfig()
			cfg.AI.ForceOnOddUsers = true
			ai := &fakeAI{available: true}
			a := newArena(cfg, ai, true)

			userID, conn := a.connect()
			a.pairer.Join(ctx, userID, true)

			Expect(conn.frameTypes()).To(Equal([]types.FrameType{types.FrameWaiting, types.FramePaired}))

			s, _ := a.table.Get(userID)
			Expect(s.IsAIPartner).To(BeTrue())
			Expect(s.PartnerID).To(HavePrefix("ai_"))
			Expect(a.queue.Size()).To(BeZero())

			rec, ok := a.table.AISession(s.PartnerID)
			Expect(ok).To(BeTrue())
			Expect(rec.PartnerID).To(Equal(userID))
			Expect(rec.SessionID).To(Equal(s.SessionID))
			Expect(rec.IsActive).To(BeTrue())
			Expect(rec.Topic).NotTo(BeEmpty())
			Expect(rec.Task).NotTo(BeEmpty())

			conv, ok := a.convs.Active(s.SessionID)
			Expect(ok).To(BeTrue())
			Expect(conv.Participants[1].UserID).To(Equal(s.PartnerID))
		})

		It("stays out of the way when the subsystem is unavailable", func() {
			cfg := testConfig()
			cfg.AI.ForceOnOddUsers = true
			ai := &fakeAI{available: false}
			a := newArena(cfg, ai, true)

			userID, conn := a.connect()
			a.pairer.Join(ctx, userID, true)

			Expect(conn.typed(types.FramePaired)).To(BeEmpty())
			Expect(a.queue.Position(userID)).To(Equal(1))
			Expect(ai.spawnCount()).To(BeZero())
		})

		It("keeps the user queued when the spawn fails", func() {
			cfg := testConfig()
			cfg.AI.ForceOnOddUsers = true
			ai := &fakeAI{available: true, spawnErr: errors.New("no provider ready")}
			a := newArena(cfg, ai, true)

			userID, conn := a.connect()
			a.pairer.Join(ctx, userID, true)

			Expect(conn.typed(types.FramePaired)).To(BeEmpty())
			Expect(a.queue.Position(userID)).To(Equal(1))
			Expect(a.table.IsPaired(userID)).To(BeFalse())
		})

		It("does not force AI pairing when the policy is off", func() {
			cfg := testConfig()
			cfg.AI.ForceOnOddUsers = false
			ai := &fakeAI{available: true}
			a := newArena(cfg, ai, true)

			userID, _ := a.connect()
			a.pairer.Join(ctx, userID, true)

			Expect(a.queue.Position(userID)).To(Equal(1))
			Expect(ai.spawnCount()).To(BeZero())
		})
	})

	Describe("reassignment", func() {
		It("separates both sides and requeues them behind cooldowns", func() {
			cfg := testConfig()
			cfg.Pairing.DelayEnabled = true
			a := newArena(cfg, nil, true)

			userA, connA := a.connect()
			userB, connB := a.connect()
			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)
			sessionID := connA.typed(types.FramePaired)[0].SessionID

			a.pairer.Reassign(ctx, userA)

			// The partner hears partner_left before their new position.
			bTypes := connB.frameTypes()
			Expect(bTypes).To(ContainElement(types.FramePartnerLeft))
			var left, waiting int
			for i, ft := range bTypes {
				switch ft {
				case types.FramePartnerLeft:
					left = i
				case types.FrameWaiting:
					waiting = i
				}
			}
			Expect(left).To(BeNumerically("<", waiting))

			Expect(a.table.IsPaired(userA)).To(BeFalse())
			Expect(a.table.IsPaired(userB)).To(BeFalse())
			Expect(a.queue.OnCooldown(userA)).To(BeTrue())
			Expect(a.queue.OnCooldown(userB)).To(BeTrue())
			Expect(a.queue.Position(userB)).To(Equal(1), "the partner requeues first")
			Expect(a.queue.Position(userA)).To(Equal(2))

			conv, err := a.convs.Get(ctx, sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.EndedAt).NotTo(BeNil())
		})

		It("re-pairs immediately when the cooldown policy is off", func() {
			a := newArena(testConfig(), nil, true)
			userA, connA := a.connect()
			userB, connB := a.connect()
			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)
			firstSession := connA.typed(types.FramePaired)[0].SessionID

			a.pairer.Reassign(ctx, userA)

			pairedA := connA.typed(types.FramePaired)
			Expect(pairedA).To(HaveLen(2))
			Expect(pairedA[1].SessionID).NotTo(Equal(firstSession))
			Expect(connB.typed(types.FramePaired)).To(HaveLen(2))
			Expect(a.table.VerifyPairing(userA, userB)).To(BeTrue())
		})

		It("dismisses an AI partner on reassignment", func() {
			cfg := testConfig()
			cfg.Pairing.DelayEnabled = true
			cfg.AI.ForceOnOddUsers = true
			ai := &fakeAI{available: true}
			a := newArena(cfg, ai, true)

			userID, conn := a.connect()
			a.pairer.Join(ctx, userID, true)
			s, _ := a.table.Get(userID)
			aiID := s.PartnerID
			sessionID := s.SessionID

			a.pairer.Reassign(ctx, userID)

			Expect(ai.removedIDs()).To(ContainElement(aiID))
			_, ok := a.table.AISession(aiID)
			Expect(ok).To(BeFalse())
			Expect(a.table.IsPaired(userID)).To(BeFalse())
			Expect(a.queue.Position(userID)).To(Equal(1))
			Expect(conn.typed(types.FrameWaiting)).To(HaveLen(2))

			conv, err := a.convs.Get(ctx, sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.EndedAt).NotTo(BeNil())
		})
	})

	Describe("disconnects", func() {
		It("notifies and requeues the surviving partner", func() {
			cfg := testConfig()
			cfg.Pairing.DelayEnabled = true
			a := newArena(cfg, nil, true)

			userA, connA := a.connect()
			userB, connB := a.connect()
			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)
			sessionID := connA.typed(types.FramePaired)[0].SessionID

			a.pairer.Disconnect(ctx, userA)

			_, ok := a.table.Get(userA)
			Expect(ok).To(BeFalse(), "the disconnected session is gone")
			Expect(connB.typed(types.FramePartnerLeft)).To(HaveLen(1))
			Expect(a.queue.Position(userB)).To(Equal(1))
			Expect(a.queue.OnCooldown(userB)).To(BeTrue())

			conv, err := a.convs.Get(ctx, sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.EndedAt).NotTo(BeNil())
		})

		It("cleans up a waiting user silently", func() {
			a := newArena(testConfig(), nil, true)
			userID, conn := a.connect()
			a.pairer.Join(ctx, userID, true)

			a.pairer.Disconnect(ctx, userID)

			Expect(a.queue.Size()).To(BeZero())
			Expect(a.table.Count()).To(BeZero())
			Expect(conn.all()).To(HaveLen(1), "only the waiting frame was ever sent")
		})

		It("removes the AI partner when its human disconnects", func() {
			cfg := testConfig()
			cfg.AI.ForceOnOddUsers = true
			ai := &fakeAI{available: true}
			a := newArena(cfg, ai, true)

			userID, _ := a.connect()
			a.pairer.Join(ctx, userID, true)
			s, _ := a.table.Get(userID)
			aiID := s.PartnerID

			a.pairer.Disconnect(ctx, userID)

			Expect(ai.removedIDs()).To(ContainElement(aiID))
			_, ok := a.table.AISession(aiID)
			Expect(ok).To(BeFalse())
			Expect(a.table.ActiveAICount()).To(BeZero())
		})
	})

	Describe("inactivity eviction", func() {
		It("evicts the idle user but keeps the connection", func() {
			cfg := testConfig()
			cfg.Pairing.DelayEnabled = true
			a := newArena(cfg, nil, true)

			userA, connA := a.connect()
			userB, connB := a.connect()
			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)
			sessionID := connA.typed(types.FramePaired)[0].SessionID

			a.pairer.KickInactive(ctx, userA)

			Expect(connA.typed(types.FrameInactivityKick)).To(HaveLen(1))

			s, ok := a.table.Get(userA)
			Expect(ok).To(BeTrue(), "the connection survives eviction")
			Expect(s.Consented).To(BeFalse())
			Expect(s.Paired).To(BeFalse())
			Expect(s.LastActivity).To(BeNil())
			Expect(a.queue.Position(userA)).To(BeZero())

			Expect(connB.typed(types.FramePartnerLeft)).To(HaveLen(1))
			Expect(a.queue.Position(userB)).To(Equal(1))

			conv, err := a.convs.Get(ctx, sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.EndedAt).NotTo(BeNil())
		})

		It("sweeps idle pairings on a timer", func() {
			cfg := testConfig()
			cfg.Pairing.DelayEnabled = true
			cfg.Chat.InactivityTimeoutSeconds = 1
			cfg.Chat.InactivityCheckSeconds = 1
			a := newArena(cfg, nil, true)

			userA, connA := a.connect()
			userB, connB := a.connect()
			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)

			stale := time.Now().Add(-time.Hour)
			a.table.Update(userA, func(s *types.Session) { s.LastActivity = &stale })

			evictor := pairing.NewEvictor(a.table, a.pairer, cfg)
			evictor.Start()
			DeferCleanup(evictor.Stop)

			Eventually(func() bool {
				return a.table.IsPaired(userA)
			}, "4s", "50ms").Should(BeFalse())
			Expect(connA.typed(types.FrameInactivityKick)).To(HaveLen(1))
			Eventually(func() int {
				return a.queue.Position(userB)
			}, "1s", "50ms").Should(Equal(1))
			Expect(connB.typed(types.FramePartnerLeft)).To(HaveLen(1))
		})
	})

	Describe("delayed pairing", func() {
		It("re-attempts the match after the cooldown lapses", func() {
			cfg := testConfig()
			cfg.Pairing.DelayEnabled = true
			cfg.Pairing.DelaySeconds = 1
			a := newArena(cfg, nil, true)

			userA, connA := a.connect()
			userB, _ := a.connect()
			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)
			firstSession := connA.typed(types.FramePaired)[0].SessionID

			a.pairer.Reassign(ctx, userA)
			Expect(a.table.IsPaired(userA)).To(BeFalse())

			Eventually(func() bool {
				return a.table.VerifyPairing(userA, userB)
			}, "5s", "100ms").Should(BeTrue())

			s, _ := a.table.Get(userA)
			Expect(s.SessionID).NotTo(Equal(firstSession))
		})

		It("falls back to AI for a waiter whose cooldown lapsed alone", func() {
			cfg := testConfig()
			cfg.Pairing.DelayEnabled = true
			cfg.Pairing.DelaySeconds = 1
			cfg.AI.ForceOnOddUsers = true
			ai := &fakeAI{available: false}
			a := newArena(cfg, ai, true)

			userA, _ := a.connect()
			userB, _ := a.connect()
			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)

			// AI comes online only after the humans split up.
			a.pairer.Reassign(ctx, userA)
			a.pairer.Disconnect(ctx, userB)
			ai.mu.Lock()
			ai.available = true
			ai.mu.Unlock()

			Eventually(func() bool {
				s, ok := a.table.Get(userA)
				return ok && s.Paired && s.IsAIPartner
			}, "5s", "100ms").Should(BeTrue())
			Expect(ai.spawnCount()).To(Equal(1))
		})
	})

	Describe("event publication", func() {
		It("announces the pairing lifecycle on the bus", func() {
			var mu sync.Mutex
			var seen []event.EventType
			unsubscribe := event.SubscribeAll(func(e event.Event) {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, e.Type)
			})
			DeferCleanup(unsubscribe)

			a := newArena(testConfig(), nil, true)
			userA, _ := a.connect()
			userB, _ := a.connect()
			a.pairer.Join(ctx, userA, true)
			a.pairer.Join(ctx, userB, true)
			a.pairer.Reassign(ctx, userA)

			Eventually(func() []event.EventType {
				mu.Lock()
				defer mu.Unlock()
				return append([]event.EventType(nil), seen...)
			}, "2s", "20ms").Should(ContainElements(
				event.UserWaiting,
				event.PairCreated,
				event.PairBroken,
			))
		})
	})
})
