package colony

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"outpost.sim/internal/protocol"
	"outpost.sim/internal/sim/agent"
	"outpost.sim/internal/sim/autonomy"
	"outpost.sim/internal/sim/jobs"
	"outpost.sim/internal/sim/tuning"
	"outpost.sim/internal/sim/world"
)

type Config struct {
	ID   string
	Seed int64
}

// Colony is the single-threaded tick orchestrator. All simulation state is
// mutated only by its sequential walk; observer attach/detach is funneled
// through channels and applied at tick boundaries.
type Colony struct {
	cfg    Config
	tun    tuning.Tuning
	grid   *world.Grid
	mgr    *jobs.Manager
	board  *jobs.Board
	gen    *autonomy.Generator
	mach   *agent.Machine
	rng    *rand.Rand

	units map[string]*agent.Unit
	// order fixes colonist iteration: spawn order, never map order.
	order []string

	tick        atomic.Uint64
	nextUnitNum atomic.Uint64

	observerJoin  chan observerClient
	observerLeave chan string
	stop          chan struct{}
	observers     map[string]observerClient

	tickLogger TickLogger
	jobSink    JobSink
	indexed    map[int64]bool
}

type observerClient struct {
	ID  string
	Out chan []byte
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// JobSink receives each job exactly once when it retires.
type JobSink interface {
	WriteJob(rec JobRecord) error
}

type TickLogEntry struct {
	Tick        uint64 `json:"tick"`
	Pending     int    `json:"pending"`
	Active      int    `json:"active"`
	JobsCreated int    `json:"jobs_created,omitempty"`
	Events      int    `json:"events,omitempty"`
	Digest      string `json:"digest"`
}

type JobRecord struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	CreatedAt uint64 `json:"created_at"`
	DoneAt    uint64 `json:"done_at"`
}

func New(cfg Config, tun tuning.Tuning, grid *world.Grid) *Colony {
	tun = tun.Defaulted()
	mgr := jobs.NewManager(tun.Jobs.MaxCompletedHistory)
	board := jobs.NewBoard(mgr)
	c := &Colony{
		cfg:           cfg,
		tun:           tun,
		grid:          grid,
		mgr:           mgr,
		board:         board,
		gen:           autonomy.NewGenerator(tun.Autonomy),
		mach:          agent.NewMachine(tun, grid, mgr, board),
		rng:           rand.New(rand.NewSource(cfg.Seed)),
		units:         map[string]*agent.Unit{},
		observerJoin:  make(chan observerClient, 16),
		observerLeave: make(chan string, 16),
		stop:          make(chan struct{}),
		observers:     map[string]observerClient{},
		indexed:       map[int64]bool{},
	}
	return c
}

func (c *Colony) SetTickLogger(l TickLogger) { c.tickLogger = l }
func (c *Colony) SetJobSink(s JobSink)       { c.jobSink = s }

func (c *Colony) ID() string                  { return c.cfg.ID }
func (c *Colony) Manager() *jobs.Manager      { return c.mgr }
func (c *Colony) Board() *jobs.Board          { return c.board }
func (c *Colony) Grid() *world.Grid           { return c.grid }
func (c *Colony) Machine() *agent.Machine     { return c.mach }
func (c *Colony) Stats() autonomy.Stats       { return c.gen.Stats() }
func (c *Colony) CurrentTick() uint64         { return c.tick.Load() }
func (c *Colony) PendingCount() int           { return c.mgr.PendingCount() }
func (c *Colony) ActiveCount() int            { return c.mgr.ActiveCount() }

// AttachObserver registers a feed channel and returns the session id. The
// registration is applied at the next tick boundary.
func (c *Colony) AttachObserver(out chan []byte) string {
	id := fmt.Sprintf("O%d", c.nextUnitNum.Add(1))
	select {
	case c.observerJoin <- observerClient{ID: id, Out: out}:
	default:
	}
	return id
}

func (c *Colony) DetachObserver(id string) {
	select {
	case c.observerLeave <- id:
	default:
	}
}

func (c *Colony) SpawnColonist(name string) *agent.Unit {
	id := fmt.Sprintf("U%d", c.nextUnitNum.Add(1))
	pos := c.findSpawn()
	u := agent.NewColonist(id, name, pos)
	u.Agility = 6 + c.rng.Intn(9)
	u.Bravery = 4 + c.rng.Intn(13)
	c.units[id] = u
	c.order = append(c.order, id)
	c.grid.AddUnit(u.Ref())
	return u
}

// SpawnCreature adds a world-level creature (prey or hostile). Creatures are
// not run through the colonist state machine; they drift randomly.
func (c *Colony) SpawnCreature(kind string, pos world.Point, hostile bool) world.UnitRef {
	id := fmt.Sprintf("C%d", c.nextUnitNum.Add(1))
	ref := world.UnitRef{ID: id, Kind: kind, Pos: pos, HP: 30, MaxHP: 30, Hostile: hostile}
	c.grid.AddUnit(ref)
	return ref
}

func (c *Colony) Units() []*agent.Unit {
	out := make([]*agent.Unit, 0, len(c.order))
	for _, id := range c.order {
		if u := c.units[id]; u != nil {
			out = append(out, u)
		}
	}
	return out
}

func (c *Colony) findSpawn() world.Point {
	center := world.Point{X: c.grid.W / 2, Y: c.grid.H / 2}
	if c.grid.IsPassable(center) {
		return center
	}
	if p, ok := c.grid.AdjacentPassable(center); ok {
		return p
	}
	return world.Point{X: 1, Y: 1}
}

func (c *Colony) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(c.tun.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stop:
			return nil
		case cl := <-c.observerJoin:
			c.observers[cl.ID] = cl
		case id := <-c.observerLeave:
			delete(c.observers, id)
		case <-ticker.C:
			c.Step()
		}
	}
}

func (c *Colony) Stop() { close(c.stop) }

// Step advances exactly one tick. Exported for deterministic tests/replays.
func (c *Colony) Step() (tick uint64, digest string) {
	nowTick := c.tick.Load()

	c.driftCreatures(nowTick)

	events := 0
	for _, id := range c.order {
		u := c.units[id]
		if u == nil {
			continue
		}
		c.mach.Step(u, nowTick, c.rng)
		c.grid.UpdateUnit(u.Ref())
		events += len(u.TakeEvents())
	}

	created := 0
	if nowTick%uint64(c.tun.AutonomyEveryTicks) == 0 {
		created = c.runAutonomy(nowTick)
	}
	if nowTick%uint64(c.tun.DesignationSweepTicks) == 0 {
		c.board.Sweep()
	}

	c.flushRetiredJobs(nowTick)

	digest = c.stateDigest(nowTick)
	if c.tickLogger != nil {
		_ = c.tickLogger.WriteTick(TickLogEntry{
			Tick:        nowTick,
			Pending:     c.mgr.PendingCount(),
			Active:      c.mgr.ActiveCount(),
			JobsCreated: created,
			Events:      events,
			Digest:      digest,
		})
	}

	c.broadcastState(nowTick, digest)

	c.tick.Add(1)
	return nowTick, digest
}

// driftCreatures moves non-colonist units one random step every few ticks and
// clears dead ones.
func (c *Colony) driftCreatures(nowTick uint64) {
	for _, ref := range c.grid.Units() {
		if ref.Colonist {
			continue
		}
		if ref.Dead {
			c.grid.RemoveUnit(ref.ID)
			continue
		}
		if nowTick%3 != 0 {
			continue
		}
		dirs := [4]world.Point{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}
		d := dirs[c.rng.Intn(4)]
		next := world.Point{X: ref.Pos.X + d.X, Y: ref.Pos.Y + d.Y}
		if c.grid.IsPassable(next) {
			ref.Pos = next
			c.grid.UpdateUnit(ref)
		}
	}
}

func (c *Colony) runAutonomy(nowTick uint64) int {
	counts := autonomy.ResourceCounts{
		Food: c.grid.CountItems(world.ItemMeal) +
			c.grid.CountItems(world.ItemRawFish) +
			c.grid.CountItems(world.ItemRawMeat),
		Drink: c.grid.CountItems(world.ItemDrink),
		Wood:  c.grid.CountItems(world.ItemWood),
		Stone: c.grid.CountItems(world.ItemStone),
		Ore:   c.grid.CountItems(world.ItemOre),
		Plant: c.grid.CountItems(world.ItemPlant),
	}
	hostile := map[string]bool{}
	center := world.Point{X: c.grid.W / 2, Y: c.grid.H / 2}
	n := 0
	var sx, sy int
	for _, id := range c.order {
		u := c.units[id]
		if u == nil || u.State == agent.StateDead {
			continue
		}
		counts.Population++
		sx += u.Pos.X
		sy += u.Pos.Y
		n++
	}
	if n > 0 {
		center = world.Point{X: sx / n, Y: sy / n}
	}
	for _, ref := range c.grid.Units() {
		if ref.Hostile && !ref.Dead {
			hostile[ref.ID] = true
		}
	}
	needs := autonomy.AssessColonyNeeds(counts, c.tun.Needs)
	return c.gen.GenerateJobs(c.grid, c.mgr, needs, hostile, center, nowTick)
}

// flushRetiredJobs sends newly retired jobs to the index sink exactly once.
func (c *Colony) flushRetiredJobs(nowTick uint64) {
	if c.jobSink == nil {
		return
	}
	for _, j := range c.mgr.CompletedJobs() {
		if c.indexed[j.ID] {
			continue
		}
		c.indexed[j.ID] = true
		_ = c.jobSink.WriteJob(JobRecord{
			ID:        j.ID,
			Kind:      string(j.Kind),
			Status:    string(j.Status),
			X:         j.Pos.X,
			Y:         j.Pos.Y,
			CreatedAt: j.CreatedAt,
			DoneAt:    nowTick,
		})
	}
	// Forget ids the manager has already trimmed.
	if len(c.indexed) > 4*c.tun.Jobs.MaxCompletedHistory {
		live := map[int64]bool{}
		for _, j := range c.mgr.CompletedJobs() {
			if c.indexed[j.ID] {
				live[j.ID] = true
			}
		}
		c.indexed = live
	}
}

// stateDigest hashes the deterministic simulation state for replay checks.
func (c *Colony) stateDigest(nowTick uint64) string {
	h := sha256.New()
	fmt.Fprintf(h, "tick=%d\n", nowTick)
	for _, id := range c.order {
		u := c.units[id]
		if u == nil {
			continue
		}
		fmt.Fprintf(h, "unit=%s state=%s pos=%d,%d hp=%d job=%d h=%d t=%d d=%d ac=%d\n",
			u.ID, u.State, u.Pos.X, u.Pos.Y, u.HP, u.JobID, u.Hunger, u.Thirst, u.Drowsiness, u.ActionCounter)
	}
	for _, ref := range c.grid.Units() {
		if ref.Colonist {
			continue
		}
		fmt.Fprintf(h, "creature=%s kind=%s pos=%d,%d hp=%d\n", ref.ID, ref.Kind, ref.Pos.X, ref.Pos.Y, ref.HP)
	}
	for _, j := range c.mgr.PendingJobs() {
		fmt.Fprintf(h, "pending=%d kind=%s pos=%d,%d\n", j.ID, j.Kind, j.Pos.X, j.Pos.Y)
	}
	for _, j := range c.mgr.ActiveJobs() {
		fmt.Fprintf(h, "active=%d kind=%s unit=%s rem=%d\n", j.ID, j.Kind, j.AssignedUnit, j.WorkRemaining)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Colony) broadcastState(nowTick uint64, digest string) {
	if len(c.observers) == 0 {
		return
	}
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		ColonyID:        c.cfg.ID,
		Pending:         c.mgr.PendingCount(),
		Active:          c.mgr.ActiveCount(),
		Digest:          digest,
	}
	st := c.gen.Stats()
	msg.Stats = protocol.GenStats{
		Total:   st.Total,
		Hunt:    st.Hunt,
		Fish:    st.Fish,
		Harvest: st.Harvest,
		Chop:    st.Chop,
		Mine:    st.Mine,
		Cook:    st.Cook,
		Brew:    st.Brew,
	}
	for _, id := range c.order {
		u := c.units[id]
		if u == nil {
			continue
		}
		msg.Units = append(msg.Units, protocol.UnitSummary{
			ID:    u.ID,
			Name:  u.Name,
			State: string(u.State),
			Pos:   u.Pos.ToArray(),
			HP:    u.HP,
			Job:   u.JobID,
		})
	}
	for _, j := range c.mgr.PendingJobs() {
		msg.Jobs = append(msg.Jobs, jobSummary(j))
	}
	for _, j := range c.mgr.ActiveJobs() {
		msg.Jobs = append(msg.Jobs, jobSummary(j))
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, cl := range c.observers {
		sendLatest(cl.Out, b)
	}
}

func jobSummary(j *jobs.Job) protocol.JobSummary {
	return protocol.JobSummary{
		ID:       j.ID,
		Kind:     string(j.Kind),
		Status:   string(j.Status),
		Priority: int(j.Priority),
		Pos:      j.Pos.ToArray(),
		Progress: j.Progress(),
		Unit:     j.AssignedUnit,
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
