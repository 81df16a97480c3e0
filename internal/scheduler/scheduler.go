// Package scheduler drives the fixed-cadence simulation tick: advancing
// every registered boat, periodically snapshotting log batches, and
// draining the command queue, on a monotonic one-second cadence that
// tolerates scheduling drift.
package scheduler

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/banshee-data/sailnavsim/internal/advancedboats"
	"github.com/banshee-data/sailnavsim/internal/boat"
	"github.com/banshee-data/sailnavsim/internal/celestial"
	"github.com/banshee-data/sailnavsim/internal/commandsrc"
	"github.com/banshee-data/sailnavsim/internal/environment"
	"github.com/banshee-data/sailnavsim/internal/geoproximity"
	"github.com/banshee-data/sailnavsim/internal/registry"
	"github.com/banshee-data/sailnavsim/internal/timeutil"
	"github.com/banshee-data/sailnavsim/internal/windresponse"
)

// IterationsPerLog is the number of ticks between log batches.
const IterationsPerLog = 60

// LogEntry is an immutable snapshot of one boat's state at a log tick.
type LogEntry struct {
	Time            time.Time
	Name            string
	Group           string
	AltName         string
	Boat            boat.Boat
	Weather         environment.Weather
	Ocean           environment.Ocean
	OceanOK         bool
	WaveHeight      float64
	MagDec          float64
	Landed          bool
	ReportInvisible bool
}

// CelestialSightEntry is a sight shot taken for a CELESTIAL-flagged boat at
// a log tick, alongside its visibility report.
type CelestialSightEntry struct {
	Time             time.Time
	Name             string
	Sight            celestial.Sight
	ReportInvisible  bool
}

// Batch is one log tick's worth of work handed to the Logger.
type Batch struct {
	Logs      []LogEntry
	Sightings []CelestialSightEntry
}

// LogSink receives batches without blocking the tick loop.
type LogSink interface {
	Enqueue(b Batch)
}

// Scheduler owns the tick loop.
type Scheduler struct {
	reg       *registry.Registry
	cmds      *commandsrc.Source
	sink      LogSink
	env       environment.Provider
	celProv   environment.CelestialProvider
	adv       advancedboats.Model
	tick      time.Duration
	logger    *log.Logger
	shooter   *celestial.Shooter
	rng       *rand.Rand
	clock     timeutil.Clock
	lastIter  int
}

// Config bundles the Scheduler's collaborators.
type Config struct {
	Registry      *registry.Registry
	Commands      *commandsrc.Source
	Sink          LogSink
	Env           environment.Provider
	CelestialProv environment.CelestialProvider
	Advanced      advancedboats.Model
	TickInterval  time.Duration
	Logger        *log.Logger
	Clock         timeutil.Clock
}

// New constructs a Scheduler from cfg, defaulting TickInterval to one
// second, Logger to log.Default() and Clock to timeutil.RealClock{} when
// unset.
func New(cfg Config) *Scheduler {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Scheduler{
		reg:     cfg.Registry,
		cmds:    cfg.Commands,
		sink:    cfg.Sink,
		env:     cfg.Env,
		celProv: cfg.CelestialProv,
		adv:     cfg.Advanced,
		tick:    tick,
		logger:  logger,
		shooter: celestial.NewShooter(),
		rng:     rand.New(rand.NewSource(clock.Now().UnixNano())),
		clock:   clock,
	}
}

// Run drives ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	next := s.clock.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		now := s.clock.Now()
		batch := s.runTick(now)
		if batch != nil {
			s.sink.Enqueue(*batch)
		}

		next = next.Add(s.tick)
		sleep := next.Sub(s.clock.Now())
		if sleep < 0 {
			s.logger.Printf("scheduler: tick running behind schedule by %v", -sleep)
			next = now
			continue
		}

		timer := s.clock.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C():
		}
	}
}

// runTick advances every boat and, on a log tick, builds the batch to hand
// to the Logger. It always drains the command queue afterward.
func (s *Scheduler) runTick(now time.Time) *Batch {
	isLogTick := s.isLogTick(now)

	var batch *Batch
	if isLogTick {
		batch = &Batch{}
	}

	s.reg.Lock()
	s.reg.Iterate(func(e *registry.Entry) bool {
		e.Boat.Advance(now, s.env, s.adv)

		if isLogTick {
			s.appendLogEntry(batch, now, e)
		}

		return true
	})
	s.reg.Unlock()

	s.reg.Lock()
	s.drainCommands(now)
	s.reg.Unlock()

	return batch
}

func (s *Scheduler) appendLogEntry(batch *Batch, now time.Time, e *registry.Entry) {
	wx := s.env.Weather(e.Boat.Pos)
	ocean := s.env.Ocean(e.Boat.Pos)

	isCelestial := e.Boat.Flags&boat.FlagCelestial != 0

	var reportInvisible bool
	if isCelestial {
		reportInvisible = geoproximity.IsApproximatelyNearVisibleLand(e.Boat.Pos, wx.Visibility, s.env.IsWater)
	}

	wave := s.env.Wave(e.Boat.Pos)

	batch.Logs = append(batch.Logs, LogEntry{
		Time:            now,
		Name:            e.Name,
		Group:           e.Group,
		AltName:         e.AltName,
		Boat:            *e.Boat,
		Weather:         wx,
		Ocean:           ocean,
		OceanOK:         ocean.Valid,
		WaveHeight:      wave.WaveHeight,
		MagDec:          s.env.MagneticDeclination(e.Boat.Pos, now),
		Landed:          !s.env.IsWater(e.Boat.Pos),
		ReportInvisible: reportInvisible,
	})

	if !isCelestial {
		return
	}

	sight := s.shooter.Shoot(s.celProv, now, e.Boat.Pos, wx.Cloud, wx.Pressure, wx.Temp)

	if sight.HasSight {
		az, alt, ok := e.Boat.WaveAdjustedCelestialAzAlt(s.env, sight.Az, sight.Alt)
		if !ok {
			sight = celestial.Sight{}
		} else {
			sight.Az, sight.Alt = az, alt
		}
	}

	batch.Sightings = append(batch.Sightings, CelestialSightEntry{
		Time:            now,
		Name:            e.Name,
		Sight:           sight,
		ReportInvisible: reportInvisible,
	})
}

// isLogTick mirrors the original's drift-tolerant "(now mod 60) < lastIter"
// test: a log batch fires the first time the wall-clock seconds-mod-60
// counter is lower than it was on the previous tick, so a missed wakeup
// still fires exactly one batch per 60-second window instead of none.
func (s *Scheduler) isLogTick(now time.Time) bool {
	cur := now.Second() % IterationsPerLog
	fire := cur < s.lastIter
	s.lastIter = cur
	return fire
}

// drainCommands applies every queued command. The caller must already hold
// the registry's write lock (runTick acquires it once for the whole drain),
// so every lookup/mutation below goes through the Locked registry methods —
// calling Get/Add/Remove here would deadlock against sync.RWMutex, which is
// not reentrant.
func (s *Scheduler) drainCommands(now time.Time) {
	for {
		cmd, ok := s.cmds.Dequeue()
		if !ok {
			return
		}
		s.apply(cmd, now)
	}
}

func (s *Scheduler) apply(cmd commandsrc.Command, now time.Time) {
	switch cmd.Action {
	case commandsrc.ActionStop:
		// Matches handleCommand's COMMAND_ACTION_STOP: a stop drops the
		// sails rather than halting the boat outright; Boat.Advance's
		// sails-down branch then drifts a basic boat downwind at a tenth
		// of the wind speed, while advanced types ignore SailsDown.
		if b, ok := s.reg.GetLocked(cmd.Target); ok {
			b.SailsDown = true
		}
	case commandsrc.ActionStart:
		// Matches COMMAND_ACTION_START: only resume if the boat's current
		// course actually heads back out to water, and resume via the
		// same movingToSea path a landed boat uses to regain the water.
		if b, ok := s.reg.GetLocked(cmd.Target); ok {
			if b.IsHeadingTowardWater(s.env, now) {
				b.Stop = false
				b.SailsDown = false
				b.MovingToSea = true
			}
		}
	case commandsrc.ActionCourse:
		if b, ok := s.reg.GetLocked(cmd.Target); ok {
			b.DesiredCourse = cmd.Values[0]
			b.CourseMagnetic = false
		}
	case commandsrc.ActionCourseMagnetic:
		if b, ok := s.reg.GetLocked(cmd.Target); ok {
			b.DesiredCourse = cmd.Values[0]
			b.CourseMagnetic = true
		}
	case commandsrc.ActionSailArea:
		if b, ok := s.reg.GetLocked(cmd.Target); ok {
			b.SailArea = cmd.Values[0]
		}
	case commandsrc.ActionAdd:
		s.applyAdd(cmd, "", "")
	case commandsrc.ActionAddGroup:
		s.applyAdd(cmd, cmd.Group, cmd.AltName)
	case commandsrc.ActionRemove:
		s.reg.RemoveLocked(cmd.Target)
	}
}

func (s *Scheduler) applyAdd(cmd commandsrc.Command, group, altName string) {
	lat, lon := cmd.Values[0], cmd.Values[1]
	boatType := int(cmd.Values[2])
	flags := boat.Flags(cmd.Values[3])

	// Matches handleBoatRegistryCommand's ADD case: a freshly-added boat is
	// left exactly as Boat_new constructs it (stopped, not moving to sea);
	// a subsequent "start" command is what actually gets it underway.
	b := boat.New(lat, lon, intToType(boatType), flags)

	if err := s.reg.AddLocked(b, cmd.Target, group, altName); err != nil {
		s.logger.Printf("scheduler: add %q failed: %v", cmd.Target, err)
	}
}

func intToType(boatType int) windresponse.Type {
	return windresponse.Type(boatType)
}
