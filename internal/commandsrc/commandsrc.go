// Package commandsrc accepts textual boat commands from a polled,
// reopen-on-EOF tailed file and from direct in-process submission (the
// request server's boatcmd path), parses and validates them, and exposes
// them to the scheduler through a FIFO queue.
package commandsrc

import (
	"bufio"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/sailnavsim/internal/fsutil"
	"github.com/banshee-data/sailnavsim/internal/windresponse"
)

// Action identifies a command's operation.
type Action int

const (
	ActionInvalid Action = iota
	ActionStop
	ActionStart
	ActionCourse
	ActionCourseMagnetic
	ActionSailArea
	ActionAdd
	ActionAddGroup
	ActionRemove
)

const maxBoatFlags = 0x3f

func isValidBoatType(boatType int) bool {
	t := windresponse.Type(boatType)
	return windresponse.IsBasic(t) || windresponse.IsAdvanced(t)
}

// Command is one parsed, validated line.
type Command struct {
	Target  string
	Action  Action
	Values  [6]float64
	Group   string
	AltName string
}

// Source is a thread-safe FIFO of parsed commands, fed by a tailed file
// and/or direct Submit calls, drained by the scheduler.
type Source struct {
	mu     sync.Mutex
	queue  []Command
	logger *log.Logger
	fsys   fsutil.FileSystem

	errCount int64
}

// NewSource constructs an empty command source.
func NewSource(logger *log.Logger) *Source {
	if logger == nil {
		logger = log.Default()
	}
	return &Source{logger: logger, fsys: fsutil.OSFileSystem{}}
}

// WithFileSystem overrides the file system TailFile reads from, for testing
// the tailer against an in-memory fixture instead of the real disk.
func (s *Source) WithFileSystem(fsys fsutil.FileSystem) *Source {
	s.fsys = fsys
	return s
}

// Dequeue removes and returns the oldest queued command, if any.
func (s *Source) Dequeue() (Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return Command{}, false
	}

	cmd := s.queue[0]
	s.queue = s.queue[1:]
	return cmd, true
}

// ErrorCount returns the number of lines rejected by the parser so far.
func (s *Source) ErrorCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errCount
}

// Submit parses and enqueues a single command line, as used by both the
// file tailer and the request server's boatcmd handler. It returns an error
// when the line is malformed or fails validation; the file tailer logs and
// drops such lines, while boatcmd reports "fail".
func (s *Source) Submit(line string) error {
	cmd, err := parseCommand(line)
	if err != nil {
		s.mu.Lock()
		s.errCount++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.queue = append(s.queue, cmd)
	s.mu.Unlock()

	return nil
}

// TailFile opens path, submits every line it reads up to EOF, closes it and
// reopens it after pollInterval, until stop is closed. Each pass reads the
// file from its start, so lines still present are submitted again. Run it
// in its own goroutine.
func (s *Source) TailFile(path string, pollInterval time.Duration, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		f, err := s.fsys.Open(path)
		if err != nil {
			s.logger.Printf("commandsrc: failed to open command file %q: %v", path, err)
			select {
			case <-stop:
				return
			case <-time.After(pollInterval):
			}
			continue
		}

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if err := s.Submit(scanner.Text()); err != nil {
				s.logger.Printf("commandsrc: dropped invalid command line: %v", err)
			}
		}
		f.Close()

		select {
		case <-stop:
			return
		case <-time.After(pollInterval):
		}
	}
}

func parseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return Command{}, fmt.Errorf("commandsrc: missing name/action in %q", line)
	}

	name := fields[0]
	if name == "" {
		return Command{}, fmt.Errorf("commandsrc: empty boat name in %q", line)
	}

	action, nargs := actionFromString(fields[1])
	if action == ActionInvalid {
		return Command{}, fmt.Errorf("commandsrc: unknown action %q", fields[1])
	}

	args := fields[2:]
	if len(args) < nargs {
		return Command{}, fmt.Errorf("commandsrc: expected %d args for %q, got %d", nargs, fields[1], len(args))
	}

	cmd := Command{Target: name, Action: action}

	switch action {
	case ActionCourse, ActionCourseMagnetic:
		deg, err := strconv.Atoi(args[0])
		if err != nil || deg < 0 || deg > 360 {
			return Command{}, fmt.Errorf("commandsrc: invalid course %q", args[0])
		}
		if deg == 360 {
			deg = 0
		}
		cmd.Values[0] = float64(deg)

	case ActionSailArea:
		pct, err := strconv.Atoi(args[0])
		if err != nil || pct < 0 || pct > 100 {
			return Command{}, fmt.Errorf("commandsrc: invalid sail_area %q", args[0])
		}
		cmd.Values[0] = float64(pct)

	case ActionAdd, ActionAddGroup:
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil || lat <= -90.0 || lat >= 90.0 {
			return Command{}, fmt.Errorf("commandsrc: invalid lat %q", args[0])
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil || lon < -180.0 || lon > 180.0 {
			return Command{}, fmt.Errorf("commandsrc: invalid lon %q", args[1])
		}
		boatType, err := strconv.Atoi(args[2])
		if err != nil || !isValidBoatType(boatType) {
			return Command{}, fmt.Errorf("commandsrc: invalid boat type %q", args[2])
		}
		flags, err := strconv.Atoi(args[3])
		if err != nil || flags < 0 || flags > maxBoatFlags {
			return Command{}, fmt.Errorf("commandsrc: invalid flags %q", args[3])
		}

		cmd.Values[0], cmd.Values[1], cmd.Values[2], cmd.Values[3] = lat, lon, float64(boatType), float64(flags)

		if action == ActionAddGroup {
			if args[4] == "" {
				return Command{}, fmt.Errorf("commandsrc: add_g requires a non-empty group")
			}
			cmd.Group = args[4]
			cmd.AltName = args[5]
		}
	}

	return cmd, nil
}

func actionFromString(s string) (Action, int) {
	switch s {
	case "stop":
		return ActionStop, 0
	case "start":
		return ActionStart, 0
	case "course":
		return ActionCourse, 1
	case "course_m":
		return ActionCourseMagnetic, 1
	case "sail_area":
		return ActionSailArea, 1
	case "add":
		return ActionAdd, 4
	case "add_g":
		return ActionAddGroup, 6
	case "remove":
		return ActionRemove, 0
	default:
		return ActionInvalid, 0
	}
}
