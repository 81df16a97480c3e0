// Package netserver implements the TCP line-protocol request server: a
// single acceptor goroutine feeding a bounded queue of connections to a
// fixed pool of workers, each servicing one pipelined connection at a
// time, matching the bounded-ring/worker-pool shape of the original
// request server translated onto a buffered Go channel.
package netserver

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/banshee-data/sailnavsim/internal/boat"
	"github.com/banshee-data/sailnavsim/internal/commandsrc"
	"github.com/banshee-data/sailnavsim/internal/environment"
	"github.com/banshee-data/sailnavsim/internal/geo"
	"github.com/banshee-data/sailnavsim/internal/registry"
)

const (
	readBufSize        = 1024
	maxLineBytes       = 64 * 1024
	defaultAcceptQueue = 256
)

// Counters tracks per-lifecycle-event and per-request-type totals,
// incremented lock-free the way the original's cache-line-isolated
// atomics were, using atomic.Int64 in request-type enum order.
type Counters struct {
	Accepted     atomic.Int64
	AcceptFailed atomic.Int64
	Reads        atomic.Int64
	ReadFailed   atomic.Int64
	TooLong      atomic.Int64
	Messages     atomic.Int64
	MessageFailed atomic.Int64

	byRequestType [len(requestTypeOrder)]atomic.Int64
}

var requestTypeOrder = []string{
	"wind", "wind_c", "wind_gust", "wind_gust_c", "ocean_current",
	"sea_ice", "wave_height", "bd", "bd_nc", "boatcmd",
	"boatgroupmembers", "sys_req_counts",
}

var requestTypeIndex = func() map[string]int {
	m := make(map[string]int, len(requestTypeOrder))
	for i, t := range requestTypeOrder {
		m[t] = i
	}
	return m
}()

// Server dispatches TCP requests against a Registry, Environment and
// command Source.
type Server struct {
	reg  *registry.Registry
	env  environment.Provider
	cmds *commandsrc.Source

	workers     int
	acceptQueue int
	logger      *log.Logger

	counters Counters
}

// Config bundles Server's collaborators.
type Config struct {
	Registry *registry.Registry
	Env      environment.Provider
	Commands *commandsrc.Source
	Workers  int
	Queue    int
	Logger   *log.Logger
}

// New constructs a Server. Workers defaults to 5, Queue to 256.
func New(cfg Config) *Server {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	queue := cfg.Queue
	if queue <= 0 {
		queue = defaultAcceptQueue
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		reg:         cfg.Registry,
		env:         cfg.Env,
		cmds:        cfg.Commands,
		workers:     workers,
		acceptQueue: queue,
		logger:      logger,
	}
}

// Serve listens on addr and dispatches requests until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("netserver: listen on %q: %w", addr, err)
	}
	defer ln.Close()

	conns := make(chan net.Conn, s.acceptQueue)

	for i := 0; i < s.workers; i++ {
		go s.worker(conns)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				close(conns)
				return nil
			default:
			}
			s.counters.AcceptFailed.Add(1)
			s.logger.Printf("netserver: accept failed: %v", err)
			continue
		}

		s.counters.Accepted.Add(1)
		select {
		case conns <- conn:
		default:
			// Ring is full; drop the connection immediately rather than
			// block the acceptor, matching the original's overflow policy.
			conn.Close()
		}
	}
}

func (s *Server) worker(conns <-chan net.Conn) {
	for conn := range conns {
		s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	connID := uuid.NewString()
	r := bufio.NewReaderSize(conn, readBufSize)
	w := bufio.NewWriter(conn)

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if len(line) > 0 {
				s.counters.ReadFailed.Add(1)
				s.logger.Printf("netserver: conn %s: read failed: %v", connID, err)
			}
			return
		}
		if len(line) > maxLineBytes {
			s.counters.TooLong.Add(1)
			return
		}

		s.counters.Reads.Add(1)

		resp := s.dispatch(strings.TrimRight(line, "\r\n"))
		if _, err := w.WriteString(resp); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(line string) string {
	s.counters.Messages.Add(1)

	fields := strings.Split(line, ",")
	if len(fields) == 0 || fields[0] == "" {
		s.counters.MessageFailed.Add(1)
		return "error\n"
	}

	reqType := fields[0]
	if idx, ok := requestTypeIndex[reqType]; ok {
		s.counters.byRequestType[idx].Add(1)
	}

	switch reqType {
	case "wind":
		return s.handlePointQuery(fields, false, windResponse)
	case "wind_c":
		return s.handlePointQuery(fields, true, windResponse)
	case "wind_gust":
		return s.handlePointQuery(fields, false, windGustResponse)
	case "wind_gust_c":
		return s.handlePointQuery(fields, true, windGustResponse)
	case "ocean_current":
		return s.handlePointQuery(fields, false, oceanCurrentResponse)
	case "sea_ice":
		return s.handlePointQuery(fields, false, seaIceResponse)
	case "wave_height":
		return s.handlePointQuery(fields, false, waveHeightResponse)
	case "bd":
		return s.handleBoatData(fields, false)
	case "bd_nc":
		return s.handleBoatData(fields, true)
	case "boatcmd":
		return s.handleBoatCmd(fields, line)
	case "boatgroupmembers":
		return s.handleGroupMembers(fields)
	case "sys_req_counts":
		return s.handleSysReqCounts()
	default:
		s.counters.MessageFailed.Add(1)
		return "error\n"
	}
}

type pointResponder func(reqType string, pos geo.Pos, wx environment.Weather, ocean environment.Ocean, wave environment.Wave) string

func (s *Server) handlePointQuery(fields []string, applyCurrent bool, respond pointResponder) string {
	if len(fields) != 3 {
		s.counters.MessageFailed.Add(1)
		return "error\n"
	}
	lat, err1 := strconv.ParseFloat(fields[1], 64)
	lon, err2 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil {
		s.counters.MessageFailed.Add(1)
		return "error\n"
	}

	pos := geo.NewPos(lat, lon)
	wx := s.env.Weather(pos)
	ocean := s.env.Ocean(pos)
	wave := s.env.Wave(pos)

	if applyCurrent && ocean.Valid {
		environment.AdjustWindForCurrent(&wx, ocean.Current)
	}

	return respond(fields[0], pos, wx, ocean, wave)
}

func windResponse(reqType string, pos geo.Pos, wx environment.Weather, _ environment.Ocean, _ environment.Wave) string {
	return fmt.Sprintf("%s,%.6f,%.6f,%.6f,%.6f\n", reqType, pos.Lat, pos.Lon, wx.Wind.Angle, wx.Wind.Mag)
}

func windGustResponse(reqType string, pos geo.Pos, wx environment.Weather, _ environment.Ocean, _ environment.Wave) string {
	return fmt.Sprintf("%s,%.6f,%.6f,%.6f\n", reqType, pos.Lat, pos.Lon, wx.WindGust)
}

func oceanCurrentResponse(reqType string, pos geo.Pos, _ environment.Weather, ocean environment.Ocean, _ environment.Wave) string {
	if !ocean.Valid {
		return fmt.Sprintf("%s,%.6f,%.6f,-999.0,-999.0\n", reqType, pos.Lat, pos.Lon)
	}
	return fmt.Sprintf("%s,%.6f,%.6f,%.1f,%.2f\n", reqType, pos.Lat, pos.Lon, ocean.Current.Angle, ocean.Current.Mag)
}

func seaIceResponse(reqType string, pos geo.Pos, _ environment.Weather, ocean environment.Ocean, _ environment.Wave) string {
	if !ocean.Valid {
		return fmt.Sprintf("%s,%.6f,%.6f,-999.0\n", reqType, pos.Lat, pos.Lon)
	}
	return fmt.Sprintf("%s,%.6f,%.6f,%.2f\n", reqType, pos.Lat, pos.Lon, ocean.Ice)
}

func waveHeightResponse(reqType string, pos geo.Pos, _ environment.Weather, _ environment.Ocean, wave environment.Wave) string {
	if !wave.Valid {
		return fmt.Sprintf("%s,%.6f,%.6f,-999.0\n", reqType, pos.Lat, pos.Lon)
	}
	return fmt.Sprintf("%s,%.6f,%.6f,%.2f\n", reqType, pos.Lat, pos.Lon, wave.WaveHeight)
}

func (s *Server) handleBoatData(fields []string, excludeCelestial bool) string {
	reqType := fields[0]
	if len(fields) != 2 || fields[1] == "" {
		s.counters.MessageFailed.Add(1)
		return "error\n"
	}
	name := fields[1]

	b, ok := s.reg.Get(name)
	if !ok {
		return fmt.Sprintf("%s,%s,noboat\n", reqType, name)
	}
	if excludeCelestial && b.Flags&boat.FlagCelestial != 0 {
		return fmt.Sprintf("%s,%s,noboat\n", reqType, name)
	}

	return fmt.Sprintf("%s,%s,ok,%.6f,%.6f,%.1f,%.2f,%.1f,%.2f,%.2f,%.1f\n",
		reqType, name, b.Pos.Lat, b.Pos.Lon,
		b.V.Angle, b.V.Mag, b.VGround.Angle, b.VGround.Mag,
		b.LeewaySpeed, b.HeelingAngle)
}

func (s *Server) handleBoatCmd(fields []string, line string) string {
	if len(fields) < 2 {
		s.counters.MessageFailed.Add(1)
		return "boatcmd,fail\n"
	}
	body := strings.SplitN(line, ",", 2)[1]
	if err := s.cmds.Submit(body); err != nil {
		return "boatcmd,fail\n"
	}
	return "boatcmd,ok\n"
}

func (s *Server) handleGroupMembers(fields []string) string {
	if len(fields) != 2 || fields[1] == "" {
		s.counters.MessageFailed.Add(1)
		return "error\n"
	}
	name := fields[1]

	entry, ok := s.reg.GetEntry(name)
	if !ok {
		return fmt.Sprintf("boatgroupmembers,%s,noboat\n", name)
	}

	// A hidden boat only ever reports its own entry, with its alt-name
	// replaced by "?" regardless of group membership.
	if entry.Boat.Flags&boat.FlagLiveSharingHidden != 0 {
		return fmt.Sprintf("boatgroupmembers,%s,ok\n%s,?\n\n", name, name)
	}

	if entry.Group == "" {
		return fmt.Sprintf("boatgroupmembers,%s,nogroup\n", name)
	}

	lines := s.reg.GroupMembershipLines(entry.Group)
	var b strings.Builder
	fmt.Fprintf(&b, "boatgroupmembers,%s,ok\n", name)
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (s *Server) handleSysReqCounts() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sys_req_counts,%d,%d,%d,%d,%d,%d,%d",
		s.counters.Accepted.Load(), s.counters.AcceptFailed.Load(),
		s.counters.Reads.Load(), s.counters.ReadFailed.Load(),
		s.counters.TooLong.Load(), s.counters.Messages.Load(),
		s.counters.MessageFailed.Load())
	for _, c := range s.counters.byRequestType {
		fmt.Fprintf(&b, ",%d", c.Load())
	}
	b.WriteString("\n")
	return b.String()
}

// Counters exposes the server's live counters for tests and diagnostics.
func (s *Server) Counters() *Counters { return &s.counters }
