// Command kvnode runs a local multi-node cluster against the in-memory
// simulated transport (spec §6) and exposes a line-oriented REPL to drive
// CRUD ops and inspect node status. It is a demo/test harness, not a
// networked server: the spec's transport contract is a simulated bus, so
// there is nothing to listen on.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gossipkv/internal/proto"
	"gossipkv/internal/sched"
	"gossipkv/internal/telemetry"
	"gossipkv/internal/transport"
	"gossipkv/internal/wireaddr"
)

func main() {
	nodes := flag.Int("nodes", 5, "number of nodes to bootstrap into the cluster")
	ringSize := flag.Uint("ring-size", 1024, "consistent-hash ring size")
	tGossip := flag.Int64("t-gossip", 3, "ticks between gossip rounds")
	tFail := flag.Int64("t-fail", 10, "ticks before a member is suspected")
	tRemove := flag.Int64("t-remove", 20, "ticks before a suspected member is removed")
	tQuorum := flag.Int64("t-quorum", 10, "ticks before a quorum op times out")
	dropP := flag.Float64("drop", 0, "probability a sent frame is dropped [0,1]")
	dupP := flag.Float64("dup", 0, "probability a sent frame is duplicated [0,1]")
	seed := flag.Int64("seed", 1, "simulated bus RNG seed")
	autoTicks := flag.Int("boot-ticks", 5, "ticks to run immediately after bootstrap")
	flag.Parse()

	if *nodes < 1 {
		log.Fatal("kvnode: -nodes must be at least 1")
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	sink := telemetry.NewLogSink(logger)

	bus := transport.NewSimulatedBus(*dropP, *dupP, *seed)
	clock := &transport.TickClock{}

	introducer := addrFor(1)
	drivers := make([]*sched.Driver, *nodes)
	for i := 0; i < *nodes; i++ {
		drivers[i] = sched.New(sched.Config{
			Self:       addrFor(i + 1),
			Introducer: introducer,
			RingSize:   uint32(*ringSize),
			TGossip:    *tGossip,
			TFail:      *tFail,
			TRemove:    *tRemove,
			TQuorum:    *tQuorum,
		}, sink)
	}

	now := clock.Now()
	for _, d := range drivers {
		d.Bootstrap(now, bus)
	}
	runTicks(drivers, bus, clock, *autoTicks)

	logger.Printf("kvnode: %d nodes bootstrapped, ring size %d", *nodes, *ringSize)
	repl(drivers, bus, clock, logger)
}

func addrFor(id int) wireaddr.Address {
	return wireaddr.Address{ID: uint32(id), Port: uint16(id)}
}

func runTicks(drivers []*sched.Driver, t transport.Transport, clock *transport.TickClock, n int) {
	for i := 0; i < n; i++ {
		now := clock.Advance()
		for _, d := range drivers {
			d.Tick(now, t)
		}
	}
}

// repl reads line-oriented commands from stdin until EOF or "quit":
//
//	tick [n]
//	status [nodeIdx]
//	create <nodeIdx> <key> <value>
//	read   <nodeIdx> <key>
//	update <nodeIdx> <key> <value>
//	delete <nodeIdx> <key>
//	shutdown <nodeIdx>
func repl(drivers []*sched.Driver, t transport.Transport, clock *transport.TickClock, logger *log.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd := strings.ToLower(fields[0])
		args := fields[1:]

		switch cmd {
		case "quit", "exit":
			return
		case "tick":
			n := 1
			if len(args) > 0 {
				if v, err := strconv.Atoi(args[0]); err == nil {
					n = v
				}
			}
			runTicks(drivers, t, clock, n)
		case "status":
			idx, err := nodeIndex(args, 0, len(drivers))
			if err != nil {
				fmt.Println(err)
				continue
			}
			s := drivers[idx].Snapshot()
			fmt.Printf("node %d: inGroup=%v members=%d ring=%d pending=%d failed=%v\n",
				idx, s.InGroup, s.MemberCount, s.RingSize, s.PendingOps, s.Failed)
		case "shutdown":
			idx, err := nodeIndex(args, 0, len(drivers))
			if err != nil {
				fmt.Println(err)
				continue
			}
			drivers[idx].Shutdown()
		case "create", "update":
			idx, key, value, err := opArgs(args, true)
			if err != nil || idx >= len(drivers) {
				fmt.Println("usage:", cmd, "<nodeIdx> <key> <value>")
				continue
			}
			op := proto.OpCreate
			if cmd == "update" {
				op = proto.OpUpdate
			}
			transID, ok := drivers[idx].Submit(clock.Now(), op, key, value, t)
			fmt.Printf("issued transID=%d hasReplicas=%v\n", transID, ok)
		case "read", "delete":
			idx, key, _, err := opArgs(args, false)
			if err != nil || idx >= len(drivers) {
				fmt.Println("usage:", cmd, "<nodeIdx> <key>")
				continue
			}
			op := proto.OpRead
			if cmd == "delete" {
				op = proto.OpDelete
			}
			transID, ok := drivers[idx].Submit(clock.Now(), op, key, "", t)
			fmt.Printf("issued transID=%d hasReplicas=%v\n", transID, ok)
		default:
			fmt.Println("unknown command:", cmd)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Printf("kvnode: stdin read error: %v", err)
	}
}

func nodeIndex(args []string, fallback, n int) (int, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 0 || idx >= n {
		return 0, fmt.Errorf("invalid node index %q", args[0])
	}
	return idx, nil
}

func opArgs(args []string, needsValue bool) (idx int, key, value string, err error) {
	if (needsValue && len(args) < 3) || (!needsValue && len(args) < 2) {
		return 0, "", "", fmt.Errorf("not enough arguments")
	}
	idx, err = strconv.Atoi(args[0])
	if err != nil {
		return 0, "", "", err
	}
	key = args[1]
	if needsValue {
		value = strings.Join(args[2:], " ")
	}
	return idx, key, value, nil
}
