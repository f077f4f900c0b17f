// Command plcsim serves the counters of equips.json over Modbus TCP, one
// listener per controller, for running the editor without a plant.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"rh-editor/internal/hours"
	"rh-editor/internal/model"
	"rh-editor/internal/output"
	"rh-editor/internal/plcsim"
	"rh-editor/internal/registry"
)

func main() {
	var (
		equipsPath string
		plcPath    string
		host       string
		basePort   int
		seedHours  float64
		plcOut     string
	)
	flag.StringVar(&equipsPath, "equips", "equips.json", "equipment file")
	flag.StringVar(&plcPath, "plc", "plc.json", "controller file (groups are copied when present)")
	flag.StringVar(&host, "host", "127.0.0.1", "listen host")
	flag.IntVar(&basePort, "port", 15020, "port of the first controller; the next ones count up")
	flag.Float64Var(&seedHours, "hours", -1, "initial hours of every counter (negative: random)")
	flag.StringVar(&plcOut, "plc-out", "plc.sim.json", "write a controller file pointing at the simulator")
	flag.Parse()

	if err := run(equipsPath, plcPath, host, basePort, seedHours, plcOut); err != nil {
		log.Fatal(err)
	}
}

func run(equipsPath, plcPath, host string, basePort int, seedHours float64, plcOut string) error {
	res := registry.LoadEquipment(equipsPath)
	if res.Err != nil {
		return res.Err
	}
	equips := registry.NewEquipment(res.Items)
	ctrls, err := registry.OpenControllers(plcPath, nil)
	if err != nil {
		return err
	}

	byCtrl := equips.ByController()
	names := make([]string, 0, len(byCtrl))
	for name := range byCtrl {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var specs []model.ControllerSpec
	var servers []*plcsim.Server
	defer func() {
		for _, s := range servers {
			s.Close()
		}
	}()
	for i, name := range names {
		srv := plcsim.NewServer(log.New(os.Stderr, "plcsim["+name+"] ", log.LstdFlags))
		addr := net.JoinHostPort(host, strconv.Itoa(basePort+i))
		if err := srv.Listen(addr); err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		servers = append(servers, srv)

		blocks := map[int]struct{}{}
		for _, e := range byCtrl[name] {
			blocks[e.DBNumber] = struct{}{}
			h := seedHours
			if h < 0 {
				h = rand.Float64() * hours.Max
			}
			if err := srv.SetCounter(e.DBOffset, int32(hours.HoursToSeconds(h))); err != nil {
				log.Printf("skip %s: %v", e.Name, err)
			}
		}
		if len(blocks) > 1 {
			log.Printf("controller %s uses %d data blocks; they share one register table", name, len(blocks))
		}

		spec := model.ControllerSpec{
			Name:     name,
			Address:  host,
			Protocol: model.ProtocolModbusTCP,
			Port:     basePort + i,
		}
		if c, ok := ctrls.Lookup(name); ok {
			spec.Group = c.Group
		}
		specs = append(specs, spec)
		log.Printf("controller %s: %d counters on %s", name, len(byCtrl[name]), srv.Addr())
	}

	if plcOut != "" {
		if err := output.WriteControllers(plcOut, specs); err != nil {
			return fmt.Errorf("write %s: %w", plcOut, err)
		}
		log.Printf("saved simulator controller file to %s", plcOut)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Println("shutting down simulator")
	return nil
}
