package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"reflect"

	"github.com/robotalks/mcuasync/pkg/telemetry"
	"github.com/robotalks/mcuasync/pkg/telemetry/sink"
)

var (
	telemetryURL = "mqtt://localhost:1883/mcu/"
)

func init() {
	if val := os.Getenv("MCU_TELEMETRY_URL"); val != "" {
		telemetryURL = val
	}
	flag.StringVar(&telemetryURL, "telemetry", telemetryURL, "Telemetry URL to read events from.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	r, closer, err := sink.OpenReader(context.Background(), telemetryURL)
	if err != nil {
		log.Fatalln(err)
	}
	defer closer.Close()

	for {
		pkt, err := r.ReadPacket()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Fatalln(err)
		}
		env, err := telemetry.DecodeEnvelope(pkt)
		if err != nil {
			log.Printf("bad envelope: %v", err)
			continue
		}
		ev, err := env.Decode()
		if err != nil {
			log.Printf("%s#%d: decode error: (type_id=%x) %v", env.Board, env.Sequence, env.TypeId, err)
			continue
		}
		log.Printf("%s#%d @%dus: [%s] %s", env.Board, env.Sequence, env.TimeUs,
			reflect.Indirect(reflect.ValueOf(ev)).Type().Name(), ev.String())
	}
}
