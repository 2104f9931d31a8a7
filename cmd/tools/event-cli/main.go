package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/annel0/mudmap/internal/eventbus"
	"github.com/annel0/mudmap/internal/logging"
)

const (
	defaultNatsURL = "nats://localhost:4222"
	timeFormat     = "2006-01-02T15:04:05Z"
)

func main() {
	var (
		natsURL   = flag.String("url", defaultNatsURL, "NATS server URL")
		stream    = flag.String("stream", "MAPEVENTS", "JetStream stream name")
		retention = flag.Duration("retention", 24*time.Hour, "Stream retention if the stream is created")
		types     = flag.String("types", "", "Event types filter (comma-separated, e.g. world.place_added)")
		sources   = flag.String("sources", "", "Event sources filter (comma-separated)")
		limit     = flag.Int("limit", 0, "Stop after N events (0 = follow until interrupted)")
		rawJSON   = flag.Bool("json", false, "Print raw envelopes as JSON lines")
	)
	flag.Parse()
	logging.SetDefaultLevel(logging.WARN)

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, *retention)
	if err != nil {
		log.Fatalf("❌ Failed to connect to JetStream: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	filter := eventbus.Filter{
		Types:   parseStringList(*types),
		Sources: parseStringList(*sources),
	}

	var seen int64
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		if *rawJSON {
			printJSON(ev)
		} else {
			printEvent(ev)
		}
		if n := atomic.AddInt64(&seen, 1); *limit > 0 && n >= int64(*limit) {
			cancel()
		}
	})
	if err != nil {
		log.Fatalf("❌ Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	fmt.Fprintf(os.Stderr, "📡 Listening on %s (stream %s)...\n", *natsURL, *stream)
	<-ctx.Done()
	fmt.Fprintf(os.Stderr, "✅ %d events received\n", atomic.LoadInt64(&seen))
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func printJSON(ev *eventbus.Envelope) {
	data, err := json.Marshal(ev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️ marshal %s: %v\n", ev.ID, err)
		return
	}
	fmt.Println(string(data))
}

func printEvent(ev *eventbus.Envelope) {
	line := fmt.Sprintf("%s  %-22s %s", ev.Timestamp.UTC().Format(timeFormat), ev.EventType, ev.Source)

	if strings.HasPrefix(ev.EventType, eventbus.WorldEventPrefix) {
		var change eventbus.WorldChange
		if err := json.Unmarshal(ev.Payload, &change); err == nil {
			line += "  " + describeChange(change)
		}
	}
	fmt.Println(line)
}

func describeChange(c eventbus.WorldChange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "world=%s layer=%d", c.World, c.Layer)
	if c.PlaceID != "" {
		fmt.Fprintf(&b, " place=%s(%s) at %d,%d", c.PlaceID, c.PlaceName, c.X, c.Y)
	}
	if c.OtherID != "" {
		fmt.Fprintf(&b, " other=%s", c.OtherID)
	}
	if c.Direction != "" {
		fmt.Fprintf(&b, " dir=%s/%s", c.Direction, c.OtherDirection)
	}
	if c.Area != "" {
		fmt.Fprintf(&b, " area=%s", c.Area)
	}
	return b.String()
}
