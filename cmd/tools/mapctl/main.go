package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/annel0/mudmap/internal/auth"
	"github.com/annel0/mudmap/internal/config"
	"github.com/annel0/mudmap/internal/editor"
	"github.com/annel0/mudmap/internal/logging"
	"github.com/annel0/mudmap/internal/storage"
	"github.com/annel0/mudmap/internal/world"
)

const opTimeout = 30 * time.Second

type options struct {
	layer  int
	x, y   int
	radius int
	from   string
	to     string
	name   string
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path (default $MUDMAP_CONFIG)")
		worldName  = flag.String("world", "", "World name (overrides config)")
		dataPath   = flag.String("data", "", "Badger data directory (overrides config)")
		command    = flag.String("cmd", "layers", "Command: init, layers, places, neighbors, path, placeholder, hash-password")
		opts       options
	)
	flag.IntVar(&opts.layer, "layer", 1, "Layer ID")
	flag.IntVar(&opts.x, "x", 0, "Cell X")
	flag.IntVar(&opts.y, "y", 0, "Cell Y")
	flag.IntVar(&opts.radius, "radius", 0, "Neighbor radius (default from config)")
	flag.StringVar(&opts.from, "from", "", "Start place ID")
	flag.StringVar(&opts.to, "to", "", "End place ID")
	flag.StringVar(&opts.name, "name", "ground", "Layer name for init")
	password := flag.String("password", "", "Password for hash-password")
	flag.Parse()

	// Хеш для auth.users[].password_hash; хранилище не нужно
	if *command == "hash-password" {
		hash, err := auth.HashPassword(*password)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	// mapctl работает офлайн только с badger
	cfg.Storage.Backend = "badger"
	if *dataPath != "" {
		cfg.Storage.Path = *dataPath
	}
	if *worldName != "" {
		cfg.World.Name = *worldName
	}
	if opts.radius <= 0 {
		opts.radius = cfg.Editor.NeighborRadius
	}
	logging.SetDefaultLevel(logging.WARN)

	store, err := storage.OpenWorldStore(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Failed to open store: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := execute(ctx, store, cfg.World.Name, *command, opts); err != nil {
		store.Close()
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func execute(ctx context.Context, store storage.WorldStore, name, command string, opts options) error {
	if command == "init" {
		return initWorld(ctx, store, name, opts.name)
	}

	w, err := store.LoadWorld(ctx, name)
	if err != nil {
		return err
	}

	switch command {
	case "layers":
		for _, l := range w.Layers() {
			fmt.Printf("%d\t%s\t%d places\n", l.ID(), l.Name, l.Len())
		}
		return nil

	case "places":
		layer := w.Layer(world.LayerID(opts.layer))
		if layer == nil {
			return fmt.Errorf("%w: %d", world.ErrLayerNotFound, opts.layer)
		}
		printPlaces(layer.Places())
		return nil

	case "neighbors":
		layer := w.Layer(world.LayerID(opts.layer))
		if layer == nil {
			return fmt.Errorf("%w: %d", world.ErrLayerNotFound, opts.layer)
		}
		printPlaces(layer.Neighbors(opts.x, opts.y, opts.radius))
		return nil

	case "path":
		session := editor.NewSession(w, editor.Options{
			Listener: editor.MessageFunc(func(msg string) { fmt.Println(msg) }),
		})
		route, err := session.FindPathByID(world.PlaceID(opts.from), world.PlaceID(opts.to))
		if err != nil {
			return err
		}
		if route != nil {
			printPlaces(route.Places())
		}
		return nil

	case "placeholder":
		session := editor.NewSession(w, editor.Options{})
		at := world.NewWorldCoordinate(world.LayerID(opts.layer), float64(opts.x), float64(opts.y))
		created, err := session.TogglePlaceholderAt(at)
		if err != nil {
			return err
		}
		if created != nil {
			fmt.Printf("placeholder %s created at %s\n", created.ID(), at)
		} else {
			fmt.Printf("placeholder removed at %s\n", at)
		}
		return store.SaveWorld(ctx, name, w)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func initWorld(ctx context.Context, store storage.WorldStore, name, layerName string) error {
	_, err := store.LoadWorld(ctx, name)
	switch {
	case err == nil:
		fmt.Printf("world %q already exists\n", name)
		return nil
	case !errors.Is(err, storage.ErrWorldNotFound):
		return err
	}

	w := world.New(name)
	layer := w.NewLayer(layerName)
	w.SetHome(world.NewWorldCoordinate(layer.ID(), 0, 0))
	if err := store.SaveWorld(ctx, name, w); err != nil {
		return err
	}
	fmt.Printf("world %q created with layer %d (%s)\n", name, layer.ID(), layerName)
	return nil
}

func printPlaces(places []*world.Place) {
	if len(places) == 0 {
		fmt.Println("(none)")
		return
	}
	for _, p := range places {
		exits := make([]string, 0, 4)
		for _, path := range p.Paths() {
			exits = append(exits, path.Direction(p).String())
		}
		fmt.Fprintf(os.Stdout, "%s\t%d,%d\t%s\t[%s]\n", p.ID(), p.X(), p.Y(), p.Name, strings.Join(exits, " "))
	}
}
