package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/octree/featureflag"
	"github.com/aukilabs/octree/geometry"
	octreehttp "github.com/aukilabs/octree/http"
	"github.com/aukilabs/octree/models"
	"github.com/aukilabs/octree/octree"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// The server version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "octree_info",
		Help:        "Octree server information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"OCTREE_ADDR"                 help:"Listening address for the world API."`
	AdminAddr          string        `cli:""        env:"OCTREE_ADMIN_ADDR"           help:"Admin listening address."`
	LogLevel           string        `cli:""        env:"OCTREE_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"OCTREE_LOG_INDENT"           help:"Indent logs."`
	WorldName          string        `cli:""        env:"OCTREE_WORLD_NAME"           help:"The name labelling the world logs and metrics."`
	WorldExtent        float64       `cli:""        env:"OCTREE_WORLD_EXTENT"         help:"The half size of the world cube."`
	MinOctantSize      float64       `cli:""        env:"OCTREE_MIN_OCTANT_SIZE"      help:"The size under which octree nodes are never split."`
	BucketSize         int           `cli:""        env:"OCTREE_BUCKET_SIZE"          help:"The number of bodies a leaf holds before being split."`
	FrameDuration      time.Duration `cli:",hidden" env:"OCTREE_FRAME_DURATION"       help:"The duration of a world frame."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"OCTREE_LOG_SUMMARY_INTERVAL" help:"The duration between each frame summary log."`
	Bodies             int           `cli:""        env:"OCTREE_BODIES"               help:"The number of moving bodies created at start."`
	Shapes             int           `cli:""        env:"OCTREE_SHAPES"               help:"The number of static shapes created at start."`
	MaxSpeed           float64       `cli:""        env:"OCTREE_MAX_SPEED"            help:"The maximum speed of a moving body, per second."`
	Seed               int64         `cli:""        env:"OCTREE_SEED"                 help:"The seed used to place bodies. Zero picks a random seed."`
	Events             eventsConfig  `cli:",hidden" env:"-"                           help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"OCTREE_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                           help:"Show version."`
	Help               bool          `cli:""        env:"-"                           help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"OCTREE_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed. Events are disabled when empty."`
	FlushInterval time.Duration `cli:",hidden" env:"OCTREE_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"OCTREE_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"OCTREE_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:               ":4100",
		AdminAddr:          ":18191",
		LogLevel:           logs.InfoLevel.String(),
		WorldName:          octree.DefaultName,
		WorldExtent:        octree.DefaultExtent,
		MinOctantSize:      octree.DefaultMinOctantSize,
		BucketSize:         octree.DefaultBucketSize,
		FrameDuration:      time.Millisecond * 15,
		LogSummaryInterval: time.Minute,
		Bodies:             1000,
		Shapes:             16,
		MaxSpeed:           50,
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts an octree world server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "octree",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	world := models.NewWorld(models.WorldOptions{
		Tree: octree.Options{
			Bounds: geometry.NewAABB(
				mgl64.Vec3{-conf.WorldExtent, -conf.WorldExtent, -conf.WorldExtent},
				mgl64.Vec3{conf.WorldExtent, conf.WorldExtent, conf.WorldExtent},
			),
			MinOctantSize: conf.MinOctantSize,
			BucketSize:    conf.BucketSize,
			Name:          conf.WorldName,
		},
		FeatureFlags:       featureflag.New(conf.FeatureFlags),
		LogSummaryInterval: conf.LogSummaryInterval,
	})

	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	populate(world, rand.New(rand.NewSource(seed)), conf)

	go world.StartDispatchFrames(ctx, conf.FrameDuration)

	readinessCheck := func() bool {
		return world.Stats().Frame > 0
	}

	var service http.ServeMux
	service.Handle("/health", octreehttp.HandleWithCORS(http.HandlerFunc(octreehttp.HandleHealthCheck)))
	service.Handle("/version", octreehttp.HandleWithCORS(octreehttp.HandleVersion(version)))
	service.Handle("/ready", octreehttp.HandleWithCORS(octreehttp.HandleReadyCheck(readinessCheck)))
	service.Handle("/stats", octreehttp.HandleWithCORS(octreehttp.HandleStats(world)))
	service.Handle("/pick", octreehttp.HandleWithCORS(octreehttp.HandlePick(world)))
	service.Handle("/region", octreehttp.HandleWithCORS(octreehttp.HandleRegion(world)))
	service.Handle("/debug/boxes", octreehttp.HandleWithCORS(octreehttp.HandleDebugBoxes(world)))
	service.Handle("/frames", octreehttp.HandleFrames(ctx, world))

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", octreehttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", octreehttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("world_id", world.ID).
		WithTag("world", conf.WorldName).
		WithTag("seed", seed).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting octree server")

	octreehttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			octreehttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

// populate fills the world with moving bodies and static shapes spread
// uniformly inside its bounds.
func populate(world *models.World, rng *rand.Rand, conf config) {
	bounds := world.Bounds()
	size := bounds.Size()

	randomPoint := func(margin float64) mgl64.Vec3 {
		var p mgl64.Vec3
		for axis := 0; axis < 3; axis++ {
			p[axis] = bounds.Min[axis] + margin + rng.Float64()*(size[axis]-2*margin)
		}
		return p
	}

	randomHalfExtents := func(lo, hi float64) mgl64.Vec3 {
		return mgl64.Vec3{
			lo + rng.Float64()*(hi-lo),
			lo + rng.Float64()*(hi-lo),
			lo + rng.Float64()*(hi-lo),
		}
	}

	bodySize := conf.MinOctantSize * 2
	for i := 0; i < conf.Bodies; i++ {
		opts := models.BodyOptions{
			Position: randomPoint(bodySize * 2),
			Velocity: mgl64.Vec3{
				(rng.Float64()*2 - 1) * conf.MaxSpeed,
				(rng.Float64()*2 - 1) * conf.MaxSpeed,
				(rng.Float64()*2 - 1) * conf.MaxSpeed,
			},
		}
		if rng.Intn(4) == 0 {
			opts.Radius = bodySize * (0.25 + rng.Float64())
		} else {
			opts.HalfExtents = randomHalfExtents(bodySize*0.25, bodySize)
		}
		world.NewBody(opts)
	}

	shapeSize := size.Len() / 40
	for i := 0; i < conf.Shapes; i++ {
		world.NewBody(models.BodyOptions{
			Category:    octree.CategoryShape,
			Position:    randomPoint(shapeSize * 2),
			HalfExtents: randomHalfExtents(shapeSize/2, shapeSize),
		})
	}

	logs.WithTag("world_id", world.ID).
		WithTag("bodies", conf.Bodies).
		WithTag("shapes", conf.Shapes).
		Info("world populated")
}

func validateConfig(conf config) error {
	if conf.WorldExtent <= 0 {
		return errors.New("world extent must be positive").
			WithTag("world_extent", conf.WorldExtent)
	}

	if conf.MinOctantSize <= 0 || conf.MinOctantSize > conf.WorldExtent*2 {
		return errors.New("min octant size must be positive and fit in the world").
			WithTag("min_octant_size", conf.MinOctantSize).
			WithTag("world_extent", conf.WorldExtent)
	}

	if conf.BucketSize <= 0 {
		return errors.New("bucket size must be positive").
			WithTag("bucket_size", conf.BucketSize)
	}

	if conf.FrameDuration <= 0 {
		return errors.New("frame duration must be positive").
			WithTag("frame_duration", conf.FrameDuration)
	}

	if conf.Bodies < 0 || conf.Shapes < 0 {
		return errors.New("body and shape counts cannot be negative").
			WithTag("bodies", conf.Bodies).
			WithTag("shapes", conf.Shapes)
	}

	if conf.MinOctantSize*8 > conf.WorldExtent*2 && conf.Bodies > 0 {
		return errors.New("world is too small for the bodies").
			WithTag("min_octant_size", conf.MinOctantSize).
			WithTag("world_extent", conf.WorldExtent)
	}
	return nil
}
