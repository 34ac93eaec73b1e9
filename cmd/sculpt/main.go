// Command sculpt replays a haptic session against a scene, then exports the
// deformed meshes and a preview image.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/tangible/internal/config"
	"github.com/Faultbox/tangible/internal/haptic"
	"github.com/Faultbox/tangible/internal/logger"
	"github.com/Faultbox/tangible/internal/preview"
	"github.com/Faultbox/tangible/internal/replay"
	"github.com/Faultbox/tangible/internal/scene"
	"github.com/Faultbox/tangible/internal/session"
	"github.com/Faultbox/tangible/pkg/math"
)

// displayInterval is how often the display goroutine samples snapshots.
const displayInterval = 16 * time.Millisecond

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := initLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Tangible sculpt ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, config.Args()); err != nil {
		logger.Error("sculpt failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func initLogger(l config.LoggingConfig) error {
	if l.LogFile == "" {
		return logger.Init(l.Level, "")
	}
	fc := logger.DefaultFileConfig(l.LogFile)
	fc.JSON = l.JSON
	return logger.InitWithFileConfig(l.Level, fc, true)
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	sc, err := loadScene(cfg.Scene.Manifest, args)
	if err != nil {
		return err
	}
	logger.Info("scene loaded", zap.Int("objects", sc.Len()), zap.Bool("prop", sc.Prop() != nil))

	ctrl := session.NewController(sc, session.Options{
		RequireConstraint:   cfg.Session.RequireConstraint,
		WorkspaceHalfExtent: cfg.Haptics.WorkspaceHalfExtent,
	}, cfg.Session.QueueSize)

	if cfg.Scene.Script != "" {
		if err := replayScript(ctx, cfg, sc, ctrl); err != nil {
			return err
		}
	} else {
		// Publish the untouched scene so there is something to preview.
		ctrl.Cycle(session.NewSample(math.Vec3{}))
	}

	paths, err := sc.ExportOBJ(cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("exporting meshes: %w", err)
	}
	for _, p := range paths {
		logger.Info("wrote mesh", zap.String("path", p))
	}

	if cfg.Output.Preview {
		path := filepath.Join(cfg.Output.Dir, "preview.webp")
		if err := writePreview(path, cfg.Output, sc, ctrl.Publisher().Latest()); err != nil {
			return fmt.Errorf("writing preview: %w", err)
		}
		logger.Info("wrote preview", zap.String("path", path))
	}
	return nil
}

// loadScene reads the manifest, or builds the default two-object scene when
// the first argument is an OBJ file. A second OBJ argument becomes the prop.
func loadScene(manifest string, args []string) (*scene.Scene, error) {
	if len(args) > 0 && strings.EqualFold(filepath.Ext(args[0]), ".obj") {
		prop := ""
		if len(args) > 1 {
			prop = args[1]
		}
		return scene.Build(scene.DefaultManifest(args[0], prop), "")
	}
	return scene.Load(manifest)
}

func replayScript(ctx context.Context, cfg *config.Config, sc *scene.Scene, ctrl *session.Controller) error {
	script, err := replay.Load(cfg.Scene.Script)
	if err != nil {
		return err
	}

	var interval time.Duration
	if cfg.Haptics.Realtime {
		interval = time.Second / time.Duration(cfg.Haptics.UpdateRateHz)
	}

	runner := replay.NewRunner(ctrl, script, replay.Options{
		Spring:   haptic.NewSpring(cfg.Haptics.SpringStiffness, cfg.Haptics.MaxStiffness),
		Resolve:  sc.Find,
		Interval: interval,
	})

	displayCtx, stopDisplay := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		display(displayCtx, ctrl.Publisher())
	}()

	logger.Info("replaying script",
		zap.String("name", script.Name),
		zap.Int("steps", len(script.Steps)),
		zap.Int("cycles", script.Cycles()))

	sum, err := runner.Run(ctx)
	stopDisplay()
	wg.Wait()

	logger.Info("replay finished",
		zap.Int("cycles", sum.Cycles),
		zap.Int("edit_cycles", sum.EditCycles),
		zap.Int("edits", sum.Edits),
		zap.Int("events", sum.Events),
		zap.Int("rejected", sum.Rejected),
		zap.Int("dropped", sum.Dropped),
		zap.Float32("max_force", sum.MaxForce),
		zap.Stringer("state", sum.Final),
		zap.Duration("elapsed", sum.ElapsedTime),
		zap.Float32("last_stiffness", sum.Material.Stiffness),
		zap.Float32("last_static_friction", sum.Material.StaticFriction),
		zap.Uint64("geometry_copies", ctrl.Publisher().Copies()))
	return err
}

// display plays the role of the render loop: it reads the latest snapshot
// at a fixed rate without ever touching live meshes.
func display(ctx context.Context, pub *session.Publisher) {
	log := logger.Named("display")
	ticker := time.NewTicker(displayInterval)
	defer ticker.Stop()

	var frames int
	var last uint64
	for {
		select {
		case <-ctx.Done():
			log.Debug("display stopped", zap.Int("frames", frames), zap.Uint64("last_cycle", last))
			return
		case <-ticker.C:
			snap := pub.Latest()
			if snap == nil || snap.Cycle == last {
				continue
			}
			frames++
			last = snap.Cycle
			log.Debug("frame",
				zap.Uint64("cycle", snap.Cycle),
				zap.Stringer("state", snap.State),
				zap.Float32("cursor_x", snap.Cursor.X),
				zap.Float32("cursor_y", snap.Cursor.Y),
				zap.Float32("cursor_z", snap.Cursor.Z))
		}
	}
}

func writePreview(path string, out config.OutputConfig, sc *scene.Scene, snap *session.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("no snapshot published")
	}
	opts := preview.DefaultOptions()
	opts.Size = out.PreviewSize
	opts.Supersample = out.Supersample
	cursor := snap.Cursor
	opts.Cursor = &cursor

	items := preview.ItemsFromSnapshot(snap)
	if p := sc.Prop(); p != nil {
		items = append(items, preview.Item{
			Positions: p.Mesh.Positions(),
			Normals:   p.Mesh.Normals(),
			Colors:    p.Mesh.Colors(),
			Triangles: p.Mesh.Triangles(),
			Transform: math.TranslateVec(cursor).Mul(p.Offset),
		})
	}
	return preview.WriteFile(path, preview.Render(items, opts))
}
