// Command footsync detects foot contacts in an animation clip and writes
// sync markers, curves, charts and a run record.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footsync/internal/charts"
	"github.com/banshee-data/footsync/internal/clip"
	"github.com/banshee-data/footsync/internal/config"
	"github.com/banshee-data/footsync/internal/contact"
	"github.com/banshee-data/footsync/internal/db"
	"github.com/banshee-data/footsync/internal/footsync"
	"github.com/banshee-data/footsync/internal/fsutil"
	"github.com/banshee-data/footsync/internal/monitoring"
	"github.com/banshee-data/footsync/internal/preset"
	"github.com/banshee-data/footsync/internal/security"
	"github.com/banshee-data/footsync/internal/timeutil"
	"github.com/banshee-data/footsync/internal/units"
	"github.com/banshee-data/footsync/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("footsync: %v", err)
	}
}

type options struct {
	clipPath          string
	configPath        string
	method            string
	locomotion        string
	velocityThreshold float64
	saliencyThreshold float64
	dbPath            string
	outDir            string
	png               bool
	html              bool
	json              bool
	units             string
	listRuns          int
	showRun           string
	deleteRun         string
	migrate           string
	verbose           bool
	version           bool

	// set records which flags were given explicitly.
	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("footsync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.clipPath, "clip", "", "Clip JSON file to analyse (required)")
	fs.StringVar(&o.configPath, "config", "", "Tuning config JSON (defaults to built-in values)")
	fs.StringVar(&o.method, "method", "", "Detection method: pelvis_crossing, velocity_curve, saliency or composite (overrides config)")
	fs.StringVar(&o.locomotion, "locomotion", preset.Bipedal.String(), "Locomotion type: bipedal, humanoid_flying, quadruped or custom")
	fs.Float64Var(&o.velocityThreshold, "velocity-threshold", 0, "Override the velocity detector threshold (cm/s)")
	fs.Float64Var(&o.saliencyThreshold, "saliency-threshold", 0, "Override the saliency detector threshold")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database to record the run in")
	fs.StringVar(&o.outDir, "out", ".", "Output directory for -json, -png and -html")
	fs.BoolVar(&o.png, "png", false, "Write one PNG chart per foot")
	fs.BoolVar(&o.html, "html", false, "Write an interactive HTML chart page")
	fs.BoolVar(&o.json, "json", false, "Write the full report as JSON")
	fs.StringVar(&o.units, "units", units.CM, "Chart units: "+units.GetValidUnitsString())
	fs.IntVar(&o.listRuns, "list-runs", 0, "List the N most recent runs in -db and exit")
	fs.StringVar(&o.showRun, "show-run", "", "Print the stored results and markers of a run in -db and exit")
	fs.StringVar(&o.deleteRun, "delete-run", "", "Delete a run from -db and exit")
	fs.StringVar(&o.migrate, "migrate", "", "Run a schema action on -db and exit: up, down or status")
	fs.BoolVar(&o.verbose, "verbose", false, "Log per-detector counts")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	if o.version {
		fmt.Fprintln(stdout, version.String())
		return nil
	}
	monitoring.SetVerbose(o.verbose)

	switch {
	case o.migrate != "":
		return migrateCommand(o, stdout)
	case o.showRun != "":
		return showRun(ctx, o, stdout)
	case o.deleteRun != "":
		return deleteRun(ctx, o, stdout)
	case o.listRuns > 0:
		return listRuns(ctx, o, stdout)
	}
	if o.clipPath == "" {
		return errors.New("-clip is required")
	}
	if !units.IsValid(o.units) {
		return fmt.Errorf("invalid -units %q, expected one of %s", o.units, units.GetValidUnitsString())
	}

	cfg := config.DefaultTuningConfig()
	if o.configPath != "" {
		if cfg, err = config.LoadTuningConfig(o.configPath); err != nil {
			return err
		}
	}

	loco, err := preset.ParseLocomotionType(o.locomotion)
	if err != nil {
		return err
	}

	gopts, err := generatorOptions(cfg, o)
	if err != nil {
		return err
	}

	fsys := fsutil.OSFileSystem{}
	c, err := clip.Load(fsys, o.clipPath)
	if err != nil {
		return err
	}
	name := c.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(o.clipPath), filepath.Ext(o.clipPath))
	}

	p, err := resolvePreset(cfg, loco, c.BoneNames())
	if err != nil {
		return err
	}

	clock := timeutil.RealClock{}
	start := clock.Now()
	report, err := footsync.NewGenerator(gopts).Run(ctx, name, c, p)
	if err != nil {
		return err
	}
	log.Printf("analysed %s (%d frames, %.2fs) in %v", name, c.NumFrames(), c.Duration(), clock.Since(start).Round(time.Millisecond))

	printSummary(stdout, report)

	if err := writeOutputs(fsys, o, report); err != nil {
		return err
	}

	if o.dbPath != "" {
		store, err := db.Open(o.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		runID, err := store.RecordReport(ctx, report, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "recorded run %s in %s\n", runID, o.dbPath)
	}
	return nil
}

// generatorOptions merges the tuning config with command-line overrides.
func generatorOptions(cfg *config.TuningConfig, o *options) (footsync.Options, error) {
	gopts := footsync.Options{
		Method:    cfg.GetMethod(),
		Params:    cfg.ContactParams(),
		Selection: cfg.SelectionOptions(),
		Curves:    cfg.CurveOptions(),
	}
	if o.method != "" {
		m, err := contact.ParseMethod(o.method)
		if err != nil {
			return footsync.Options{}, err
		}
		gopts.Method = m
	}
	if o.set["velocity-threshold"] {
		if o.velocityThreshold < 0 {
			return footsync.Options{}, fmt.Errorf("-velocity-threshold must be >= 0, got %g", o.velocityThreshold)
		}
		v := o.velocityThreshold
		gopts.VelocityThreshold = &v
	}
	if o.set["saliency-threshold"] {
		if o.saliencyThreshold < 0 {
			return footsync.Options{}, fmt.Errorf("-saliency-threshold must be >= 0, got %g", o.saliencyThreshold)
		}
		v := o.saliencyThreshold
		gopts.SaliencyThreshold = &v
	}
	return gopts, nil
}

func resolvePreset(cfg *config.TuningConfig, loco preset.LocomotionType, bones []string) (preset.Preset, error) {
	if loco == preset.Custom {
		if cfg.CustomPreset == nil {
			return preset.Preset{}, errors.New("custom locomotion needs custom_preset in the config")
		}
		p := *cfg.CustomPreset
		p.Type = preset.Custom
		if p.MoveAxis == (r3.Vec{}) {
			p.MoveAxis = preset.ForwardAxis
		}
		return p, nil
	}
	p := cfg.PresetBuilder().ForSkeleton(bones, loco)
	if !p.Valid() {
		return preset.Preset{}, fmt.Errorf("could not find a pelvis and feet for %s in %d bones", loco, len(bones))
	}
	return p, nil
}

func printSummary(w io.Writer, r *footsync.Report) {
	fmt.Fprintf(w, "%s: %s, %s, %.2fs\n", r.Clip, r.Method, r.Preset.Type, r.Duration)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FOOT\tBONE\tMARKER\tCONTACTS\tCONFIDENT\tTIMES\tNOTE")
	for _, f := range r.Feet {
		times := make([]string, len(f.Selection.Markers))
		for i, m := range f.Selection.Markers {
			times[i] = fmt.Sprintf("%.3f", m.Time)
		}
		note := f.Err
		if note == "" && f.Selection.LowConfidence {
			note = "low confidence"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			f.Label, f.Foot.Bone, f.Foot.MarkerName, f.Selection.Contacts, f.Selection.Confident,
			strings.Join(times, ","), note)
	}
	tw.Flush()
}

func writeOutputs(fsys fsutil.FileSystem, o *options, r *footsync.Report) error {
	if !o.json && !o.png && !o.html {
		return nil
	}
	if !fsys.Exists(o.outDir) {
		if err := fsys.MkdirAll(o.outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		log.Printf("created %s", o.outDir)
	}
	copts := charts.Options{Units: o.units}

	if o.json {
		path, err := security.OutputPath(o.outDir, r.Clip, "_footsync.json")
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err := fsys.WriteFile(path, b, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.Printf("wrote %s", path)
	}

	if o.png {
		stems := pngStems(r)
		for i, f := range r.Feet {
			path, err := security.OutputPath(o.outDir, stems[i], ".png")
			if err != nil {
				return err
			}
			if err := charts.WritePNG(fsys, path, r.Clip, f, copts); err != nil {
				if errors.Is(err, charts.ErrNoCurves) {
					log.Printf("skipping chart: %v", err)
					continue
				}
				return err
			}
			log.Printf("wrote %s", path)
		}
	}

	if o.html {
		path, err := security.OutputPath(o.outDir, r.Clip, ".html")
		if err != nil {
			return err
		}
		if err := charts.WriteHTML(fsys, path, r, copts); err != nil {
			return err
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

// pngStems names one chart per foot as <clip>_<label>_<bone>. Custom presets
// may repeat a label or bone, so a repeated stem gets the foot's position appended.
func pngStems(r *footsync.Report) []string {
	stems := make([]string, len(r.Feet))
	seen := map[string]bool{}
	for i, f := range r.Feet {
		stem := fmt.Sprintf("%s_%s_%s", r.Clip, f.Label, f.Foot.Bone)
		if key := security.SanitizeFilename(stem); seen[key] {
			stem = fmt.Sprintf("%s_%d", stem, i+1)
		}
		seen[security.SanitizeFilename(stem)] = true
		stems[i] = stem
	}
	return stems
}

func openStore(o *options, flagName string) (*db.DB, error) {
	if o.dbPath == "" {
		return nil, fmt.Errorf("-%s needs -db", flagName)
	}
	return db.Open(o.dbPath)
}

func listRuns(ctx context.Context, o *options, w io.Writer) error {
	store, err := openStore(o, "list-runs")
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, o.listRuns)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tCLIP\tMETHOD\tLOCOMOTION\tMARKERS")
	for _, run := range runs {
		ms, err := store.RunMarkers(ctx, run.RunID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			run.RunID, run.CreatedAt.Format(time.RFC3339), run.ClipName, run.Method, run.Locomotion, len(ms))
	}
	return tw.Flush()
}

func showRun(ctx context.Context, o *options, w io.Writer) error {
	store, err := openStore(o, "show-run")
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(ctx, o.showRun)
	if err != nil {
		return err
	}
	results, err := store.RunResults(ctx, run.RunID)
	if err != nil {
		return err
	}
	markers, err := store.RunMarkers(ctx, run.RunID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "run %s: %s, %s, %s, %.2fs, created %s by %s\n",
		run.RunID, run.ClipName, run.Method, run.Locomotion, run.Duration,
		run.CreatedAt.Format(time.RFC3339), run.ToolVersion)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FOOT\tLABEL\tBONE\tTIME\tCONFIDENCE\tCONTACT\tSOURCE")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.3f\t%.2f\t%t\t%s\n",
			r.FootIndex, r.FootLabel, r.Bone, r.Time, r.Confidence, r.IsContact, r.Source)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FOOT\tLABEL\tMARKER\tTIME\tCONFIDENCE\tLOW")
	for _, m := range markers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.3f\t%.2f\t%t\n",
			m.FootIndex, m.FootLabel, m.MarkerName, m.Time, m.Confidence, m.LowConfidence)
	}
	return tw.Flush()
}

func deleteRun(ctx context.Context, o *options, w io.Writer) error {
	store, err := openStore(o, "delete-run")
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteRun(ctx, o.deleteRun); err != nil {
		return err
	}
	fmt.Fprintf(w, "deleted run %s from %s\n", o.deleteRun, o.dbPath)
	return nil
}

// migrateCommand opens the database without migrating so that down and
// status see the schema as it is on disk.
func migrateCommand(o *options, w io.Writer) error {
	if o.dbPath == "" {
		return errors.New("-migrate needs -db")
	}
	store, err := db.NewDB(o.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch o.migrate {
	case "up":
		log.Printf("running migrations...")
		if err := store.MigrateUp(); err != nil {
			return err
		}
	case "down":
		log.Printf("rolling back one migration...")
		if err := store.MigrateDown(); err != nil {
			return err
		}
	case "status":
	default:
		return fmt.Errorf("unknown -migrate action %q, expected up, down or status", o.migrate)
	}

	current, dirty, err := store.MigrateVersion()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	latest, err := db.LatestMigrationVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "schema version %d of %d (dirty: %v)\n", current, latest, dirty)
	if dirty {
		fmt.Fprintln(w, "a migration failed part way; inspect the database before running up again")
	}
	return nil
}
