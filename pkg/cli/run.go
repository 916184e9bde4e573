package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/labcitrus/avagen-runner/pkg/config"
	"github.com/labcitrus/avagen-runner/pkg/core"
	"github.com/labcitrus/avagen-runner/pkg/driver/mock"
	"github.com/labcitrus/avagen-runner/pkg/executor"
	"github.com/labcitrus/avagen-runner/pkg/logger"
	"github.com/labcitrus/avagen-runner/pkg/plan"
	"github.com/labcitrus/avagen-runner/pkg/report"
	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

// Flags shared by every command that needs a UI tree.
var targetFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "source",
		Usage: "Page-source XML dump to run against instead of a device",
	},
	&cli.StringFlag{
		Name:    "serial",
		Aliases: []string{"s"},
		Usage:   "Android device serial (default: config, then first connected device)",
		EnvVars: []string{"ANDROID_SERIAL"},
	},
	&cli.StringFlag{
		Name:    "driver",
		Aliases: []string{"d"},
		Usage:   "Driver to use (uiautomator2, appium)",
		EnvVars: []string{"AVAGEN_DRIVER"},
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL (for appium driver)",
		EnvVars: []string{"APPIUM_URL"},
	},
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Execute one action plan",
	Description: `Execute one method's action plan on a connected device, or against a
page-source dump through the mock platform.

Plans come from --plans FILE or from <plans-dir>/<app>_actionplan.json.
A run report is written to the output directory unless --no-report is set.

Examples:
  avagen-runner run --app hu.vmiklos.plees_tracker --method accessStatistics
  avagen-runner run --plans plan.json --method startSleep --source window.xml
  avagen-runner run --plans plan.json --method startSleep --source window.xml --dry-run`,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "plans",
			Usage: "Plan file (default: <plans-dir>/<app>_actionplan.json)",
		},
		&cli.StringFlag{
			Name:  "app",
			Usage: "Target app id",
		},
		&cli.StringFlag{
			Name:     "method",
			Aliases:  []string{"m"},
			Usage:    "Method whose plan to run",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Resolve each step's target node without acting",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Report directory (default: config output)",
		},
		&cli.BoolFlag{
			Name:  "no-report",
			Usage: "Do not write a run report",
		},
	}, targetFlags...),
	Action: runPlan,
}

// RunConfig holds everything needed to execute a plan.
type RunConfig struct {
	PlansPath string
	AppID     string
	Method    string
	Source    string
	Serial    string
	Driver    string
	AppiumURL string
	OutputDir string
	DryRun    bool
	NoReport  bool

	Config *config.Config
}

func newRunConfig(c *cli.Context, cfg *config.Config) *RunConfig {
	rc := &RunConfig{
		PlansPath: c.String("plans"),
		AppID:     c.String("app"),
		Method:    c.String("method"),
		OutputDir: c.String("output"),
		DryRun:    c.Bool("dry-run"),
		NoReport:  c.Bool("no-report"),
	}
	applyTarget(c, cfg, rc)
	if rc.OutputDir == "" {
		rc.OutputDir = cfg.Output
	}
	return rc
}

// applyTarget fills the target fields of rc from flags, then config.
func applyTarget(c *cli.Context, cfg *config.Config, rc *RunConfig) {
	rc.Config = cfg
	rc.Source = c.String("source")
	rc.Serial = c.String("serial")
	rc.Driver = c.String("driver")
	rc.AppiumURL = c.String("appium-url")
	if rc.Serial == "" {
		rc.Serial = cfg.Device.Serial
	}
	if rc.Driver == "" {
		rc.Driver = cfg.Device.Driver
	}
	if rc.AppiumURL == "" {
		rc.AppiumURL = cfg.Device.AppiumURL
	}
}

func runPlan(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rc := newRunConfig(c, cfg)

	p, appID, err := loadPlan(rc)
	if err != nil {
		return err
	}
	return executeWith(c, rc, appID, p)
}

// loadPlan finds the plan for rc.Method, either in an explicit file or in
// the plans directory keyed by app id.
func loadPlan(rc *RunConfig) (*plan.Plan, string, error) {
	if rc.PlansPath != "" {
		f, err := plan.LoadFile(rc.PlansPath)
		if err != nil {
			return nil, "", err
		}
		appID := rc.AppID
		if appID == "" {
			appID = f.AppID
		}
		p := f.Plan(rc.Method)
		if p == nil {
			return nil, "", fmt.Errorf("%w: method %q not in %s (available: %v)",
				plan.ErrNotFound, rc.Method, rc.PlansPath, f.Methods())
		}
		return p, appID, nil
	}

	if rc.AppID == "" {
		return nil, "", errors.New("--app is required without --plans")
	}
	repo := plan.NewRepository(rc.Config.Plans)
	p, err := repo.Plan(rc.AppID, rc.Method)
	if err != nil {
		return nil, "", err
	}
	return p, rc.AppID, nil
}

// executeWith connects to the target, runs p and records the report.
func executeWith(c *cli.Context, rc *RunConfig, appID string, p *plan.Plan) error {
	w := c.App.Writer
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	platform, cleanup, err := createPlatform(ctx, w, rc)
	if err != nil {
		return err
	}
	defer cleanup()

	step, settle, sleep := rc.Config.Pacing.Durations()
	exec := executor.New(platform, executor.Config{
		Pacing: executor.Pacing{
			StepDelay:         step,
			ScrollSettleDelay: settle,
			DefaultSleep:      sleep,
		},
		OnStepComplete: func(sr core.StepResult) { printStep(w, sr) },
	})

	if rc.DryRun {
		return printDryRun(w, exec, p)
	}

	fmt.Fprintf(w, "\n%s%s%s %s\n", color(colorBold), p.MethodName, color(colorReset), color(colorDim)+appID+color(colorReset))
	result := exec.ExecutePlan(ctx, appID, p)
	printSummary(w, result)

	if !rc.NoReport {
		writer, err := report.NewWriter(rc.OutputDir)
		if err != nil {
			return err
		}
		_, path, err := writer.Record(result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Report: %s\n", path)
	}

	if result.State == core.RunAborted {
		return fmt.Errorf("plan aborted: %s", result.Error)
	}
	if result.FailedSteps > 0 {
		return fmt.Errorf("%d of %d steps failed", result.FailedSteps, result.TotalSteps)
	}
	return nil
}

// createPlatform returns the platform to act on and its cleanup.
func createPlatform(ctx context.Context, w io.Writer, rc *RunConfig) (core.Platform, func(), error) {
	if rc.Source != "" {
		root, err := loadSource(rc.Source)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using page source %s (mock platform)", rc.Source)
		return mock.New(root, mock.Config{
			Width:  rc.Config.Screen.Width,
			Height: rc.Config.Screen.Height,
		}), func() {}, nil
	}
	switch strings.ToLower(rc.Driver) {
	case "", config.DriverUIAutomator2:
		return createAndroidPlatform(ctx, w, rc)
	case config.DriverAppium:
		return createAppiumPlatform(w, rc)
	default:
		return nil, nil, fmt.Errorf("unsupported driver: %s (use uiautomator2 or appium)", rc.Driver)
	}
}

func loadSource(path string) (*uitree.Element, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided dump
	if err != nil {
		return nil, fmt.Errorf("read page source: %w", err)
	}
	return uitree.ParsePageSource(string(data))
}

// printDryRun resolves every node-targeting step against the current tree.
func printDryRun(w io.Writer, exec *executor.Executor, p *plan.Plan) error {
	fmt.Fprintf(w, "\n%s%s%s (dry run, %d steps)\n", color(colorBold), p.MethodName, color(colorReset), len(p.Steps))
	for i, step := range p.Steps {
		kind := step.Kind()
		if !kind.RequiresNode() {
			fmt.Fprintf(w, "  %2d %-10s\n", i+1, kind)
			continue
		}
		node, err := exec.ResolveNode(step)
		if err != nil {
			fmt.Fprintf(w, "  %2d %-10s %s%v%s\n", i+1, kind, color(colorRed), err, color(colorReset))
			continue
		}
		fmt.Fprintf(w, "  %2d %-10s %s\n", i+1, kind, uitree.Describe(node))
	}
	return nil
}
