package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/labcitrus/avagen-runner/pkg/plan"
	"github.com/labcitrus/avagen-runner/pkg/query"
	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

var queryCommand = &cli.Command{
	Name:      "query",
	Usage:     "Evaluate a node query against a page-source dump",
	ArgsUsage: "<expression>",
	Description: `Parse a node query expression and print every matching node in
pre-order. Unrecognized parts of the expression are reported and ignored.

Examples:
  avagen-runner query --source window.xml 'withText("Login")'
  avagen-runner query --source window.xml 'withClassName(endsWith("Button")), isClickable()'
  avagen-runner query --source window.xml 'hasDescendant(withText("Total"))'`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Usage:    "Page-source XML dump",
			Required: true,
		},
	},
	Action: runQuery,
}

func runQuery(c *cli.Context) error {
	expr := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(expr) == "" {
		return errors.New("query expression is required")
	}

	root, err := loadSource(c.String("source"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	parsed := query.Parse(expr)
	for _, tok := range parsed.Dropped {
		fmt.Fprintf(c.App.ErrWriter, "%swarning:%s ignored %q\n", color(colorYellow), color(colorReset), tok)
	}
	if len(parsed.Queries) == 0 {
		return fmt.Errorf("no queries in %q", expr)
	}

	for _, q := range parsed.Queries {
		fmt.Fprintf(w, "%s%s%s\n", color(colorDim), q, color(colorReset))
	}
	res := query.Find(query.AllNodes(root), parsed.Queries...)
	fmt.Fprintf(w, "%d match(es), %d node(s) checked\n", len(res.Matches), res.Checked)
	for i, n := range res.Matches {
		fmt.Fprintf(w, "  %2d %s\n", i+1, uitree.Describe(n))
	}
	return nil
}

var plansCommand = &cli.Command{
	Name:  "plans",
	Usage: "List the methods of a plan file",
	Description: `List method names and step counts from --plans FILE or from
<plans-dir>/<app>_actionplan.json. With --watch the listing is refreshed
whenever a plan file in the plans directory changes.

Examples:
  avagen-runner plans --plans plan.json
  avagen-runner plans --app hu.vmiklos.plees_tracker --watch`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "plans",
			Usage: "Plan file",
		},
		&cli.StringFlag{
			Name:  "app",
			Usage: "App id to look up in the plans directory",
		},
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "Reload when plan files change (plans directory only)",
		},
	},
	Action: runPlans,
}

func runPlans(c *cli.Context) error {
	w := c.App.Writer
	if path := c.String("plans"); path != "" {
		f, err := plan.LoadFile(path)
		if err != nil {
			return err
		}
		printPlanFile(w, f)
		return nil
	}

	appID := c.String("app")
	if appID == "" {
		return errors.New("--plans or --app is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	repo := plan.NewRepository(cfg.Plans)
	f, err := repo.Load(appID)
	if err != nil {
		return err
	}
	printPlanFile(w, f)

	if !c.Bool("watch") {
		return nil
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	changed := make(chan string, 1)
	repo.OnInvalidate = func(id string) {
		select {
		case changed <- id:
		default:
		}
	}
	done, err := repo.Watch(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%sWatching %s (Ctrl+C to stop)%s\n", color(colorDim), repo.Dir(), color(colorReset))
	for {
		select {
		case <-done:
			return nil
		case id := <-changed:
			if id != appID {
				continue
			}
			f, err := repo.Load(appID)
			if err != nil {
				fmt.Fprintf(w, "%s%v%s\n", color(colorRed), err, color(colorReset))
				continue
			}
			printPlanFile(w, f)
		}
	}
}

func printPlanFile(w io.Writer, f *plan.File) {
	fmt.Fprintf(w, "%s%s%s\n", color(colorBold), f.AppID, color(colorReset))
	for _, m := range f.Methods() {
		fmt.Fprintf(w, "  %-30s %d steps\n", m, len(f.Plan(m).Steps))
	}
}
