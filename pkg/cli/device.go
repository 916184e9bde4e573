package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

var hierarchyCommand = &cli.Command{
	Name:  "hierarchy",
	Usage: "Print the view hierarchy of the device or a dump",
	Description: `Print the UI tree of the connected device (or of --source) as an
indented tree, or as CSV with --compact.

Examples:
  avagen-runner hierarchy
  avagen-runner hierarchy --compact
  avagen-runner hierarchy --serial emulator-5554
  avagen-runner hierarchy --source window.xml`,
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "compact",
			Usage: "Output in CSV format",
		},
	}, targetFlags...),
	Action: runHierarchy,
}

func runHierarchy(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rc := &RunConfig{}
	applyTarget(c, cfg, rc)

	platform, cleanup, err := createPlatform(c.Context, c.App.ErrWriter, rc)
	if err != nil {
		return err
	}
	defer cleanup()

	root := platform.Root()
	if root == nil {
		return errors.New("no active window")
	}
	if c.Bool("compact") {
		return writeHierarchyCSV(c.App.Writer, root)
	}
	writeHierarchyTree(c.App.Writer, root, 0)
	return nil
}

func writeHierarchyTree(w io.Writer, n uitree.Node, depth int) {
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), uitree.Describe(n))
	for _, child := range n.Children() {
		writeHierarchyTree(w, child, depth+1)
	}
}

var hierarchyCSVHeader = []string{
	"depth", "class", "resource_id", "text", "content_desc",
	"clickable", "editable", "checked", "x", "y", "width", "height",
}

func writeHierarchyCSV(w io.Writer, root uitree.Node) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(hierarchyCSVHeader); err != nil {
		return err
	}

	var walk func(n uitree.Node, depth int) error
	walk = func(n uitree.Node, depth int) error {
		b := n.Bounds()
		rec := []string{
			strconv.Itoa(depth), n.ClassName(), n.ResourceID(), n.Text(), n.ContentDescription(),
			strconv.FormatBool(n.IsClickable()), strconv.FormatBool(n.IsEditable()), strconv.FormatBool(n.IsChecked()),
			strconv.Itoa(b.X), strconv.Itoa(b.Y), strconv.Itoa(b.Width), strconv.Itoa(b.Height),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
		for _, child := range n.Children() {
			if err := walk(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, 0); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
