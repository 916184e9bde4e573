package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/labcitrus/avagen-runner/pkg/agent"
	"github.com/labcitrus/avagen-runner/pkg/logger"
)

var confirmCommand = &cli.Command{
	Name:  "confirm",
	Usage: "Classify an agent reply and execute its plan on confirmation",
	Description: `Read an agent reply (JSON) and print the message for the user. When
the reply carries an action plan and --answer confirms it (yes, sure, okay,
ok), the plan is executed like 'run'.

Examples:
  avagen-runner confirm --reply reply.json
  avagen-runner confirm --reply reply.json --answer yes --source window.xml
  agent-client ask "open statistics" | avagen-runner confirm --reply - --answer yes`,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:     "reply",
			Usage:    "Agent reply JSON file (- for stdin)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "answer",
			Usage: "User answer to the confirmation prompt",
		},
		&cli.StringFlag{
			Name:  "current-app",
			Usage: "App id in the foreground (checked against the reply's app)",
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
	Action: runConfirm,
}

func runConfirm(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	raw, err := readReply(c.String("reply"), c.App.Reader)
	if err != nil {
		return err
	}

	w := c.App.Writer
	conv := agent.NewConversation(nil)
	reply, err := conv.HandleReply(raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, reply.Message)

	answer := c.String("answer")
	if reply.Type != agent.ReplyActionPlan || answer == "" {
		return nil
	}

	p, pending, err := conv.Confirm(answer, c.String("current-app"))
	var mismatch *agent.AppMismatchError
	switch {
	case errors.Is(err, agent.ErrNotAffirmed):
		fmt.Fprintln(w, "Plan not confirmed.")
		return nil
	case errors.As(err, &mismatch):
		return fmt.Errorf("%w. Please open the correct app and try again", err)
	case err != nil:
		return err
	}
	logger.Info("Confirmed pending plan %s", pending.ID)

	rc := newRunConfig(c, cfg)
	rc.Method = p.MethodName
	appID := pending.AppID
	if appID == "" {
		appID = c.String("current-app")
	}
	return executeWith(c, rc, appID, p)
}

func readReply(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided reply file
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return data, nil
}
