package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// options 命令行参数
type options struct {
	command    string
	file       string
	configPath string

	container  string
	sandbox    string
	useSandbox bool

	logger      string
	logFile     string
	endpointURL string
	redisAddr   string
	unattended  bool

	model    string
	maxTurns int
}

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "shellagent",
		Short: "Let a model solve a task by running shell commands in a container or sandbox",
		Long: `Send a request to the model and execute the shell commands it proposes
inside a docker container or a remote sandbox, until it answers in plain text.

Examples:
  shellagent -c "how many go files are there?" --container dev
  shellagent -f task.txt --container dev -l file --log-file logs/run.jsonl
  shellagent -c "run the tests" --use-sandbox --sandbox sb-123 -l http --endpoint-url http://collector/logs`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), cmd.Flags().Changed, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.command, "command", "c", "", "request text for the model")
	f.StringVarP(&opts.file, "file", "f", "", "file holding the request text")
	f.StringVar(&opts.configPath, "config", "", "path to config file (YAML)")
	f.StringVar(&opts.container, "container", "", "docker container to run commands in")
	f.StringVar(&opts.sandbox, "sandbox", "", "sandbox id to run commands in (with --use-sandbox)")
	f.BoolVar(&opts.useSandbox, "use-sandbox", false, "run commands in a sandbox instead of a container")
	f.StringVarP(&opts.logger, "logger", "l", "", "run log sink: console, discard, file, http, redis")
	f.StringVar(&opts.logFile, "log-file", "", "append-only JSON lines file (file logger)")
	f.StringVar(&opts.endpointURL, "endpoint-url", "", "endpoint receiving log entries (http logger)")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "redis server receiving log entries (redis logger)")
	f.BoolVar(&opts.unattended, "unattended", false, "treat the run as unattended")
	f.StringVar(&opts.model, "model", "", "model identifier")
	f.IntVar(&opts.maxTurns, "max-turns", 0, "maximum shell calls per run, 0 for unlimited")

	cmd.MarkFlagsMutuallyExclusive("command", "file")
	cmd.MarkFlagsOneRequired("command", "file")

	cmd.AddCommand(newVersionCmd(a))
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "ShellAgent %s\n", Version)
			fmt.Fprintf(a.stdout, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(a.stdout, "  Git Commit: %s\n", GitCommit)
		},
	}
}
