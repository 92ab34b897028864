package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aiesec-vn/ogvhub/apps/shared"
	"github.com/aiesec-vn/ogvhub/core"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errAborted        = errors.New("aborted")
	errNotInteractive = errors.New("not a terminal: pass --yes to confirm")
	errNoSQLDatabase  = errors.New("migrations need a SQL database")
)

type commandLine struct {
	conf   *core.Config
	db     *sql.DB // nil with the in-memory engine
	svcs   *shared.Services
	logger core.Logger
	in     io.Reader
	out    io.Writer
}

func newCommandLine(conf *core.Config, db *sql.DB, svcs *shared.Services, logger core.Logger) *commandLine {
	return &commandLine{
		conf:   conf,
		db:     db,
		svcs:   svcs,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "oGV hub administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(cli.in)
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.migrateCmd(),
		cli.allocateCmd(),
		cli.profileCmd(),
		cli.suggestCmd(),
	)
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		if err != errAborted {
			fmt.Fprintf(cli.out, "\nerror: %s\n", err)
		}
		return err
	}
	return nil
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.out, format, args...)
}

// confirm asks a yes/no question on stdin. Only an explicit "y" or "yes" confirms.
func (cli *commandLine) confirm(question string) error {
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return errNotInteractive
	}
	cli.printf("%s [y/N]: ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "reading answer")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	cli.printf("aborted\n")
	return errAborted
}
