package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/hitbim/bimio/internal/buildinfo"
	"github.com/hitbim/bimio/internal/client/api"
)

type commandHelp struct {
	name    string
	args    string
	summary string
}

var commandList = []commandHelp{
	{"login", "[-e <email>]", "Login to Hitbim Services."},
	{"logout", "", "Logout from Hitbim Services."},
	{"session", "", "Check whether the user is logged in or not, and show information."},
	{"list", "", "Show my plugin list from Hitbim Services."},
	{"upload", "-p <pluginName>... | -a [-n]", "Upload plugins to Hitbim Services."},
	{"download", "-p <pluginId>", "Download a plugin from Hitbim Services."},
	{"build", "", "Archive every plugin of the project into build/."},
	{"check", "", "Check current environment of BIMIO."},
	{"version", "", "Display build information."},
	{"help", "[command]", "Display help for command."},
}

func usageOf(name string) string {
	for _, c := range commandList {
		if c.name == name {
			if c.args == "" {
				return c.name
			}
			return c.name + " " + c.args
		}
	}
	return name
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "bimio - CLI for Hitbim Plugin Development")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Usage: bimio [-v] [-t seconds] [-d projectDir] [-c config.json] <command> [options]")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Commands:")
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, c := range commandList {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	_ = tw.Flush()
}

func (a *App) help(args []string) error {
	if len(args) == 0 {
		a.usage()
		return nil
	}
	for _, c := range commandList {
		if c.name == args[0] {
			fmt.Fprintf(a.out, "Usage: bimio %s\n\n%s\n", usageOf(c.name), c.summary)
			return nil
		}
	}
	fmt.Fprintf(a.out, "Command %q not found.\n\n", args[0])
	a.usage()
	return errReported
}

func (a *App) version() {
	buildinfo.PrintBuildData(a.out)
}

// check prints the environment and every configured endpoint.
func (a *App) check() {
	envFile := a.config.EnvFile
	if envFile == "" {
		envFile = "(none)"
	}
	fmt.Fprintf(a.out, "ENV      : %s\n", a.config.Env)
	fmt.Fprintf(a.out, "ENV FILE : %s\n", envFile)
	fmt.Fprintf(a.out, "DATA DIR : %s\n", a.config.DataDir)
	fmt.Fprintln(a.out)

	e := a.config.Endpoints
	for _, ep := range []struct {
		name string
		d    api.Descriptor
	}{
		{"login", e.Login},
		{"refresh", e.Refresh},
		{"logout", e.Logout},
		{"upload", e.Upload},
		{"update", e.Update},
		{"download", e.Download},
		{"list", e.List},
	} {
		fmt.Fprintf(a.out, "API: %s\n", ep.name)
		fmt.Fprintf(a.out, "  Hostname: %s\n", ep.d.Hostname)
		fmt.Fprintf(a.out, "  Method  : %s\n", ep.d.Method)
		fmt.Fprintf(a.out, "  Path    : %s\n", ep.d.Path)
	}
}
