package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hitbim/bimio/internal/client/services"
)

// names collects a repeatable string flag.
type names []string

func (n *names) String() string { return strings.Join(*n, ",") }

func (n *names) Set(v string) error {
	if v == "" {
		return errors.New("empty plugin name")
	}
	*n = append(*n, v)
	return nil
}

func (a *App) upload(ctx context.Context, args []string) error {
	fs := a.flagSet("upload")
	var plugins names
	fs.Var(&plugins, "p", "Plugin to upload (repeatable)")
	all := fs.Bool("a", false, "Upload every plugin of the project")
	asNew := fs.Bool("n", false, "Upload as a new plugin instead of updating")
	if help, err := parse(fs, args); help || err != nil {
		return err
	}
	// trailing names: upload -p one two
	plugins = append(plugins, fs.Args()...)

	if err := a.requireSession(ctx, "Login first to upload your plugin to Hitbim Services."); err != nil {
		return err
	}
	if !*all && len(plugins) == 0 {
		fmt.Fprintln(a.out, "Either option '-p' or '-a' must be selected within 'upload' command.")
		fs.Usage()
		return errReported
	}

	if *all {
		fmt.Fprintln(a.out, "Uploading All Plugins ...")
		results, err := a.plugins.UploadAll(ctx, *asNew)
		for _, r := range results {
			a.printUpload(r)
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				fmt.Fprintf(a.out, "Failed to upload %s\n", e)
			}
			return errReported
		}
		return err
	}

	var failed bool
	for _, name := range plugins {
		suffix := ""
		if *asNew {
			suffix = " As new"
		}
		fmt.Fprintf(a.out, "Uploading Plugin : %q%s ...\n", name, suffix)

		r, err := a.plugins.Upload(ctx, name, *asNew)
		if err != nil {
			fmt.Fprintf(a.out, "Failed to upload %q: %s\n", name, describe(err))
			failed = true
			continue
		}
		a.printUpload(r)
	}
	if failed {
		return errReported
	}
	return nil
}

func (a *App) printUpload(r *services.UploadResult) {
	verb := "uploaded"
	if r.Updated {
		verb = "updated"
	}
	fmt.Fprintf(a.out, "Plugin %q %s, id %s\n", r.Name, verb, r.ID)
	if !r.IDSaved {
		fmt.Fprintf(a.out, "Could not save the plugin id to %s's config.json; the next upload will create a new plugin.\n", r.Name)
	}
}

func (a *App) download(ctx context.Context, args []string) error {
	fs := a.flagSet("download")
	id := fs.String("p", "", "Plugin ID to download")
	if help, err := parse(fs, args); help || err != nil {
		return err
	}

	if err := a.requireSession(ctx, "Login first to download your plugin from Hitbim Services."); err != nil {
		return err
	}
	if *id == "" {
		fmt.Fprintln(a.out, "Option '-p' must be provided within 'download' command.")
		fs.Usage()
		return errReported
	}

	fmt.Fprintf(a.out, "Downloading Plugin : %s ...\n", *id)
	res, err := a.plugins.Download(ctx, *id, a.confirmOverwrite)
	if err != nil {
		return err
	}
	if res.Overwritten {
		fmt.Fprintf(a.out, "Plugin %q overwritten in %s\n", res.Name, res.Dir)
	} else {
		fmt.Fprintf(a.out, "Plugin %q downloaded to %s\n", res.Name, res.Dir)
	}
	return nil
}

func (a *App) confirmOverwrite(name string) bool {
	return Confirm(a.reader, fmt.Sprintf("Plugin %q already exists. Overwrite it?", name), a.out)
}

func (a *App) list(ctx context.Context, args []string) error {
	fs := a.flagSet("list")
	if help, err := parse(fs, args); help || err != nil {
		return err
	}

	if err := a.requireSession(ctx, "Login first to see your plugin list from Hitbim Services."); err != nil {
		return err
	}

	list, err := a.plugins.List(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Failed to get my plugin list ...")
		return err
	}
	if list.Cached {
		fmt.Fprintf(a.out, "Server unreachable, showing the list cached at %s\n", list.SyncedAt.Local().Format(time.DateTime))
	}
	if len(list.Plugins) == 0 {
		fmt.Fprintln(a.out, "No plugin list data on server yet ...")
		a.guide("Upload your plugin first to server ...", "bimio upload -p <pluginName>")
		return nil
	}

	fmt.Fprintln(a.out, "Show My Plugin List ...")
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "No.\tPlugin Name\tPlugin ID")
	for i, p := range list.Plugins {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, p.Name, p.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	a.guide("To download plugin ...", "bimio download -p <pluginID>")
	return nil
}

func (a *App) build(ctx context.Context, args []string) error {
	fs := a.flagSet("build")
	if help, err := parse(fs, args); help || err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Building Plugins ...")
	path, err := a.plugins.Build(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Plugins archived to %s\n", path)
	return nil
}
