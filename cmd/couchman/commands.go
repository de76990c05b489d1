package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/multierr"

	dombatch "github.com/kailas-cloud/couchman/internal/domain/batch"
	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
	browseuc "github.com/kailas-cloud/couchman/internal/usecase/browse"
	healthuc "github.com/kailas-cloud/couchman/internal/usecase/health"
	"github.com/kailas-cloud/couchman/internal/version"
)

func commands() map[string]command {
	list := []command{
		{name: "dbs", summary: "list databases", run: cmdDatabases},
		{name: "create-db", args: "[--no-default-index] NAME", summary: "create a database", run: cmdCreateDatabase},
		{name: "delete-db", args: "NAME...", summary: "delete databases", run: cmdDeleteDatabases},
		{name: "delete-all-dbs", args: "--yes", summary: "delete every database", run: cmdDeleteAllDatabases},
		{name: "indexes", args: "DB", summary: "list Mango indexes", run: cmdIndexes},
		{name: "create-index", args: "DB NAME FIELDS", summary: `create an index ("a, b:desc")`, run: cmdCreateIndex},
		{name: "delete-index", args: "DB DDOC NAME", summary: "delete an index", run: cmdDeleteIndex},
		{name: "docs", args: "[-q TEXT] DB", summary: "list documents, optionally filtered", run: cmdDocuments},
		{name: "get", args: "DB ID", summary: "print a document", run: cmdGet},
		{name: "put", args: "[--id ID] [--confirm-id-change] DB FILE|-", summary: "save a document", run: cmdPut},
		{name: "new-doc", args: "DB [ID]", summary: "create an empty document", run: cmdNewDocument},
		{name: "delete-doc", args: "[--rev REV] DB ID", summary: "delete a document", run: cmdDeleteDocument},
		{name: "fmt", args: "FILE|-", summary: "pretty-print JSON", offline: true, run: cmdFormat},
		{name: "health", summary: "check server and credentials", run: cmdHealth},
		{name: "serve", summary: "run the web console", run: cmdServe},
		{name: "version", summary: "print version", offline: true, run: cmdVersion},
	}
	m := make(map[string]command, len(list))
	for _, c := range list {
		m[c.name] = c
	}
	return m
}

// subFlags returns a flag set for a subcommand that reports errors instead of exiting.
func subFlags(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseSub(fs *flag.FlagSet, args []string, minArgs, maxArgs int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, usageError{msg: err.Error()}
	}
	rest := fs.Args()
	if len(rest) < minArgs || (maxArgs >= 0 && len(rest) > maxArgs) {
		return nil, usagef("wrong number of arguments")
	}
	return rest, nil
}

func cmdDatabases(ctx context.Context, a *app, args []string) error {
	if _, err := parseSub(subFlags(a, "dbs"), args, 0, 0); err != nil {
		return err
	}
	names, err := a.databases.List(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(a.stdout, n)
	}
	return nil
}

func cmdCreateDatabase(ctx context.Context, a *app, args []string) error {
	fs := subFlags(a, "create-db")
	noIndex := fs.Bool("no-default-index", false, "do not create the <name>_idx index on _id")
	rest, err := parseSub(fs, args, 1, 1)
	if err != nil {
		return err
	}

	if *noIndex {
		a.databases.WithDefaultIndex(false)
	}
	if err := a.databases.Create(ctx, rest[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "created database %s\n", rest[0])
	return nil
}

func cmdDeleteDatabases(ctx context.Context, a *app, args []string) error {
	rest, err := parseSub(subFlags(a, "delete-db"), args, 1, -1)
	if err != nil {
		return err
	}
	return reportBulk(a.stdout, a.databases.DeleteMany(ctx, rest))
}

func cmdDeleteAllDatabases(ctx context.Context, a *app, args []string) error {
	fs := subFlags(a, "delete-all-dbs")
	yes := fs.Bool("yes", false, "confirm deletion of every database")
	if _, err := parseSub(fs, args, 0, 0); err != nil {
		return err
	}
	if !*yes {
		return usagef("refusing to delete every database without --yes")
	}

	results, err := a.databases.DeleteAll(ctx)
	if err != nil {
		return err
	}
	return reportBulk(a.stdout, results)
}

// reportBulk prints one line per item and combines the failures.
func reportBulk(w io.Writer, results []dombatch.Result) error {
	var errs error
	for _, r := range results {
		if r.Err() != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", r.Name(), r.Err())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Name(), r.Err()))
			continue
		}
		fmt.Fprintf(w, "deleted %s\n", r.Name())
	}
	ok, failed := dombatch.Count(results)
	fmt.Fprintf(w, "%d deleted, %d failed\n", ok, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d deletions failed: %w", failed, len(results), errs)
	}
	return nil
}

func cmdIndexes(ctx context.Context, a *app, args []string) error {
	rest, err := parseSub(subFlags(a, "indexes"), args, 1, 1)
	if err != nil {
		return err
	}
	rows, err := a.indexes.Rows(ctx, rest[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DDOC\tNAME\tFIELDS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.DesignDoc, r.Name, r.Fields)
	}
	return tw.Flush()
}

func cmdCreateIndex(ctx context.Context, a *app, args []string) error {
	rest, err := parseSub(subFlags(a, "create-index"), args, 3, 3)
	if err != nil {
		return err
	}
	idx, err := a.indexes.CreateFromText(ctx, rest[0], rest[1], rest[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "created index %s in %s on %s\n", idx.Name(), idx.DesignDoc(), idx.FieldsString())
	return nil
}

func cmdDeleteIndex(ctx context.Context, a *app, args []string) error {
	rest, err := parseSub(subFlags(a, "delete-index"), args, 3, 3)
	if err != nil {
		return err
	}
	if err := a.indexes.Delete(ctx, rest[0], rest[1], rest[2]); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "deleted index %s\n", rest[2])
	return nil
}

func cmdDocuments(ctx context.Context, a *app, args []string) error {
	fs := subFlags(a, "docs")
	query := fs.String("q", "", "case-insensitive text to match in id or body")
	rest, err := parseSub(fs, args, 1, 1)
	if err != nil {
		return err
	}

	view := browseuc.New(a.documents, rest[0])
	if _, err := view.Refresh(ctx); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREV")
	for _, r := range view.Filter(*query) {
		fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Rev)
	}
	return tw.Flush()
}

func cmdGet(ctx context.Context, a *app, args []string) error {
	rest, err := parseSub(subFlags(a, "get"), args, 2, 2)
	if err != nil {
		return err
	}
	doc, err := a.documents.Get(ctx, rest[0], rest[1])
	if err != nil {
		return err
	}
	text, err := doc.Pretty()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, text)
	return nil
}

// cmdPut saves editor text. With --id the document is opened first, so a
// missing _id defaults to it and a different _id needs --confirm-id-change.
func cmdPut(ctx context.Context, a *app, args []string) error {
	fs := subFlags(a, "put")
	id := fs.String("id", "", "id of the document being edited")
	confirm := fs.Bool("confirm-id-change", false, "allow saving under a different _id (creates a new document)")
	rest, err := parseSub(fs, args, 2, 2)
	if err != nil {
		return err
	}

	text, err := readInput(a.stdin, rest[1])
	if err != nil {
		return err
	}
	// Reject malformed input before loading anything from the server.
	if _, err := domdoc.Parse(text); err != nil {
		return err
	}

	view := browseuc.New(a.documents, rest[0])
	if *id != "" {
		if _, err := view.Refresh(ctx); err != nil {
			return err
		}
		if _, err := view.Show(*id); err != nil {
			return err
		}
	}

	saved, err := view.Save(ctx, text, *confirm)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "saved %s %s\n", saved.ID(), saved.Rev())
	return nil
}

func cmdNewDocument(ctx context.Context, a *app, args []string) error {
	rest, err := parseSub(subFlags(a, "new-doc"), args, 1, 2)
	if err != nil {
		return err
	}
	var id string
	if len(rest) == 2 {
		id = rest[1]
	}

	doc, err := browseuc.New(a.documents, rest[0]).NewDocument(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "created %s %s\n", doc.ID(), doc.Rev())
	return nil
}

// cmdDeleteDocument deletes at --rev, or at the revision currently listed.
func cmdDeleteDocument(ctx context.Context, a *app, args []string) error {
	fs := subFlags(a, "delete-doc")
	rev := fs.String("rev", "", "revision to delete (default: current)")
	rest, err := parseSub(fs, args, 2, 2)
	if err != nil {
		return err
	}
	database, id := rest[0], rest[1]

	if *rev != "" {
		err = a.documents.Delete(ctx, database, id, *rev)
	} else {
		view := browseuc.New(a.documents, database)
		if _, err = view.Refresh(ctx); err == nil {
			err = view.Delete(ctx, id)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "deleted %s\n", id)
	return nil
}

func cmdFormat(_ context.Context, a *app, args []string) error {
	rest, err := parseSub(subFlags(a, "fmt"), args, 1, 1)
	if err != nil {
		return err
	}
	text, err := readInput(a.stdin, rest[0])
	if err != nil {
		return err
	}
	out, err := domdoc.Format(text)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, out)
	return nil
}

func cmdHealth(ctx context.Context, a *app, args []string) error {
	if _, err := parseSub(subFlags(a, "health"), args, 0, 0); err != nil {
		return err
	}
	info, err := a.server.Info(ctx)
	if err == nil {
		fmt.Fprintf(a.stdout, "server  %s %s\n", info.Vendor, info.Version)
	}

	var report healthuc.Report
	if a.hasCredentials() {
		report = a.health.Check(ctx)
	} else {
		report = a.health.CheckServer(ctx)
	}
	for _, name := range []string{healthuc.CheckCouchDB, healthuc.CheckAccess} {
		if res, ok := report.Checks[name]; ok {
			fmt.Fprintf(a.stdout, "%-7s %s\n", name, res)
		}
	}
	if report.Status != healthuc.Healthy {
		return fmt.Errorf("health: %s", report.Status)
	}
	return nil
}

func cmdVersion(_ context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return usagef("version takes no arguments")
	}
	fmt.Fprintln(a.stdout, version.String())
	return nil
}

// readInput reads a file, or stdin for "-".
func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("input is empty")
	}
	return string(data), nil
}
