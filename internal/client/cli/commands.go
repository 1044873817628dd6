package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/attendpass/internal/client/client"
	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	"github.com/dmitrijs2005/attendpass/internal/filex"
	"github.com/goccy/go-json"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, args...)...)
}

// expiryFlag registers -expiry; zero means "not set".
func expiryFlag(fs *flag.FlagSet) func() *int {
	v := fs.Int("expiry", 0, "credential validity in minutes")
	return func() *int {
		if *v == 0 {
			return nil
		}
		return credential.Minutes(*v)
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func (a *App) printIssued(in *client.Issued) {
	fmt.Fprintf(a.out, "session:  %s\n", in.Credential.SessionID)
	fmt.Fprintf(a.out, "issued:   %s\n", formatMillis(in.Credential.IssuedAt))
	fmt.Fprintf(a.out, "expires:  %s\n", formatMillis(in.Credential.ExpiresAt))
	fmt.Fprintln(a.out, in.Wire)
}

func (a *App) issue(ctx context.Context, args []string) error {
	fs := newFlagSet("issue")
	var r credential.Request
	fs.StringVar(&r.SessionID, "session", "", "session id")
	fs.StringVar(&r.EventID, "event", "", "event id")
	fs.StringVar(&r.HallID, "hall", "", "hall id")
	fs.StringVar(&r.SessionName, "name", "", "session display name")
	expiry := expiryFlag(fs)

	if err := fs.Parse(args); err != nil {
		return usageErr("issue: %v", err)
	}
	if r.SessionID == "" || r.EventID == "" {
		return usageErr("issue: -session and -event are required")
	}
	r.ExpiryMinutes = expiry()

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	out, err := a.service.Issue(ctx, r)
	if err != nil {
		return err
	}
	a.printIssued(out)
	return nil
}

// batchLine is one element of the JSON array read by the batch command.
type batchLine struct {
	SessionID     string `json:"sessionId"`
	EventID       string `json:"eventId"`
	HallID        string `json:"hallId"`
	SessionName   string `json:"sessionName"`
	ExpiryMinutes *int   `json:"expiryMinutes"`
}

func readBatchFile(path string) ([]credential.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []batchLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	reqs := make([]credential.Request, len(lines))
	for i, l := range lines {
		reqs[i] = credential.Request{
			SessionID:     l.SessionID,
			EventID:       l.EventID,
			HallID:        l.HallID,
			SessionName:   l.SessionName,
			ExpiryMinutes: l.ExpiryMinutes,
		}
	}
	return reqs, nil
}

func (a *App) batch(ctx context.Context, args []string) error {
	fs := newFlagSet("batch")
	expiry := expiryFlag(fs)
	var opts client.BatchOptions
	fs.BoolVar(&opts.Sequential, "sequential", false, "issue one at a time")
	fs.BoolVar(&opts.Export, "export", false, "write a print manifest")
	save := fs.Bool("save", false, "download the manifest into ./"+manifestDir+" (needs -export)")

	if err := fs.Parse(args); err != nil {
		return usageErr("batch: %v", err)
	}
	if fs.NArg() != 1 {
		return usageErr("batch: exactly one FILE is required")
	}
	if *save && !opts.Export {
		return usageErr("batch: -save requires -export")
	}
	opts.ExpiryMinutes = expiry()

	reqs, err := readBatchFile(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	out, err := a.service.IssueBatch(ctx, reqs, opts)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(a.out)
	failed := 0
	for _, item := range out.Items {
		if item.Error != "" {
			failed++
			fmt.Fprintf(w, "%s\tERROR\t%s\t%s\n", item.SessionID, item.Code, item.Error)
			continue
		}
		fmt.Fprintf(w, "%s\tOK\t%s\t%s\n", item.SessionID, formatMillis(item.ExpiresAt), item.Wire)
	}
	fmt.Fprintf(w, "issued %d of %d\n", len(out.Items)-failed, len(out.Items))
	if out.ExportURL != "" {
		fmt.Fprintf(w, "manifest: %s\n", out.ExportURL)
	}
	if *save && out.ExportURL != "" {
		p, err := saveManifest(ctx, out.ExportURL, out.ExportKey)
		if err != nil {
			_ = w.Flush()
			return err
		}
		fmt.Fprintf(w, "saved: %s\n", p)
	}
	return w.Flush()
}

const manifestDir = "manifests"

func saveManifest(ctx context.Context, url, key string) (string, error) {
	body, err := fetchManifest(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch manifest: %w", err)
	}
	return filex.WriteInSubdir(manifestDir, path.Base(key), body)
}

func (a *App) renew(ctx context.Context, args []string) error {
	fs := newFlagSet("renew")
	expiry := expiryFlag(fs)
	if err := fs.Parse(args); err != nil {
		return usageErr("renew: %v", err)
	}
	if fs.NArg() != 1 {
		return usageErr("renew: exactly one WIRE is required")
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	out, err := a.service.Renew(ctx, fs.Arg(0), expiry())
	if err != nil {
		return err
	}
	a.printIssued(out)
	return nil
}

// readWire reads a code from stdin, prompting only when a person is typing.
func (a *App) readWire() (string, error) {
	if stdinIsTerminal() {
		fmt.Fprint(a.errOut, "Paste credential\n> ")
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (a *App) validate(ctx context.Context, args []string) (bool, error) {
	fs := newFlagSet("validate")
	attendee := fs.String("attendee", "", "attendee to check in")
	if err := fs.Parse(args); err != nil {
		return false, usageErr("validate: %v", err)
	}

	var wire string
	switch fs.NArg() {
	case 0:
		var err error
		if wire, err = a.readWire(); err != nil {
			return false, err
		}
	case 1:
		wire = fs.Arg(0)
	default:
		return false, usageErr("validate: at most one WIRE")
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	v, err := a.service.Validate(ctx, wire, *attendee)
	if err != nil {
		return false, err
	}

	if !v.Accepted {
		fmt.Fprintf(a.out, "REJECTED %s: %s\n", v.Reason, v.Message)
		return false, nil
	}

	h := v.Handoff
	fmt.Fprintf(a.out, "ACCEPTED session=%s event=%s", h.SessionID, h.EventID)
	if h.HallID != "" {
		fmt.Fprintf(a.out, " hall=%s", h.HallID)
	}
	fmt.Fprintf(a.out, " until=%s", formatMillis(h.ExpiresAt))
	switch {
	case !v.Recorded:
		fmt.Fprint(a.out, " (not recorded)")
	case v.Duplicate:
		fmt.Fprint(a.out, " (already checked in)")
	}
	fmt.Fprintln(a.out)
	return true, nil
}

func (a *App) attendance(ctx context.Context, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return usageErr("attendance: exactly one SESSION is required")
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	out, err := a.service.Attendance(ctx, args[0])
	if errors.Is(err, client.ErrNotFound) {
		fmt.Fprintf(a.out, "%s\tno check-ins\n", args[0])
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\t%d\t%s\n", out.SessionID, out.EventID, out.CheckIns, formatMillis(out.UpdatedAt))
	return nil
}

func (a *App) ping(ctx context.Context) error {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	if err := a.service.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

func (a *App) keygen(args []string) error {
	fs := newFlagSet("keygen")
	size := fs.Int("bytes", 32, "random bytes in the secret")
	if err := fs.Parse(args); err != nil {
		return usageErr("keygen: %v", err)
	}
	if *size < 16 {
		return usageErr("keygen: -bytes must be at least 16")
	}

	secret, err := common.MakeRandHexString(*size)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, secret)
	return nil
}
