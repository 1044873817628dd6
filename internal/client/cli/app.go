package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/attendpass/internal/client/client"
	"github.com/dmitrijs2005/attendpass/internal/client/config"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	"github.com/dmitrijs2005/attendpass/internal/netx"
	pb "github.com/dmitrijs2005/attendpass/internal/proto"
	"golang.org/x/term"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitRejected = 1
	ExitUsage    = 2
	ExitFailure  = 3
)

var errUsage = errors.New("usage")

// Service is the part of the server API the commands use.
type Service interface {
	Issue(ctx context.Context, r credential.Request) (*client.Issued, error)
	IssueBatch(ctx context.Context, reqs []credential.Request, opts client.BatchOptions) (*client.Batch, error)
	Renew(ctx context.Context, wire string, expiryMinutes *int) (*client.Issued, error)
	Validate(ctx context.Context, wire, attendeeID string) (*client.Verdict, error)
	Attendance(ctx context.Context, sessionID string) (*pb.Attendance, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	newService = func(addr string) (Service, error) {
		return client.New(addr)
	}

	fetchManifest = func(ctx context.Context, url string) ([]byte, error) {
		return netx.FetchPresignedURL(ctx, nil, url)
	}

	stdinIsTerminal = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd()))
	}
)

type App struct {
	config  *config.Config
	service Service
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
}

// Main parses args, runs one command and returns the process exit code.
func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	cfg, rest, err := config.LoadConfig(args)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return ExitUsage
	}
	if len(rest) == 0 {
		printUsage(errOut)
		return ExitUsage
	}

	app := &App{config: cfg, in: in, out: out, errOut: errOut}
	cmd, cmdArgs := rest[0], rest[1:]

	switch cmd {
	case "help":
		printUsage(out)
		return ExitOK
	case "keygen":
		return app.exit(app.keygen(cmdArgs))
	}

	svc, err := newService(cfg.ServerEndpointAddr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return ExitFailure
	}
	defer svc.Close()
	app.service = svc

	var code int
	switch cmd {
	case "issue":
		code = app.exit(app.issue(ctx, cmdArgs))
	case "batch":
		code = app.exit(app.batch(ctx, cmdArgs))
	case "renew":
		code = app.exit(app.renew(ctx, cmdArgs))
	case "validate":
		var accepted bool
		accepted, err = app.validate(ctx, cmdArgs)
		code = app.exit(err)
		if err == nil && !accepted {
			code = ExitRejected
		}
	case "attendance":
		code = app.exit(app.attendance(ctx, cmdArgs))
	case "ping":
		code = app.exit(app.ping(ctx))
	default:
		fmt.Fprintln(errOut, "Unknown command:", cmd)
		printUsage(errOut)
		code = ExitUsage
	}
	return code
}

func (a *App) exit(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errUsage):
		fmt.Fprintln(a.errOut, err)
		return ExitUsage
	default:
		fmt.Fprintln(a.errOut, "error:", err)
		return ExitFailure
	}
}

func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.Timeout)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: attendctl [-a addr] [-timeout d] [-c file] <command> [args]

Commands:
  issue -session S -event E [-hall H] [-name N] [-expiry M]
  batch [-expiry M] [-sequential] [-export [-save]] FILE
  renew [-expiry M] WIRE
  validate [-attendee ID] [WIRE]
  attendance SESSION
  ping
  keygen [-bytes N]
`)
}
