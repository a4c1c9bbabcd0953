// boardctl is an operator CLI for the board service.
//
//	boardctl login --email admin@example.com --password admin123
//	boardctl delta --agent a1 --activations 1
//	boardctl notify --type image --media https://cdn.example.com/win.gif --duration 8000
//	boardctl leaderboard
//
// The token printed by login is read from --token or BOARD_TOKEN.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/Ftotnem/LIVEBOARD/board/auth"
	"github.com/Ftotnem/LIVEBOARD/shared/api"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
	"github.com/Ftotnem/LIVEBOARD/shared/service"
)

type command struct {
	summary string
	run     func(ctx context.Context, args []string, out io.Writer) error
}

var commands = map[string]command{
	"login":         {"exchange credentials for a bearer token", runLogin},
	"delta":         {"apply a counter delta to an agent", runDelta},
	"notify":        {"push a full-screen notification (admin)", runNotify},
	"clear":         {"clear the active notification (admin)", runClear},
	"leaderboard":   {"print the current leaderboard", runLeaderboard},
	"hash-password": {"print a bcrypt hash for a seed file", runHashPassword},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, api.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "hint: run `boardctl login` and export BOARD_TOKEN")
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(out)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return cmd.run(ctx, args[1:], out)
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "usage: boardctl <command> [flags]")
	fmt.Fprintln(out)
	names := []string{"login", "delta", "notify", "clear", "leaderboard", "hash-password"}
	for _, name := range names {
		fmt.Fprintf(out, "  %-14s %s\n", name, commands[name].summary)
	}
}

// connection holds the flags shared by every command that talks to the server.
type connection struct {
	server string
	token  string
}

func (c *connection) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.server, "server", envOr("BOARD_URL", "http://localhost:8080"), "board service base URL")
	fs.StringVar(&c.token, "token", os.Getenv("BOARD_TOKEN"), "bearer token")
}

func (c *connection) client() *service.BoardServiceClient {
	return service.NewBoardClient(c.server, c.token)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	return nil
}

func runLogin(ctx context.Context, args []string, out io.Writer) error {
	var conn connection
	var email, password string
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	conn.addFlags(fs)
	fs.StringVar(&email, "email", "", "account email")
	fs.StringVar(&password, "password", "", "account password")
	if err := parse(fs, args); err != nil {
		return err
	}

	resp, err := conn.client().Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s (%s)\n", resp.User.Name, resp.User.Role)
	fmt.Fprintf(out, "export BOARD_TOKEN=%s\n", resp.Token)
	return nil
}

func runDelta(ctx context.Context, args []string, out io.Writer) error {
	var conn connection
	var agentID string
	var submissions, activations, points int
	fs := pflag.NewFlagSet("delta", pflag.ContinueOnError)
	conn.addFlags(fs)
	fs.StringVar(&agentID, "agent", "", "agent ID")
	fs.IntVarP(&submissions, "submissions", "s", 0, "submissions delta")
	fs.IntVarP(&activations, "activations", "a", 0, "activations delta")
	fs.IntVarP(&points, "points", "p", 0, "points delta")
	if err := parse(fs, args); err != nil {
		return err
	}
	if agentID == "" {
		return fmt.Errorf("--agent is required")
	}

	// Only flags given on the command line are sent, so "-a 0" is a valid no-op field.
	var delta models.CounterDelta
	if fs.Changed("submissions") {
		delta.Submissions = models.Int(submissions)
	}
	if fs.Changed("activations") {
		delta.Activations = models.Int(activations)
	}
	if fs.Changed("points") {
		delta.Points = models.Int(points)
	}

	agent, err := conn.client().ApplyDelta(ctx, agentID, delta)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: activations %d/%d (%d%%), submissions %d, points %d\n",
		agent.Name, agent.Activations, agent.ActivationTarget, agent.ActivationRate(), agent.Submissions, agent.Points)
	return nil
}

func runNotify(ctx context.Context, args []string, out io.Writer) error {
	var conn connection
	var req service.NotificationRequest
	var kind string
	var duration int64
	fs := pflag.NewFlagSet("notify", pflag.ContinueOnError)
	conn.addFlags(fs)
	fs.StringVar(&kind, "type", string(models.NotificationText), "text, image, video or audio")
	fs.StringVar(&req.Title, "title", "", "headline")
	fs.StringVar(&req.Message, "message", "", "body text")
	fs.StringVar(&req.MediaURL, "media", "", "absolute media URL (required for image, video and audio)")
	fs.Int64Var(&duration, "duration", 0, "display time in milliseconds (server default when omitted)")
	if err := parse(fs, args); err != nil {
		return err
	}
	req.Type = models.NotificationType(kind)
	if fs.Changed("duration") {
		req.Duration = &duration
	}

	n, err := conn.client().PushNotification(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "notification %s active until %s\n", n.ID, n.ExpiresAt().Format(time.RFC3339))
	return nil
}

func runClear(ctx context.Context, args []string, out io.Writer) error {
	var conn connection
	fs := pflag.NewFlagSet("clear", pflag.ContinueOnError)
	conn.addFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := conn.client().ClearNotifications(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "notifications cleared")
	return nil
}

func runLeaderboard(ctx context.Context, args []string, out io.Writer) error {
	var conn connection
	fs := pflag.NewFlagSet("leaderboard", pflag.ContinueOnError)
	conn.addFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	board, err := conn.client().Leaderboard(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTEAM\tLEADER\tAVG %\tACTIVATIONS\tSUBMISSIONS\tPOINTS")
	for i, team := range board.Teams {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\n", i+1, team.Name, team.TLName,
			team.AvgActivation, team.TotalActivations, team.TotalSubmissions, team.TotalPoints)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	top := board.TopStats
	fmt.Fprintf(out, "\ntop this month: %s (%d activations)\n", top.TopAgentMonth.Name, top.TopAgentMonth.Activations)
	fmt.Fprintf(out, "top today:      %s (%d submissions)\n", top.TopAgentToday.Name, top.TopAgentToday.Submissions)
	return nil
}

func runHashPassword(_ context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("hash-password", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: boardctl hash-password <password>")
	}
	hash, err := auth.HashPassword(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}
