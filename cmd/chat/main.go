// Package main implements chat, a terminal front end for the meeting dialogue.
// It books against a dry-run calendar so it never needs Google credentials.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/omriShneor/meeting_agent/internal/config"
	"github.com/omriShneor/meeting_agent/internal/database"
	"github.com/omriShneor/meeting_agent/internal/dialogue"
	"github.com/omriShneor/meeting_agent/internal/extract"
	"github.com/omriShneor/meeting_agent/internal/gcal"
	"github.com/omriShneor/meeting_agent/internal/logging"
	"github.com/omriShneor/meeting_agent/internal/session"
	"github.com/omriShneor/meeting_agent/internal/timeutil"
)

var (
	userID   string
	mode     string
	timezone string
	dbPath   string
	verbose  bool
	limit    int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the meeting agent from the terminal",
	Long: `chat reads one message per line from stdin and prints the agent's reply.
Confirmed meetings go to a dry-run calendar and are recorded in the database.

Examples:
  # Rule-based extraction, in-memory database
  chat

  # LLM extraction using GEMINI_API_KEY from the environment
  chat --mode llm --timezone Europe/London`,
	RunE: runChat,
}

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "List meetings booked by a user",
	RunE:  runBookings,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userID, "user", "cli", "user id for the conversation")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database path (chat: in-memory, bookings: DB_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging to stderr")
	rootCmd.Flags().StringVar(&mode, "mode", "", "extractor mode: rules or llm (default from EXTRACTOR_MODE)")
	rootCmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for dates (default from CALENDAR_TIMEZONE)")
	bookingsCmd.Flags().IntVar(&limit, "limit", 20, "maximum bookings to show")
	rootCmd.AddCommand(bookingsCmd)
}

func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return logging.New(true)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg := config.LoadFromEnv()
	if mode != "" {
		cfg.ExtractorMode = mode
	}
	if timezone != "" {
		cfg.CalendarTimezone = timezone
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := dbPath
	if path == "" {
		path = ":memory:"
	}
	db, err := database.New(path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	dates := timeutil.NewParser(true)
	extractor, closeExtractor, err := extract.Build(ctx, extract.Options{
		Mode:              cfg.ExtractorMode,
		Provider:          cfg.LLMProvider,
		GeminiAPIKey:      cfg.GeminiAPIKey,
		GeminiModel:       cfg.GeminiModel,
		GeminiTemperature: float32(cfg.GeminiTemperature),
		AnthropicAPIKey:   cfg.AnthropicAPIKey,
		ClaudeModel:       cfg.ClaudeModel,
		ClaudeTemperature: cfg.ClaudeTemperature,
	}, dates, logger)
	if err != nil {
		return err
	}
	defer closeExtractor()

	engine := dialogue.NewEngine(session.NewStore(logger), extractor, dates, gcal.DryRunGateway{},
		dialogue.Config{
			DurationMinutes: cfg.MeetingDuration,
			Timezone:        cfg.CalendarTimezone,
			AllowPastDates:  cfg.AllowPastDates,
		},
		dialogue.WithRecorder(db),
		dialogue.WithLogger(logger),
	)

	return converse(ctx, engine, userID, cmd.InOrStdin(), cmd.OutOrStdout())
}

// converse runs the read-reply loop until EOF or "/quit".
// "/reset" drops the current conversation.
func converse(ctx context.Context, engine *dialogue.Engine, user string, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Tell me about the meeting you want to book. /reset starts over, /quit exits.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			engine.Reset(user)
			fmt.Fprintln(out, "[INIT] Okay, starting over.")
			continue
		}

		res, err := engine.HandleTurn(ctx, user, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "[%s] %s\n", res.Stage, res.Reply)
	}
}

func runBookings(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	path := dbPath
	if path == "" {
		path = config.LoadFromEnv().DBPath
	}
	db, err := database.New(path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bookings, err := db.ListBookingsByUser(ctx, userID, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(bookings) == 0 {
		fmt.Fprintf(out, "No bookings for %s\n", userID)
		return nil
	}
	for _, b := range bookings {
		start := b.StartTime
		loc, _ := timeutil.ResolveLocation(b.Timezone)
		start = start.In(loc)
		fmt.Fprintf(out, "%s  %-30s %s\n", start.Format("2006-01-02 15:04 MST"), b.Title, b.Person)
	}
	return nil
}
