package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	naturaldate "github.com/tj/go-naturaldate"

	"github.com/serafimgb/gfenormatel/internal/agenda"
	"github.com/serafimgb/gfenormatel/internal/booking"
	"github.com/serafimgb/gfenormatel/internal/catalog"
	"github.com/serafimgb/gfenormatel/internal/config"
	"github.com/serafimgb/gfenormatel/internal/conflict"
	"github.com/serafimgb/gfenormatel/internal/ics"
	"github.com/serafimgb/gfenormatel/internal/insights"
	"github.com/serafimgb/gfenormatel/internal/notify"
	"github.com/serafimgb/gfenormatel/internal/postgrest"
	"github.com/serafimgb/gfenormatel/internal/reminder"
	"github.com/serafimgb/gfenormatel/internal/store"
	"github.com/serafimgb/gfenormatel/internal/tui"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "gfenormatel",
	Short: "Agendamento de equipamentos pesados",
	Long:  "gfenormatel manages heavy equipment reservations across construction projects, with conflict detection, calendar views and email notifications.",
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Open the interactive booking calendar",
	RunE:  runCalendar,
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Create a booking from the command line",
	RunE:  runBook,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a booking",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a booking outright",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookings for a project",
	RunE:  runList,
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List known projects",
	RunE:  runProjects,
}

var equipmentCmd = &cobra.Command{
	Use:   "equipment",
	Short: "List equipment types",
	RunE:  runEquipment,
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Generate a usage analysis for a project",
	RunE:  runInsights,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export bookings as an iCalendar feed",
	RunE:  runExport,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the booking reminder loop",
	RunE:  runRemind,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running reminder loop",
	RunE:  runStop,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open the config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("project", "", "Project id (overrides the configured default)")

	bookCmd.Flags().String("equipment", "", "Equipment type id (e.g. MUNCK)")
	bookCmd.Flags().String("at", "", "Start time: natural language or dd/mm/yyyy hh:mm")
	bookCmd.Flags().Float64("hours", 1, "Duration in hours, half-hour steps")
	bookCmd.Flags().String("requester", "", "Requester name")
	bookCmd.Flags().String("cost-center", "", "Cost center")
	bookCmd.Flags().String("location", "", "Service location")
	bookCmd.Flags().String("reason", "", "Booking reason")
	bookCmd.Flags().Bool("everywhere", false, "Book the slot under every project")

	cancelCmd.Flags().String("reason", "", "Cancellation reason")

	listCmd.Flags().Bool("all", false, "Include cancelled bookings")
	listCmd.Flags().String("cost-center", "", "Only bookings for one cost center")

	insightsCmd.Flags().String("equipment", "", "Limit the analysis to one equipment type")

	exportCmd.Flags().String("out", "", "Write to a file instead of stdout")

	rootCmd.AddCommand(calendarCmd, bookCmd, cancelCmd, deleteCmd, listCmd,
		projectsCmd, equipmentCmd, insightsCmd, exportCmd, remindCmd, stopCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	if verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newService wires the configured backend and collaborators. The
// returned cleanup closes the local database when one was opened.
func newService(cfg *config.Config, logger *slog.Logger) (*agenda.Service, func(), error) {
	var (
		st      booking.Store
		remote  catalog.Remote
		cleanup = func() {}
	)

	switch cfg.Store.Backend {
	case "rest":
		client := postgrest.NewClient(cfg.API.BaseURL, cfg.API.APIKey, 5*time.Minute, logger)
		st = client
		remote = client
	default:
		var db *store.DB
		var err error
		if cfg.Store.Path != "" {
			db, err = store.OpenPath(cfg.Store.Path)
		} else {
			db, err = store.Open()
		}
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		st = db
		cleanup = func() { db.Close() }
	}

	cat := catalog.New(remote, logger)

	var notifier notify.Notifier
	if cfg.Email.Enabled {
		if cfg.Email.APIKey == "" {
			return nil, nil, fmt.Errorf("email is enabled but RESEND_API_KEY is not set")
		}
		notifier = notify.NewResend(cfg.Email.APIKey, cfg.Email.From, logger)
	}

	var provider insights.Provider
	if cfg.AI.APIKey != "" {
		provider = insights.NewOpenAI(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, logger)
	}

	return agenda.New(st, cat, notifier, provider, cfg.Email.Recipients, logger), cleanup, nil
}

func projectID(cmd *cobra.Command, cfg *config.Config) string {
	if p, _ := cmd.Flags().GetString("project"); p != "" {
		return p
	}
	return cfg.Booking.ProjectID
}

func runCalendar(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger()

	svc, cleanup, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if p, _ := cmd.Flags().GetString("project"); p != "" {
		cfg.Booking.ProjectID = p
	}

	app := tui.NewApp(svc, cfg)
	if _, err := tea.NewProgram(app).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runBook(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, newLogger())
	if err != nil {
		return err
	}
	defer cleanup()
	defer svc.Flush()

	equipment, _ := cmd.Flags().GetString("equipment")
	at, _ := cmd.Flags().GetString("at")
	hours, _ := cmd.Flags().GetFloat64("hours")
	requester, _ := cmd.Flags().GetString("requester")
	costCenter, _ := cmd.Flags().GetString("cost-center")
	location, _ := cmd.Flags().GetString("location")
	reason, _ := cmd.Flags().GetString("reason")
	everywhere, _ := cmd.Flags().GetBool("everywhere")

	if requester == "" {
		requester = cfg.Booking.Requester
	}
	if costCenter == "" {
		costCenter = cfg.Booking.CostCenter
	}

	start, err := parseStart(at)
	if err != nil {
		return err
	}

	b := booking.New(equipment, projectID(cmd, cfg), requester,
		booking.CostCenter(costCenter), location, reason, start, hours)

	ctx := context.Background()
	if everywhere {
		created, err := svc.CreateEverywhere(ctx, b)
		if err != nil {
			return bookingError(err)
		}
		fmt.Printf("Booked %s in %d projects, %s to %s\n",
			equipment, len(created),
			start.Format("02/01/2006 15:04"), b.EndTime.Format("15:04"))
		return nil
	}

	created, err := svc.Create(ctx, b)
	if err != nil {
		return bookingError(err)
	}
	fmt.Printf("Booked %s under project %s, %s to %s (id %s)\n",
		equipment, created.ProjectID,
		start.Format("02/01/2006 15:04"), created.EndTime.Local().Format("15:04"), created.ID)
	// desktop confirmation is best effort
	_ = notify.Desktop("Agendamento criado",
		fmt.Sprintf("%s %s", equipment, start.Format("02/01 15:04")))
	return nil
}

func bookingError(err error) error {
	var ce *conflict.ConflictError
	if errors.As(err, &ce) {
		return fmt.Errorf("slot taken: %s", ce.Error())
	}
	return err
}

func parseStart(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("--at is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("02/01/2006 15:04", s, time.Local); err == nil {
		return t, nil
	}
	t, err := naturaldate.Parse(s, time.Now(), naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized start time %q", s)
	}
	return t, nil
}

// findBooking locates a booking by id across every known project.
func findBooking(ctx context.Context, svc *agenda.Service, id string) (*booking.Booking, error) {
	for _, p := range svc.Catalog().Projects(ctx) {
		bookings, err := svc.Store().ListProject(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("searching project %s: %w", p.ID, err)
		}
		for _, b := range bookings {
			if b.ID == id {
				return &b, nil
			}
		}
	}
	return nil, booking.ErrNotFound
}

func runCancel(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, newLogger())
	if err != nil {
		return err
	}
	defer cleanup()
	defer svc.Flush()

	reason, _ := cmd.Flags().GetString("reason")
	if reason == "" {
		return fmt.Errorf("--reason is required")
	}

	ctx := context.Background()
	b, err := findBooking(ctx, svc, args[0])
	if err != nil {
		return err
	}
	if !b.Active() {
		return fmt.Errorf("booking %s is already cancelled", b.ID)
	}

	if err := svc.Cancel(ctx, *b, reason); err != nil {
		return err
	}
	fmt.Printf("Cancelled booking %s\n", b.ID)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, newLogger())
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted booking %s\n", args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, newLogger())
	if err != nil {
		return err
	}
	defer cleanup()

	includeAll, _ := cmd.Flags().GetBool("all")
	costCenter, _ := cmd.Flags().GetString("cost-center")
	pid := projectID(cmd, cfg)

	bookings, err := svc.Store().ListProject(context.Background(), pid)
	if err != nil {
		return fmt.Errorf("listing bookings: %w", err)
	}

	shown := 0
	for _, b := range bookings {
		if !includeAll && !b.Active() {
			continue
		}
		if costCenter != "" && string(b.CostCenter) != costCenter {
			continue
		}
		status := ""
		if b.IsCancelled {
			status = "  [cancelado]"
		}
		fmt.Printf("  %s  %s  %s-%s  %-8s  %s (%s)%s\n",
			b.ID,
			b.StartTime.Local().Format("02/01"),
			b.StartTime.Local().Format("15:04"),
			b.EndTime.Local().Format("15:04"),
			b.EquipmentTypeID,
			b.Requester,
			b.CostCenter,
			status,
		)
		shown++
	}
	if shown == 0 {
		fmt.Printf("No bookings under project %s.\n", pid)
	}
	return nil
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, newLogger())
	if err != nil {
		return err
	}
	defer cleanup()

	for _, p := range svc.Catalog().Projects(context.Background()) {
		fmt.Printf("  %-6s  %-14s  %s\n", p.ID, p.Name, p.Description)
	}
	return nil
}

func runEquipment(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, newLogger())
	if err != nil {
		return err
	}
	defer cleanup()

	for _, t := range svc.Catalog().EquipmentTypes(context.Background()) {
		mark := " "
		if t.Exclusive {
			mark = "*"
		}
		fmt.Printf("  %s %-8s  %s\n", mark, t.ID, t.Name)
	}
	fmt.Println("\n  * exclusive: one physical unit shared across every project")
	return nil
}

func runInsights(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	svc, cleanup, err := newService(cfg, newLogger())
	if err != nil {
		return err
	}
	defer cleanup()

	equipment, _ := cmd.Flags().GetString("equipment")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	in, err := svc.Insight(ctx, projectID(cmd, cfg), equipment, nil)
	switch {
	case errors.Is(err, insights.ErrRateLimited):
		return fmt.Errorf("the insight service is rate limited, try again shortly")
	case errors.Is(err, insights.ErrQuotaExhausted):
		return fmt.Errorf("insight credits exhausted")
	case err != nil:
		return err
	}

	fmt.Println(in.Summary)
	for _, h := range in.Highlights {
		fmt.Printf("  • %s\n", h)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, newLogger())
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	bookings, err := svc.Store().ListProject(ctx, projectID(cmd, cfg))
	if err != nil {
		return fmt.Errorf("loading bookings: %w", err)
	}

	names := make(map[string]string)
	for _, t := range svc.Catalog().EquipmentTypes(ctx) {
		names[t.ID] = t.Name
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	return ics.Export(out, bookings, names)
}

func runRemind(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger()
	svc, cleanup, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	r := reminder.New(svc.Store(), projectID(cmd, cfg), cfg.Reminder, logger)
	return r.Run(ctx)
}

func runStop(cmd *cobra.Command, args []string) error {
	pid, err := reminder.ReadPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending stop signal: %w", err)
	}

	fmt.Printf("Sent stop signal to gfenormatel (PID %d)\n", pid)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		data := fmt.Sprintf(`[store]
backend = "%s"

[api]
base_url = ""
api_key = ""

[booking]
project_id = "%s"
requester = ""
cost_center = ""
day_start = "%s"
day_end = "%s"

[ai]
model = "%s"

[email]
enabled = %t
from = "%s"
recipients = []

[reminder]
enabled = %t
interval_minutes = %d
lead_minutes = %d
`,
			cfg.Store.Backend,
			cfg.Booking.ProjectID,
			cfg.Booking.DayStart,
			cfg.Booking.DayEnd,
			cfg.AI.Model,
			cfg.Email.Enabled,
			cfg.Email.From,
			cfg.Reminder.Enabled,
			cfg.Reminder.IntervalMinutes,
			cfg.Reminder.LeadMinutes,
		)
		if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
