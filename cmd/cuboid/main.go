package main

import (
	"fmt"
	"log"
	"os"

	"github.com/akmonengine/cuboid"
	"github.com/akmonengine/cuboid/actor"
	"github.com/akmonengine/cuboid/internal/config"
	"github.com/akmonengine/cuboid/internal/driver"
	"github.com/akmonengine/cuboid/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configFile string
	preset     string
	steps      int
	dt         float64
	plot       string
	verbose    bool
	outFile    string
	check      bool
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	awakeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cuboid",
		Short:        "rigid box physics sandbox",
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scene headless and print the final state",
		RunE:  runScene,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	runCmd.Flags().StringVar(&plot, "plot", "", "plot the height of the named body")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log the world and its collision and sleep events to stderr")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scene in the terminal",
		RunE:  liveScene,
	}
	addSceneFlags(liveCmd)

	sceneCmd := &cobra.Command{
		Use:   "scene",
		Short: "print a scene as yaml",
		RunE:  dumpScene,
	}
	addSceneFlags(sceneCmd)
	sceneCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to a file instead of stdout")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list the preset scenes",
		RunE:  listPresets,
	}
	presetsCmd.Flags().BoolVar(&check, "check", false, "run every preset and report its final state")

	rootCmd.AddCommand(runCmd, liveCmd, sceneCmd, presetsCmd)

	return rootCmd
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scene file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "drop", "preset scene, ignored with --config")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
}

// loadScene reads the scene file, or the preset, and applies the flags that
// were set explicitly.
func loadScene(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg, err = config.Preset(preset)
		if err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.Presets())
		}
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if f := cmd.Flags().Lookup("steps"); f != nil && f.Changed {
		cfg.Steps = steps
	}

	return cfg, cfg.Validate()
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}

	var opts []config.BuildOption
	var logger *log.Logger
	if verbose {
		logger = log.New(cmd.ErrOrStderr(), "cuboid: ", log.LstdFlags)
		opts = append(opts, config.WithLogger(logger))
	}
	world, boxes, err := cfg.Build(opts...)
	if err != nil {
		return err
	}
	if logger != nil {
		logEvents(world, boxes, logger)
	}
	out := cmd.OutOrStdout()

	var heights []float64
	tracked, ok := boxes[plot]
	if plot != "" && !ok {
		return fmt.Errorf("no body named %q", plot)
	}

	for range cfg.Steps {
		world.Step(cfg.Dt)
		if ok {
			heights = append(heights, tracked.Body.Position.Y())
		}
	}

	if len(heights) > 1 {
		fmt.Fprintln(out, asciigraph.Plot(heights, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption(plot+" height")))
		fmt.Fprintln(out)
	}

	rows := make([][]string, 0, len(cfg.Bodies))
	for i, body := range cfg.Bodies {
		box := boxes[body.Label(i)]
		p := box.Body.Position
		state := "awake"
		if !box.Body.IsAwake() {
			state = "asleep"
		}
		if !box.Body.HasFiniteMass() {
			state = "immovable"
		}
		rows = append(rows, []string{body.Label(i), fmt.Sprintf("%7.3f %7.3f %7.3f", p.X(), p.Y(), p.Z()), fmt.Sprintf("%.3f", box.Body.Velocity.Len()), stateCell(state)})
	}
	fmt.Fprintln(out, summary([]string{"body", "position", "speed", "state"}, rows))
	fmt.Fprintf(out, "%d steps, %.2fs, %d contacts in the last step\n", world.Steps(), float64(world.Steps())*cfg.Dt, world.Contacts())

	return nil
}

func liveScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}
	world, _, err := cfg.Build()
	if err != nil {
		return err
	}

	name := preset
	if configFile != "" {
		name = configFile
	}
	p := tea.NewProgram(tui.NewModel(name, driver.NewClock(world, cfg.Dt)))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func dumpScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}
	if outFile != "" {
		return config.Save(outFile, cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.Presets()
	if !check {
		fmt.Fprintln(cmd.OutOrStdout(), "Available presets:")
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
		}
		return nil
	}

	runs := make([]*driver.Run, 0, len(names))
	for _, name := range names {
		cfg, err := config.Preset(name)
		if err != nil {
			return err
		}
		world, _, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		runs = append(runs, &driver.Run{Name: name, World: world, Dt: cfg.Dt, Steps: cfg.Steps})
	}
	driver.RunAll(runs)

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{run.Name, fmt.Sprintf("%d", run.Steps), fmt.Sprintf("%d", run.Contacts), fmt.Sprintf("%d/%d", run.Awake, len(run.World.Bodies))})
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary([]string{"preset", "steps", "contacts", "awake"}, rows))

	return nil
}

// logEvents logs every world event with the names of its bodies.
func logEvents(world *cuboid.World, boxes map[string]*actor.Box, logger *log.Logger) {
	names := make(map[*actor.RigidBody]string, len(boxes))
	for name, box := range boxes {
		names[box.Body] = name
	}
	name := func(body *actor.RigidBody) string {
		if n, ok := names[body]; ok {
			return n
		}
		return "world"
	}

	listener := func(event cuboid.Event) {
		switch e := event.(type) {
		case cuboid.CollisionEnterEvent:
			logger.Printf("%s: %s, %s", e.Type(), name(e.BodyA), name(e.BodyB))
		case cuboid.CollisionStayEvent:
			logger.Printf("%s: %s, %s", e.Type(), name(e.BodyA), name(e.BodyB))
		case cuboid.CollisionExitEvent:
			logger.Printf("%s: %s, %s", e.Type(), name(e.BodyA), name(e.BodyB))
		case cuboid.SleepEvent:
			logger.Printf("%s: %s", e.Type(), name(e.Body))
		case cuboid.WakeEvent:
			logger.Printf("%s: %s", e.Type(), name(e.Body))
		}
	}
	for _, eventType := range []cuboid.EventType{cuboid.COLLISION_ENTER, cuboid.COLLISION_STAY, cuboid.COLLISION_EXIT, cuboid.ON_SLEEP, cuboid.ON_WAKE} {
		world.Events.Subscribe(eventType, listener)
	}
}

func summary(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}

func stateCell(state string) string {
	if state == "awake" {
		return awakeStyle.Render(state)
	}
	return dimStyle.Render(state)
}
