package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sujin-ai/sujin/internal/agent"
	"github.com/sujin-ai/sujin/internal/config"
	"github.com/sujin-ai/sujin/internal/executor"
	"github.com/sujin-ai/sujin/internal/health"
	"github.com/sujin-ai/sujin/internal/logging"
	"github.com/sujin-ai/sujin/internal/mcp"
	"github.com/sujin-ai/sujin/internal/memory"
	"github.com/sujin-ai/sujin/internal/provider"
	"github.com/sujin-ai/sujin/internal/ui"
	"github.com/sujin-ai/sujin/pkg/version"
)

func main() {
	providerFlag := flag.String("provider", "", "Provider name (chutes, ollama, anthropic, ...)")
	modelFlag := flag.String("model", "", "Model name")
	stateFlag := flag.String("state", "", "Path to the state file")
	workdirFlag := flag.String("workdir", "", "Working directory for commands")
	versionFlag := flag.Bool("version", false, "Print version")
	helpFlag := flag.Bool("help", false, "Show help")
	flag.BoolVar(helpFlag, "h", false, "Show help")
	yesFlag := flag.Bool("yes", false, "Auto-approve command execution")
	flag.BoolVar(yesFlag, "y", false, "Auto-approve command execution")
	verboseFlag := flag.Bool("verbose", false, "Debug logging")

	flag.Usage = showHelp
	flag.Parse()

	if *helpFlag {
		showHelp()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Println(version.String())
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("config error: %s", err)
	}

	level := cfg.Logging.Level
	if *verboseFlag {
		level = "debug"
	}
	log := logging.New(os.Stderr, level, cfg.Logging.Format)

	switch flag.Arg(0) {
	case "init":
		path := config.DefaultPath()
		if err := config.WriteDefault(path); err != nil {
			fatal("%s", err)
		}
		fmt.Println(ui.SystemStyle.Render("wrote " + path))
		return
	case "doctor":
		cmdDoctor(cfg)
		return
	case "stats":
		cmdStats(cfg, *stateFlag)
		return
	case "template":
		cmdTemplate(cfg, *providerFlag, *modelFlag, flag.Args()[1:])
		return
	case "version":
		fmt.Println(version.String())
		return
	case "":
	default:
		fatal("unknown command %q (try --help)", flag.Arg(0))
	}

	providerName, model, p := selectProvider(cfg, *providerFlag, *modelFlag)

	workdir := *workdirFlag
	if workdir == "" {
		workdir, _ = os.Getwd()
	}
	statePath := cfg.StatePath
	if *stateFlag != "" {
		statePath = *stateFlag
	}

	st, err := agent.LoadState(statePath, workdir)
	if err != nil {
		fatal("cannot load state: %s", err)
	}

	policy := &executor.Policy{
		Denied:            executor.DefaultPolicy().Denied,
		RestrictedPaths:   cfg.Security.RestrictedPaths,
		MaxCommandLength:  cfg.Security.MaxCommandLength,
		AllowFileDeletion: cfg.Security.AllowFileDeletion,
		AllowNetwork:      cfg.Security.AllowNetwork,
	}
	for _, pattern := range cfg.Security.DeniedCommands {
		policy.Denied = append(policy.Denied, executor.Rule{
			Name:        "config:" + pattern,
			Pattern:     pattern,
			Description: "denied by configuration",
		})
	}
	ex := executor.New(cfg.Executor.Shell, time.Duration(cfg.Executor.TimeoutSeconds)*time.Second, policy, log)

	a := agent.New(provider.WithRetry(p, 3), ex, st, log)

	runREPL(a, providerName, model, statePath, *yesFlag)
}

// selectProvider resolves the provider and model from flags and config
// and builds the client.
func selectProvider(cfg *config.Config, providerFlag, modelFlag string) (string, string, provider.Provider) {
	name := cfg.DefaultProvider
	if providerFlag != "" {
		name = providerFlag
	}
	pcfg, ok := cfg.ProviderFor(name)
	if !ok {
		fatal("provider %q is not configured", name)
	}
	model := pcfg.Model
	if model == "" {
		model = cfg.DefaultModel
	}
	if modelFlag != "" {
		model = modelFlag
	}

	var p provider.Provider
	switch pcfg.Type {
	case "anthropic":
		p = provider.NewAnthropic(pcfg.APIKey, model, cfg.MaxTokens)
	default:
		p = provider.NewOpenAI(name, pcfg.BaseURL, pcfg.APIKey, model, cfg.MaxTokens)
	}
	return name, model, p
}

func runREPL(a *agent.Agent, providerName, model, statePath string, autoApprove bool) {
	f := ui.NewFormatter(os.Stdout)
	f.Welcome(providerName, model)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	a.Confirm = func(command string) bool {
		f.Command(command)
		if autoApprove {
			return true
		}
		fmt.Print(f.Confirm(command))
		if !scanner.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return answer == "y" || answer == "yes"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		fmt.Print(ui.UserLabelStyle.Render("you> "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit":
			saveState(a, statePath, f)
			f.System("Bye.")
			return
		case "clear":
			a.State().Conversation.Clear()
			f.System("Conversation cleared.")
			continue
		}

		if reply, handled := a.HandleFeedbackCommand(input); handled {
			f.System(reply)
			saveState(a, statePath, f)
			continue
		}

		res, err := a.ProcessInput(ctx, input)
		if err != nil {
			f.Error(err)
			continue
		}

		f.Assistant(res.Reply)
		if res.Executed {
			f.CommandResult(res.CommandResult)
		}
		if res.Analysis != "" && res.Analysis != res.Reply {
			f.System(res.Analysis)
		}
		f.Separator()

		saveState(a, statePath, f)

		if ctx.Err() != nil {
			return
		}
	}
}

func saveState(a *agent.Agent, path string, f *ui.Formatter) {
	if err := a.State().Save(path); err != nil {
		f.Error(fmt.Errorf("saving state: %w", err))
	}
}

func cmdDoctor(cfg *config.Config) {
	fmt.Println(ui.BannerStyle.Render(ui.Banner))
	fmt.Println(ui.SystemStyle.Render("  Provider health check"))
	fmt.Println()

	for name, pcfg := range cfg.Providers {
		label := name
		if name == cfg.DefaultProvider {
			label = name + " (default)"
		}
		fmt.Printf("  %s ... ", ui.UserLabelStyle.Render(label))

		status := health.Check(context.Background(), pcfg.Type, pcfg.BaseURL, pcfg.APIKey)
		if status.Reachable {
			detail := ""
			if len(status.Models) > 0 {
				detail = fmt.Sprintf(" (%d models)", len(status.Models))
			}
			fmt.Printf("%s%s %s\n",
				ui.CommandStyle.Render("ok"),
				ui.HelpStyle.Render(detail),
				ui.HelpStyle.Render(status.Latency.Round(time.Millisecond).String()),
			)
		} else {
			fmt.Println(ui.ErrorStyle.Render("unreachable: " + status.Error))
		}
	}
}

func cmdStats(cfg *config.Config, stateOverride string) {
	statePath := cfg.StatePath
	if stateOverride != "" {
		statePath = stateOverride
	}
	workdir, _ := os.Getwd()
	st, err := agent.LoadState(statePath, workdir)
	if err != nil {
		fatal("cannot load state: %s", err)
	}

	store := st.Memory.Store()
	fmt.Println(ui.SystemStyle.Render("Memory"))
	for _, cat := range []memory.Category{memory.CategoryCommand, memory.CategoryPreference, memory.CategoryTopic, memory.CategoryGeneral} {
		fmt.Printf("  %-10s %d records\n", cat, store.CategoryLen(cat))
	}

	stats := st.Memory.Feedback().Stats("")
	fmt.Println(ui.SystemStyle.Render("Feedback"))
	fmt.Printf("  total %d, positive %.0f%%, negative %.0f%%\n",
		stats.Total, stats.PositivePct, stats.NegativePct)
}

func cmdTemplate(cfg *config.Config, providerFlag, modelFlag string, args []string) {
	m := mcp.NewManager(cfg.Templates.Dir)
	if err := m.Discover(); err != nil {
		fatal("%s", err)
	}

	if len(args) == 0 || args[0] == "list" {
		names := m.Names()
		if len(names) == 0 {
			fmt.Println(ui.HelpStyle.Render("no templates in " + cfg.Templates.Dir))
			return
		}
		for _, name := range names {
			t, _ := m.Get(name)
			fmt.Printf("  %s  %s\n", ui.CommandStyle.Render(name), ui.HelpStyle.Render(t.Description))
		}
		return
	}

	if args[0] != "run" || len(args) < 2 {
		fatal("usage: sujin template [list | run NAME key=value ...]")
	}
	t, ok := m.Get(args[1])
	if !ok {
		fatal("template %q not found (try 'sujin template list')", args[1])
	}

	input := make(map[string]any, len(args)-2)
	for _, arg := range args[2:] {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			fatal("template input %q is not key=value", arg)
		}
		input[key] = value
	}

	_, _, p := selectProvider(cfg, providerFlag, modelFlag)
	out, err := mcp.NewProcessor(provider.WithRetry(p, 3)).Process(context.Background(), t, input)
	if err != nil {
		fatal("%s", err)
	}
	rendered, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fatal("%s", err)
	}
	fmt.Println(string(rendered))
}

func showHelp() {
	fmt.Println(ui.BannerStyle.Render(ui.Banner))
	fmt.Println(`sujin - personal command-line assistant

Usage:
  sujin [flags]           start the interactive assistant
  sujin init              write a default config file
  sujin doctor            check configured providers
  sujin stats             show memory and feedback statistics
  sujin template list     list prompt templates
  sujin template run NAME key=value ...
  sujin version           print version

Flags:
  --provider NAME   use a configured provider
  --model NAME      override the model
  --state PATH      state file location
  --workdir DIR     working directory for commands
  -y, --yes         auto-approve command execution
  --verbose         debug logging
  -h, --help        show this help`)
}

func fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("error: "+msg))
	os.Exit(1)
}
