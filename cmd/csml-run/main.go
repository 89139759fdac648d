// Command csml-run is the interpreter's command-line harness: it drives
// one turn against a flow file from flags, or loops over stdin lines in
// --repl mode, following the original Rust implementation's
// csml_manager/examples/command_line.rs minimalism (no history, no
// readline) per SPEC_FULL.md §3.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/csml-dev/csml-go/pkg/builtins"
	"github.com/csml-dev/csml-go/pkg/engine"
	"github.com/csml-dev/csml-go/pkg/eval"
	"github.com/csml-dev/csml-go/pkg/memory"
	"github.com/csml-dev/csml-go/pkg/value"
)

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "csml-run",
		Short: "Run a single CSML interpreter turn against a flow file",
		RunE:  run,
	}

	f := rootCmd.Flags()
	f.String("flow", "", "path to a .csml flow file (required)")
	f.String("step", "start", "step name to run")
	f.Bool("repl", false, "read event text from stdin, one turn per line, memories persisted across turns")
	f.Bool("pretty", false, "render the turn result as a styled terminal summary instead of JSON")
	f.Bool("debug", false, "has no effect: the interpreter produces no log output")

	_ = viper.BindPFlag("flow", f.Lookup("flow"))
	_ = viper.BindPFlag("step", f.Lookup("step"))
	_ = viper.BindPFlag("repl", f.Lookup("repl"))
	_ = viper.BindPFlag("pretty", f.Lookup("pretty"))
	_ = viper.BindPFlag("debug", f.Lookup("debug"))

	viper.SetEnvPrefix("CSML")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	flowPath := viper.GetString("flow")
	if flowPath == "" {
		return fmt.Errorf("--flow is required")
	}
	src, err := os.ReadFile(flowPath)
	if err != nil {
		return fmt.Errorf("reading flow: %w", err)
	}

	step := viper.GetString("step")
	pretty := viper.GetBool("pretty")

	rt := &builtins.Runtime{
		FnEndpoint: envOrDefault("FN_ENDPOINT", ""),
	}
	reg := builtins.New(rt)

	ctx := &memory.Context{
		Current:  map[string]value.Literal{},
		Metadata: map[string]value.Literal{},
	}

	if viper.GetBool("repl") {
		return runRepl(src, step, ctx, reg, pretty)
	}

	result, err := engine.RunTurn(src, step, ctx, value.Plain(value.Null(), value.Interval{}), reg, value.Plain(value.Null(), value.Interval{}))
	if err != nil {
		return err
	}
	printResult(result, pretty)
	return nil
}

// runRepl mirrors the original implementation's command_line.rs example: a
// bare stdin loop, one turn per line, memories persisted in ctx across
// turns, no history or readline.
func runRepl(src []byte, step string, ctx *memory.Context, reg *builtins.Registry, pretty bool) error {
	scanner := bufio.NewScanner(os.Stdin)
	currentStep := step
	for scanner.Scan() {
		line := scanner.Text()
		event := value.Plain(value.String(line), value.Interval{})

		result, err := engine.RunTurn(src, currentStep, ctx, event, reg, value.Plain(value.Null(), value.Interval{}))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		printResult(result, pretty)

		for _, mw := range result.Memories {
			ctx.Current[mw.Name] = mw.Literal
		}
		switch result.Next.Kind {
		case eval.NextStep:
			currentStep = result.Next.Name
		case eval.NextEnd:
			currentStep = "start"
		}
	}
	return scanner.Err()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func printResult(result engine.Result, pretty bool) {
	memories := make([]map[string]interface{}, len(result.Memories))
	for i, mw := range result.Memories {
		memories[i] = map[string]interface{}{"key": mw.Name, "value": mw.Literal.Primitive.ToGoValue()}
	}
	nextFlow, nextStep, end := result.Next.Resolve("")

	if !pretty {
		out, _ := json.Marshal(map[string]interface{}{
			"messages":         result.Messages,
			"memories":         memories,
			"next_flow":        nextFlow,
			"next_step":        nextStep,
			"conversation_end": end,
			"hold":             result.Hold,
		})
		fmt.Println(string(out))
		return
	}

	fmt.Println(headerStyle.Render("turn result"))
	for _, m := range result.Messages {
		fmt.Printf("%s %v\n", labelStyle.Render(m.ContentType+":"), m.Content)
	}
	if end {
		fmt.Println(labelStyle.Render("next: end"))
	} else if nextStep != nil {
		fmt.Printf("%s %s\n", labelStyle.Render("next step:"), *nextStep)
	} else {
		fmt.Println(labelStyle.Render("next: hold"))
	}
	if result.Hold != nil {
		fmt.Printf("%s index=%d\n", labelStyle.Render("hold:"), result.Hold.Index)
	}
}
