package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const helpWidth = 72

// ApplyHelpRecursive installs the sessiond help renderer on a command and all
// its subcommands. Call after all subcommands have been added, before Execute.
func ApplyHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(helpFunc)
	for _, sub := range cmd.Commands() {
		ApplyHelpRecursive(sub)
	}
}

func helpFunc(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, strings.ToUpper(cmd.CommandPath()))
	if cmd.Short != "" {
		fmt.Fprintln(out, "  "+cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintln(out)
		for _, line := range strings.Split(wrapText(cmd.Long, helpWidth), "\n") {
			fmt.Fprintln(out, "  "+line)
		}
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		fmt.Fprintln(out, "\nUSAGE")
		if cmd.Runnable() {
			fmt.Fprintf(out, "  %s\n", cmd.UseLine())
		}
		if cmd.HasSubCommands() {
			fmt.Fprintf(out, "  %s [command]\n", cmd.CommandPath())
		}
	}

	if cmd.HasAvailableSubCommands() {
		maxLen := 0
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() && len(sub.Name()) > maxLen {
				maxLen = len(sub.Name())
			}
		}
		fmt.Fprintln(out, "\nCOMMANDS")
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				fmt.Fprintf(out, "  %-*s  %s\n", maxLen, sub.Name(), sub.Short)
			}
		}
	}

	var visible []*pflag.Flag
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			visible = append(visible, f)
		}
	})
	if len(visible) > 0 {
		fmt.Fprintln(out, "\nFLAGS")
		maxLen := 0
		for _, f := range visible {
			if n := len(formatFlagName(f)); n > maxLen {
				maxLen = n
			}
		}
		for _, f := range visible {
			usage := f.Usage
			if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" {
				usage += fmt.Sprintf(" (default: %s)", f.DefValue)
			}
			fmt.Fprintf(out, "  %-*s  %s\n", maxLen, formatFlagName(f), usage)
		}
	}

	if cmd.Example != "" {
		fmt.Fprintln(out, "\nEXAMPLES")
		for _, line := range strings.Split(strings.TrimSpace(cmd.Example), "\n") {
			fmt.Fprintln(out, "  "+strings.TrimSpace(line))
		}
	}

	if cmd.HasSubCommands() {
		fmt.Fprintf(out, "\nUse \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

// formatFlagName returns a flag label like "-f, --flag" or "    --flag".
func formatFlagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return fmt.Sprintf("    --%s", f.Name)
}

// wrapText wraps text to the given width, preserving existing line breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = helpWidth
	}

	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			result = append(result, paragraph)
			continue
		}
		var line string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
