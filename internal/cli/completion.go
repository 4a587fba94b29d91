package cli

import (
	"fmt"
	"io"
	"strings"
)

// completionFlag describes one flag for the completion scripts.
type completionFlag struct {
	name   string
	desc   string
	values []string // fixed choices, if any
	file   bool     // completes file names
}

var completionFlags = []completionFlag{
	{name: "nx", desc: "Local grid size along x"},
	{name: "ny", desc: "Local grid size along y"},
	{name: "nz", desc: "Local grid size along z"},
	{name: "workers", desc: "Goroutines used by the optimized kernel"},
	{name: "budget", desc: "Wall-clock budget for the timed phase"},
	{name: "official", desc: "Use the official benchmark budget"},
	{name: "timeout", desc: "Hard deadline for the whole run"},
	{name: "ref-max-iters", desc: "Iterations of the reference solver"},
	{name: "opt-multiplier", desc: "Cap on optimized calibration iterations"},
	{name: "probe-calls", desc: "Calls in the kernel probe"},
	{name: "calibration-runs", desc: "Optimized calibration runs"},
	{name: "seed", desc: "Seed of the test vectors"},
	{name: "report", desc: "Report output path", file: true},
	{name: "format", desc: "Report format", values: []string{"yaml", "json"}},
	{name: "metrics-addr", desc: "Address of the metrics server"},
	{name: "log-level", desc: "Log level", values: []string{"debug", "info", "warn", "error"}},
	{name: "log-format", desc: "Log format", values: []string{"json", "console"}},
	{name: "no-color", desc: "Disable colored output"},
	{name: "theme", desc: "Color theme", values: []string{"dark", "light", "none"}},
	{name: "quiet", desc: "No progress display or summary"},
	{name: "version", desc: "Print the version and exit"},
	{name: "config", desc: "YAML configuration file", file: true},
	{name: "completion", desc: "Print a shell completion script", values: CompletionShells},
}

// CompletionShells lists the shells GenerateCompletion supports.
var CompletionShells = []string{"bash", "zsh", "fish"}

// GenerateCompletion writes a completion script for shell to out.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh" or "fish").
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string) error {
	switch shell {
	case "bash":
		return bashCompletion(out)
	case "zsh":
		return zshCompletion(out)
	case "fish":
		return fishCompletion(out)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: %s)", shell, strings.Join(CompletionShells, ", "))
	}
}

func bashCompletion(out io.Writer) error {
	var b strings.Builder
	b.WriteString("# Bash completion for cgbench. Source it from ~/.bashrc.\n\n")
	b.WriteString("_cgbench() {\n")
	b.WriteString("    local cur=\"${COMP_WORDS[COMP_CWORD]}\" prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    case \"${prev}\" in\n")
	for _, f := range completionFlags {
		switch {
		case len(f.values) > 0:
			fmt.Fprintf(&b, "        -%s) COMPREPLY=( $(compgen -W %q -- \"${cur}\") ); return 0 ;;\n", f.name, strings.Join(f.values, " "))
		case f.file:
			fmt.Fprintf(&b, "        -%s) COMPREPLY=( $(compgen -f -- \"${cur}\") ); return 0 ;;\n", f.name)
		}
	}
	b.WriteString("    esac\n")
	names := make([]string, 0, len(completionFlags))
	for _, f := range completionFlags {
		names = append(names, "-"+f.name)
	}
	fmt.Fprintf(&b, "    COMPREPLY=( $(compgen -W %q -- \"${cur}\") )\n", strings.Join(names, " "))
	b.WriteString("}\ncomplete -F _cgbench cgbench\n")
	_, err := io.WriteString(out, b.String())
	return err
}

func zshCompletion(out io.Writer) error {
	var b strings.Builder
	b.WriteString("#compdef cgbench\n# Zsh completion for cgbench. Place it in a directory of $fpath as _cgbench.\n\n")
	b.WriteString("_arguments \\\n")
	for i, f := range completionFlags {
		action := ""
		switch {
		case len(f.values) > 0:
			action = fmt.Sprintf(":%s:(%s)", f.name, strings.Join(f.values, " "))
		case f.file:
			action = fmt.Sprintf(":%s:_files", f.name)
		}
		sep := " \\"
		if i == len(completionFlags)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    '-%s[%s]%s'%s\n", f.name, f.desc, action, sep)
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func fishCompletion(out io.Writer) error {
	var b strings.Builder
	b.WriteString("# Fish completion for cgbench. Save it as ~/.config/fish/completions/cgbench.fish.\n\n")
	for _, f := range completionFlags {
		fmt.Fprintf(&b, "complete -c cgbench -o %s -d %q", f.name, f.desc)
		switch {
		case len(f.values) > 0:
			fmt.Fprintf(&b, " -x -a %q", strings.Join(f.values, " "))
		case f.file:
			b.WriteString(" -r -F")
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(out, b.String())
	return err
}
