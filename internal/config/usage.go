package config

import (
	"flag"
	"fmt"

	"github.com/agbru/cgbench/internal/ui"
)

// setCustomUsage configures the flag set with a colored usage function.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		// NO_COLOR is honoured before the theme is initialised.
		t := ui.Current()
		if ui.ColorDisabledByEnv() {
			t = ui.NoColorTheme
		}

		out := fs.Output()
		fmt.Fprintf(out, "\n%sCG Benchmark Driver%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Calibrates and times a preconditioned conjugate gradient solver.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n\n%sFlags:%s\n", t.Warning, t.Reset, fs.Name(), t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			sig := "-" + f.Name
			if name != "" {
				sig += " " + name
			}
			fmt.Fprintf(out, "  %s%-25s%s %s", t.Primary, sig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" && f.DefValue != "0s" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})

		fmt.Fprintf(out, "\n%sEnvironment:%s\n  Every flag can also be set as %s<FLAG> (e.g. %sBUDGET=5m).\n",
			t.Warning, t.Reset, EnvPrefix, EnvPrefix)
		fmt.Fprintf(out, "  Precedence: flags, then environment, then -config file, then defaults.\n\n")
	}
}
