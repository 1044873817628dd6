// Package flagx lets several flag sets share one command line: each consumer
// keeps only the flags it knows about before parsing.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the arguments that belong to the allowed flags.
//
// allowed maps a flag name as written on the command line ("-c", "--config")
// to whether the flag takes a value. Supported forms:
//
//	-c conf.json      value as the next argument (value flags only)
//	--config=conf.json
//	-enforce-latest   boolean flag, the next argument is never consumed
//
// Everything else is dropped, keeping the original order.
func FilterArgs(args []string, allowed map[string]bool) []string {
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		takesValue, ok := allowed[arg]
		if !ok {
			continue
		}
		filtered = append(filtered, arg)
		if takesValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFileFlag returns the value of -c / -config in args, or "" when the
// flag is absent.
func ConfigFileFlag(args []string) string {
	var config string

	filtered := FilterArgs(args, map[string]bool{"-c": true, "-config": true, "--config": true})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(filtered)

	return config
}
