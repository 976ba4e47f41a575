package utils

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/pflag"
)

type options struct {
	maxIterations uint
	dotFormat     string
	noColorize    bool
	logEval       bool
	verbose       bool
	visualize     bool
}

var opts = &options{
	maxIterations: 1000,
	dotFormat:     "svg",
}

type optInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

// NoColorize disables terminal colors in printed values.
func (optInterface) NoColorize() bool {
	return opts.noColorize
}

// LogEval enables tracing of every symbolic expression evaluation.
func (optInterface) LogEval() bool {
	return opts.logEval
}

func (optInterface) Verbose() bool {
	return opts.verbose
}

// MaxIterations bounds the number of worklist steps of a fixpoint driver.
func (optInterface) MaxIterations() int {
	return int(opts.maxIterations)
}

// DotFormat is the image format used when rendering graphs.
func (optInterface) DotFormat() string {
	return opts.dotFormat
}

// Visualize enables rendering of analysed state graphs.
func (optInterface) Visualize() bool {
	return opts.visualize
}

func (optInterface) OnVerbose(do func()) {
	if opts.verbose {
		do()
	}
}

func (optInterface) SetNoColorize(b bool) { opts.noColorize = b }
func (optInterface) SetLogEval(b bool) { opts.logEval = b }
func (optInterface) SetVerbose(b bool) { opts.verbose = b }
func (optInterface) SetMaxIterations(n uint) { opts.maxIterations = n }
func (optInterface) SetVisualize(b bool) { opts.visualize = b }
func (optInterface) SetDotFormat(format string) { opts.dotFormat = format }

// FlagSet builds the flag set backing the options.
func FlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("p4absint", pflag.ContinueOnError)
	fs.BoolVar(&opts.noColorize, "no-colorize", opts.noColorize, "Disable pretty printer colorization")
	fs.BoolVar(&opts.logEval, "log-eval", opts.logEval, "Log the symbolic value of every evaluated expression")
	fs.BoolVar(&opts.verbose, "verbose", opts.verbose, "enable verbose output")
	fs.UintVar(&opts.maxIterations, "max-iterations", opts.maxIterations,
		"upper bound on worklist steps before a fixpoint computation is abandoned")
	fs.BoolVar(&opts.visualize, "visualize", opts.visualize, "Render the parser state graph of every analysed parser")
	fs.StringVar(&opts.dotFormat, "dot-format", opts.dotFormat, "output file format [svg | png | jpg | ...]")
	return fs
}

// ParseArgs parses analysis options from the given command line arguments
// and returns the remaining positional arguments.
// Flag parsing is not done in init, since that interferes with go test.
func ParseArgs(args []string) ([]string, error) {
	fs := FlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing options: %w", err)
	}
	if opts.maxIterations == 0 {
		return nil, fmt.Errorf("invalid value %d for --max-iterations", opts.maxIterations)
	}
	if opts.dotFormat = strings.ToLower(opts.dotFormat); opts.dotFormat == "" {
		opts.dotFormat = "svg"
	}
	return fs.Args(), nil
}

func init() {
	log.SetFlags(log.Ltime | log.Lshortfile)
}
