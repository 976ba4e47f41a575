package utils

import (
	"fmt"
	"log"
	"strings"
)

func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	return func(is ...interface{}) string {
		if opts.noColorize {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
		return col(is...)
	}
}

func VerbosePrint(format string, a ...interface{}) {
	if opts.verbose {
		log.Printf(format, a...)
	}
}

// EvalLog traces symbolic evaluation steps. The message is built lazily.
func EvalLog(msg func() string) {
	if opts.logEval {
		log.Output(2, msg())
	}
}
