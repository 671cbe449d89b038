// Package logger configures the global zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var once sync.Once

// Options controls Init. Out defaults to stderr so stdout stays free for
// command output.
type Options struct {
	Level string
	JSON  bool
	Out   io.Writer
}

// Init sets the global level and output. Only the first call configures
// the writer; later calls just adjust the level.
func Init(opts Options) error {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)

	once.Do(func() {
		out := opts.Out
		if out == nil {
			out = os.Stderr
		}
		zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
			parts := strings.Split(file, "/")
			return parts[len(parts)-1] + ":" + strconv.Itoa(line)
		}
		if !opts.JSON {
			out = zerolog.ConsoleWriter{
				Out:        out,
				TimeFormat: "02-01-2006 15:04:05.000",
				FormatLevel: func(i interface{}) string {
					return strings.ToUpper(fmt.Sprintf("%-6s", i))
				},
			}
		}
		log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
	})
	return nil
}

// ParseLevel accepts zerolog level names in any case. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("incorrect log level %q", s)
	}
	return lvl, nil
}
