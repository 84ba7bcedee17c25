package logflags

import (
	"flag"

	"github.com/brimdata/arbor/service/logger"
)

// Bind registers the log flags on fs with the settings of conf as their
// defaults.
func Bind(fs *flag.FlagSet, conf *logger.Config) {
	fs.BoolVar(&conf.DevMode, "log.devmode", conf.DevMode, "development mode (if enabled dpanic level logs will cause a panic)")
	fs.Var(&conf.Level, "log.level", "logging level")
	fs.StringVar(&conf.Path, "log.path", conf.Path, "path to send logs (values: stderr, stdout, path in file system)")
	fs.Var(&conf.Mode, "log.filemode", "logger file write mode (values: append, truncate, rotate)")
}
