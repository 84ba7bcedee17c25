// Package logger builds the zap loggers used by the command line tools.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Path string `yaml:"path"`
	// If Path is a file, Mode will determine how the log file is managed.
	// FileModeAppend is the default if value is undefined.
	Mode  FileMode      `yaml:"mode,omitempty"`
	Level zapcore.Level `yaml:"level"`
	// DevMode makes DPanic level logs panic and adds caller information.
	DevMode bool `yaml:"devmode"`
}

func NewCore(conf Config) (zapcore.Core, error) {
	w, err := OpenFile(conf.Path, conf.Mode)
	if err != nil {
		return nil, err
	}
	return zapcore.NewCore(jsonEncoder(conf.DevMode), w, conf.Level), nil
}

func New(conf Config) (*zap.Logger, error) {
	core, err := NewCore(conf)
	if err != nil {
		return nil, err
	}
	var opts []zap.Option
	if conf.DevMode {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}
	return zap.New(core, opts...), nil
}

func jsonEncoder(devMode bool) zapcore.Encoder {
	conf := zap.NewProductionEncoderConfig()
	if !devMode {
		conf.CallerKey = ""
	}
	return zapcore.NewJSONEncoder(conf)
}
