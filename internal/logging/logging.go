package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"arena-core/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	writerMu sync.RWMutex
	writer   io.Writer = os.Stdout
	fileSink *sizeLimitedWriter
)

// Init configures the global logger. A log file that cannot be opened is
// reported and stdout logging continues.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var console io.Writer = os.Stdout
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	var out io.Writer = console
	var plain io.Writer = os.Stdout
	var openErr error
	if path := strings.TrimSpace(cfg.File); path != "" {
		fw, err := newSizeLimitedWriter(path, cfg.MaxMB)
		if err != nil {
			openErr = err
		} else {
			out = zerolog.MultiLevelWriter(console, fw)
			plain = io.MultiWriter(os.Stdout, fw)
			swapFileSink(fw)
		}
	}

	writerMu.Lock()
	writer = plain
	writerMu.Unlock()

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(out).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	if openErr != nil {
		log.Error().Err(openErr).Str("path", cfg.File).Msg("open log file failed")
	}
}

// Writer is the raw sink behind the global logger, for handlers that format
// their own records (the HTTP request logger).
func Writer() io.Writer {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return writer
}

// Close flushes and closes the log file, if any.
func Close() error {
	writerMu.Lock()
	defer writerMu.Unlock()
	writer = os.Stdout
	if fileSink == nil {
		return nil
	}
	err := fileSink.Close()
	fileSink = nil
	return err
}

func swapFileSink(fw *sizeLimitedWriter) {
	writerMu.Lock()
	old := fileSink
	fileSink = fw
	writerMu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}
