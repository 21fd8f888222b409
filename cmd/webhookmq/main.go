// Command webhookmq is a small operational tool for webhookmq queues:
// it can dispatch a single event to a path, or tap one or more paths and
// log every event delivered to them.
//
// Configuration comes from the environment (optionally a .env file); see
// the config package for the variable list.
//
// Examples:
//
//	webhookmq -send /orders -data '{"order_id":"123"}'
//	webhookmq -tap /orders -tap /payments/refunds
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"webhookmq"
	"webhookmq/internal/common/logging"
	"webhookmq/internal/config"
	redisqueue "webhookmq/queue/redis"
)

// pathList collects repeatable -tap flags.
type pathList []string

func (p *pathList) String() string {
	return strings.Join(*p, ",")
}

func (p *pathList) Set(value string) error {
	*p = append(*p, value)
	return nil
}

func main() {
	var (
		sendPath = flag.String("send", "", "dispatch one event to `path` and exit")
		sendData = flag.String("data", "{}", "JSON payload for -send")
		once     = flag.Bool("once", false, "run a single non-blocking processing pass and exit")
		taps     pathList
	)
	flag.Var(&taps, "tap", "register a logging handler on `path` (repeatable)")
	flag.Parse()

	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewZapLogger(logging.LogConfig{
		Level: logging.ParseLevel(cfg.LogLevel),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobalLogger(logger)
	defer logging.MustSync()

	engine, err := redisqueue.NewEngine(&redisqueue.Config{
		Address:       cfg.RedisAddress,
		Password:      cfg.RedisPassword,
		DB:            cfg.RedisDB,
		PoolSize:      cfg.RedisPoolSize,
		Prefix:        cfg.QueuePrefix,
		ConsumerGroup: cfg.ConsumerGroup,
		ConsumerName:  cfg.ConsumerName,
		StreamMaxLen:  cfg.StreamMaxLen,
	})
	if err != nil {
		logging.Error("failed to connect to queue engine", err,
			logging.String("address", cfg.RedisAddress),
		)
		os.Exit(1)
	}

	wh := webhookmq.New(engine,
		webhookmq.WithBatchSize(int64(cfg.FetchBatchSize)),
		webhookmq.WithProcessInterval(cfg.ProcessInterval),
	)
	defer wh.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *sendPath != "" {
		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(*sendData), &payload); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -data payload: %v\n", err)
			os.Exit(1)
		}

		id, err := wh.Send(ctx, *sendPath, payload)
		if err != nil {
			logging.Error("failed to send event", err,
				logging.String("path", *sendPath),
			)
			os.Exit(1)
		}
		fmt.Println(id)
		return
	}

	if len(taps) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -send or at least one -tap")
		flag.Usage()
		os.Exit(2)
	}

	for _, tap := range taps {
		path := tap
		_, err := wh.Register(ctx, path, func(ctx context.Context, payload map[string]interface{}) error {
			logging.Info("event received",
				logging.String("path", path),
				logging.Any("payload", payload),
			)
			return nil
		})
		if err != nil {
			logging.Error("failed to register tap", err,
				logging.String("path", path),
			)
			os.Exit(1)
		}
	}

	if *once {
		n := wh.ProcessOnce(ctx, false, 0)
		logging.Info("pass complete", logging.Int("processed", n))
		return
	}

	wh.Start(ctx)
}
