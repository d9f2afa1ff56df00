// v3
// cmd/iris/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/Trylen22/iris-companion/internal/config"
	"github.com/Trylen22/iris-companion/internal/device"
	"github.com/Trylen22/iris-companion/internal/dispatch"
	"github.com/Trylen22/iris-companion/internal/httpapi"
	"github.com/Trylen22/iris-companion/internal/ledger"
	"github.com/Trylen22/iris-companion/internal/logging"
	"github.com/Trylen22/iris-companion/internal/monitor"
	"github.com/Trylen22/iris-companion/internal/mqttio"
	"github.com/Trylen22/iris-companion/internal/observability"
	"github.com/Trylen22/iris-companion/internal/plan"
	"github.com/Trylen22/iris-companion/internal/reasoner"
	"github.com/Trylen22/iris-companion/internal/session"
	"github.com/Trylen22/iris-companion/internal/speech"
	"github.com/Trylen22/iris-companion/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	lg, lf := logging.InitLogger(cfg.LogDir)
	defer func(lf *os.File) {
		if err := lf.Close(); err != nil {
			lg.Error("log file close", "error", err)
		}
	}(lf)
	lg.Info("iris companion starting", "bind", cfg.HTTPBind, "port", cfg.SerialPort)

	dev, err := device.Open(cfg.SerialPort, cfg.SerialBaud, time.Duration(cfg.SerialSettleMs)*time.Millisecond, lg)
	if err != nil {
		lg.Error("serial open failed; continuing without sensors", "port", cfg.SerialPort, "error", err)
		dev = device.NewClient(nil, time.Duration(cfg.SerialSettleMs)*time.Millisecond, lg)
	}
	defer dev.Close()

	metrics := observability.NewMetrics()

	rsn := reasoner.NewClient(reasoner.Config{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.OllamaModel,
		Timeout: time.Duration(cfg.OllamaTimeoutS) * time.Second,
		Observe: metrics.ReasonerRequest,
	}, lg)

	var publisher *mqttio.Publisher
	if cfg.MQTTBroker != "" {
		publisher, err = mqttio.Connect(mqttio.Config{
			BrokerAddr:   cfg.MQTTBroker,
			ClientID:     cfg.MQTTClientID,
			ReadingTopic: cfg.ReadingTopic,
			SpeechTopic:  cfg.SpeechTopic,
		}, lg)
		if err != nil {
			lg.Error("mqtt connect failed; continuing without mirror", "error", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	var speaker monitor.Announcer
	switch {
	case cfg.SpeechCommand != "":
		speaker = speech.NewExecAnnouncer(cfg.SpeechCommand, nil, 15*time.Second, lg)
	case publisher != nil:
		speaker = publisher
	default:
		speaker = speech.NewNullAnnouncer(lg)
	}

	var sink ledger.Sink = ledger.NoopSink{}
	if len(cfg.KafkaBrokers) > 0 {
		sink = ledger.NewKafkaSink(cfg.KafkaBrokers, cfg.LedgerTopic, lg)
	}

	cls := telemetry.NewClassifier(cfg.Telemetry, lg)
	pln := plan.New(cfg.Plan, lg)
	tracker := session.New(cfg.Plan.AvgSessionMinutes, lg)
	dsp := dispatch.New(rsn, speaker, lg)
	monitor.RegisterStandardActions(dsp, dev, speaker, cls, tracker, cfg.Plan)

	var publish func(telemetry.Reading)
	if publisher != nil {
		publish = publisher.PublishReading
	}

	eng := monitor.NewEngine(monitor.Config{
		PollInterval: time.Duration(cfg.PollIntervalMs) * time.Millisecond,
	}, monitor.Deps{
		Device:     dev,
		Classifier: cls,
		Planner:    pln,
		Dispatcher: dsp,
		Speaker:    speaker,
		Tracker:    tracker,
		Sink:       sink,
		Metrics:    metrics,
		Publish:    publish,
		Thresholds: cfg.Telemetry.ChangeThresholds,
	}, lg)

	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for range t.C {
			metrics.SetCircuitBreakerState("reasoner", float64(rsn.BreakerState()))
			if ks, ok := sink.(*ledger.KafkaSink); ok {
				metrics.SetCircuitBreakerState("ledger", float64(ks.BreakerState()))
			}
		}
	}()

	router := httpapi.NewRouter(eng, cfg, metrics, lg)
	srv := &http.Server{Addr: cfg.HTTPBind, Handler: handlers.LoggingHandler(os.Stdout, router)}
	go func() {
		lg.Info("http listening", "bind", cfg.HTTPBind)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Error("http", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	_ = eng.Run(ctx)

	sh, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(sh)
	lg.Info("iris companion stopped")
}
