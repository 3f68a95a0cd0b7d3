// certsend — публикует одну подписанную задачу генерации сертификата.
//
// Использование:
//
//	certsend --name "Fidelugwuowo Dilibe" --certificate-name "Working man" [--field key=value] [--json]
//
// Настройки берутся из окружения (CERTSEND_SECRET, CERTSEND_AMQP_URL, ...).
// Если задан CERTSEND_PUSHGATEWAY_URL, метрики отправляются в Pushgateway.
// Команда печатает task_id и correlation_id после подтверждения брокером.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"

	"github.com/shaiso/certsend/internal/config"
	"github.com/shaiso/certsend/internal/mq"
	"github.com/shaiso/certsend/internal/task"
	"github.com/shaiso/certsend/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		name            string
		certificateName string
		fields          []string
		jsonOutput      bool
	)

	cmd := &cobra.Command{
		Use:           "certsend",
		Short:         "Publish a signed certificate task to RabbitMQ",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := buildRecord(name, certificateName, fields)
			if err != nil {
				return err
			}

			logger := telemetry.SetupLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			receipt, err := send(ctx, cfg, logger, task.Args{record})
			pushMetrics(cfg.PushgatewayURL)
			if err != nil {
				return err
			}

			return printReceipt(cmd.OutOrStdout(), receipt, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Person name on the certificate")
	cmd.Flags().StringVar(&certificateName, "certificate-name", "", "Certificate title")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Extra argument field as key=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.MarkFlagRequired("name")

	return cmd
}

// send открывает соединение, публикует задачу и закрывает соединение
// на любом пути выхода.
func send(ctx context.Context, cfg *config.Config, logger *slog.Logger, args task.Args) (mq.Receipt, error) {
	signer, err := task.NewSigner([]byte(cfg.Secret))
	if err != nil {
		return mq.Receipt{}, err
	}

	conn, err := mq.NewConnection(cfg.AMQPURL, logger)
	if err != nil {
		return mq.Receipt{}, err
	}
	defer conn.Close()

	publisher := mq.NewPublisher(mq.PublisherConfig{
		Broker: conn,
		Signer: signer,
		Target: mq.Target{
			Exchange:   cfg.Exchange,
			RoutingKey: cfg.RoutingKey,
		},
		TaskName: cfg.TaskName,
		Origin:   cfg.Origin,
		Logger:   logger,
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.PublishTimeout)
	defer cancel()

	return publisher.Submit(ctx, args)
}

// buildRecord собирает запись аргументов из флагов.
func buildRecord(name, certificateName string, fields []string) (task.Record, error) {
	record := task.Record{"name": name}
	if certificateName != "" {
		record["certificate_name"] = certificateName
	}

	for _, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --field %q, expected key=value", f)
		}
		if _, exists := record[key]; exists {
			return nil, fmt.Errorf("duplicate field %q", key)
		}
		record[key] = value
	}

	return record, nil
}

// pushMetrics отправляет метрики в Pushgateway: процесс живёт слишком мало для scrape.
func pushMetrics(url string) {
	if url == "" {
		return
	}

	err := push.New(url, "certsend").
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		slog.Warn("failed to push metrics", "url", url, "error", err)
	}
}

func printReceipt(w io.Writer, r mq.Receipt, jsonMode bool) error {
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	_, err := fmt.Fprintf(w, "task_id: %s\ncorrelation_id: %s\n", r.TaskID, r.CorrelationID)
	return err
}
