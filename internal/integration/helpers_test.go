//go:build integration

package integration_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/crisislens-service/internal/analysis"
	"github.com/couchcryptid/crisislens-service/internal/config"
	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
	"github.com/couchcryptid/crisislens-service/internal/observability"
	"github.com/couchcryptid/crisislens-service/internal/scoring"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

// fixture is one line of the shared report fixtures.
type fixture struct {
	Report   json.RawMessage `json:"report"`
	IsCrisis bool            `json:"is_crisis"`
	Type     string          `json:"type"`
	Location string          `json:"location"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("crisislens-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func streamConfig(broker, source, sink, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   source,
		KafkaSinkTopic:     sink,
		KafkaGroupID:       group,
		BatchFlushInterval: 5 * time.Second,

		DetectionThreshold: 0.5,
		TypeThreshold:      0.3,
		MinTextWords:       5,
		MaxTextLength:      50000,
		FocusCity:          "Chennai",
		PriorityWeights:    scoring.DefaultPriorityWeights(),
		PriorityThresholds: domain.DefaultPriorityThresholds(),
		BatchConcurrency:   2,
		GeminiTimeout:      time.Second,
	}
}

func newAnalyzer(t *testing.T, cfg *config.Config) *analysis.Analyzer {
	t.Helper()
	a, err := analysis.Build(cfg, lexicon.Default(), analysis.Collaborators{},
		clockwork.NewRealClock(), observability.NewMetricsForTesting(), discardLogger())
	require.NoError(t, err)
	return a
}

// loadFixtures reads the report fixtures shared with the pipeline tests.
func loadFixtures(t *testing.T) []fixture {
	t.Helper()

	file, err := os.Open(filepath.Join("..", "pipeline", "testdata", "reports.jsonl"))
	require.NoError(t, err)
	defer file.Close()

	var out []fixture
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var f fixture
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &f))
		out = append(out, f)
	}
	require.NoError(t, scanner.Err())
	return out
}
