//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/traffic-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/traffic-report-service/internal/config"
	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/observability"
	"github.com/couchcryptid/traffic-report-service/internal/pipeline"
)

const testTopic = "test-dataset-summaries"

type staticSource map[string]string

func (s staticSource) Fetch(_ context.Context, day domain.DayDescriptor) (string, error) {
	if text, ok := s[day.FileID]; ok {
		return text, nil
	}
	return "Timestamp,Class,Entry,Exit,Distance_m,Speed_kmh\n", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("traffic-report-test"))
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

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

// TestSessionPublishesSummary loads a dataset through the session and reads
// the announced summary back from the topic.
func TestSessionPublishesSummary(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	src := staticSource{
		"2017-10-31.csv": "Timestamp,Class,Entry,Exit,Distance_m,Speed_kmh\n" +
			"31-10-2017 08:00,car,north,south,30,92\n" +
			"31-10-2017 08:05,bus,east,west,30,40\n",
	}
	metrics := observability.NewMetricsForTesting()
	loader := pipeline.NewLoader(src, 2, discardLogger(), metrics)
	session := pipeline.NewSession(domain.DefaultCatalog(), loader, writer, clockwork.NewRealClock(), 80, discardLogger(), metrics)

	loaded, err := session.Load(ctx, domain.Selector{Range: domain.RangeDaily})
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from summary topic")

	assert.Equal(t, loaded.RequestID, string(msg.Key))
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, domain.RangeDaily, headers["range"])

	var summary kafka.Summary
	require.NoError(t, json.Unmarshal(msg.Value, &summary))
	assert.Equal(t, 2, summary.TotalVehicles)
	assert.Equal(t, 1, summary.OverLimit)
	assert.Equal(t, []string{"2017-10-31"}, summary.Days)
	assert.Equal(t, "Oct 31", summary.DateRangeLabel)
}
