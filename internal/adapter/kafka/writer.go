// Package kafka publishes dataset summaries to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/traffic-report-service/internal/config"
	"github.com/couchcryptid/traffic-report-service/internal/pipeline"
)

// Summary is the message body announcing a loaded dataset.
type Summary struct {
	RequestID            string    `json:"request_id"`
	Range                string    `json:"range"`
	Date                 string    `json:"date,omitempty"`
	DateRangeLabel       string    `json:"date_range_label"`
	Days                 []string  `json:"days"`
	TotalVehicles        int       `json:"total_vehicles"`
	OverLimit            int       `json:"over_limit"`
	AvgSpeedKmh          float64   `json:"avg_speed_kmh"`
	AvgSpeedMph          float64   `json:"avg_speed_mph"`
	SpeedLimitKmh        float64   `json:"speed_limit_kmh"`
	EstimatedPedestrians int       `json:"estimated_pedestrians"`
	LoadedAt             time.Time `json:"loaded_at"`
}

// Writer produces dataset summaries to a Kafka topic.
// It implements pipeline.DatasetPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured summary topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger.With("component", "kafka_writer")}
}

// PublishSummary writes one summary message for a freshly loaded dataset.
func (w *Writer) PublishSummary(ctx context.Context, loaded *pipeline.Loaded) error {
	msg, err := serializeToMessage(summarize(loaded))
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish dataset summary: %w", err)
	}
	w.logger.Debug("dataset summary published", "request_id", loaded.RequestID, "range", loaded.Dataset.Range)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func summarize(loaded *pipeline.Loaded) Summary {
	ds := loaded.Dataset
	return Summary{
		RequestID:            loaded.RequestID,
		Range:                ds.Range,
		Date:                 loaded.Selector.Date,
		DateRangeLabel:       ds.DateRangeLabel,
		Days:                 ds.AllDates,
		TotalVehicles:        ds.TotalVehicles,
		OverLimit:            ds.OverLimitCount,
		AvgSpeedKmh:          ds.AvgSpeedKmh,
		AvgSpeedMph:          ds.AvgSpeedMph,
		SpeedLimitKmh:        ds.SpeedLimitKmh,
		EstimatedPedestrians: ds.EstimatedPedestrians,
		LoadedAt:             loaded.LoadedAt,
	}
}

// serializeToMessage marshals a Summary into a Kafka message keyed by request ID.
func serializeToMessage(s Summary) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dataset summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.RequestID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "range", Value: []byte(s.Range)},
			{Key: "loaded_at", Value: []byte(s.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
