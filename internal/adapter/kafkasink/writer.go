// Package kafkasink publishes converted rows to a Kafka topic, for
// deployments that stream grid points into a downstream store instead of
// (or alongside) collecting Parquet files.
package kafkasink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/gridcast/internal/domain"
)

// publishBatchSize bounds how many rows go into one WriteMessages call.
const publishBatchSize = 500

// Writer implements pipeline.Sink over a Kafka topic. Each table row
// becomes one JSON message keyed by its H3 cell, so points for the same
// cell land in the same partition.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given brokers and topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    publishBatchSize,
	}
	return &Writer{writer: w, logger: logger}
}

// Write publishes every row of the table in batches.
func (w *Writer) Write(ctx context.Context, table *domain.Table) error {
	msgs := make([]kafkago.Message, 0, publishBatchSize)
	for _, row := range table.Rows {
		msg, err := serializeRow(row)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
		if len(msgs) == publishBatchSize {
			if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
				return fmt.Errorf("publish batch: %w", err)
			}
			msgs = msgs[:0]
		}
	}
	if len(msgs) > 0 {
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish batch: %w", err)
		}
	}
	w.logger.Info("rows published", "topic", w.writer.Topic, "rows", table.NumRows())
	return nil
}

// Close flushes and closes the underlying producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeRow marshals one table row into a Kafka message. Run time and
// forecast hour travel as headers so consumers can route without decoding
// the payload.
func serializeRow(row map[string]any) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize row: %w", err)
	}

	var key []byte
	if cell, ok := row["h3_index"].(string); ok {
		key = []byte(cell)
	}

	msg := kafkago.Message{Key: key, Value: data}
	if runTime, ok := row["run_time"].(time.Time); ok {
		msg.Headers = append(msg.Headers, kafkago.Header{
			Key: "run_time", Value: []byte(runTime.Format(time.RFC3339)),
		})
	}
	if hour, ok := row["forecast_hour"].(int32); ok {
		msg.Headers = append(msg.Headers, kafkago.Header{
			Key: "forecast_hour", Value: []byte(strconv.Itoa(int(hour))),
		})
	}
	return msg, nil
}
