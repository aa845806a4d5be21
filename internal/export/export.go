// Package export streams aggregated Auvo collections to a sink: NATS
// subjects or JSON lines.
package export

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/fivetwenty-io/auvo-client/internal/metrics"
	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Sink receives exported entities one at a time.
type Sink interface {
	Write(ctx context.Context, resource string, entity auvo.Entity) error
	Close() error
}

// Run walks every page of query and writes each entity to sink. It returns
// the number of entities written.
func Run(ctx context.Context, query *auvo.Query, sink Sink) (int, error) {
	return RunWith(ctx, query, sink, 0, 0)
}

// RunWith is Run with an explicit page size and page bound. Zero keeps the
// aggregator defaults.
func RunWith(ctx context.Context, query *auvo.Query, sink Sink, pageSize, maxPages int) (int, error) {
	resource := ResourceName(query.Endpoint())
	written := 0

	aggregator := query.AllPages().PageSize(pageSize).MaxPages(maxPages)

	err := aggregator.Each(ctx, func(entity auvo.Entity) error {
		err := sink.Write(ctx, resource, entity)
		if err != nil {
			return err
		}

		written++

		return nil
	})

	return written, err
}

// ResourceName turns an endpoint ("/tasks") into a subject token ("tasks").
func ResourceName(endpoint string) string {
	return strings.ReplaceAll(strings.Trim(endpoint, "/"), "/", ".")
}

// MsgPublisher is the part of *nats.Conn the NATS sink needs.
type MsgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

type flusher interface {
	Flush() error
}

// NATSSink publishes each entity as JSON to "<prefix>.<resource>".
type NATSSink struct {
	conn    MsgPublisher
	prefix  string
	runID   string
	metrics *metrics.Collector
	logger  auvo.Logger
}

// NATSOption configures a NATSSink.
type NATSOption func(*NATSSink)

// WithMetrics records publish counts and latency on collector.
func WithMetrics(collector *metrics.Collector) NATSOption {
	return func(s *NATSSink) {
		s.metrics = collector
	}
}

// WithLogger logs publish failures.
func WithLogger(logger auvo.Logger) NATSOption {
	return func(s *NATSSink) {
		s.logger = logger
	}
}

// NewNATSSink creates a sink publishing on conn. Every message of one sink
// carries the same request_id header.
func NewNATSSink(conn MsgPublisher, prefix string, opts ...NATSOption) *NATSSink {
	sink := &NATSSink{
		conn:   conn,
		prefix: strings.TrimSuffix(prefix, "."),
		runID:  uuid.NewString(),
	}

	for _, opt := range opts {
		opt(sink)
	}

	return sink
}

// RunID returns the value sent in the request_id header.
func (s *NATSSink) RunID() string {
	return s.runID
}

// Subject returns the subject entities of resource are published on.
func (s *NATSSink) Subject(resource string) string {
	if s.prefix == "" {
		return resource
	}

	return s.prefix + "." + resource
}

// Write implements Sink.
func (s *NATSSink) Write(ctx context.Context, resource string, entity auvo.Entity) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return auvo.NewAPIError("encoding entity", err)
	}

	subject := s.Subject(resource)
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"resource":     []string{resource},
			"request_id":   []string{s.runID},
			"content_type": []string{"application/json"},
		},
	}

	start := time.Now()
	err = s.conn.PublishMsg(msg)
	s.metrics.ObserveExport(subject, err == nil, start)

	if err != nil {
		if s.logger != nil {
			s.logger.Error("Auvo Export Publish Failed", map[string]interface{}{
				"subject": subject,
				"error":   err.Error(),
			})
		}

		return auvo.NewAPIError("publishing to "+subject, err)
	}

	return nil
}

// Close flushes the connection when it supports flushing. It does not close
// the connection, which the caller owns.
func (s *NATSSink) Close() error {
	if f, ok := s.conn.(flusher); ok {
		return f.Flush()
	}

	return nil
}

// JSONLinesSink writes one JSON object per line.
type JSONLinesSink struct {
	encoder *json.Encoder
}

// NewJSONLinesSink creates a sink writing to w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{encoder: json.NewEncoder(w)}
}

// Write implements Sink.
func (s *JSONLinesSink) Write(_ context.Context, _ string, entity auvo.Entity) error {
	err := s.encoder.Encode(entity)
	if err != nil {
		return auvo.NewAPIError("writing entity", err)
	}

	return nil
}

// Close implements Sink.
func (s *JSONLinesSink) Close() error {
	return nil
}
