package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"WeatherMetrics.influxDB/internal/config"
	"WeatherMetrics.influxDB/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	qos             = 1
	connectTimeout  = 10 * time.Second
	disconnectQuiet = 250
)

// Ingester accepts validated readings.
type Ingester interface {
	Ingest(ctx context.Context, reading models.Reading) error
}

// Subscriber feeds JSON readings published on a broker topic into the
// ingestion pipeline. Each message carries one reading payload, the same
// body POST /api/v1/weather/data accepts.
type Subscriber struct {
	cfg      config.MQTTConfig
	ingester Ingester
	logger   *zap.Logger
	client   paho.Client
	now      func() time.Time
}

func NewSubscriber(cfg config.MQTTConfig, ingester Ingester, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		cfg:      cfg,
		ingester: ingester,
		logger:   logger,
		now:      time.Now,
	}
}

// Start connects to the broker. The topic subscription is (re)established
// on every successful connect.
func (s *Subscriber) Start() error {
	opts := paho.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(s.onConnect)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.logger.Warn("MQTT connection lost", zap.Error(err))
	})

	s.client = paho.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker %s: %w", s.cfg.Broker, token.Error())
	}
	return nil
}

func (s *Subscriber) onConnect(client paho.Client) {
	token := client.Subscribe(s.cfg.Topic, qos, s.handleMessage)
	if token.Wait() && token.Error() != nil {
		s.logger.Error("MQTT subscribe failed", zap.String("topic", s.cfg.Topic), zap.Error(token.Error()))
		return
	}
	s.logger.Info("Subscribed to MQTT topic", zap.String("topic", s.cfg.Topic))
}

// Stop disconnects from the broker.
func (s *Subscriber) Stop() {
	if s.client == nil {
		return
	}
	s.client.Disconnect(disconnectQuiet)
	s.logger.Info("MQTT subscriber stopped")
}

func (s *Subscriber) handleMessage(_ paho.Client, msg paho.Message) {
	var payload models.ReadingPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		s.logger.Error("Invalid JSON payload",
			zap.String("topic", msg.Topic()),
			zap.ByteString("payload", msg.Payload()),
			zap.Error(err))
		return
	}

	reading, err := payload.ToReading(s.now())
	if err != nil {
		s.logger.Warn("Rejected MQTT reading", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	if err := s.ingester.Ingest(context.Background(), reading); err != nil {
		s.logger.Error("Failed to ingest MQTT reading",
			zap.String("sensor_id", reading.SensorID),
			zap.Error(err))
		return
	}
	s.logger.Debug("MQTT reading stored", zap.String("sensor_id", reading.SensorID))
}
