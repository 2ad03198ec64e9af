//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"fitsync/internal/domain"
	"fitsync/testdata/utils"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.RunContainer(s.ctx,
		testcontainers.WithImage("rabbitmq:3.13-management-alpine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange",
		RoutingKey: "test-routing-key",
		QueueName:  "test-queue",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.NoError(err)
	s.NotNil(pub)

	err = pub.Close()
	s.NoError(err)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishActivity() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-activity",
		RoutingKey: "test-routing-key-activity",
		QueueName:  "test-queue-activity",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	now := time.Now().UTC().Truncate(time.Millisecond)
	activity := &domain.Activity{
		ID:               1,
		UserID:           7,
		Name:             "Morning Run",
		ActivityType:     domain.ActivityTypeRun,
		Distance:         5012,
		StartTime:        now.Add(-time.Hour),
		EndTime:          now.Add(-30 * time.Minute),
		Country:          utils.Ptr("France"),
		ElevationGain:    120,
		Pace:             0.36,
		StravaActivityID: utils.Ptr(int64(42)),
		CreatedAt:        now,
	}

	err = pub.Publish(s.ctx, activity)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)

	var received ActivityMessage
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)
	s.Equal("ingested", received.Action)
	s.Equal(int64(7), received.Activity.UserID)
	s.Equal("Morning Run", received.Activity.Name)
	s.Require().NotNil(received.Activity.StravaActivityID)
	s.Equal(int64(42), *received.Activity.StravaActivityID)
	s.False(received.Timestamp.IsZero())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_MessageFormat() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-format",
		RoutingKey: "test-routing-key-format",
		QueueName:  "test-queue-format",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	now := time.Now().UTC().Truncate(time.Millisecond)
	activity := &domain.Activity{
		ID:           2,
		UserID:       7,
		Name:         "Alpine Ride",
		ActivityType: domain.ActivityTypeRide,
		Distance:     42000,
		StartTime:    now.Add(-3 * time.Hour),
		EndTime:      now,
		City:         utils.Ptr("Annecy"),
		Country:      utils.Ptr("France"),
		Waypoints: []domain.Waypoint{
			{Lat: utils.Ptr(45.9), Lng: utils.Ptr(6.12), HeartRate: utils.Ptr(132), Pace: utils.Ptr(0.4)},
		},
		StravaActivityID: utils.Ptr(int64(99)),
		CreatedAt:        now,
	}

	err = pub.Publish(s.ctx, activity)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)

	s.Equal("application/json", msg.ContentType)

	var received ActivityMessage
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)

	s.Equal("ingested", received.Action)
	s.Equal(domain.ActivityTypeRide, received.Activity.ActivityType)
	s.Equal(42000, received.Activity.Distance)
	s.Require().NotNil(received.Activity.City)
	s.Equal("Annecy", *received.Activity.City)
	s.Require().Len(received.Activity.Waypoints, 1)
	s.Equal(45.9, *received.Activity.Waypoints[0].Lat)
	s.Equal(132, *received.Activity.Waypoints[0].HeartRate)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_MessagePersistence() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-persist",
		RoutingKey: "test-routing-key-persist",
		QueueName:  "test-queue-persist",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	activity := &domain.Activity{
		UserID:           7,
		Name:             "Persistent Run",
		ActivityType:     domain.ActivityTypeRun,
		StravaActivityID: utils.Ptr(int64(7777)),
		CreatedAt:        time.Now().UTC(),
	}

	err = pub.Publish(s.ctx, activity)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)

	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg Config) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
