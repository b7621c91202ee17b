package mongo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/fsmbind"
	"github.com/dmitrymomot/fsmbind/internal/testutil"
	"github.com/dmitrymomot/fsmbind/pkg/logger"
	"github.com/dmitrymomot/fsmbind/pkg/mongo"
	"github.com/dmitrymomot/fsmbind/pkg/statemachine"
)

type (
	shipmentID    string
	shipmentState string
)

type StateStoreSuite struct {
	suite.Suite
	client *driver.Client
	coll   *driver.Collection
	now    time.Time
	store  *mongo.StateStore[shipmentID, shipmentState]
}

func TestStateStoreSuite(t *testing.T) {
	ctx := context.Background()
	cfg := mongo.Config{
		ConnectionURL:  testutil.MongoURI(t),
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    10,
		RetryAttempts:  5,
		RetryInterval:  time.Second,
		Database:       "fsmbind_test",
		Collection:     "entity_states",
		OpTimeout:      5 * time.Second,
	}

	client, err := mongo.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	s := &StateStoreSuite{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	s.store = mongo.NewStateStoreFromConfig[shipmentID, shipmentState](client, cfg, mongo.WithClock(func() time.Time { return s.now }))
	suite.Run(t, s)
}

func (s *StateStoreSuite) SetupTest() {
	_, err := s.coll.DeleteMany(context.Background(), bson.D{})
	s.Require().NoError(err)
}

func (s *StateStoreSuite) TestReadMissing() {
	state, ok, err := s.store.Read("sh-1")
	s.Require().NoError(err)
	s.False(ok)
	s.Empty(state)
}

func (s *StateStoreSuite) TestUpsert() {
	s.Require().NoError(s.store.Write("sh-1", "packed"))
	s.Require().NoError(s.store.Write("sh-1", "in_transit"))

	state, ok, err := s.store.Read("sh-1")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(shipmentState("in_transit"), state)

	var doc bson.M
	s.Require().NoError(s.coll.FindOne(context.Background(), bson.D{{Key: "_id", Value: "sh-1"}}).Decode(&doc))
	s.Equal("in_transit", doc["state"])
	s.Equal(bson.NewDateTimeFromTime(s.now), doc["updated_at"])

	n, err := s.coll.CountDocuments(context.Background(), bson.D{})
	s.Require().NoError(err)
	s.EqualValues(1, n)
}

func (s *StateStoreSuite) TestDelete() {
	s.Require().NoError(s.store.Write("sh-1", "packed"))
	s.Require().NoError(s.store.Delete(context.Background(), "sh-1"))

	_, ok, err := s.store.Read("sh-1")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StateStoreSuite) TestEmptyKey() {
	_, _, err := s.store.Read("")
	s.ErrorIs(err, mongo.ErrEmptyKey)
	s.ErrorIs(s.store.Write("", "packed"), mongo.ErrEmptyKey)
}

func (s *StateStoreSuite) TestHealthcheck() {
	s.NoError(mongo.Healthcheck(s.client)(context.Background()))
}

func (s *StateStoreSuite) TestDrivenByService() {
	ctx := context.Background()
	flow := statemachine.MustNewFactory[shipmentState, string]("packed",
		statemachine.WithStates[shipmentState, string]("packed", "in_transit", "delivered"),
		statemachine.WithLogger[shipmentState, string](logger.Nop()),
		statemachine.WithTransition[shipmentState, string]("packed", "in_transit", "dispatch"),
		statemachine.WithTransition[shipmentState, string]("in_transit", "delivered", "deliver"),
	)

	svc, err := fsmbind.New[shipmentID](fsmbind.FromStateMachine(flow),
		fsmbind.WithLogger(logger.Nop()),
		fsmbind.WithCleanupInterval(0),
		fsmbind.WithAccessor[shipmentID, shipmentState](s.store),
	)
	s.Require().NoError(err)
	s.Require().NoError(svc.Start(ctx))
	defer svc.Stop(ctx)

	// No document yet: the machine starts from its initial state.
	for _, event := range []string{"dispatch", "deliver"} {
		accepted, err := svc.SendEvent(ctx, "sh-9", event)
		s.Require().NoError(err)
		s.True(accepted, event)
	}

	state, ok, err := s.store.Read("sh-9")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(shipmentState("delivered"), state)
}
