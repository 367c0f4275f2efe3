package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"example.com/geomap/command-control/internal/cache"
	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/repository"
	"example.com/geomap/command-control/internal/ws"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-memory Repository for tests
type memoryRepo struct {
	mu          sync.Mutex
	assets      map[uuid.UUID]*models.Asset
	devices     map[uuid.UUID]*models.Device
	locations   map[uuid.UUID]*models.Location
	engagements map[uuid.UUID]*models.Engagement
	events      []*models.Event
	commands    map[uuid.UUID]*models.Command
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		assets:      make(map[uuid.UUID]*models.Asset),
		devices:     make(map[uuid.UUID]*models.Device),
		locations:   make(map[uuid.UUID]*models.Location),
		engagements: make(map[uuid.UUID]*models.Engagement),
		commands:    make(map[uuid.UUID]*models.Command),
	}
}

func (m *memoryRepo) CreateAsset(ctx context.Context, a *models.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.assets[a.ID] = &cp
	return nil
}

func (m *memoryRepo) UpdateAsset(ctx context.Context, a *models.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.assets[a.ID] = &cp
	return nil
}

func (m *memoryRepo) FindAssetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) ListAssets(ctx context.Context, f repository.AssetFilter) ([]*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Asset
	for _, a := range m.assets {
		if f.IsFriendly != nil && a.IsFriendly != *f.IsFriendly {
			continue
		}
		if f.Zone != "" && a.Zone != f.Zone {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	// Same paging contract as the real store: zero limit means the default
	// page, NoLimit means the whole table.
	if f.Limit >= 0 {
		limit := f.Limit
		if limit == 0 {
			limit = 100
		}
		if len(out) > limit {
			out = out[:limit]
		}
	}
	return out, nil
}

func (m *memoryRepo) CreateDevice(ctx context.Context, d *models.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	m.devices[d.ID] = &cp
	return nil
}

func (m *memoryRepo) UpdateDevice(ctx context.Context, d *models.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.devices[d.ID] = &cp
	return nil
}

func (m *memoryRepo) FindDeviceByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memoryRepo) ListDevices(ctx context.Context, f repository.DeviceFilter) ([]*models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Device
	for _, d := range m.devices {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memoryRepo) CreateLocation(ctx context.Context, l *models.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	m.locations[l.ID] = &cp
	return nil
}

func (m *memoryRepo) UpdateLocation(ctx context.Context, l *models.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.locations[l.ID] = &cp
	return nil
}

func (m *memoryRepo) FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memoryRepo) ListLocations(ctx context.Context, limit, offset int) ([]*models.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Location
	for _, l := range m.locations {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memoryRepo) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, id)
	return nil
}

func (m *memoryRepo) CreateEngagement(ctx context.Context, e *models.Engagement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	m.engagements[e.ID] = &cp
	return nil
}

func (m *memoryRepo) UpdateEngagement(ctx context.Context, e *models.Engagement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.engagements[e.ID] = &cp
	return nil
}

func (m *memoryRepo) FindEngagementByID(ctx context.Context, id uuid.UUID) (*models.Engagement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.engagements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memoryRepo) ListEngagements(ctx context.Context, f repository.EngagementFilter) ([]*models.Engagement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Engagement
	for _, e := range m.engagements {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memoryRepo) DeleteEngagement(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.engagements, id)
	return nil
}

func (m *memoryRepo) CreateEvent(ctx context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	m.events = append(m.events, &cp)
	return nil
}

func (m *memoryRepo) ListEvents(ctx context.Context, f repository.EventFilter) ([]*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Event, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *memoryRepo) CreateCommand(ctx context.Context, c *models.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.commands[c.ID] = &cp
	return nil
}

func (m *memoryRepo) UpdateCommand(ctx context.Context, c *models.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.commands[c.ID] = &cp
	return nil
}

func (m *memoryRepo) FindCommandByID(ctx context.Context, id uuid.UUID) (*models.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.commands[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memoryRepo) ListCommands(ctx context.Context, f repository.CommandFilter) ([]*models.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Command
	for _, c := range m.commands {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// fakeBus records Service Bus publishes
type fakeBus struct {
	mu    sync.Mutex
	sends int
	fail  bool
}

func (f *fakeBus) SendMessage(ctx context.Context, body interface{}, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.sends++
	return nil
}

func (f *fakeBus) Close() error { return nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestService(t *testing.T, repo repository.Repository) Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		Repository: repo,
		Messaging:  &fakeBus{},
		Registry:   ws.NewRegistry(quietLogger(), time.Second),
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	return svc
}

func createPendingEngagement(t *testing.T, svc Service) *models.Engagement {
	t.Helper()
	e := &models.Engagement{Name: "Intercept Bravo"}
	require.NoError(t, svc.CreateEngagement(context.Background(), e))
	require.Equal(t, models.EngagementStatusPending, e.Status)
	return e
}

func TestEngagementHappyPath(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()
	e := createPendingEngagement(t, svc)

	got, err := svc.ApplyEngagementAction(ctx, e.ID, ActionConfirm)
	require.NoError(t, err)
	require.Equal(t, models.EngagementStatusActive, got.Status)
	require.Equal(t, 0.0, got.Progress)

	got, err = svc.ApplyEngagementAction(ctx, e.ID, ActionEngage)
	require.NoError(t, err)
	require.Equal(t, models.EngagementStatusEngaging, got.Status)

	got, err = svc.ApplyEngagementAction(ctx, e.ID, ActionLaunchMissile)
	require.NoError(t, err)
	require.Equal(t, models.EngagementStatusMissileInFlight, got.Status)
	require.Equal(t, 0.0, got.Progress)

	// missile_in_flight is a dead end: complete requires engaging
	_, err = svc.ApplyEngagementAction(ctx, e.ID, ActionComplete)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "missile_in_flight", invalid.Current)
	require.Equal(t, "complete", invalid.Action)
}

func TestConfirmTwiceFails(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()
	e := createPendingEngagement(t, svc)

	_, err := svc.ApplyEngagementAction(ctx, e.ID, ActionConfirm)
	require.NoError(t, err)

	_, err = svc.ApplyEngagementAction(ctx, e.ID, ActionConfirm)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "active", invalid.Current)
	require.Equal(t, "confirm", invalid.Action)
}

func TestAbortOnlyFromPendingOrActive(t *testing.T) {
	ctx := context.Background()

	t.Run("from pending", func(t *testing.T) {
		svc := newTestService(t, newMemoryRepo())
		e := createPendingEngagement(t, svc)
		got, err := svc.ApplyEngagementAction(ctx, e.ID, ActionAbort)
		require.NoError(t, err)
		require.Equal(t, models.EngagementStatusCancelled, got.Status)
	})

	t.Run("from active", func(t *testing.T) {
		svc := newTestService(t, newMemoryRepo())
		e := createPendingEngagement(t, svc)
		_, err := svc.ApplyEngagementAction(ctx, e.ID, ActionConfirm)
		require.NoError(t, err)
		got, err := svc.ApplyEngagementAction(ctx, e.ID, ActionAbort)
		require.NoError(t, err)
		require.Equal(t, models.EngagementStatusCancelled, got.Status)
	})

	t.Run("from engaging rejected", func(t *testing.T) {
		svc := newTestService(t, newMemoryRepo())
		e := createPendingEngagement(t, svc)
		_, err := svc.ApplyEngagementAction(ctx, e.ID, ActionConfirm)
		require.NoError(t, err)
		_, err = svc.ApplyEngagementAction(ctx, e.ID, ActionEngage)
		require.NoError(t, err)

		_, err = svc.ApplyEngagementAction(ctx, e.ID, ActionAbort)
		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		require.Equal(t, "engaging", invalid.Current)
	})
}

func TestCompleteSetsProgressTo100(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()
	e := createPendingEngagement(t, svc)

	_, err := svc.ApplyEngagementAction(ctx, e.ID, ActionConfirm)
	require.NoError(t, err)
	_, err = svc.ApplyEngagementAction(ctx, e.ID, ActionEngage)
	require.NoError(t, err)

	got, err := svc.ApplyEngagementAction(ctx, e.ID, ActionComplete)
	require.NoError(t, err)
	require.Equal(t, models.EngagementStatusCompleted, got.Status)
	require.Equal(t, 100.0, got.Progress)
}

func TestTerminalStatesNeverTransition(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()
	e := createPendingEngagement(t, svc)
	_, err := svc.ApplyEngagementAction(ctx, e.ID, ActionAbort)
	require.NoError(t, err)

	for _, action := range []EngagementAction{ActionConfirm, ActionAbort, ActionEngage, ActionLaunchMissile, ActionComplete} {
		_, err := svc.ApplyEngagementAction(ctx, e.ID, action)
		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid, "action %s must be rejected from cancelled", action)
	}
}

func TestTransitionRecordsEvent(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()
	e := createPendingEngagement(t, svc)

	_, err := svc.ApplyEngagementAction(ctx, e.ID, ActionConfirm)
	require.NoError(t, err)

	events, err := svc.ListEvents(ctx, repository.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "status_change", events[0].EventType)
	require.Equal(t, e.ID, *events[0].EngagementID)
	require.Equal(t, "pending", events[0].Details["from"])
	require.Equal(t, "active", events[0].Details["to"])
}

func TestConcurrentConfirmOnlyOneSucceeds(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()
	e := createPendingEngagement(t, svc)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyEngagementAction(ctx, e.ID, ActionConfirm)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			var invalid *InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
		}
	}
	require.Equal(t, 1, succeeded)
}

func TestEngagementActionNotFound(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())

	_, err := svc.ApplyEngagementAction(context.Background(), uuid.New(), ActionConfirm)

	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSoftDeleteAssetTwice(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()

	asset := &models.Asset{Name: "Drone-LA-101", AssetType: models.AssetTypeDrone, IsActive: true, IsFriendly: true}
	require.NoError(t, svc.CreateAsset(ctx, asset))

	require.NoError(t, svc.DeleteAsset(ctx, asset.ID))
	require.NoError(t, svc.DeleteAsset(ctx, asset.ID))

	got, err := svc.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestNearbyAssets(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()

	lat, lon := 34.05, -118.25
	exact := &models.Asset{Name: "at-query-point", AssetType: models.AssetTypeSensor, Lat: &lat, Lon: &lon, IsActive: true}
	require.NoError(t, svc.CreateAsset(ctx, exact))

	noCoords := &models.Asset{Name: "no-coords", AssetType: models.AssetTypeSensor, IsActive: true}
	require.NoError(t, svc.CreateAsset(ctx, noCoords))

	farLat, farLon := 40.7, -74.0
	far := &models.Asset{Name: "far-away", AssetType: models.AssetTypeSensor, Lat: &farLat, Lon: &farLon, IsActive: true}
	require.NoError(t, svc.CreateAsset(ctx, far))

	// exact point with zero radius is included; missing coords always excluded
	nearby, err := svc.NearbyAssets(ctx, 34.05, -118.25, 0, nil)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	require.Equal(t, "at-query-point", nearby[0].Name)

	nearby, err = svc.NearbyAssets(ctx, 34.05, -118.25, 1000000, nil)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, a := range nearby {
		names[a.Name] = true
	}
	require.True(t, names["at-query-point"])
	require.True(t, names["far-away"])
	require.False(t, names["no-coords"])
}

func TestNearbyAssetsScansBeyondDefaultPage(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		lat, lon := 34.05, -118.25
		a := &models.Asset{Name: fmt.Sprintf("sensor-%03d", i), AssetType: models.AssetTypeSensor, Lat: &lat, Lon: &lon, IsActive: true}
		require.NoError(t, svc.CreateAsset(ctx, a))
	}

	nearby, err := svc.NearbyAssets(ctx, 34.05, -118.25, 10, nil)
	require.NoError(t, err)
	require.Len(t, nearby, 150)
}

func TestDispatchCommandMarksSent(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	cmd := &models.Command{CommandType: models.CommandPatrol}
	require.NoError(t, svc.DispatchCommand(ctx, cmd))
	require.Equal(t, models.CommandStatusSent, cmd.Status)

	stored, err := svc.GetCommand(ctx, cmd.ID)
	require.NoError(t, err)
	require.Equal(t, models.CommandStatusSent, stored.Status)
}

func TestDispatchCommandPublishFailureLeavesPending(t *testing.T) {
	repo := newMemoryRepo()
	svc, err := NewService(ServiceConfig{
		Repository: repo,
		Messaging:  &fakeBus{fail: true},
		Logger:     quietLogger(),
	})
	require.NoError(t, err)

	cmd := &models.Command{CommandType: models.CommandSurvey}
	require.NoError(t, svc.DispatchCommand(context.Background(), cmd))
	require.Equal(t, models.CommandStatusPending, cmd.Status)
}

func TestCommandAcknowledgeOnce(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()

	cmd := &models.Command{CommandType: models.CommandEngage}
	require.NoError(t, svc.DispatchCommand(ctx, cmd))

	got, err := svc.AcknowledgeCommand(ctx, cmd.ID)
	require.NoError(t, err)
	require.Equal(t, models.CommandStatusAcknowledged, got.Status)
	require.NotNil(t, got.AcknowledgedAt)

	_, err = svc.AcknowledgeCommand(ctx, cmd.ID)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "acknowledged", invalid.Current)
}

func TestCommandFailRecordsReason(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()

	cmd := &models.Command{CommandType: models.CommandReturn}
	require.NoError(t, svc.DispatchCommand(ctx, cmd))

	got, err := svc.FailCommand(ctx, cmd.ID, "no route to asset")
	require.NoError(t, err)
	require.Equal(t, models.CommandStatusFailed, got.Status)
	require.Equal(t, "no route to asset", got.ErrorMessage)
	require.NotNil(t, got.FailedAt)

	_, err = svc.FailCommand(ctx, cmd.ID, "again")
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestZoneDerivedOnCreate(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()

	lat, lon := 34.05, -118.25
	asset := &models.Asset{Name: "Drone-LA-200", AssetType: models.AssetTypeDrone, Lat: &lat, Lon: &lon}
	require.NoError(t, svc.CreateAsset(ctx, asset))
	require.Equal(t, "LA", asset.Zone)
}

// fakeCache is a map-backed cache.RedisClient; getErr simulates an outage.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.entries[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeCache) Close() error { return nil }

func newCachedTestService(t *testing.T, repo repository.Repository, c *fakeCache) Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		Repository: repo,
		Cache:      c,
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	return svc
}

func TestGetAssetReadsThroughCache(t *testing.T) {
	repo := newMemoryRepo()
	svc := newCachedTestService(t, repo, newFakeCache())
	ctx := context.Background()

	asset := &models.Asset{Name: "cached-sensor", AssetType: models.AssetTypeSensor, IsActive: true}
	require.NoError(t, svc.CreateAsset(ctx, asset))

	got, err := svc.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	require.Equal(t, "cached-sensor", got.Name)

	// The second read is served from the cache: a rename that bypasses the
	// service is not visible until the entry is invalidated.
	stored, err := repo.FindAssetByID(ctx, asset.ID)
	require.NoError(t, err)
	stored.Name = "renamed-behind-the-cache"
	require.NoError(t, repo.UpdateAsset(ctx, stored))

	got, err = svc.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	require.Equal(t, "cached-sensor", got.Name)
}

func TestGetAssetSurvivesCacheOutage(t *testing.T) {
	repo := newMemoryRepo()
	c := newFakeCache()
	c.getErr = errors.New("connection refused")
	svc := newCachedTestService(t, repo, c)
	ctx := context.Background()

	asset := &models.Asset{Name: "resilient-sensor", AssetType: models.AssetTypeSensor, IsActive: true}
	require.NoError(t, svc.CreateAsset(ctx, asset))

	got, err := svc.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	require.Equal(t, "resilient-sensor", got.Name)
}
