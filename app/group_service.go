package app

import (
	"context"
	"fmt"
	"strings"

	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/session"
	"decisionsim/domain/stage"
	"decisionsim/internal"
	apperrors "decisionsim/internal/errors"
	"decisionsim/ports"
)

// errOffline is returned by group operations when no collector is configured
var errOffline = &core.SyncError{Op: "collector", Message: "Coletor não configurado"}

// GroupService manages the unit, event and group identifiers that tag every
// answer sent to the collector
type GroupService struct {
	set       *stage.Set
	repo      ports.SessionRepository
	collector ports.Collector
	logger    *internal.Logger
}

// NewGroupService wires a group service. A nil collector makes every remote
// operation fail with a sync error.
func NewGroupService(set *stage.Set, repo ports.SessionRepository, collector ports.Collector, logger *internal.Logger) *GroupService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &GroupService{set: set, repo: repo, collector: collector, logger: logger.Named("group")}
}

// Current returns the stored identifiers
func (g *GroupService) Current(ctx context.Context) (session.GroupContext, error) {
	return g.repo.LoadGroup(ctx)
}

// SelectUnit resolves a unit code, fetches its active event and stores both.
// A previously registered group is forgotten.
func (g *GroupService) SelectUnit(ctx context.Context, code string) (session.GroupContext, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	unitID, ok := g.set.UnitID(code)
	if !ok {
		return session.GroupContext{}, core.NewNotFoundError("unit", code)
	}
	if g.collector == nil {
		return session.GroupContext{}, errOffline
	}
	eventID, err := g.collector.ActiveEvent(ctx, int64(unitID))
	if err != nil {
		return session.GroupContext{}, remoteError(err)
	}
	group := session.GroupContext{EventID: eventID, UnitID: int64(unitID), UnitCode: code}
	if err := g.repo.SaveGroup(ctx, group); err != nil {
		return group, fmt.Errorf("save group identifiers: %w", err)
	}
	g.logger.Info("unit %s selected, active event %d", code, eventID)
	return group, nil
}

// Register creates (or reuses) the named group for the selected unit and event
func (g *GroupService) Register(ctx context.Context, name string) (session.GroupContext, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return session.GroupContext{}, apperrors.InvalidInput("group name must not be empty")
	}
	group, err := g.repo.LoadGroup(ctx)
	if err != nil {
		return session.GroupContext{}, err
	}
	if group.EventID <= 0 || group.UnitID <= 0 {
		return group, core.NewNotFoundError("event", "select a unit first")
	}
	if g.collector == nil {
		return group, errOffline
	}
	id, err := g.collector.RegisterGroup(ctx, group.EventID, group.UnitID, name)
	if err != nil {
		return group, remoteError(err)
	}
	group.GroupID = id
	group.GroupName = name
	if err := g.repo.SaveGroup(ctx, group); err != nil {
		return group, fmt.Errorf("save group identifiers: %w", err)
	}
	g.logger.Info("group %q registered with id %d", name, id)
	return group, nil
}

// List returns the groups already registered for the selected unit and event
func (g *GroupService) List(ctx context.Context) ([]ports.Group, error) {
	group, err := g.repo.LoadGroup(ctx)
	if err != nil {
		return nil, err
	}
	if group.EventID <= 0 || group.UnitID <= 0 {
		return nil, core.NewNotFoundError("event", "select a unit first")
	}
	if g.collector == nil {
		return nil, errOffline
	}
	groups, err := g.collector.ListGroups(ctx, group.EventID, group.UnitID)
	if err != nil {
		return nil, remoteError(err)
	}
	return groups, nil
}

// Clear forgets every stored identifier
func (g *GroupService) Clear(ctx context.Context) error {
	return g.repo.SaveGroup(ctx, session.GroupContext{})
}

// RemoteScore turns the collector's accumulated totals into a displayable
// score: each aspect is clamp(initial + total). On any failure the initial
// score is returned together with the error.
func (g *GroupService) RemoteScore(ctx context.Context) (aspect.Score, error) {
	base := g.set.InitialScore()
	group, err := g.repo.LoadGroup(ctx)
	if err != nil {
		return base, err
	}
	if !group.Complete() {
		return base, core.NewNotFoundError("group", fmt.Sprintf("missing %s", strings.Join(group.Missing(), ", ")))
	}
	if g.collector == nil {
		return base, errOffline
	}
	totals, err := g.collector.GroupTotals(ctx, group.EventID, group.UnitID, group.GroupID)
	if err != nil {
		g.logger.Warn("get_group_score failed, showing initial score: %v", err)
		return base, remoteError(err)
	}
	score := base.Clone()
	for _, key := range g.set.Aspects.Keys() {
		score[key] = aspect.Clamp(base[key] + totals[key])
	}
	return score, nil
}

// remoteError tags a collector failure so HTTP layers answer 502 with the
// collector's own message
func remoteError(err error) error {
	return apperrors.ExternalServiceError("collector", err)
}
